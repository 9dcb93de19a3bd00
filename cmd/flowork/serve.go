package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/floworkhq/flowork/internal/api"
	"github.com/floworkhq/flowork/pkg/flowork"
	"github.com/floworkhq/flowork/pkg/flowork/llm"
	"github.com/floworkhq/flowork/pkg/flowork/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the workflow HTTP server",
	Long:  `Starts the HTTP API for creating, editing, and executing workflows.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		if err := settings.Validate(); err != nil {
			return err
		}
		logger := newLogger(settings)

		store, err := storage.NewFileStore(settings.StoragePath)
		if err != nil {
			return fmt.Errorf("open workflow store: %w", err)
		}
		defer store.Close()

		templates, err := storage.NewCatalog(settings.TemplatesPath)
		if err != nil {
			return fmt.Errorf("load templates: %w", err)
		}

		client := llm.NewGroq(settings.GroqAPIKey,
			llm.WithModel(settings.ModelName),
			llm.WithTemperature(settings.Temperature),
		)
		compiler := flowork.NewCompiler(client,
			flowork.WithRecursionLimits(settings.RecursionMultiplier, settings.RecursionBase),
			flowork.WithModelTimeout(settings.ModelTimeout),
			flowork.WithLogger(logger),
		)
		cache := flowork.NewGraphCache(compiler)

		server := api.NewServer(store, templates, cache, logger)
		srv := &http.Server{
			Addr:    settings.ListenAddr,
			Handler: server.Handler(),
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("server starting", "addr", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("shutting down", "signal", sig.String())
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				srv.Close()
				return fmt.Errorf("graceful shutdown: %w", err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
