package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/floworkhq/flowork/pkg/flowork/config"
)

var rootCmd = &cobra.Command{
	Use:   "flowork",
	Short: "Flowork builds and runs LLM prompt workflows",
	Long: `Flowork compiles workflows of prompt nodes into executable graphs.
Each node sends its prompt to a language model and routes to the next
node based on a routing key the model appends to its output.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (environment variables override it)")
}

// loadSettings reads configuration for the invoked command.
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// newLogger builds a text slog logger at the configured level.
func newLogger(settings *config.Settings) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(settings.SlogLevel())); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
