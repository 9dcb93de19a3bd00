package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/floworkhq/flowork/pkg/flowork"
	"github.com/floworkhq/flowork/pkg/flowork/llm"
	"github.com/floworkhq/flowork/pkg/flowork/steplog"
)

var runCmd = &cobra.Command{
	Use:   "run <workflow.json>",
	Short: "Execute a workflow from a JSON file",
	Long: `Compiles the workflow definition in the given file and runs it with
the input supplied via --input, printing the final output and trace.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		if err := settings.Validate(); err != nil {
			return err
		}
		logger := newLogger(settings)

		input, _ := cmd.Flags().GetString("input")
		if input == "" {
			return fmt.Errorf("--input is required")
		}

		wf, err := readWorkflow(args[0])
		if err != nil {
			return err
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

		graph, err := compiler.Compile(wf)
		if err != nil {
			return err
		}

		runOpts := []flowork.RunOption{}
		if stepLogPath, _ := cmd.Flags().GetString("step-log"); stepLogPath != "" {
			store, err := steplog.NewSQLiteStore(stepLogPath)
			if err != nil {
				return fmt.Errorf("open step log: %w", err)
			}
			defer store.Close()
			runOpts = append(runOpts, flowork.WithStepLog(store))
		}

		state, steps, err := graph.Run(cmd.Context(), input, runOpts...)
		if err != nil {
			return err
		}

		summary := flowork.Summarize(state)
		fmt.Println(summary.FinalOutput)

		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			fmt.Fprintln(os.Stderr)
			for i, step := range steps {
				fmt.Fprintf(os.Stderr, "%3d. %s --[%s]--> %s\n", i+1, step.NodeID, step.Key, step.Target)
			}
		}
		if summary.HasError {
			os.Exit(1)
		}
		return nil
	},
}

func readWorkflow(path string) (*flowork.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow file: %w", err)
	}
	var wf flowork.Workflow
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parse workflow file: %w", err)
	}
	return &wf, nil
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("input", "i", "", "Input text for the workflow")
	runCmd.Flags().String("step-log", "", "SQLite file to record each routing step")
	runCmd.Flags().BoolP("verbose", "v", false, "Print the routing trace to stderr")
}
