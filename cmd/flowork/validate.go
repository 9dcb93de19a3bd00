package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <workflow.json>",
	Short: "Validate a workflow definition",
	Long:  `Checks the workflow's structure and routing rules without executing it.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wf, err := readWorkflow(args[0])
		if err != nil {
			return err
		}
		if err := wf.Validate(); err != nil {
			return fmt.Errorf("workflow %q is invalid:\n%w", wf.Name, err)
		}
		fmt.Printf("workflow %q is valid (%d nodes)\n", wf.Name, len(wf.Nodes))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
