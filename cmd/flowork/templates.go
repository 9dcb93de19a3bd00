package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/floworkhq/flowork/pkg/flowork/storage"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List or export bundled workflow templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		catalog, err := storage.NewCatalog(settings.TemplatesPath)
		if err != nil {
			return err
		}
		for _, md := range catalog.List() {
			fmt.Printf("%-40s %-30s %d nodes\n", md.ID, md.Name, md.NodeCount)
		}
		return nil
	},
}

var templatesExportCmd = &cobra.Command{
	Use:   "export <template-id>",
	Short: "Print a template's JSON definition to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		catalog, err := storage.NewCatalog(settings.TemplatesPath)
		if err != nil {
			return err
		}
		tpl, err := catalog.Load(args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tpl)
	},
}

func init() {
	templatesCmd.AddCommand(templatesExportCmd)
	rootCmd.AddCommand(templatesCmd)
}
