package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export all tasks to a JSON snapshot",
	Long: `Write every task, including ids and timestamps, to a JSON file.

The snapshot round-trips losslessly through import.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, closeStore, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		if err := st.ExportFile(args[0]); err != nil {
			return err
		}
		fmt.Printf("Exported tasks to %s\n", args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace all tasks from a JSON snapshot",
	Long: `Load tasks from a snapshot written by export.

This replaces the entire task list. The snapshot is validated first; an
invalid file leaves the current list untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, closeStore, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		if err := st.ImportFile(args[0]); err != nil {
			return err
		}
		fmt.Printf("Imported tasks from %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
