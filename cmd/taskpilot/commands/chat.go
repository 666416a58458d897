package commands

import (
	"github.com/spf13/cobra"

	"github.com/marcus/taskpilot/internal/ui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Open the interactive chat terminal.

Everything you type is interpreted as a task request: creating, listing,
updating, and deleting tasks, showing stats, or cleaning up duplicates.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, closeStore, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		sink := eventSink()
		defer sink.Close()

		return ui.Run(buildAgent(cmd.Context(), cfg, st, sink))
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
