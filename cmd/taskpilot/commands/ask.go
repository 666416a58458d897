package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <request...>",
	Short: "Handle one request and exit",
	Long: `Run a single natural-language request without opening the chat UI.

Examples:
  taskpilot ask add a task to renew my passport by friday
  taskpilot ask "what's on my plate today?"
  taskpilot ask mark task 3 as done`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, closeStore, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		sink := eventSink()
		defer sink.Close()

		a := buildAgent(cmd.Context(), cfg, st, sink)
		reply := a.Handle(cmd.Context(), strings.Join(args, " "))
		fmt.Println(reply.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
