// Package commands implements the taskpilot CLI commands using cobra.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/marcus/taskpilot/internal/config"
	"github.com/marcus/taskpilot/internal/logging"
)

var (
	// Version is set at build time
	Version = "0.1.0"
)

var (
	configFlag  string
	verboseFlag bool

	// cfg is loaded once in the root PersistentPreRunE and shared by all
	// commands.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "taskpilot",
	Short: "Chat-driven task manager",
	Long: `Taskpilot manages your task list through plain conversation.

Tell it what you need ("add a task to pay rent by friday", "what's on my
plate?", "mark task 3 done") and it keeps the list ordered by what is
actually urgent. Deadlines escalate automatically and duplicates get
merged away.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configFlag)
		if err != nil {
			return err
		}
		cfg = loaded

		if verboseFlag {
			cfg.Logging.Level = "debug"
		}
		return logging.Init(cfg.Logging)
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Config file (default ~/.config/taskpilot/taskpilot.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
}
