package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/marcus/taskpilot/internal/task"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show task statistics",
	Long: `Show aggregate counts by status and by effective priority.

Priority counts include deadline escalation, so a low-priority task due in
an hour counts as high here.`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().Bool("json", false, "Output as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	stats, err := st.Stats(time.Now())
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Printf("Total tasks: %d\n\n", stats.Total)
	fmt.Println("By status:")
	for _, status := range []task.Status{task.StatusPending, task.StatusInProgress, task.StatusCompleted} {
		fmt.Printf("  %-12s %d\n", status, stats.ByStatus[status])
	}
	fmt.Println("\nBy effective priority:")
	for _, priority := range []task.Priority{task.PriorityHigh, task.PriorityMedium, task.PriorityLow} {
		fmt.Printf("  %-12s %d\n", priority, stats.ByPriority[priority])
	}
	return nil
}
