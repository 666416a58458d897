package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Find and merge duplicate tasks",
	Long: `Scan the task list for semantic duplicates and merge them.

Two tasks count as duplicates when their embeddings are more similar than
the configured threshold. The earlier task survives a merge; it keeps the
higher priority and the earlier due date of the pair.

Use --dry-run to see what would be merged without changing anything.`,
	RunE: runDedupe,
}

func init() {
	dedupeCmd.Flags().Bool("dry-run", false, "Report duplicates without merging")
	rootCmd.AddCommand(dedupeCmd)
}

func runDedupe(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	sink := eventSink()
	defer sink.Close()

	engine := buildDeduper(cmd.Context(), cfg, st, sink)
	if engine == nil {
		return fmt.Errorf("no embedding backend available; configure embedding.provider or set GEMINI_API_KEY")
	}

	if dryRun {
		pairs, scanned, err := engine.FindDuplicates(cmd.Context())
		if err != nil {
			return err
		}
		if len(pairs) == 0 {
			fmt.Printf("Checked %d task(s); no duplicates found.\n", scanned)
			return nil
		}
		fmt.Printf("Checked %d task(s); %d candidate pair(s):\n", scanned, len(pairs))
		for _, p := range pairs {
			fmt.Printf("  %3d %q  ~  %3d %q  (%.0f%%)\n", p.A.ID, p.A.Title, p.B.ID, p.B.Title, p.Score*100)
		}
		return nil
	}

	report, err := engine.Run(cmd.Context())
	if err != nil {
		return err
	}
	if len(report.Merges) == 0 {
		fmt.Printf("Checked %d task(s); no duplicates found.\n", report.Scanned)
		return nil
	}
	for _, m := range report.Merges {
		fmt.Printf("Merged task %d into task %d (%q, %.0f%%)\n", m.LoserID, m.Survivor.ID, m.Survivor.Title, m.Score*100)
	}
	fmt.Printf("\n%d merge(s) applied.\n", len(report.Merges))
	return nil
}
