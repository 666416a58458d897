package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/marcus/taskpilot/internal/intent"
	"github.com/marcus/taskpilot/internal/store"
	"github.com/marcus/taskpilot/internal/task"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks directly",
	Long:  `Structured task operations, for scripting or when chat feels like overkill.`,
}

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task",
	Long: `Add a task with explicit fields.

The due date accepts the same phrases chat does: "tomorrow", "friday",
"in 3 days", or an exact date like 2026-09-01.`,
	Args: cobra.ExactArgs(1),
	RunE: runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks ordered by urgency",
	Long: `List tasks ordered by effective priority, then due date.

Use --status to filter, --json to output as JSON for scripting.`,
	RunE: runTaskList,
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDone,
}

var taskRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskRm,
}

func init() {
	taskAddCmd.Flags().StringP("description", "d", "", "Task description")
	taskAddCmd.Flags().String("due", "", "Due date (e.g. tomorrow, friday, 2026-09-01)")
	taskAddCmd.Flags().StringP("priority", "p", "medium", "Priority (low, medium, high)")

	taskListCmd.Flags().StringP("status", "s", "", "Filter by status (pending, in_progress, completed)")
	taskListCmd.Flags().Bool("json", false, "Output as JSON")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskRmCmd)
	rootCmd.AddCommand(taskCmd)
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	description, _ := cmd.Flags().GetString("description")
	duePhrase, _ := cmd.Flags().GetString("due")
	priorityFlag, _ := cmd.Flags().GetString("priority")

	priority, err := task.ParsePriority(priorityFlag)
	if err != nil {
		return err
	}

	params := store.CreateParams{
		Title:       args[0],
		Description: description,
		Priority:    priority,
	}
	if duePhrase != "" {
		due, err := intent.ResolveDueDate(duePhrase, time.Now())
		if err != nil {
			return err
		}
		params.DueAt = &due
	}

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	created, err := st.Create(params)
	if err != nil {
		return err
	}

	fmt.Printf("Created task %d: %q (%s priority, due %s)\n",
		created.ID, created.Title, created.Priority, formatDue(created.DueAt))
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	statusFlag, _ := cmd.Flags().GetString("status")
	asJSON, _ := cmd.Flags().GetBool("json")

	var filter store.Filter
	if statusFlag != "" {
		status, err := task.ParseStatus(statusFlag)
		if err != nil {
			return err
		}
		filter.Status = &status
	}

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	now := time.Now()
	tasks, err := st.List(filter, now)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tasks)
	}

	printTasks(tasks, now)
	return nil
}

func runTaskDone(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	done := task.StatusCompleted
	updated, err := st.Update(id, store.UpdateParams{Status: &done})
	if err != nil {
		return err
	}

	fmt.Printf("Marked task %d (%q) as completed.\n", updated.ID, updated.Title)
	return nil
}

func runTaskRm(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	removed, err := st.Delete(id)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("no task with id %d", id)
	}

	fmt.Printf("Deleted task %d.\n", id)
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}
