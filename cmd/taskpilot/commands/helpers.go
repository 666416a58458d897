package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/marcus/taskpilot/internal/agent"
	"github.com/marcus/taskpilot/internal/config"
	"github.com/marcus/taskpilot/internal/db"
	"github.com/marcus/taskpilot/internal/dedupe"
	"github.com/marcus/taskpilot/internal/embedding"
	"github.com/marcus/taskpilot/internal/events"
	"github.com/marcus/taskpilot/internal/executor"
	"github.com/marcus/taskpilot/internal/intent"
	"github.com/marcus/taskpilot/internal/logging"
	"github.com/marcus/taskpilot/internal/nlu"
	"github.com/marcus/taskpilot/internal/store"
	"github.com/marcus/taskpilot/internal/task"
	"github.com/marcus/taskpilot/internal/tools"
)

// openStore opens the configured database and returns the store plus a
// cleanup function.
func openStore(cfg *config.Config) (*store.Store, func(), error) {
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return store.New(database), func() { _ = database.Close() }, nil
}

// eventSink builds the async event pipeline over the structured log.
func eventSink() *events.AsyncSink {
	return events.NewAsyncSink(events.NewLogSink(logging.Component("events")), 256)
}

// buildOracle creates the extraction oracle, or returns nil when the oracle
// is disabled or no API key is present. A nil extractor means rules only,
// which is always safe.
func buildOracle(ctx context.Context, cfg *config.Config) nlu.Extractor {
	if !cfg.Oracle.Enabled || cfg.Oracle.APIKey == "" {
		return nil
	}
	extractor, err := nlu.NewGenAIExtractor(ctx, cfg.Oracle.APIKey, cfg.Oracle.Model, cfg.OracleTimeout())
	if err != nil {
		logging.Get().Err(err).Msg("oracle unavailable, running rules only")
		return nil
	}
	return extractor
}

// buildResponder reuses the oracle client for reply polishing when available.
func buildResponder(extractor nlu.Extractor) nlu.Responder {
	if responder, ok := extractor.(nlu.Responder); ok {
		return responder
	}
	return nil
}

// buildDeduper wires the embedding engine into a dedup engine, or returns
// nil when no embedding backend can be constructed.
func buildDeduper(ctx context.Context, cfg *config.Config, st *store.Store, sink events.Sink) *dedupe.Engine {
	engine, err := embedding.NewEngine(ctx, cfg.Embedding)
	if err != nil {
		logging.Get().Err(err).Msg("embedding engine unavailable, dedup disabled")
		return nil
	}
	return dedupe.New(st, engine, cfg.Dedupe.Threshold, sink)
}

// buildCalendar creates the calendar client when credentials are configured.
func buildCalendar(ctx context.Context, cfg *config.Config) executor.CalendarAdder {
	if cfg.Calendar.CredentialsFile == "" {
		return nil
	}
	client, err := tools.NewCalendarClient(ctx, cfg.Calendar)
	if err != nil {
		logging.Get().Err(err).Msg("calendar unavailable")
		return nil
	}
	return client
}

// buildAgent assembles the full conversational stack.
func buildAgent(ctx context.Context, cfg *config.Config, st *store.Store, sink events.Sink) *agent.Agent {
	extractor := buildOracle(ctx, cfg)
	deduper := buildDeduper(ctx, cfg, st, sink)
	calendar := buildCalendar(ctx, cfg)

	router := intent.NewRouter(extractor, sink)
	exec := executor.New(st, deduper, calendar, sink)
	return agent.New(router, exec, buildResponder(extractor))
}

// printTasks renders tasks as an aligned table.
func printTasks(tasks []task.Task, now time.Time) {
	if len(tasks) == 0 {
		fmt.Println("No tasks.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tDUE\tTITLE")
	for _, t := range tasks {
		effective := task.EffectivePriority(t, now)
		priority := string(effective)
		if effective != t.Priority {
			priority = fmt.Sprintf("%s (from %s)", effective, t.Priority)
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.Status, priority, formatDue(t.DueAt), t.Title)
	}
	_ = w.Flush()
	fmt.Printf("\n%d task(s)\n", len(tasks))
}

func formatDue(due *time.Time) string {
	if due == nil {
		return "-"
	}
	return due.Local().Format("2006-01-02 15:04")
}
