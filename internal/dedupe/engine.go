// Package dedupe finds and merges semantically duplicate tasks. Similarity
// comes from the embedding engine; merging is a deterministic policy applied
// on top of the store's atomic merge primitive.
package dedupe

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/marcus/taskpilot/internal/embedding"
	"github.com/marcus/taskpilot/internal/events"
	"github.com/marcus/taskpilot/internal/logging"
	"github.com/marcus/taskpilot/internal/store"
	"github.com/marcus/taskpilot/internal/task"
)

// DefaultThreshold is the similarity score at or above which two tasks are
// considered duplicates. Scores are on the fixed [0,1] scale produced by
// embedding.Similarity.
const DefaultThreshold = 0.92

// Pair is a candidate duplicate pair. A always has the lower id.
type Pair struct {
	A     task.Task `json:"a"`
	B     task.Task `json:"b"`
	Score float64   `json:"score"`
}

// Merge records one applied merge.
type Merge struct {
	Survivor task.Task `json:"survivor"`
	LoserID  int64     `json:"loser_id"`
	Score    float64   `json:"score"`
}

// Report summarizes a dedup pass.
type Report struct {
	Scanned    int     `json:"scanned"`
	Candidates []Pair  `json:"candidates"`
	Merges     []Merge `json:"merges"`
}

// Engine runs dedup passes over the task store.
type Engine struct {
	store     *store.Store
	embedder  embedding.Engine
	threshold float64
	sink      events.Sink
	log       *logging.Logger
}

// New creates a dedup engine. threshold <= 0 selects DefaultThreshold.
func New(st *store.Store, embedder embedding.Engine, threshold float64, sink events.Sink) *Engine {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if sink == nil {
		sink = events.Discard{}
	}
	return &Engine{
		store:     st,
		embedder:  embedder,
		threshold: threshold,
		sink:      sink,
		log:       logging.Component("dedupe"),
	}
}

// FindDuplicates embeds every task and returns all pairs scoring at or above
// the threshold, highest score first. Nothing is modified.
func (e *Engine) FindDuplicates(ctx context.Context) ([]Pair, int, error) {
	tasks, err := e.store.All()
	if err != nil {
		return nil, 0, err
	}
	if len(tasks) < 2 {
		return nil, len(tasks), nil
	}

	texts := make([]string, len(tasks))
	for i, t := range tasks {
		texts[i] = embedText(t)
	}

	vectors, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, 0, fmt.Errorf("embed tasks: %w", err)
	}

	var pairs []Pair
	for i := 0; i < len(tasks); i++ {
		for j := i + 1; j < len(tasks); j++ {
			score, err := embedding.Similarity(vectors[i], vectors[j])
			if err != nil {
				return nil, 0, err
			}
			if score >= e.threshold {
				pairs = append(pairs, Pair{A: tasks[i], B: tasks[j], Score: score})
			}
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].Score != pairs[j].Score {
			return pairs[i].Score > pairs[j].Score
		}
		return pairs[i].A.ID < pairs[j].A.ID
	})
	return pairs, len(tasks), nil
}

// Run executes a full dedup pass: find candidates, then merge them highest
// score first. Once a task has been consumed as the loser of a merge, any
// remaining pair involving it is skipped rather than re-merged.
func (e *Engine) Run(ctx context.Context) (Report, error) {
	pairs, scanned, err := e.FindDuplicates(ctx)
	if err != nil {
		return Report{}, err
	}

	report := Report{Scanned: scanned, Candidates: pairs}
	consumed := make(map[int64]bool)

	for _, p := range pairs {
		if consumed[p.A.ID] || consumed[p.B.ID] {
			continue
		}

		// Earlier merges may have rewritten either task; merge against the
		// current rows, not the snapshots taken during detection.
		a, err := e.store.Get(p.A.ID)
		if err != nil {
			return report, fmt.Errorf("reload task %d: %w", p.A.ID, err)
		}
		b, err := e.store.Get(p.B.ID)
		if err != nil {
			return report, fmt.Errorf("reload task %d: %w", p.B.ID, err)
		}

		survivor, loser := pick(a, b)
		merged := merge(survivor, loser)

		applied, err := e.store.ApplyMerge(merged, loser.ID)
		if err != nil {
			return report, fmt.Errorf("merge %d into %d: %w", loser.ID, survivor.ID, err)
		}

		consumed[loser.ID] = true
		report.Merges = append(report.Merges, Merge{Survivor: applied, LoserID: loser.ID, Score: p.Score})
		e.sink.Emit(events.New(events.DedupeMerged, map[string]any{
			"survivor_id": applied.ID,
			"loser_id":    loser.ID,
			"score":       p.Score,
		}))
		e.log.InfoCtx("merged duplicate", map[string]any{
			"survivor_id": applied.ID,
			"loser_id":    loser.ID,
			"score":       fmt.Sprintf("%.3f", p.Score),
		})
	}

	e.sink.Emit(events.New(events.DedupeCompleted, map[string]any{
		"scanned":    scanned,
		"candidates": len(pairs),
		"merged":     len(report.Merges),
	}))
	return report, nil
}

// embedText is the text a task is embedded under: the title, plus the
// description when present.
func embedText(t task.Task) string {
	if t.Description == "" {
		return t.Title
	}
	return t.Title + "\n" + t.Description
}

// pick decides which of a duplicate pair survives: the earlier created task,
// with id as the tiebreaker.
func pick(a, b task.Task) (survivor, loser task.Task) {
	if b.CreatedAt.Before(a.CreatedAt) || (b.CreatedAt.Equal(a.CreatedAt) && b.ID < a.ID) {
		return b, a
	}
	return a, b
}

// merge folds the loser's fields into the survivor: the higher base priority
// wins, the earlier due date wins, and distinct descriptions are joined so no
// detail is lost.
func merge(survivor, loser task.Task) task.Task {
	merged := survivor.Clone()

	merged.Priority = task.Max(survivor.Priority, loser.Priority)

	switch {
	case merged.DueAt == nil:
		merged.DueAt = loser.DueAt
	case loser.DueAt != nil && loser.DueAt.Before(*merged.DueAt):
		due := *loser.DueAt
		merged.DueAt = &due
	}

	if d := strings.TrimSpace(loser.Description); d != "" && !strings.Contains(merged.Description, d) {
		if merged.Description == "" {
			merged.Description = d
		} else {
			merged.Description = merged.Description + "\n" + d
		}
	}

	merged.UpdatedAt = time.Now().UTC()
	return merged
}
