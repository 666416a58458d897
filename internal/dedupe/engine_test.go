package dedupe

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/marcus/taskpilot/internal/db"
	"github.com/marcus/taskpilot/internal/store"
	"github.com/marcus/taskpilot/internal/task"
)

// stubEmbedder returns canned vectors keyed by the exact embed text. Tasks
// given the same vector score 1.0 against each other; orthogonal vectors
// score 0.5 on the [0,1] scale.
type stubEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	v, ok := s.vectors[text]
	if !ok {
		return []float32{0, 0, 1}, nil
	}
	return v, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *stubEmbedder) Name() string { return "stub" }

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return store.New(database)
}

func TestFindDuplicates(t *testing.T) {
	st := newTestStore(t)
	mustCreate(t, st, "buy milk", "")
	mustCreate(t, st, "purchase milk", "")
	mustCreate(t, st, "file taxes", "")

	stub := &stubEmbedder{vectors: map[string][]float32{
		"buy milk":      {1, 0, 0},
		"purchase milk": {1, 0, 0},
		"file taxes":    {0, 1, 0},
	}}
	engine := New(st, stub, 0.9, nil)

	pairs, scanned, err := engine.FindDuplicates(context.Background())
	if err != nil {
		t.Fatalf("FindDuplicates: %v", err)
	}
	if scanned != 3 {
		t.Errorf("scanned = %d, want 3", scanned)
	}
	if len(pairs) != 1 {
		t.Fatalf("pairs = %d, want 1", len(pairs))
	}
	if pairs[0].A.Title != "buy milk" || pairs[0].B.Title != "purchase milk" {
		t.Errorf("unexpected pair: %q / %q", pairs[0].A.Title, pairs[0].B.Title)
	}
	if pairs[0].Score < 0.99 {
		t.Errorf("score = %f, want ~1.0", pairs[0].Score)
	}

	// Detection alone must not modify the store.
	all, err := st.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("tasks after detection = %d, want 3", len(all))
	}
}

func TestRunMergesEarlierTaskSurvives(t *testing.T) {
	st := newTestStore(t)
	due := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)

	older := mustCreate(t, st, "buy milk", "from the corner shop")
	newer, err := st.Create(store.CreateParams{
		Title:       "purchase milk",
		Description: "oat milk too",
		DueAt:       &due,
		Priority:    task.PriorityHigh,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	stub := &stubEmbedder{vectors: map[string][]float32{
		"buy milk\nfrom the corner shop": {1, 0, 0},
		"purchase milk\noat milk too":    {1, 0, 0},
	}}
	engine := New(st, stub, 0.9, nil)

	report, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Merges) != 1 {
		t.Fatalf("merges = %d, want 1", len(report.Merges))
	}

	m := report.Merges[0]
	if m.Survivor.ID != older.ID || m.LoserID != newer.ID {
		t.Errorf("survivor = %d, loser = %d; want %d, %d", m.Survivor.ID, m.LoserID, older.ID, newer.ID)
	}
	if m.Survivor.Priority != task.PriorityHigh {
		t.Errorf("merged priority = %s, want high", m.Survivor.Priority)
	}
	if m.Survivor.DueAt == nil || !m.Survivor.DueAt.Equal(due) {
		t.Errorf("merged due = %v, want %v", m.Survivor.DueAt, due)
	}
	if m.Survivor.Description != "from the corner shop\noat milk too" {
		t.Errorf("merged description = %q", m.Survivor.Description)
	}

	if _, err := st.Get(newer.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("loser lookup error = %v, want ErrNotFound", err)
	}
	survivor, err := st.Get(older.ID)
	if err != nil {
		t.Fatalf("survivor lookup: %v", err)
	}
	if survivor.Priority != task.PriorityHigh {
		t.Errorf("persisted priority = %s, want high", survivor.Priority)
	}
}

func TestRunConsumedLoserNotRemerged(t *testing.T) {
	st := newTestStore(t)
	a := mustCreate(t, st, "call mom", "")
	mustCreate(t, st, "phone mom", "")
	mustCreate(t, st, "ring mother", "")

	// All three embed identically, producing three candidate pairs. Only two
	// merges can apply; each loser is consumed once.
	same := []float32{1, 0, 0}
	stub := &stubEmbedder{vectors: map[string][]float32{
		"call mom":    same,
		"phone mom":   same,
		"ring mother": same,
	}}
	engine := New(st, stub, 0.9, nil)

	report, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Candidates) != 3 {
		t.Errorf("candidates = %d, want 3", len(report.Candidates))
	}
	if len(report.Merges) != 2 {
		t.Fatalf("merges = %d, want 2", len(report.Merges))
	}
	for _, m := range report.Merges {
		if m.Survivor.ID != a.ID {
			t.Errorf("survivor = %d, want earliest task %d", m.Survivor.ID, a.ID)
		}
	}

	all, err := st.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("tasks remaining = %d, want 1", len(all))
	}
}

func TestRunBelowThresholdNoMerge(t *testing.T) {
	st := newTestStore(t)
	mustCreate(t, st, "buy milk", "")
	mustCreate(t, st, "file taxes", "")

	stub := &stubEmbedder{vectors: map[string][]float32{
		"buy milk":   {1, 0, 0},
		"file taxes": {0, 1, 0},
	}}
	engine := New(st, stub, 0.9, nil)

	report, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Candidates) != 0 || len(report.Merges) != 0 {
		t.Errorf("report = %+v, want no candidates and no merges", report)
	}
}

func TestRunEmbedderFailure(t *testing.T) {
	st := newTestStore(t)
	mustCreate(t, st, "buy milk", "")
	mustCreate(t, st, "purchase milk", "")

	engine := New(st, &stubEmbedder{err: errors.New("backend down")}, 0.9, nil)

	if _, err := engine.Run(context.Background()); err == nil {
		t.Fatal("expected error from failing embedder")
	}

	all, err := st.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("tasks = %d, embedder failure must not modify the store", len(all))
	}
}

func mustCreate(t *testing.T, st *store.Store, title, description string) task.Task {
	t.Helper()
	created, err := st.Create(store.CreateParams{Title: title, Description: description})
	if err != nil {
		t.Fatalf("create %q: %v", title, err)
	}
	return created
}
