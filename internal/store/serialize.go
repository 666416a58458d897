package store

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/marcus/taskpilot/internal/task"
)

// snapshotVersion identifies the export format.
const snapshotVersion = 1

// Snapshot is the serialized form of the full task set.
type Snapshot struct {
	Version    int         `json:"version"`
	ExportedAt time.Time   `json:"exported_at"`
	Tasks      []task.Task `json:"tasks"`
}

// Export writes the full task set to w as JSON. Ids, all fields, and
// timestamps round-trip exactly through Import.
func (s *Store) Export(w io.Writer) error {
	all, err := s.All()
	if err != nil {
		return err
	}

	snap := Snapshot{
		Version:    snapshotVersion,
		ExportedAt: time.Now().UTC(),
		Tasks:      all,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// ExportFile writes the snapshot to path atomically via a temp file.
func (s *Store) ExportFile(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}

	if err := s.Export(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// Import replaces the store's contents with the snapshot read from r.
// Restored tasks keep their original ids and timestamps, and the id sequence
// advances past the highest imported id so future tasks never collide.
func (s *Store) Import(r io.Reader) error {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("parse snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	for i := range snap.Tasks {
		if err := snap.Tasks[i].Validate(); err != nil {
			return fmt.Errorf("snapshot task %d: %w", snap.Tasks[i].ID, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.SQL().Begin()
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM tasks`); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear tasks: %w", err)
	}

	for _, t := range snap.Tasks {
		if _, err := tx.Exec(
			`INSERT INTO tasks (id, title, description, due_at, status, priority, created_at, updated_at, completed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Title, t.Description, timePtrString(t.DueAt), string(t.Status), string(t.Priority),
			t.CreatedAt.Format(timeLayout), t.UpdatedAt.Format(timeLayout), timePtrString(t.CompletedAt),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("import task %d: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}

	s.log.InfoCtx("snapshot imported", map[string]any{"tasks": len(snap.Tasks)})
	return nil
}

// ImportFile restores the store from a snapshot file.
func (s *Store) ImportFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return s.Import(f)
}
