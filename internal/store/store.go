// Package store implements the persistent task store. It is the sole owner
// of task identity: ids are minted by the underlying AUTOINCREMENT sequence
// at insert time, under the same store lock, and are never reused.
//
// All mutation goes through a single mutex. The lock is only ever held
// around in-memory bookkeeping and SQLite statements, never across oracle
// calls.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/marcus/taskpilot/internal/db"
	"github.com/marcus/taskpilot/internal/logging"
	"github.com/marcus/taskpilot/internal/task"
)

// ErrNotFound is returned when no task exists with the requested id.
var ErrNotFound = errors.New("task not found")

const timeLayout = time.RFC3339Nano

// Store is the task repository backed by SQLite.
type Store struct {
	mu  sync.Mutex
	db  *db.DB
	log *logging.Logger
}

// New creates a Store over an open database.
func New(database *db.DB) *Store {
	return &Store{
		db:  database,
		log: logging.Component("store"),
	}
}

// CreateParams are the fields accepted when creating a task.
type CreateParams struct {
	Title       string
	Description string
	DueAt       *time.Time
	Priority    task.Priority
}

// Create inserts a new task. The title must be non-empty after trimming;
// priority defaults to medium.
func (s *Store) Create(p CreateParams) (task.Task, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return task.Task{}, task.ErrEmptyTitle
	}

	priority := p.Priority
	if priority == "" {
		priority = task.PriorityMedium
	}
	if !priority.Valid() {
		return task.Task{}, fmt.Errorf("invalid priority %q", p.Priority)
	}

	now := time.Now().UTC()
	t := task.Task{
		Title:       title,
		Description: strings.TrimSpace(p.Description),
		DueAt:       p.DueAt,
		Status:      task.StatusPending,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.SQL().Exec(
		`INSERT INTO tasks (title, description, due_at, status, priority, created_at, updated_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Title, t.Description, timePtrString(t.DueAt), string(t.Status), string(t.Priority),
		t.CreatedAt.Format(timeLayout), t.UpdatedAt.Format(timeLayout), timePtrString(t.CompletedAt),
	)
	if err != nil {
		return task.Task{}, fmt.Errorf("insert task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return task.Task{}, fmt.Errorf("task id: %w", err)
	}
	t.ID = id

	s.log.InfoCtx("task created", map[string]any{"task_id": t.ID, "priority": string(t.Priority)})
	return t, nil
}

// Get returns the task with the given id, or ErrNotFound.
func (s *Store) Get(id int64) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

func (s *Store) get(id int64) (task.Task, error) {
	row := s.db.SQL().QueryRow(selectColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Task{}, ErrNotFound
	}
	return t, err
}

// FindByTitle returns the first task whose title matches case-insensitively,
// or ErrNotFound. Used to resolve references like "delete the groceries task"
// when no id was given.
func (s *Store) FindByTitle(title string) (task.Task, error) {
	row := s.db.SQL().QueryRow(
		selectColumns+` FROM tasks WHERE LOWER(title) = LOWER(?) ORDER BY id LIMIT 1`,
		strings.TrimSpace(title),
	)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Task{}, ErrNotFound
	}
	return t, err
}

// Filter restricts List results.
type Filter struct {
	Status *task.Status
}

// List returns tasks matching the filter, ordered by effective priority
// (high first), then due date ascending with undated tasks last, then id.
// The ordering is stable for identical input sets.
func (s *Store) List(f Filter, now time.Time) ([]task.Task, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}

	tasks := all[:0]
	for _, t := range all {
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		tasks = append(tasks, t)
	}

	SortTasks(tasks, now)
	return tasks, nil
}

// SortTasks orders tasks in place by effective priority desc, due date asc
// (nil last), id asc.
func SortTasks(tasks []task.Task, now time.Time) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		ra := task.EffectivePriority(a, now).Rank()
		rb := task.EffectivePriority(b, now).Rank()
		if ra != rb {
			return ra > rb
		}
		switch {
		case a.DueAt == nil && b.DueAt == nil:
			// fall through to id
		case a.DueAt == nil:
			return false
		case b.DueAt == nil:
			return true
		case !a.DueAt.Equal(*b.DueAt):
			return a.DueAt.Before(*b.DueAt)
		}
		return a.ID < b.ID
	})
}

// All returns every task in id order, without derived sorting.
func (s *Store) All() ([]task.Task, error) {
	rows, err := s.db.SQL().Query(selectColumns + ` FROM tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpdateParams carries a partial field set; nil pointers leave the field
// untouched. ClearDue removes an existing due date.
type UpdateParams struct {
	Title       *string
	Description *string
	DueAt       *time.Time
	ClearDue    bool
	Status      *task.Status
	Priority    *task.Priority
}

// Update applies the provided fields to the task with the given id and bumps
// updated_at. Completing a task stamps completed_at; reopening clears it.
func (s *Store) Update(id int64, p UpdateParams) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.get(id)
	if err != nil {
		return task.Task{}, err
	}

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return task.Task{}, task.ErrEmptyTitle
		}
		t.Title = title
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.DueAt != nil {
		due := *p.DueAt
		t.DueAt = &due
	} else if p.ClearDue {
		t.DueAt = nil
	}
	if p.Priority != nil {
		if !p.Priority.Valid() {
			return task.Task{}, fmt.Errorf("invalid priority %q", *p.Priority)
		}
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return task.Task{}, fmt.Errorf("invalid status %q", *p.Status)
		}
		if t.Status != *p.Status {
			t.Status = *p.Status
			if t.Status == task.StatusCompleted {
				done := time.Now().UTC()
				t.CompletedAt = &done
			} else {
				t.CompletedAt = nil
			}
		}
	}
	t.UpdatedAt = time.Now().UTC()

	if err := s.write(t); err != nil {
		return task.Task{}, err
	}

	s.log.InfoCtx("task updated", map[string]any{"task_id": t.ID, "status": string(t.Status)})
	return t, nil
}

func (s *Store) write(t task.Task) error {
	_, err := s.db.SQL().Exec(
		`UPDATE tasks SET title = ?, description = ?, due_at = ?, status = ?, priority = ?, updated_at = ?, completed_at = ?
		 WHERE id = ?`,
		t.Title, t.Description, timePtrString(t.DueAt), string(t.Status), string(t.Priority),
		t.UpdatedAt.Format(timeLayout), timePtrString(t.CompletedAt), t.ID,
	)
	if err != nil {
		return fmt.Errorf("update task %d: %w", t.ID, err)
	}
	return nil
}

// Delete removes the task with the given id. It reports whether a row was
// actually removed.
func (s *Store) Delete(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.SQL().Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete task %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		s.log.InfoCtx("task deleted", map[string]any{"task_id": id})
	}
	return n > 0, nil
}

// ApplyMerge persists a dedup merge as one atomic operation: the survivor's
// merged fields are written and the loser row removed in a single
// transaction, so no reader observes both tasks or neither.
func (s *Store) ApplyMerge(survivor task.Task, loserID int64) (task.Task, error) {
	if err := survivor.Validate(); err != nil {
		return task.Task{}, fmt.Errorf("merged task invalid: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.SQL().Begin()
	if err != nil {
		return task.Task{}, fmt.Errorf("begin merge: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE tasks SET title = ?, description = ?, due_at = ?, status = ?, priority = ?, updated_at = ?, completed_at = ?
		 WHERE id = ?`,
		survivor.Title, survivor.Description, timePtrString(survivor.DueAt), string(survivor.Status),
		string(survivor.Priority), survivor.UpdatedAt.Format(timeLayout), timePtrString(survivor.CompletedAt),
		survivor.ID,
	); err != nil {
		_ = tx.Rollback()
		return task.Task{}, fmt.Errorf("merge update %d: %w", survivor.ID, err)
	}

	res, err := tx.Exec(`DELETE FROM tasks WHERE id = ?`, loserID)
	if err != nil {
		_ = tx.Rollback()
		return task.Task{}, fmt.Errorf("merge delete %d: %w", loserID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_ = tx.Rollback()
		return task.Task{}, fmt.Errorf("merge delete %d: %w", loserID, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return task.Task{}, fmt.Errorf("commit merge: %w", err)
	}

	s.log.InfoCtx("tasks merged", map[string]any{"survivor_id": survivor.ID, "loser_id": loserID})
	return survivor, nil
}

// Stats aggregates counts by status and by effective priority.
type Stats struct {
	Total      int                   `json:"total"`
	ByStatus   map[task.Status]int   `json:"by_status"`
	ByPriority map[task.Priority]int `json:"by_priority"`
}

// Stats returns aggregate counts. Priority counts reflect effective
// priorities at the given time, not only the stored base values.
func (s *Store) Stats(now time.Time) (Stats, error) {
	all, err := s.All()
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		Total:      len(all),
		ByStatus:   make(map[task.Status]int),
		ByPriority: make(map[task.Priority]int),
	}
	for _, t := range all {
		stats.ByStatus[t.Status]++
		stats.ByPriority[task.EffectivePriority(t, now)]++
	}
	return stats, nil
}

const selectColumns = `SELECT id, title, description, due_at, status, priority, created_at, updated_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (task.Task, error) {
	var (
		t           task.Task
		dueAt       sql.NullString
		completedAt sql.NullString
		createdAt   string
		updatedAt   string
		status      string
		priority    string
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &dueAt, &status, &priority, &createdAt, &updatedAt, &completedAt); err != nil {
		return task.Task{}, err
	}

	t.Status = task.Status(status)
	t.Priority = task.Priority(priority)

	var err error
	if t.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return task.Task{}, fmt.Errorf("parse created_at for task %d: %w", t.ID, err)
	}
	if t.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return task.Task{}, fmt.Errorf("parse updated_at for task %d: %w", t.ID, err)
	}
	if t.DueAt, err = parseNullTime(dueAt); err != nil {
		return task.Task{}, fmt.Errorf("parse due_at for task %d: %w", t.ID, err)
	}
	if t.CompletedAt, err = parseNullTime(completedAt); err != nil {
		return task.Task{}, fmt.Errorf("parse completed_at for task %d: %w", t.ID, err)
	}
	return t, nil
}

func parseNullTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	parsed, err := time.Parse(timeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func timePtrString(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}
