package ui

import (
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/taskpilot/internal/agent"
	"github.com/marcus/taskpilot/internal/db"
	"github.com/marcus/taskpilot/internal/executor"
	"github.com/marcus/taskpilot/internal/intent"
	"github.com/marcus/taskpilot/internal/store"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	st := store.New(database)
	a := agent.New(intent.NewRouter(nil, nil), executor.New(st, nil, nil, nil), nil)
	return New(a)
}

func TestEnterSendsMessage(t *testing.T) {
	m := newTestModel(t)
	m.input.SetValue("add a task to buy milk")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	if !m.waiting {
		t.Error("model not waiting after submit")
	}
	if m.input.Value() != "" {
		t.Errorf("input not cleared: %q", m.input.Value())
	}
	if cmd == nil {
		t.Fatal("no command returned for agent call")
	}
}

func TestEmptyInputIgnored(t *testing.T) {
	m := newTestModel(t)
	m.input.SetValue("   ")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	if m.waiting || cmd != nil {
		t.Error("blank input must not trigger an agent call")
	}
}

func TestReplyAppendsTranscript(t *testing.T) {
	m := newTestModel(t)
	m.waiting = true

	updated, _ := m.Update(replyMsg{Message: "Created task 1: \"buy milk\"."})
	m = updated.(Model)

	if m.waiting {
		t.Error("model still waiting after reply")
	}
	view := m.View()
	if !strings.Contains(view, "buy milk") {
		t.Errorf("view does not show the reply:\n%s", view)
	}
}

func TestQuitKeys(t *testing.T) {
	m := newTestModel(t)

	for _, key := range []tea.KeyType{tea.KeyCtrlC, tea.KeyEsc} {
		_, cmd := m.Update(tea.KeyMsg{Type: key})
		if cmd == nil {
			t.Fatalf("key %v: no quit command", key)
		}
		if msg := cmd(); msg != tea.Quit() {
			t.Errorf("key %v produced %v, want tea.Quit", key, msg)
		}
	}
}
