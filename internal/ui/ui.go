// Package ui provides the interactive chat terminal for talking to the
// assistant. Uses Bubbletea; the agent call runs as a command so the UI never
// blocks on the oracle.
package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/marcus/taskpilot/internal/agent"
)

var (
	userStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	botStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
	historyLimit = 200
)

// replyMsg carries the agent's answer back into the update loop.
type replyMsg agent.Reply

// Model is the chat UI state.
type Model struct {
	agent   *agent.Agent
	input   textinput.Model
	spin    spinner.Model
	lines   []string
	waiting bool
	width   int
}

// New creates the chat model.
func New(a *agent.Agent) Model {
	input := textinput.New()
	input.Placeholder = "add a task, ask for your list, mark things done..."
	input.Focus()
	input.CharLimit = 500

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return Model{
		agent: a,
		input: input,
		spin:  spin,
		lines: []string{faintStyle.Render("taskpilot ready. Type a request, or ctrl+c to quit.")},
	}
}

// Init starts the input cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key presses, replies, and spinner ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.waiting {
				return m, nil
			}
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.Reset()
			m.appendLine(userStyle.Render("you: ") + text)
			m.waiting = true
			return m, tea.Batch(m.spin.Tick, m.ask(text))
		}

	case replyMsg:
		m.waiting = false
		m.appendLine(botStyle.Render("pilot: ") + msg.Message)
		if msg.Result.Warning != "" {
			m.appendLine(warnStyle.Render("  ! " + msg.Result.Warning))
		}
		if msg.Result.ErrInfo != nil {
			m.appendLine(errStyle.Render("  (" + string(msg.Result.ErrInfo.Code) + ")"))
		}
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the transcript above the input line.
func (m Model) View() string {
	var b strings.Builder
	for _, line := range m.lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if m.waiting {
		b.WriteString(m.spin.View() + " thinking...")
	} else {
		b.WriteString(m.input.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > historyLimit {
		m.lines = m.lines[len(m.lines)-historyLimit:]
	}
}

func (m Model) ask(text string) tea.Cmd {
	return func() tea.Msg {
		return replyMsg(m.agent.Handle(context.Background(), text))
	}
}

// Run starts the chat program and blocks until the user quits.
func Run(a *agent.Agent) error {
	_, err := tea.NewProgram(New(a)).Run()
	return err
}
