// Package tui is the full-screen interactive mode: a query input, a live
// suggestion pane, and the same confirm gate the plain REPL uses.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smadgulkar/spren/internal/session"
	"github.com/smadgulkar/spren/internal/ui"
)

type phase int

const (
	phaseInput phase = iota
	phaseThinking
	phaseConfirm
	phaseEdit
)

type suggestionMsg struct {
	err error
}

type executedMsg struct {
	outcome session.Outcome
	err     error
}

type Model struct {
	sess   *session.Session
	phase  phase
	input  textinput.Model
	edit   textinput.Model
	spin   spinner.Model
	status string
	output string

	history    []string
	historyIdx int

	quitting bool
}

func New(sess *session.Session, pastQueries []string) Model {
	input := textinput.New()
	input.Placeholder = "describe what you want to do"
	input.Prompt = "spren> "
	input.Focus()
	input.Width = 72

	edit := textinput.New()
	edit.Prompt = "edit> "
	edit.Width = 72

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return Model{
		sess:       sess,
		input:      input,
		edit:       edit,
		spin:       spin,
		history:    append([]string(nil), pastQueries...),
		historyIdx: -1,
		status:     "Enter a request, Ctrl+C to quit",
	}
}

// History returns the query history including entries typed this run.
func (m Model) History() []string {
	return m.history
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) suggest(query string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.sess.SubmitQuery(context.Background(), query)
		return suggestionMsg{err: err}
	}
}

func (m Model) execute() tea.Cmd {
	return func() tea.Msg {
		outcome, err := m.sess.Confirm(context.Background(), true)
		return executedMsg{outcome: outcome, err: err}
	}
}

func (m Model) requestFix() tea.Cmd {
	return func() tea.Msg {
		_, err := m.sess.RequestFix(context.Background())
		return suggestionMsg{err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case spinner.TickMsg:
		if m.phase == phaseThinking {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil
	case suggestionMsg:
		if msg.err != nil {
			m.phase = phaseInput
			m.status = "Error: " + msg.err.Error()
			m.input.Focus()
			return m, textinput.Blink
		}
		m.phase = phaseConfirm
		pending := m.sess.Pending()
		if pending.Dangerous {
			m.status = "DANGEROUS command. Press y to execute, e to edit, Esc to cancel"
		} else {
			m.status = "Press y to execute, e to edit, Esc to cancel"
		}
		return m, nil
	case executedMsg:
		return m.handleExecuted(msg)
	}

	var cmd tea.Cmd
	switch m.phase {
	case phaseInput:
		m.input, cmd = m.input.Update(msg)
	case phaseEdit:
		m.edit, cmd = m.edit.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" || key == "ctrl+q" {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.phase {
	case phaseInput:
		return m.handleInputKey(msg)
	case phaseConfirm:
		return m.handleConfirmKey(key)
	case phaseEdit:
		return m.handleEditKey(msg)
	case phaseThinking:
		return m, nil
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		query := strings.TrimSpace(m.input.Value())
		if query == "" {
			return m, nil
		}
		m.history = append(m.history, query)
		m.historyIdx = -1
		m.input.SetValue("")
		m.input.Blur()
		m.phase = phaseThinking
		m.status = "Thinking..."
		m.output = ""
		return m, tea.Batch(m.spin.Tick, m.suggest(query))
	case "up":
		if len(m.history) == 0 {
			return m, nil
		}
		if m.historyIdx == -1 {
			m.historyIdx = len(m.history) - 1
		} else if m.historyIdx > 0 {
			m.historyIdx--
		}
		m.input.SetValue(m.history[m.historyIdx])
		m.input.CursorEnd()
		return m, nil
	case "down":
		if m.historyIdx == -1 {
			return m, nil
		}
		if m.historyIdx+1 < len(m.history) {
			m.historyIdx++
			m.input.SetValue(m.history[m.historyIdx])
		} else {
			m.historyIdx = -1
			m.input.SetValue("")
		}
		m.input.CursorEnd()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleConfirmKey also serves the pane shown after a retryable failure,
// where no suggestion is live; y and e only act on a live one.
func (m Model) handleConfirmKey(key string) (tea.Model, tea.Cmd) {
	switch strings.ToLower(key) {
	case "y":
		if m.sess.State() != session.Suggested {
			return m, nil
		}
		m.phase = phaseThinking
		m.status = "Executing..."
		return m, tea.Batch(m.spin.Tick, m.execute())
	case "e", "tab":
		if m.sess.State() != session.Suggested {
			return m, nil
		}
		m.phase = phaseEdit
		m.edit.SetValue(m.sess.Pending().Command)
		m.edit.Focus()
		m.edit.CursorEnd()
		m.status = "Editing command (Enter to keep, Esc to cancel)"
		return m, textinput.Blink
	case "f":
		if m.sess.CanRetry() {
			m.phase = phaseThinking
			m.status = "Requesting a fix..."
			return m, tea.Batch(m.spin.Tick, m.requestFix())
		}
		return m, nil
	case "esc", "n":
		m.sess.Reset()
		m.phase = phaseInput
		m.status = "Cancelled"
		m.input.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "tab":
		edited := strings.TrimSpace(m.edit.Value())
		if edited != "" {
			m.sess.ReplacePending(edited)
		}
		m.edit.Blur()
		m.phase = phaseConfirm
		if m.sess.Pending().Dangerous {
			m.status = "DANGEROUS command. Press y to execute, Esc to cancel"
		} else {
			m.status = "Press y to execute, e to edit, Esc to cancel"
		}
		return m, nil
	case "esc":
		m.edit.Blur()
		m.phase = phaseConfirm
		m.status = "Press y to execute, e to edit, Esc to cancel"
		return m, nil
	}
	var cmd tea.Cmd
	m.edit, cmd = m.edit.Update(msg)
	return m, cmd
}

func (m Model) handleExecuted(msg executedMsg) (tea.Model, tea.Cmd) {
	m.phase = phaseInput
	m.input.Focus()
	if msg.err != nil {
		m.status = "Error: " + msg.err.Error()
		return m, textinput.Blink
	}

	out := msg.outcome.Output
	if out.Success {
		m.status = "Done"
		m.output = strings.TrimRight(out.Stdout, "\n")
		if note := strings.TrimSpace(out.Stderr); note != "" {
			m.output += "\n" + ui.NoteStyle.Render("Note: "+note)
		}
		return m, textinput.Blink
	}

	m.output = strings.TrimRight(out.Stderr, "\n")
	if m.sess.CanRetry() {
		m.phase = phaseConfirm
		m.input.Blur()
		m.status = "Command failed. Press f to request a fix, Esc to cancel"
		return m, nil
	}
	m.status = "Command failed. Retry limit reached"
	m.sess.Abandon()
	return m, textinput.Blink
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(ui.PromptStyle.Render("spren") + " interactive mode\n\n")

	switch m.phase {
	case phaseInput:
		b.WriteString(m.input.View())
	case phaseThinking:
		b.WriteString(m.spin.View() + " " + m.status)
	case phaseConfirm:
		pending := m.sess.Pending()
		if pending.Command != "" {
			b.WriteString(ui.CommandStyle.Render(pending.Command))
			b.WriteString("\n")
			if pending.Dangerous {
				b.WriteString(ui.DangerStyle.Render("WARNING: this command is potentially destructive.") + "\n")
			}
		}
	case phaseEdit:
		b.WriteString(m.edit.View())
	}

	if m.output != "" {
		b.WriteString("\n\n" + m.output)
	}
	if m.phase != phaseThinking {
		b.WriteString("\n\n" + ui.FaintStyle.Render(m.status))
	}
	return b.String()
}

// Run starts the interactive program and blocks until the user quits. It
// returns the query history so the caller can persist it.
func Run(sess *session.Session, pastQueries []string) ([]string, error) {
	final, err := tea.NewProgram(New(sess, pastQueries), tea.WithAltScreen()).Run()
	if err != nil {
		return pastQueries, err
	}
	if m, ok := final.(Model); ok {
		return m.History(), nil
	}
	return pastQueries, nil
}
