package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/rivo/tview"
)

// ConfirmExecution asks the user to approve a suggested command, walking the
// backend chain until one succeeds. Dangerous suggestions carry an explicit
// warning in every backend. Anything but an affirmative answer declines.
func ConfirmExecution(backend string, command string, dangerous bool) (bool, error) {
	var firstErr error
	for _, candidate := range backendCandidates(backend) {
		var (
			approved bool
			err      error
		)
		switch candidate {
		case BackendBubbleTea:
			approved, err = confirmWithBubbleTea(command, dangerous)
		case BackendHuh:
			approved, err = confirmWithHuh(command, dangerous)
		case BackendTView:
			approved, err = confirmWithTView(command, dangerous)
		case BackendPlain:
			return confirmPlain(os.Stdin, os.Stdout, command, dangerous)
		default:
			continue
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		return approved, nil
	}
	return false, firstErr
}

const dangerNotice = "WARNING: this command is potentially destructive."

// confirmPlain is the line-based [y/N] gate. Only an exact "y" or "yes"
// (case-insensitive, trimmed) approves.
func confirmPlain(in io.Reader, out io.Writer, command string, dangerous bool) (bool, error) {
	if dangerous {
		fmt.Fprintln(out, DangerStyle.Render(dangerNotice))
	}
	fmt.Fprintf(out, "Execute? [y/N]: ")
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false, nil
	}
	return IsAffirmative(line), nil
}

// IsAffirmative reports whether input is the exact affirmative token.
func IsAffirmative(input string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(input))
	return trimmed == "y" || trimmed == "yes"
}

type bubbleConfirmModel struct {
	command   string
	dangerous bool
	approved  bool
	done      bool
}

func (m bubbleConfirmModel) Init() tea.Cmd { return nil }

func (m bubbleConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch k := msg.(type) {
	case tea.KeyMsg:
		switch strings.ToLower(k.String()) {
		case "y":
			m.approved = true
			m.done = true
			return m, tea.Quit
		case "n", "esc", "ctrl+c", "enter":
			m.approved = false
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m bubbleConfirmModel) View() string {
	var b strings.Builder
	b.WriteString("Execute this command?\n\n")
	b.WriteString(CommandStyle.Render(m.command))
	b.WriteString("\n")
	if m.dangerous {
		b.WriteString("\n" + DangerStyle.Render(dangerNotice) + "\n")
	}
	b.WriteString("\n[y] execute  [n] cancel")
	return b.String()
}

func confirmWithBubbleTea(command string, dangerous bool) (bool, error) {
	model := bubbleConfirmModel{command: strings.TrimSpace(command), dangerous: dangerous}
	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return false, err
	}
	out, ok := final.(bubbleConfirmModel)
	if !ok || !out.done {
		return false, nil
	}
	return out.approved, nil
}

func confirmWithHuh(command string, dangerous bool) (bool, error) {
	description := strings.TrimSpace(command)
	if dangerous {
		description += "\n" + dangerNotice
	}
	approved := false
	prompt := huh.NewConfirm().
		Title("Execute this command?").
		Description(description).
		Affirmative("Execute").
		Negative("Cancel").
		Value(&approved).
		WithTheme(huh.ThemeCharm())
	if err := prompt.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return approved, nil
}

func confirmWithTView(command string, dangerous bool) (bool, error) {
	app := tview.NewApplication()
	approved := false
	done := false

	text := fmt.Sprintf("Execute this command?\n\n%s", strings.TrimSpace(command))
	if dangerous {
		text += "\n\n" + dangerNotice
	}
	modal := tview.NewModal().
		SetText(text).
		AddButtons([]string{"Execute", "Cancel"}).
		SetDoneFunc(func(_ int, label string) {
			done = true
			approved = strings.EqualFold(strings.TrimSpace(label), "execute")
			app.Stop()
		})

	if err := app.SetRoot(modal, true).Run(); err != nil {
		return false, err
	}
	if !done {
		return false, nil
	}
	return approved, nil
}
