// Package executor runs suggested commands through the user's shell and
// captures their output for the fix cycle.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/smadgulkar/spren/internal/shell"
)

// Output is the captured result of one command run. Success is false for any
// non-zero exit; a command that could not even be launched returns an error
// instead of an Output.
type Output struct {
	Stdout  string
	Stderr  string
	Success bool
}

type Executor struct {
	shell         shell.Kind
	maxOutputSize int
}

func New(kind shell.Kind, maxOutputSize int) *Executor {
	if maxOutputSize <= 0 {
		maxOutputSize = 1 << 20
	}
	return &Executor{shell: kind, maxOutputSize: maxOutputSize}
}

// Run executes command in the target shell, capturing stdout and stderr
// separately. Streams longer than the configured cap are truncated with a
// marker so fix prompts stay bounded.
func (e *Executor) Run(ctx context.Context, command string) (Output, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return Output{}, fmt.Errorf("command cannot be empty")
	}

	program, args := e.invocation(command)
	cmd := exec.CommandContext(ctx, program, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{
		Stdout:  e.truncate(stdout.String()),
		Stderr:  e.truncate(stderr.String()),
		Success: err == nil,
	}
	if err == nil {
		return out, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out, nil
	}
	if ctx.Err() != nil {
		return Output{}, fmt.Errorf("command interrupted: %w", ctx.Err())
	}
	return Output{}, fmt.Errorf("could not launch command: %w", err)
}

func (e *Executor) invocation(command string) (string, []string) {
	switch e.shell {
	case shell.PowerShell:
		if program, err := exec.LookPath("pwsh"); err == nil {
			return program, []string{"-NoProfile", "-Command", command}
		}
		return "powershell", []string{"-NoProfile", "-Command", command}
	case shell.Cmd:
		comspec := strings.TrimSpace(os.Getenv("COMSPEC"))
		if comspec == "" {
			comspec = "cmd"
		}
		return comspec, []string{"/C", command}
	}

	if runtime.GOOS != "windows" {
		envShell := strings.TrimSpace(os.Getenv("SHELL"))
		if envShell != "" && sameShell(envShell, e.shell) {
			if resolved, ok := resolveShellPath(envShell); ok {
				return resolved, []string{"-lc", command}
			}
		}
		if resolved, err := exec.LookPath(string(e.shell)); err == nil {
			return resolved, []string{"-lc", command}
		}
	}
	return "sh", []string{"-lc", command}
}

func sameShell(path string, kind shell.Kind) bool {
	return filepath.Base(path) == string(kind)
}

func resolveShellPath(value string) (string, bool) {
	if filepath.IsAbs(value) {
		if _, err := os.Stat(value); err == nil {
			return value, true
		}
		return "", false
	}
	if resolved, err := exec.LookPath(value); err == nil {
		return resolved, true
	}
	return "", false
}

func (e *Executor) truncate(s string) string {
	if len(s) <= e.maxOutputSize {
		return s
	}
	return s[:e.maxOutputSize] + "\n... [output truncated]"
}
