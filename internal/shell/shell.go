// Package shell detects which shell spren should target when suggesting
// and executing commands.
package shell

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

type Kind string

const (
	Bash       Kind = "bash"
	Zsh        Kind = "zsh"
	Fish       Kind = "fish"
	PowerShell Kind = "powershell"
	Cmd        Kind = "cmd"
	Sh         Kind = "sh"
)

// Detect resolves the target shell. A non-empty preferred value wins, then
// $SHELL on Unix, then COMSPEC on Windows, then a platform default.
func Detect(preferred string) Kind {
	if kind, ok := parse(preferred); ok {
		return kind
	}
	if kind, ok := parse(os.Getenv("SHELL")); ok {
		return kind
	}
	if runtime.GOOS == "windows" {
		if kind, ok := parse(os.Getenv("COMSPEC")); ok {
			return kind
		}
		return PowerShell
	}
	return Bash
}

func parse(value string) (Kind, bool) {
	name := strings.ToLower(filepath.Base(strings.TrimSpace(value)))
	name = strings.TrimSuffix(name, ".exe")
	switch name {
	case "bash":
		return Bash, true
	case "zsh":
		return Zsh, true
	case "fish":
		return Fish, true
	case "pwsh", "powershell":
		return PowerShell, true
	case "cmd":
		return Cmd, true
	case "sh", "dash", "ash":
		return Sh, true
	default:
		return "", false
	}
}

// Name is the human-readable name used inside prompts.
func (k Kind) Name() string {
	switch k {
	case PowerShell:
		return "PowerShell"
	case Cmd:
		return "Windows CMD"
	case Zsh:
		return "zsh"
	case Fish:
		return "fish"
	case Sh:
		return "POSIX sh"
	default:
		return "bash"
	}
}

// IsWindows reports whether the shell expects Windows command syntax.
func (k Kind) IsWindows() bool {
	return k == PowerShell || k == Cmd
}
