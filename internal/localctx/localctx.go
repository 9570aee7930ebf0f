// Package localctx gathers lightweight facts about the current directory so
// suggestion prompts can mention real files and the active git branch.
package localctx

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

const (
	maxEntries         = 50
	maxEntriesInPrompt = 20
)

type Context struct {
	CWD       string
	Files     []string
	GitBranch string
	IsGitRepo bool
}

// Gather snapshots the environment from dir. An empty dir means the process
// working directory. Gathering never fails; missing pieces are left empty.
func Gather(dir string) Context {
	if dir == "" {
		if cwd, err := os.Getwd(); err == nil {
			dir = cwd
		}
	}
	ctx := Context{CWD: dir}
	ctx.Files = listDirectory(dir)
	ctx.IsGitRepo, ctx.GitBranch = gitInfo(dir)
	return ctx
}

// PromptContext renders the snapshot for prompt injection, capping the file
// listing so prompts stay small.
func (c Context) PromptContext() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("CWD: %s", c.CWD))

	if len(c.Files) > 0 {
		preview := c.Files
		suffix := ""
		if len(preview) > maxEntriesInPrompt {
			suffix = fmt.Sprintf(" (+%d more)", len(preview)-maxEntriesInPrompt)
			preview = preview[:maxEntriesInPrompt]
		}
		parts = append(parts, fmt.Sprintf("Files: [%s]%s", strings.Join(preview, ", "), suffix))
	}

	if c.IsGitRepo {
		if c.GitBranch != "" {
			parts = append(parts, fmt.Sprintf("Git: branch '%s'", c.GitBranch))
		} else {
			parts = append(parts, "Git: yes")
		}
	}
	return strings.Join(parts, "\n")
}

// listDirectory produces ls -F style names, directories first.
func listDirectory(dir string) []string {
	handle, err := os.Open(dir)
	if err != nil {
		return nil
	}
	defer handle.Close()

	raw, err := handle.ReadDir(maxEntries)
	if err != nil && len(raw) == 0 {
		return nil
	}

	entries := make([]string, 0, len(raw))
	for _, entry := range raw {
		name := entry.Name()
		switch {
		case entry.IsDir():
			name += "/"
		case entry.Type()&os.ModeSymlink != 0:
			name += "@"
		}
		entries = append(entries, name)
	}

	sort.Slice(entries, func(i, j int) bool {
		iDir := strings.HasSuffix(entries[i], "/")
		jDir := strings.HasSuffix(entries[j], "/")
		if iDir != jDir {
			return iDir
		}
		return strings.ToLower(entries[i]) < strings.ToLower(entries[j])
	})
	return entries
}

func gitInfo(dir string) (bool, string) {
	if !insideGitRepo(dir) {
		return false, ""
	}
	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return true, ""
	}
	return true, strings.TrimSpace(string(out))
}

// insideGitRepo checks for a .git entry here or in any parent, which is
// cheaper than shelling out when the answer is no.
func insideGitRepo(dir string) bool {
	current := dir
	for {
		if _, err := os.Stat(filepath.Join(current, ".git")); err == nil {
			return true
		}
		parent := filepath.Dir(current)
		if parent == current {
			return false
		}
		current = parent
	}
}
