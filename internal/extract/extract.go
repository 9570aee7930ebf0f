// Package extract pulls a runnable shell command out of free-form model
// output. Models rarely honor reply-format instructions perfectly, so a
// cascade of increasingly permissive heuristics handles the drift.
package extract

import (
	"fmt"
	"strings"
)

// Suggestion is a parsed model reply: the command to run and whether the
// model flagged it as destructive.
type Suggestion struct {
	Command   string
	Dangerous bool
}

// NotFoundError reports that no heuristic matched. Raw carries the full
// reply so the user can see what the model actually said.
type NotFoundError struct {
	Raw string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("could not extract command from response:\n%s", e.Raw)
}

// Parse extracts a suggestion from raw model output. The danger flag is read
// independently of command extraction, so a malformed reply that still says
// DANGEROUS:true keeps its warning.
func Parse(response string) (Suggestion, error) {
	response = strings.TrimSpace(response)

	low := strings.ToLower(response)
	dangerous := strings.Contains(low, "dangerous:true") || strings.Contains(low, "dangerous: true")

	command, err := Command(response)
	if err != nil {
		return Suggestion{}, err
	}
	return Suggestion{Command: command, Dangerous: dangerous}, nil
}

// Command runs the heuristic cascade in order and returns the first hit.
func Command(response string) (string, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		return "", &NotFoundError{Raw: response}
	}

	extractors := []func(string) (string, bool){
		fromCommandPrefix,
		fromCommandAnywhere,
		fromFencedBlock,
		fromInlineCode,
		fromTwoLineReply,
		fromBareCommand,
		fromAnyCommandLine,
	}
	for _, extractor := range extractors {
		if command, ok := extractor(response); ok {
			return command, nil
		}
	}
	return "", &NotFoundError{Raw: response}
}

// fromCommandPrefix matches lines starting with "COMMAND:", any case.
func fromCommandPrefix(response string) (string, bool) {
	for _, line := range strings.Split(response, "\n") {
		if strings.HasPrefix(strings.ToLower(line), "command:") {
			cmd := strings.TrimSpace(line[len("command:"):])
			if cmd != "" {
				return stripBackticks(cmd), true
			}
		}
	}
	return "", false
}

// fromCommandAnywhere matches "COMMAND:" appearing mid-line, as in
// "Here you go: COMMAND: ls".
func fromCommandAnywhere(response string) (string, bool) {
	for _, line := range strings.Split(response, "\n") {
		if pos := strings.Index(strings.ToLower(line), "command:"); pos >= 0 {
			cmd := strings.TrimSpace(line[pos+len("command:"):])
			if cmd != "" {
				return stripBackticks(cmd), true
			}
		}
	}
	return "", false
}

// fromFencedBlock takes the body of the first ``` code fence, skipping a
// language tag on the opening line.
func fromFencedBlock(response string) (string, bool) {
	start := strings.Index(response, "```")
	if start < 0 {
		return "", false
	}
	afterFence := response[start+3:]
	bodyStart := 0
	if nl := strings.Index(afterFence, "\n"); nl >= 0 {
		bodyStart = nl + 1
	}
	end := strings.Index(afterFence[bodyStart:], "```")
	if end < 0 {
		return "", false
	}
	cmd := strings.TrimSpace(afterFence[bodyStart : bodyStart+end])
	return cmd, cmd != ""
}

// fromInlineCode takes the first single-backtick span, provided it fits on
// one line.
func fromInlineCode(response string) (string, bool) {
	start := strings.IndexByte(response, '`')
	if start < 0 {
		return "", false
	}
	rest := response[start+1:]
	end := strings.IndexByte(rest, '`')
	if end < 0 {
		return "", false
	}
	cmd := rest[:end]
	if cmd == "" || strings.Contains(cmd, "\n") {
		return "", false
	}
	return cmd, true
}

// fromTwoLineReply assumes the expected two-line format lost its COMMAND
// label: the second line is the command unless it is the DANGEROUS line.
func fromTwoLineReply(response string) (string, bool) {
	lines := strings.Split(response, "\n")
	if len(lines) != 2 {
		return "", false
	}
	second := strings.TrimSpace(lines[1])
	if strings.HasPrefix(strings.ToLower(second), "dangerous") {
		return "", false
	}
	return stripBackticks(second), true
}

// fromBareCommand accepts a single-line reply that plainly is a command.
func fromBareCommand(response string) (string, bool) {
	lines := strings.Split(response, "\n")
	if len(lines) != 1 {
		return "", false
	}
	line := strings.TrimSpace(lines[0])
	if !looksLikeCommand(line) {
		return "", false
	}
	return stripBackticks(line), true
}

// fromAnyCommandLine scans every line for something command-shaped, skipping
// lines that mention the danger flag.
func fromAnyCommandLine(response string) (string, bool) {
	for _, line := range strings.Split(response, "\n") {
		trimmed := strings.TrimSpace(line)
		if looksLikeCommand(trimmed) && !strings.Contains(strings.ToLower(trimmed), "dangerous") {
			return stripBackticks(trimmed), true
		}
	}
	return "", false
}

func stripBackticks(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.HasPrefix(s, "`") && strings.HasSuffix(s, "`") {
		return s[1 : len(s)-1]
	}
	return s
}

var commonPrefixes = []string{
	"ls", "cd", "cat", "grep", "find", "du", "df", "free", "top", "ps",
	"kill", "mkdir", "rm", "cp", "mv", "chmod", "chown", "sudo", "apt",
	"yum", "dnf", "pacman", "brew", "npm", "yarn", "cargo", "git", "docker",
	"kubectl", "curl", "wget", "ssh", "scp", "tar", "zip", "unzip", "head",
	"tail", "sort", "uniq", "wc", "awk", "sed", "echo", "printf", "touch",
	"nano", "vim", "vi", "systemctl", "journalctl", "htop", "ncdu", "tree",
}

// looksLikeCommand reports whether s starts with a well-known program name
// followed by end-of-string or a space.
func looksLikeCommand(s string) bool {
	low := strings.ToLower(s)
	for _, prefix := range commonPrefixes {
		if !strings.HasPrefix(low, prefix) {
			continue
		}
		if len(low) == len(prefix) || low[len(prefix)] == ' ' {
			return true
		}
	}
	return false
}
