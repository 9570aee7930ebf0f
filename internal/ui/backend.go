package ui

import "strings"

const (
	BackendAuto      = "auto"
	BackendBubbleTea = "bubbletea"
	BackendHuh       = "huh"
	BackendTView     = "tview"
	BackendPlain     = "plain"
)

func NormalizeBackend(backend string) string {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendBubbleTea:
		return BackendBubbleTea
	case BackendHuh:
		return BackendHuh
	case BackendTView:
		return BackendTView
	case BackendPlain:
		return BackendPlain
	default:
		return BackendAuto
	}
}

// backendCandidates orders the backends to try for the given preference.
// The plain line-based prompt is always last so confirmation still works on
// dumb terminals where every TUI library fails to start.
func backendCandidates(backend string) []string {
	switch NormalizeBackend(backend) {
	case BackendHuh:
		return []string{BackendHuh, BackendBubbleTea, BackendTView, BackendPlain}
	case BackendTView:
		return []string{BackendTView, BackendBubbleTea, BackendHuh, BackendPlain}
	case BackendPlain:
		return []string{BackendPlain}
	default:
		return []string{BackendBubbleTea, BackendHuh, BackendTView, BackendPlain}
	}
}
