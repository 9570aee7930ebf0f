package ui

import "testing"

func TestNormalizeBackend(t *testing.T) {
	cases := map[string]string{
		"":            BackendAuto,
		"auto":        BackendAuto,
		" BubbleTea ": BackendBubbleTea,
		"huh":         BackendHuh,
		"tview":       BackendTView,
		"plain":       BackendPlain,
		"ncurses":     BackendAuto,
	}
	for input, want := range cases {
		if got := NormalizeBackend(input); got != want {
			t.Fatalf("NormalizeBackend(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestBackendCandidatesAlwaysEndWithPlain(t *testing.T) {
	for _, backend := range []string{BackendAuto, BackendBubbleTea, BackendHuh, BackendTView, BackendPlain} {
		candidates := backendCandidates(backend)
		if len(candidates) == 0 {
			t.Fatalf("no candidates for %q", backend)
		}
		if candidates[len(candidates)-1] != BackendPlain {
			t.Fatalf("candidates for %q should end with plain, got %v", backend, candidates)
		}
	}
}

func TestBackendCandidatesHonorPreference(t *testing.T) {
	if got := backendCandidates(BackendTView)[0]; got != BackendTView {
		t.Fatalf("preferred backend should come first, got %q", got)
	}
	if got := backendCandidates(BackendPlain); len(got) != 1 {
		t.Fatalf("plain preference should skip the TUI chain, got %v", got)
	}
}
