package shell

import (
	"runtime"
	"testing"
)

func TestDetectPrefersExplicitOverride(t *testing.T) {
	t.Setenv("SHELL", "/bin/bash")

	if got := Detect("fish"); got != Fish {
		t.Fatalf("Detect(fish) = %q, want fish", got)
	}
	if got := Detect("/usr/local/bin/zsh"); got != Zsh {
		t.Fatalf("Detect(zsh path) = %q, want zsh", got)
	}
}

func TestDetectFallsBackToShellEnv(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("$SHELL detection is a Unix path")
	}
	t.Setenv("SHELL", "/usr/bin/zsh")

	if got := Detect(""); got != Zsh {
		t.Fatalf("Detect() = %q, want zsh from $SHELL", got)
	}
}

func TestDetectIgnoresUnknownValues(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Unix default path")
	}
	t.Setenv("SHELL", "/opt/mystery/xonsh")

	if got := Detect("definitely-not-a-shell"); got != Bash {
		t.Fatalf("Detect() = %q, want bash fallback", got)
	}
}

func TestNameAndWindowsClassification(t *testing.T) {
	if PowerShell.Name() != "PowerShell" {
		t.Fatalf("unexpected PowerShell name %q", PowerShell.Name())
	}
	if !PowerShell.IsWindows() || !Cmd.IsWindows() {
		t.Fatalf("expected PowerShell and Cmd to be Windows shells")
	}
	if Bash.IsWindows() || Zsh.IsWindows() {
		t.Fatalf("did not expect Unix shells to be Windows shells")
	}
}
