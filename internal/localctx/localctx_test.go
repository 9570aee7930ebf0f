package localctx

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGatherListsDirectoriesFirst(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"zebra.txt", "apple.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("could not seed file: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "src"), 0o755); err != nil {
		t.Fatalf("could not seed dir: %v", err)
	}

	ctx := Gather(dir)
	want := []string{"src/", "apple.txt", "zebra.txt"}
	if len(ctx.Files) != len(want) {
		t.Fatalf("unexpected listing %v", ctx.Files)
	}
	for i, name := range want {
		if ctx.Files[i] != name {
			t.Fatalf("entry %d = %q, want %q (full: %v)", i, ctx.Files[i], name, ctx.Files)
		}
	}
}

func TestGatherOutsideGitRepo(t *testing.T) {
	ctx := Gather(t.TempDir())
	if ctx.IsGitRepo {
		t.Fatalf("fresh temp dir should not look like a git repo")
	}
	if strings.Contains(ctx.PromptContext(), "Git:") {
		t.Fatalf("prompt context should not mention git: %q", ctx.PromptContext())
	}
}

func TestGatherDetectsGitFromParent(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatalf("could not seed .git: %v", err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("could not create nested dirs: %v", err)
	}

	ctx := Gather(nested)
	if !ctx.IsGitRepo {
		t.Fatalf("expected nested dir to be inside a git repo")
	}
}

func TestPromptContextCapsFileListing(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 30; i++ {
		name := filepath.Join(dir, fmt.Sprintf("file-%02d.txt", i))
		if err := os.WriteFile(name, nil, 0o644); err != nil {
			t.Fatalf("could not seed file: %v", err)
		}
	}

	out := Gather(dir).PromptContext()
	if !strings.Contains(out, "(+10 more)") {
		t.Fatalf("expected overflow suffix in %q", out)
	}
	if strings.Count(out, ".txt") != 20 {
		t.Fatalf("expected exactly 20 names in the preview, got %d", strings.Count(out, ".txt"))
	}
}

func TestPromptContextAlwaysNamesCWD(t *testing.T) {
	dir := t.TempDir()
	out := Gather(dir).PromptContext()
	if !strings.HasPrefix(out, "CWD: "+dir) {
		t.Fatalf("expected CWD line first, got %q", out)
	}
}
