package extract

import (
	"errors"
	"strings"
	"testing"
)

func TestParseWellFormedReply(t *testing.T) {
	got, err := Parse("DANGEROUS:false\nCOMMAND:ls -la")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got.Command != "ls -la" {
		t.Fatalf("Command = %q, want %q", got.Command, "ls -la")
	}
	if got.Dangerous {
		t.Fatalf("did not expect danger flag")
	}
}

func TestParseDangerFlagVariants(t *testing.T) {
	for _, reply := range []string{
		"DANGEROUS:true\nCOMMAND:rm -rf ./build",
		"dangerous: true\ncommand: rm -rf ./build",
		"Dangerous: True\nCOMMAND:rm -rf ./build",
	} {
		got, err := Parse(reply)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", reply, err)
		}
		if !got.Dangerous {
			t.Fatalf("Parse(%q) should carry danger flag", reply)
		}
	}
}

func TestCommandPrefixSkipsEmptyLabel(t *testing.T) {
	got, err := Command("COMMAND:\nHere it is: COMMAND: df -h")
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}
	if got != "df -h" {
		t.Fatalf("expected mid-line match to rescue empty label, got %q", got)
	}
}

func TestCommandLabelMidLine(t *testing.T) {
	got, err := Command("Sure! COMMAND: du -sh *")
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}
	if got != "du -sh *" {
		t.Fatalf("got %q", got)
	}
}

func TestCommandLabelStripsBackticks(t *testing.T) {
	got, err := Command("COMMAND: `git status`")
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}
	if got != "git status" {
		t.Fatalf("got %q", got)
	}
}

func TestFencedBlockWithLanguageTag(t *testing.T) {
	reply := "Use this:\n```bash\nfind . -name '*.log' -delete\n```\nthat should do it"
	got, err := Command(reply)
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}
	if got != "find . -name '*.log' -delete" {
		t.Fatalf("got %q", got)
	}
}

func TestInlineCodeSpan(t *testing.T) {
	got, err := Command("Try `uptime -p` to see it.")
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}
	if got != "uptime -p" {
		t.Fatalf("got %q", got)
	}
}

func TestInlineCodeSpanRejectsMultiline(t *testing.T) {
	// The only backtick span straddles a newline, and nothing else in the
	// reply resembles a command.
	_, err := Command("pre `broken\nspan` post")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestTwoLineReplyWithoutLabel(t *testing.T) {
	got, err := Command("DANGEROUS:false\nuptime -p")
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}
	if got != "uptime -p" {
		t.Fatalf("got %q", got)
	}
}

func TestTwoLineReplySkipsDangerLine(t *testing.T) {
	// Both lines are metadata, so the cascade should fall through and fail.
	_, err := Command("unusual reply\nDANGEROUS:false")
	if err == nil {
		t.Fatalf("expected extraction failure")
	}
}

func TestBareSingleLineCommand(t *testing.T) {
	got, err := Command("docker ps -a")
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}
	if got != "docker ps -a" {
		t.Fatalf("got %q", got)
	}
}

func TestScanFindsCommandLineInProse(t *testing.T) {
	reply := "Sure thing, here is what I would run.\nIt searches every file under src.\ngrep -r TODO src\nHope that helps!"
	got, err := Command(reply)
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}
	if got != "grep -r TODO src" {
		t.Fatalf("scan should find the command-shaped line, got %q", got)
	}
}

func TestLooksLikeCommandNeedsWordBoundary(t *testing.T) {
	if looksLikeCommand("vimdiff a b") {
		t.Fatalf("vimdiff should not match the vim prefix")
	}
	if looksLikeCommand("catalog show") {
		t.Fatalf("catalog should not match the cat prefix")
	}
	if !looksLikeCommand("vim notes.txt") {
		t.Fatalf("vim with a space should match")
	}
	if !looksLikeCommand("ls") {
		t.Fatalf("a bare program name should match")
	}
}

func TestEmptyResponse(t *testing.T) {
	_, err := Command("   \n  ")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError for blank input, got %v", err)
	}
}

func TestNotFoundCarriesRawReply(t *testing.T) {
	reply := "I am sorry, I cannot help with that."
	_, err := Command(reply)
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if !strings.Contains(notFound.Raw, "cannot help") {
		t.Fatalf("Raw should carry the reply, got %q", notFound.Raw)
	}
}

func TestCascadeOrderPrefersLabelOverFence(t *testing.T) {
	reply := "COMMAND: ls -la\n```bash\nrm -rf /\n```"
	got, err := Command(reply)
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}
	if got != "ls -la" {
		t.Fatalf("label should beat fence, got %q", got)
	}
}
