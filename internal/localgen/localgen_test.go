package localgen

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// byteTokenizer maps each byte to an id offset past the two terminator ids.
type byteTokenizer struct{}

func (byteTokenizer) Encode(text string) ([]int, error) {
	ids := make([]int, len(text))
	for i := 0; i < len(text); i++ {
		ids[i] = int(text[i]) + 2
	}
	return ids, nil
}

func (byteTokenizer) Decode(ids []int) (string, error) {
	out := make([]byte, len(ids))
	for i, id := range ids {
		if id < 2 {
			return "", fmt.Errorf("terminator id %d in decode input", id)
		}
		out[i] = byte(id - 2)
	}
	return string(out), nil
}

// scriptedModel emits a fixed id sequence and records every Forward call.
type scriptedModel struct {
	script []int
	step   int

	calls []forwardCall
}

type forwardCall struct {
	ids []int
	pos int
}

func (m *scriptedModel) Reset() { m.step = 0 }

func (m *scriptedModel) Forward(ids []int, pos int) ([]float32, error) {
	m.calls = append(m.calls, forwardCall{ids: append([]int(nil), ids...), pos: pos})
	logits := make([]float32, 300)
	want := 0
	if m.step < len(m.script) {
		want = m.script[m.step]
	}
	m.step++
	logits[want] = 10
	return logits, nil
}

func encodeByte(b byte) int { return int(b) + 2 }

func TestGenerateZeroBudgetDoesNoWork(t *testing.T) {
	model := &scriptedModel{}
	gen := New(byteTokenizer{}, model, [2]int{0, 1})

	out, err := gen.Generate("ls", 0, 0)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
	if len(model.calls) != 0 {
		t.Fatalf("expected zero forward steps, got %d", len(model.calls))
	}
}

func TestGenerateFeedsPromptThenSuffixes(t *testing.T) {
	model := &scriptedModel{script: []int{encodeByte('O'), encodeByte('K')}}
	gen := New(byteTokenizer{}, model, [2]int{0, 1})

	out, err := gen.Generate("hi", 2, 0)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out != "OK" {
		t.Fatalf("expected decoded suffix OK, got %q", out)
	}

	if len(model.calls) != 2 {
		t.Fatalf("expected 2 forward calls, got %d", len(model.calls))
	}
	if len(model.calls[0].ids) != 2 || model.calls[0].pos != 0 {
		t.Fatalf("first call should feed the whole prompt at position 0, got %+v", model.calls[0])
	}
	if len(model.calls[1].ids) != 1 || model.calls[1].pos != 2 {
		t.Fatalf("second call should feed one id at position 2, got %+v", model.calls[1])
	}
	if model.calls[1].ids[0] != encodeByte('O') {
		t.Fatalf("second call should feed the freshly sampled id, got %d", model.calls[1].ids[0])
	}
}

func TestGenerateStopsAtTerminatorAndExcludesIt(t *testing.T) {
	model := &scriptedModel{script: []int{encodeByte('o'), encodeByte('k'), 1, encodeByte('x')}}
	gen := New(byteTokenizer{}, model, [2]int{0, 1})

	out, err := gen.Generate("q", 10, 0)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out != "ok" {
		t.Fatalf("expected generation to stop before the terminator, got %q", out)
	}
	if len(model.calls) != 3 {
		t.Fatalf("expected no forward steps after the terminator, got %d calls", len(model.calls))
	}
}

func TestGreedySamplingIsDeterministic(t *testing.T) {
	var outputs []string
	for i := 0; i < 3; i++ {
		model := &scriptedModel{script: []int{encodeByte('a'), encodeByte('b'), encodeByte('c')}}
		gen := New(byteTokenizer{}, model, [2]int{0, 1})
		out, err := gen.Generate("same prompt", 3, 0)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		outputs = append(outputs, out)
	}
	if outputs[0] != "abc" || outputs[1] != outputs[0] || outputs[2] != outputs[0] {
		t.Fatalf("greedy runs diverged: %v", outputs)
	}
}

func TestTemperatureSamplingFallsBackToLastIndex(t *testing.T) {
	model := &scriptedModel{script: []int{encodeByte('z')}}
	gen := New(byteTokenizer{}, model, [2]int{0, 1})
	// A draw of ~1.0 can exceed the cumulative sum after float rounding;
	// the sampler must land on the final index instead of failing.
	gen.rand = func() float64 { return 0.9999999999999999 }

	if _, err := gen.Generate("q", 1, 0.7); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
}

func TestGenerateStripsResidualMarkup(t *testing.T) {
	script := make([]int, 0, 16)
	for _, b := range []byte("ls<|im_end|>") {
		script = append(script, encodeByte(b))
	}
	model := &scriptedModel{script: script}
	gen := New(byteTokenizer{}, model, [2]int{0, 1})

	out, err := gen.Generate("q", len(script), 0)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out != "ls" {
		t.Fatalf("expected markup stripped, got %q", out)
	}
}

type failingTokenizer struct{ byteTokenizer }

func (failingTokenizer) Encode(string) ([]int, error) {
	return nil, errors.New("bad byte sequence")
}

func TestTokenizerFailureBecomesGenerationError(t *testing.T) {
	gen := New(failingTokenizer{}, &scriptedModel{}, [2]int{0, 1})

	_, err := gen.Generate("q", 4, 0)
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if genErr.Stage != "tokenize" {
		t.Fatalf("expected tokenize stage, got %q", genErr.Stage)
	}
	if genErr.Unwrap() == nil {
		t.Fatalf("expected the cause to be attached")
	}
}

func TestLoadArtifactEndToEnd(t *testing.T) {
	// Vocabulary: 0 unk, 1 and 2 terminators, then word pieces. The
	// transitions steer "suggest: " toward "DANGEROUS:false\nCOMMAND:ls".
	art := `{
		"vocab": ["<unk>", "<|im_end|>", "<|endoftext|>", "suggest: ", "DANGEROUS:false\n", "COMMAND:", "ls"],
		"transitions": {
			"3 4": {"5": 5},
			"4 5": {"6": 5},
			"5 6": {"1": 5}
		},
		"unigrams": {"4": 9, "5": 8},
		"terminators": [1, 2],
		"context_window": 64
	}`
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(art), 0o644); err != nil {
		t.Fatalf("could not write artifact: %v", err)
	}

	gen, err := LoadArtifact(path)
	if err != nil {
		t.Fatalf("LoadArtifact() error = %v", err)
	}
	out, err := gen.Generate("suggest: ", 8, 0)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out != "DANGEROUS:false\nCOMMAND:ls" {
		t.Fatalf("unexpected generation %q", out)
	}
}

func TestLoadArtifactRejectsBadKeys(t *testing.T) {
	art := `{
		"vocab": ["<unk>", "a"],
		"transitions": {"nope": {"1": 1}},
		"terminators": [0, 0]
	}`
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(art), 0o644); err != nil {
		t.Fatalf("could not write artifact: %v", err)
	}
	if _, err := LoadArtifact(path); err == nil {
		t.Fatalf("expected an error for a malformed transition key")
	}
}
