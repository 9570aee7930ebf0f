// Package localgen is the self-hosted text backend: an autoregressive
// sampling loop over a pluggable tokenizer and single-step model.
package localgen

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// Tokenizer maps between text and integer token ids.
type Tokenizer interface {
	Encode(text string) ([]int, error)
	Decode(ids []int) (string, error)
}

// Model is a stateful single-step inference engine. Forward feeds only the
// ids not seen since the previous step (the whole prompt first, then one id
// at a time) at the given absolute position, and returns logits over the
// vocabulary for the next token. Reset discards accumulated state so the
// model can serve a fresh generation.
type Model interface {
	Reset()
	Forward(ids []int, pos int) ([]float32, error)
}

// GenerationError wraps tokenizer, decode or forward failures.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("local generation failed during %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

type Generator struct {
	tokenizer   Tokenizer
	model       Model
	terminators [2]int

	// uniform draw in [0,1), swappable for deterministic tests
	rand func() float64
}

func New(tokenizer Tokenizer, model Model, terminators [2]int) *Generator {
	return &Generator{
		tokenizer:   tokenizer,
		model:       model,
		terminators: terminators,
		rand:        rand.Float64,
	}
}

// Generate produces up to maxTokens new tokens after prompt and decodes only
// those. Sampling is greedy when temperature <= 0, otherwise proportional
// over temperature-scaled logits. Hitting a terminator id stops generation
// and the terminator itself is never part of the output.
func (g *Generator) Generate(prompt string, maxTokens int, temperature float64) (string, error) {
	if maxTokens <= 0 {
		return "", nil
	}

	ids, err := g.tokenizer.Encode(prompt)
	if err != nil {
		return "", &GenerationError{Stage: "tokenize", Err: err}
	}
	promptLen := len(ids)

	g.model.Reset()
	for step := 0; step < maxTokens; step++ {
		var logits []float32
		if step == 0 {
			logits, err = g.model.Forward(ids, 0)
		} else {
			logits, err = g.model.Forward(ids[len(ids)-1:], len(ids)-1)
		}
		if err != nil {
			return "", &GenerationError{Stage: "forward", Err: err}
		}

		next := g.sample(logits, temperature)
		if next == g.terminators[0] || next == g.terminators[1] {
			break
		}
		ids = append(ids, next)
	}

	output, err := g.tokenizer.Decode(ids[promptLen:])
	if err != nil {
		return "", &GenerationError{Stage: "decode", Err: err}
	}
	return strings.TrimSpace(stripTerminatorMarkup(output)), nil
}

func (g *Generator) sample(logits []float32, temperature float64) int {
	if temperature <= 0 {
		return argmax(logits)
	}

	scaled := make([]float64, len(logits))
	max := math.Inf(-1)
	for i, logit := range logits {
		scaled[i] = float64(logit) / temperature
		if scaled[i] > max {
			max = scaled[i]
		}
	}

	// softmax with the usual max shift for stability
	var sum float64
	for i := range scaled {
		scaled[i] = math.Exp(scaled[i] - max)
		sum += scaled[i]
	}

	draw := g.rand() * sum
	var cumulative float64
	for i, p := range scaled {
		cumulative += p
		if cumulative >= draw {
			return i
		}
	}
	// rounding shortfall
	return len(scaled) - 1
}

func argmax(logits []float32) int {
	best := 0
	for i, logit := range logits {
		if logit > logits[best] {
			best = i
		}
	}
	return best
}

var terminatorMarkup = []string{"<|im_end|>", "<|endoftext|>", "<|end|>"}

func stripTerminatorMarkup(s string) string {
	for _, marker := range terminatorMarkup {
		s = strings.ReplaceAll(s, marker, "")
	}
	return s
}
