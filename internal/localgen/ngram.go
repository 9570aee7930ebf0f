package localgen

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// artifact is the on-disk model format: a vocabulary plus bigram transition
// weights keyed by "prev1 prev2" id pairs.
type artifact struct {
	Vocab         []string                      `json:"vocab"`
	Transitions   map[string]map[string]float32 `json:"transitions"`
	Unigrams      map[string]float32            `json:"unigrams"`
	Terminators   [2]int                        `json:"terminators"`
	ContextWindow int                           `json:"context_window"`
}

// LoadArtifact reads a model file and returns a ready Generator.
func LoadArtifact(path string) (*Generator, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read model artifact: %w", err)
	}
	var art artifact
	if err := json.Unmarshal(raw, &art); err != nil {
		return nil, fmt.Errorf("could not parse model artifact: %w", err)
	}
	if len(art.Vocab) == 0 {
		return nil, fmt.Errorf("model artifact has an empty vocabulary")
	}
	if art.ContextWindow <= 0 {
		art.ContextWindow = 512
	}

	tokenizer := newVocabTokenizer(art.Vocab)
	model, err := newNgramModel(&art)
	if err != nil {
		return nil, err
	}
	return New(tokenizer, model, art.Terminators), nil
}

// vocabTokenizer does greedy longest-match segmentation over the vocabulary.
// Unmatched runes fall back to id 0, which artifacts reserve for unknowns.
type vocabTokenizer struct {
	vocab  []string
	lookup map[string]int
	maxLen int
}

func newVocabTokenizer(vocab []string) *vocabTokenizer {
	t := &vocabTokenizer{vocab: vocab, lookup: make(map[string]int, len(vocab))}
	for id, piece := range vocab {
		t.lookup[piece] = id
		if len(piece) > t.maxLen {
			t.maxLen = len(piece)
		}
	}
	return t
}

func (t *vocabTokenizer) Encode(text string) ([]int, error) {
	var ids []int
	for pos := 0; pos < len(text); {
		matched := false
		limit := len(text) - pos
		if limit > t.maxLen {
			limit = t.maxLen
		}
		for length := limit; length > 0; length-- {
			if id, ok := t.lookup[text[pos:pos+length]]; ok {
				ids = append(ids, id)
				pos += length
				matched = true
				break
			}
		}
		if !matched {
			ids = append(ids, 0)
			pos++
		}
	}
	return ids, nil
}

func (t *vocabTokenizer) Decode(ids []int) (string, error) {
	var b strings.Builder
	for _, id := range ids {
		if id < 0 || id >= len(t.vocab) {
			return "", fmt.Errorf("token id %d outside vocabulary of %d", id, len(t.vocab))
		}
		b.WriteString(t.vocab[id])
	}
	return b.String(), nil
}

// ngramModel predicts from the last two ids of its accumulated history,
// backing off to unigram weights when the pair is unseen.
type ngramModel struct {
	vocabSize     int
	transitions   map[[2]int][]float32
	unigrams      []float32
	contextWindow int
	history       []int
	seen          int
}

func newNgramModel(art *artifact) (*ngramModel, error) {
	m := &ngramModel{
		vocabSize:     len(art.Vocab),
		transitions:   make(map[[2]int][]float32, len(art.Transitions)),
		unigrams:      make([]float32, len(art.Vocab)),
		contextWindow: art.ContextWindow,
	}

	for id := range m.unigrams {
		m.unigrams[id] = 1 // smoothing floor
	}
	for key, weight := range art.Unigrams {
		id, err := strconv.Atoi(key)
		if err != nil || id < 0 || id >= m.vocabSize {
			return nil, fmt.Errorf("model artifact has bad unigram key %q", key)
		}
		m.unigrams[id] = weight
	}

	for key, row := range art.Transitions {
		pair, err := parsePair(key, m.vocabSize)
		if err != nil {
			return nil, err
		}
		logits := make([]float32, m.vocabSize)
		for next, weight := range row {
			id, err := strconv.Atoi(next)
			if err != nil || id < 0 || id >= m.vocabSize {
				return nil, fmt.Errorf("model artifact has bad transition target %q", next)
			}
			logits[id] = weight
		}
		m.transitions[pair] = logits
	}
	return m, nil
}

func parsePair(key string, vocabSize int) ([2]int, error) {
	fields := strings.Fields(key)
	if len(fields) != 2 {
		return [2]int{}, fmt.Errorf("model artifact has bad transition key %q", key)
	}
	var pair [2]int
	for i, field := range fields {
		id, err := strconv.Atoi(field)
		if err != nil || id < 0 || id >= vocabSize {
			return [2]int{}, fmt.Errorf("model artifact has bad transition key %q", key)
		}
		pair[i] = id
	}
	return pair, nil
}

func (m *ngramModel) Reset() {
	m.history = m.history[:0]
	m.seen = 0
}

func (m *ngramModel) Forward(ids []int, pos int) ([]float32, error) {
	if pos != m.seen {
		return nil, fmt.Errorf("forward at position %d but %d ids seen", pos, m.seen)
	}
	for _, id := range ids {
		if id < 0 || id >= m.vocabSize {
			return nil, fmt.Errorf("token id %d outside vocabulary of %d", id, m.vocabSize)
		}
	}
	m.history = append(m.history, ids...)
	m.seen += len(ids)
	if len(m.history) > m.contextWindow {
		m.history = m.history[len(m.history)-m.contextWindow:]
	}
	if len(m.history) == 0 {
		return nil, fmt.Errorf("cannot predict from an empty sequence")
	}

	if len(m.history) >= 2 {
		pair := [2]int{m.history[len(m.history)-2], m.history[len(m.history)-1]}
		if logits, ok := m.transitions[pair]; ok {
			out := make([]float32, m.vocabSize)
			copy(out, logits)
			return out, nil
		}
	}
	out := make([]float32, m.vocabSize)
	copy(out, m.unigrams)
	return out, nil
}
