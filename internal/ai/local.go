package ai

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/smadgulkar/spren/internal/appdirs"
	"github.com/smadgulkar/spren/internal/config"
	"github.com/smadgulkar/spren/internal/extract"
	"github.com/smadgulkar/spren/internal/localctx"
	"github.com/smadgulkar/spren/internal/localgen"
	"github.com/smadgulkar/spren/internal/shell"
)

// localMaxTokens caps generation for command suggestions; a shell command
// never needs more and small models drift badly past this.
const localMaxTokens = 100

// localProvider runs generation in-process. The model loads lazily on first
// use and the mutex both guards initialization and serializes generation,
// since the model handle is stateful.
type localProvider struct {
	modelDir    string
	modelName   string
	maxTokens   int
	temperature float64
	shellName   string

	mu        sync.Mutex
	generator *localgen.Generator

	gather func() localctx.Context
}

func newLocal(cfg config.Config, kind shell.Kind) *localProvider {
	maxTokens := cfg.AI.MaxTokens
	if maxTokens > localMaxTokens {
		maxTokens = localMaxTokens
	}
	return &localProvider{
		modelDir:    cfg.AI.LocalModelDir,
		modelName:   cfg.ModelOrDefault(),
		maxTokens:   maxTokens,
		temperature: cfg.AI.Temperature,
		shellName:   kind.Name(),
		gather:      func() localctx.Context { return localctx.Gather("") },
	}
}

func (p *localProvider) Name() string { return config.ProviderLocal }

func (p *localProvider) SuggestCommand(ctx context.Context, query string) (extract.Suggestion, error) {
	prompt := p.promptWithContext(buildCommandPrompt(p.shellName, query))
	text, err := p.generate(prompt)
	if err != nil {
		return extract.Suggestion{}, err
	}
	return extract.Parse(text)
}

func (p *localProvider) ExplainError(ctx context.Context, command, stdout, stderr string) (string, error) {
	text, err := p.generate(buildErrorPrompt(p.shellName, command, stdout, stderr))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (p *localProvider) promptWithContext(prompt string) string {
	snapshot := p.gather().PromptContext()
	if snapshot == "" {
		return prompt
	}
	return snapshot + "\n\n" + prompt
}

func (p *localProvider) generate(prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.generator == nil {
		path, err := p.artifactPath()
		if err != nil {
			return "", err
		}
		generator, err := localgen.LoadArtifact(path)
		if err != nil {
			return "", fmt.Errorf("local: could not load model: %w", err)
		}
		p.generator = generator
	}
	return p.generator.Generate(prompt, p.maxTokens, p.temperature)
}

func (p *localProvider) artifactPath() (string, error) {
	dir := p.modelDir
	if dir == "" {
		var err error
		dir, err = appdirs.EnsureModelsDir()
		if err != nil {
			return "", fmt.Errorf("local: could not resolve models dir: %w", err)
		}
	}
	return filepath.Join(dir, p.modelName+".json"), nil
}
