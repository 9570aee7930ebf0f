package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/smadgulkar/spren/internal/config"
	"github.com/smadgulkar/spren/internal/extract"
	"github.com/smadgulkar/spren/internal/shell"
	"google.golang.org/genai"
)

// geminiProvider folds the system prompt into the user text, which keeps
// the request shape uniform across gemini model generations.
type geminiProvider struct {
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	shellName   string

	client *genai.Client
}

func newGemini(cfg config.Config, kind shell.Kind) (*geminiProvider, error) {
	apiKey := cfg.APIKeyFor(config.ProviderGemini)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: set 'gemini_api_key' in config: %w", ErrMissingAPIKey)
	}
	return &geminiProvider{
		apiKey:      apiKey,
		model:       cfg.ModelOrDefault(),
		maxTokens:   cfg.AI.MaxTokens,
		temperature: cfg.AI.Temperature,
		shellName:   kind.Name(),
	}, nil
}

func (p *geminiProvider) Name() string { return config.ProviderGemini }

func (p *geminiProvider) SuggestCommand(ctx context.Context, query string) (extract.Suggestion, error) {
	prompt := fmt.Sprintf("%s\n\n%s", suggestSystemPrompt, buildCommandPrompt(p.shellName, query))
	text, err := p.complete(ctx, prompt)
	if err != nil {
		return extract.Suggestion{}, err
	}
	return extract.Parse(text)
}

func (p *geminiProvider) ExplainError(ctx context.Context, command, stdout, stderr string) (string, error) {
	prompt := fmt.Sprintf("%s\n\n%s", explainSystemPrompt, buildErrorPrompt(p.shellName, command, stdout, stderr))
	text, err := p.complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (p *geminiProvider) complete(ctx context.Context, prompt string) (string, error) {
	if p.client == nil {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: p.apiKey})
		if err != nil {
			return "", fmt.Errorf("gemini: could not create client: %w", err)
		}
		p.client = client
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(p.temperature)),
		MaxOutputTokens: int32(p.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("gemini: request failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: api returned no candidates")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
