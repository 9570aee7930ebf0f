package ai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/smadgulkar/spren/internal/config"
	"github.com/smadgulkar/spren/internal/extract"
	"github.com/smadgulkar/spren/internal/shell"
)

type openaiProvider struct {
	client    *openai.Client
	model     string
	maxTokens int
	shellName string
}

func newOpenAI(cfg config.Config, kind shell.Kind) (*openaiProvider, error) {
	apiKey := cfg.APIKeyFor(config.ProviderOpenAI)
	if apiKey == "" {
		return nil, fmt.Errorf("openai: set 'openai_api_key' in config: %w", ErrMissingAPIKey)
	}
	clientCfg := openai.DefaultConfig(apiKey)
	return &openaiProvider{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.ModelOrDefault(),
		maxTokens: cfg.AI.MaxTokens,
		shellName: kind.Name(),
	}, nil
}

func (p *openaiProvider) Name() string { return config.ProviderOpenAI }

func (p *openaiProvider) SuggestCommand(ctx context.Context, query string) (extract.Suggestion, error) {
	text, err := p.complete(ctx, suggestSystemPrompt, buildCommandPrompt(p.shellName, query))
	if err != nil {
		return extract.Suggestion{}, err
	}
	return extract.Parse(text)
}

func (p *openaiProvider) ExplainError(ctx context.Context, command, stdout, stderr string) (string, error) {
	text, err := p.complete(ctx, explainSystemPrompt, buildErrorPrompt(p.shellName, command, stdout, stderr))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (p *openaiProvider) complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:               p.model,
		MaxCompletionTokens: p.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai: request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: api returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
