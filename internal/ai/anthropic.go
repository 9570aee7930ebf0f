package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/smadgulkar/spren/internal/config"
	"github.com/smadgulkar/spren/internal/extract"
	"github.com/smadgulkar/spren/internal/shell"
)

const anthropicDefaultBaseURL = "https://api.anthropic.com"

type anthropicProvider struct {
	apiKey    string
	model     string
	maxTokens int
	shellName string
	baseURL   string
	client    *http.Client
}

func newAnthropic(cfg config.Config, kind shell.Kind) (*anthropicProvider, error) {
	apiKey := cfg.APIKeyFor(config.ProviderAnthropic)
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: set 'anthropic_api_key' in config: %w", ErrMissingAPIKey)
	}
	return &anthropicProvider{
		apiKey:    apiKey,
		model:     cfg.ModelOrDefault(),
		maxTokens: cfg.AI.MaxTokens,
		shellName: kind.Name(),
		baseURL:   anthropicDefaultBaseURL,
		client:    &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (p *anthropicProvider) Name() string { return config.ProviderAnthropic }

func (p *anthropicProvider) SuggestCommand(ctx context.Context, query string) (extract.Suggestion, error) {
	text, err := p.complete(ctx, suggestSystemPrompt, buildCommandPrompt(p.shellName, query))
	if err != nil {
		return extract.Suggestion{}, err
	}
	return extract.Parse(text)
}

func (p *anthropicProvider) ExplainError(ctx context.Context, command, stdout, stderr string) (string, error) {
	text, err := p.complete(ctx, explainSystemPrompt, buildErrorPrompt(p.shellName, command, stdout, stderr))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (p *anthropicProvider) complete(ctx context.Context, system, prompt string) (string, error) {
	payload, err := json.Marshal(anthropicRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		System:    system,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: could not encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("anthropic: could not build request: %w", err)
	}
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic: request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("anthropic: could not decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("anthropic: api error: %s", parsed.Error.Message)
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("anthropic: api returned no content")
	}
	return parsed.Content[0].Text, nil
}
