// Package ai selects and drives the model backend that turns natural
// language into shell commands.
package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/smadgulkar/spren/internal/config"
	"github.com/smadgulkar/spren/internal/extract"
	"github.com/smadgulkar/spren/internal/shell"
)

// ErrMissingAPIKey marks a selected provider without a credential. Surfaced
// before any network call is attempted.
var ErrMissingAPIKey = errors.New("api key not configured")

// Provider is one model backend. SuggestCommand turns a request into a
// parsed suggestion; ExplainError produces a short prose diagnosis of a
// failed command.
type Provider interface {
	Name() string
	SuggestCommand(ctx context.Context, query string) (extract.Suggestion, error)
	ExplainError(ctx context.Context, command, stdout, stderr string) (string, error)
}

// New builds the provider the config selects. A missing credential is
// reported immediately rather than on first use.
func New(cfg config.Config, kind shell.Kind) (Provider, error) {
	switch cfg.AI.Provider {
	case config.ProviderAnthropic:
		return newAnthropic(cfg, kind)
	case config.ProviderOpenAI:
		return newOpenAI(cfg, kind)
	case config.ProviderGemini:
		return newGemini(cfg, kind)
	case config.ProviderLocal:
		return newLocal(cfg, kind), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.AI.Provider)
	}
}
