package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
)

// SetupDecision is the outcome of the first-run setup form.
type SetupDecision struct {
	Provider string
	APIKey   string
	Skipped  bool
}

// FirstRunSetup walks a new user through picking a provider and entering its
// credential. Returns Skipped when the user backs out or when no interactive
// backend could start; the caller then leaves the default config in place.
func FirstRunSetup(configPath string) (SetupDecision, error) {
	provider := "anthropic"
	apiKey := ""

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which AI provider should spren use?").
				Options(
					huh.NewOption("Anthropic (Claude)", "anthropic"),
					huh.NewOption("OpenAI (GPT)", "openai"),
					huh.NewOption("Google (Gemini)", "gemini"),
					huh.NewOption("Local model (no API key)", "local"),
				).
				Value(&provider),
			huh.NewInput().
				Title("API key").
				Description(fmt.Sprintf("Stored in %s", configPath)).
				EchoMode(huh.EchoModePassword).
				Value(&apiKey),
		),
	).WithTheme(huh.ThemeCharm())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return SetupDecision{Skipped: true}, nil
		}
		return SetupDecision{Skipped: true}, err
	}

	apiKey = strings.TrimSpace(apiKey)
	if provider != "local" && apiKey == "" {
		return SetupDecision{Skipped: true}, nil
	}
	return SetupDecision{Provider: provider, APIKey: apiKey}, nil
}
