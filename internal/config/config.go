package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/smadgulkar/spren/internal/appdirs"
)

// Provider names accepted in the [ai] section.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderLocal     = "local"
)

const (
	DefaultAnthropicModel = "claude-3-5-haiku-20241022"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultGeminiModel    = "gemini-2.0-flash"
	DefaultLocalModel     = "spren-command-v1"
)

type AIConfig struct {
	Provider        string  `toml:"provider" json:"provider"`
	AnthropicAPIKey string  `toml:"anthropic_api_key,omitempty" json:"anthropic_api_key,omitempty"`
	OpenAIAPIKey    string  `toml:"openai_api_key,omitempty" json:"openai_api_key,omitempty"`
	GeminiAPIKey    string  `toml:"gemini_api_key,omitempty" json:"gemini_api_key,omitempty"`
	Model           string  `toml:"model" json:"model"`
	MaxTokens       int     `toml:"max_tokens" json:"max_tokens"`
	Temperature     float64 `toml:"temperature" json:"temperature"`
	LocalModelDir   string  `toml:"local_model_dir,omitempty" json:"local_model_dir,omitempty"`
}

type SecurityConfig struct {
	DangerousCommands   []string `toml:"dangerous_commands" json:"dangerous_commands"`
	RequireConfirmation bool     `toml:"require_confirmation" json:"require_confirmation"`
	MaxOutputSize       int      `toml:"max_output_size" json:"max_output_size"`
	MaxRetries          int      `toml:"max_retries" json:"max_retries"`
}

type DisplayConfig struct {
	ShowExecutionTime bool   `toml:"show_execution_time" json:"show_execution_time"`
	ColorOutput       bool   `toml:"color_output" json:"color_output"`
	PromptSymbol      string `toml:"prompt_symbol" json:"prompt_symbol"`
	UIBackend         string `toml:"ui_backend" json:"ui_backend"`
}

type ShellConfig struct {
	PreferredShell string `toml:"preferred_shell,omitempty" json:"preferred_shell,omitempty"`
}

type Config struct {
	AI       AIConfig       `toml:"ai" json:"ai"`
	Security SecurityConfig `toml:"security" json:"security"`
	Display  DisplayConfig  `toml:"display" json:"display"`
	Shell    ShellConfig    `toml:"shell" json:"shell"`
}

func Default() Config {
	return Config{
		AI: AIConfig{
			Provider:    ProviderAnthropic,
			Model:       "",
			MaxTokens:   1024,
			Temperature: 0.7,
		},
		Security: SecurityConfig{
			DangerousCommands:   defaultDangerousCommands(),
			RequireConfirmation: true,
			MaxOutputSize:       1 << 20,
			MaxRetries:          3,
		},
		Display: DisplayConfig{
			ShowExecutionTime: true,
			ColorOutput:       true,
			PromptSymbol:      "spren>",
			UIBackend:         "auto",
		},
		Shell: ShellConfig{},
	}
}

// defaultDangerousCommands is a substring blocklist that marks a suggestion
// dangerous even when the model classified it as safe. Unix, PowerShell and
// CMD spellings are all covered because suggestions follow the user's shell.
func defaultDangerousCommands() []string {
	return []string{
		"rm -rf",
		"mkfs",
		"dd if=",
		"shutdown",
		"reboot",
		"> /dev",
		"Remove-Item -Recurse",
		"Remove-Item -Force",
		"Format-Volume",
		"Stop-Computer",
		"Restart-Computer",
		"rmdir /s",
		"del /f",
	}
}

// LoadOrCreate reads the config file, writing a default one on first run.
// Returns the effective config and the path it lives at.
func LoadOrCreate() (Config, string, error) {
	path, err := appdirs.ConfigFilePath()
	if err != nil {
		return Config{}, "", err
	}

	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if _, err := appdirs.EnsureConfigDir(); err != nil {
			return Config{}, "", err
		}
		if err := Save(path, cfg); err != nil {
			return Config{}, "", err
		}
		return cfg, path, nil
	}
	if err != nil {
		return Config{}, "", fmt.Errorf("could not stat config path: %w", err)
	}

	bytes, err := os.ReadFile(path)
	if err != nil {
		return Config{}, "", fmt.Errorf("could not read config file: %w", err)
	}
	if err := toml.Unmarshal(bytes, &cfg); err != nil {
		return Config{}, "", fmt.Errorf("could not parse config file: %w", err)
	}
	cfg.normalize()
	return cfg, path, nil
}

func Load(path string) (Config, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("could not read config file: %w", err)
	}
	cfg := Default()
	if err := toml.Unmarshal(bytes, &cfg); err != nil {
		return Config{}, fmt.Errorf("could not parse config file: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func Save(path string, cfg Config) error {
	cfg.normalize()
	payload, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("could not serialize config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("could not create config dir: %w", err)
	}
	tempFile, err := os.CreateTemp(dir, ".spren-config-*.toml")
	if err != nil {
		return fmt.Errorf("could not create temp config file: %w", err)
	}
	tempPath := tempFile.Name()
	cleanup := func() {
		_ = os.Remove(tempPath)
	}

	if _, err := tempFile.Write(payload); err != nil {
		_ = tempFile.Close()
		cleanup()
		return fmt.Errorf("could not write temp config file: %w", err)
	}
	if err := tempFile.Chmod(0o600); err != nil {
		_ = tempFile.Close()
		cleanup()
		return fmt.Errorf("could not secure temp config file permissions: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		cleanup()
		return fmt.Errorf("could not close temp config file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		cleanup()
		return fmt.Errorf("could not atomically replace config file: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("could not secure config file permissions: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	defaults := Default()

	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	switch c.AI.Provider {
	case ProviderAnthropic, ProviderOpenAI, ProviderGemini, ProviderLocal:
	default:
		c.AI.Provider = defaults.AI.Provider
	}
	if c.AI.MaxTokens <= 0 {
		c.AI.MaxTokens = defaults.AI.MaxTokens
	}
	if c.AI.Temperature < 0 {
		c.AI.Temperature = defaults.AI.Temperature
	}

	if len(c.Security.DangerousCommands) == 0 {
		c.Security.DangerousCommands = defaults.Security.DangerousCommands
	}
	if c.Security.MaxOutputSize <= 0 {
		c.Security.MaxOutputSize = defaults.Security.MaxOutputSize
	}
	if c.Security.MaxRetries <= 0 {
		c.Security.MaxRetries = defaults.Security.MaxRetries
	}

	if strings.TrimSpace(c.Display.PromptSymbol) == "" {
		c.Display.PromptSymbol = defaults.Display.PromptSymbol
	}
	c.Display.UIBackend = normalizeUIBackend(c.Display.UIBackend, defaults.Display.UIBackend)
}

// ModelOrDefault resolves the model name for the configured provider,
// falling back to the per-provider default when [ai].model is unset.
func (c Config) ModelOrDefault() string {
	model := strings.TrimSpace(c.AI.Model)
	if model != "" {
		return model
	}
	switch c.AI.Provider {
	case ProviderOpenAI:
		return DefaultOpenAIModel
	case ProviderGemini:
		return DefaultGeminiModel
	case ProviderLocal:
		return DefaultLocalModel
	default:
		return DefaultAnthropicModel
	}
}

// APIKeyFor returns the credential for the given provider, empty when unset.
func (c Config) APIKeyFor(provider string) string {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case ProviderAnthropic:
		return strings.TrimSpace(c.AI.AnthropicAPIKey)
	case ProviderOpenAI:
		return strings.TrimSpace(c.AI.OpenAIAPIKey)
	case ProviderGemini:
		return strings.TrimSpace(c.AI.GeminiAPIKey)
	default:
		return ""
	}
}

// IsDangerousCommand reports whether the command trips the configured
// dangerous-pattern blocklist. This can only widen the model's danger flag,
// never clear it.
func (c Config) IsDangerousCommand(command string) bool {
	low := strings.ToLower(strings.TrimSpace(command))
	if low == "" {
		return false
	}
	for _, pattern := range c.Security.DangerousCommands {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		if pattern == "" {
			continue
		}
		if strings.Contains(low, pattern) {
			return true
		}
	}
	return false
}

func normalizeUIBackend(value string, fallback string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "auto", "bubbletea", "huh", "tview", "plain":
		return normalized
	default:
		return strings.ToLower(strings.TrimSpace(fallback))
	}
}
