package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/smadgulkar/spren/internal/ai"
	"github.com/smadgulkar/spren/internal/appdirs"
	"github.com/smadgulkar/spren/internal/config"
	"github.com/smadgulkar/spren/internal/executor"
	"github.com/smadgulkar/spren/internal/extract"
	"github.com/smadgulkar/spren/internal/history"
	"github.com/smadgulkar/spren/internal/memory"
	"github.com/smadgulkar/spren/internal/session"
	"github.com/smadgulkar/spren/internal/shell"
	"github.com/smadgulkar/spren/internal/tui"
	"github.com/smadgulkar/spren/internal/ui"
)

var version = "dev"

type options struct {
	Query      string
	TUI        bool
	Provider   string
	UI         string
	Yes        bool
	Version    bool
	ShowConfig bool
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "spren: %v\n", err)
		os.Exit(2)
	}

	if opts.Version {
		fmt.Printf("spren %s\n", version)
		return
	}

	cfg, cfgPath, created, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "spren: %v\n", err)
		os.Exit(1)
	}
	applyOverrides(&cfg, opts)

	if opts.ShowConfig {
		showConfig(cfg, cfgPath)
		return
	}

	if created && isInteractive() && !opts.TUI && opts.Query == "" {
		runFirstRunSetup(&cfg, cfgPath)
	}

	kind := shell.Detect(cfg.Shell.PreferredShell)
	provider, err := ai.New(cfg, kind)
	if err != nil {
		fmt.Fprintf(os.Stderr, "spren: %v\n", err)
		if errors.Is(err, ai.ErrMissingAPIKey) {
			fmt.Fprintf(os.Stderr, "spren: edit %s to add your key\n", cfgPath)
		}
		os.Exit(1)
	}

	runner := executor.New(kind, cfg.Security.MaxOutputSize)
	sess := session.New(provider, runner, cfg.Security.MaxRetries, cfg.Security.RequireConfirmation, cfg.IsDangerousCommand)
	a := &app{cfg: cfg, sess: sess, shell: kind}
	// Missing or unwritable stores degrade to a session without recall.
	a.hist, _ = history.Load()
	a.mem, _ = memory.Load()

	switch {
	case opts.Query != "":
		if err := a.processQuery(context.Background(), opts.Query); err != nil {
			fmt.Fprintf(os.Stderr, "spren: %v\n", err)
			os.Exit(1)
		}
		a.saveStores()
	case opts.TUI:
		var past []string
		if a.hist != nil {
			past = a.hist.Queries
		}
		queries, err := tui.Run(sess, past)
		if err != nil {
			fmt.Fprintf(os.Stderr, "spren: %v\n", err)
			os.Exit(1)
		}
		if a.hist != nil {
			for _, q := range queries[len(past):] {
				a.hist.Append(q)
			}
		}
		a.saveStores()
	default:
		a.runREPL()
		a.saveStores()
	}
}

func parseArgs(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("spren", flag.ContinueOnError)
	fs.StringVar(&opts.Query, "query", "", "run a single query and exit")
	fs.StringVar(&opts.Query, "q", "", "run a single query and exit (shorthand)")
	fs.BoolVar(&opts.TUI, "tui", false, "start the full-screen interactive mode")
	fs.StringVar(&opts.Provider, "provider", "", "override the configured provider (anthropic, openai, gemini, local)")
	fs.StringVar(&opts.UI, "ui", "", "confirmation backend (auto, bubbletea, huh, tview, plain)")
	fs.BoolVar(&opts.Yes, "yes", false, "skip confirmation for non-dangerous commands")
	fs.BoolVar(&opts.Version, "version", false, "print version")
	fs.BoolVar(&opts.ShowConfig, "show-config", false, "print the effective configuration and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if rest := fs.Args(); len(rest) > 0 && opts.Query == "" {
		// "spren list big files" works without -q
		opts.Query = strings.Join(rest, " ")
	}
	return opts, nil
}

func loadConfig() (config.Config, string, bool, error) {
	existed := false
	if path, err := appdirs.ConfigFilePath(); err == nil {
		if _, err := os.Stat(path); err == nil {
			existed = true
		}
	}
	cfg, cfgPath, err := config.LoadOrCreate()
	if err != nil {
		return config.Config{}, "", false, err
	}
	return cfg, cfgPath, !existed, nil
}

func applyOverrides(cfg *config.Config, opts options) {
	if opts.Provider != "" {
		cfg.AI.Provider = strings.ToLower(strings.TrimSpace(opts.Provider))
	}
	if opts.UI != "" {
		cfg.Display.UIBackend = ui.NormalizeBackend(opts.UI)
	}
	if opts.Yes {
		cfg.Security.RequireConfirmation = false
	}
}

func runFirstRunSetup(cfg *config.Config, cfgPath string) {
	decision, err := ui.FirstRunSetup(cfgPath)
	if err != nil || decision.Skipped {
		return
	}
	cfg.AI.Provider = decision.Provider
	switch decision.Provider {
	case config.ProviderAnthropic:
		cfg.AI.AnthropicAPIKey = decision.APIKey
	case config.ProviderOpenAI:
		cfg.AI.OpenAIAPIKey = decision.APIKey
	case config.ProviderGemini:
		cfg.AI.GeminiAPIKey = decision.APIKey
	}
	if err := config.Save(cfgPath, *cfg); err != nil {
		fmt.Fprintf(os.Stderr, "spren: could not save config: %v\n", err)
	}
}

func showConfig(cfg config.Config, cfgPath string) {
	fmt.Printf("# %s\n", cfgPath)
	redacted := cfg
	redacted.AI.AnthropicAPIKey = redactKey(redacted.AI.AnthropicAPIKey)
	redacted.AI.OpenAIAPIKey = redactKey(redacted.AI.OpenAIAPIKey)
	redacted.AI.GeminiAPIKey = redactKey(redacted.AI.GeminiAPIKey)
	payload, err := toml.Marshal(redacted)
	if err != nil {
		fmt.Fprintf(os.Stderr, "spren: could not render config: %v\n", err)
		os.Exit(1)
	}
	os.Stdout.Write(payload)
}

func redactKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func isInteractive() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

type app struct {
	cfg   config.Config
	sess  *session.Session
	shell shell.Kind
	hist  *history.Store
	mem   *memory.Store
}

func (a *app) saveStores() {
	if a.hist != nil {
		if err := a.hist.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "spren: could not save history: %v\n", err)
		}
	}
	if a.mem != nil {
		if err := a.mem.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "spren: could not save memory: %v\n", err)
		}
	}
}

func (a *app) runREPL() {
	fmt.Println(ui.PromptStyle.Render("Spren - Your AI Shell Assistant"))
	fmt.Printf("Shell: %s\n", a.shell.Name())
	if a.cfg.AI.Provider == config.ProviderLocal {
		fmt.Println("Mode: Local AI")
	} else {
		fmt.Printf("Mode: Cloud AI (%s)\n", a.cfg.AI.Provider)
	}
	fmt.Println("Tip: run with --tui for interactive mode")
	fmt.Println("Type 'exit' to quit")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("%s ", a.cfg.Display.PromptSymbol)
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return
		}
		query := strings.TrimSpace(line)
		if query == "" {
			continue
		}
		if query == "exit" || query == "quit" {
			return
		}
		if err := a.processQuery(context.Background(), query); err != nil {
			fmt.Fprintf(os.Stderr, "spren: %v\n", err)
		}
	}
}

// processQuery drives one suggestion through confirmation, execution, and
// the bounded fix cycle.
func (a *app) processQuery(ctx context.Context, query string) error {
	if a.hist != nil {
		a.hist.Append(query)
	}

	start := time.Now()
	label := "Suggested command"
	var suggestion extract.Suggestion
	remembered := false
	if a.mem != nil {
		if cached, ok := a.mem.Lookup(query); ok {
			a.sess.Propose(extract.Suggestion{Command: cached.Command, Dangerous: cached.Dangerous})
			suggestion = a.sess.Pending()
			label = "Remembered command"
			remembered = true
		}
	}
	if !remembered {
		var err error
		suggestion, err = a.sess.SubmitQuery(ctx, query)
		if err != nil {
			return err
		}
	}
	a.printSuggestion(label, suggestion.Command, suggestion.Dangerous, time.Since(start))

	for {
		approved, err := a.confirmPending()
		if err != nil {
			return err
		}
		pending := a.sess.Pending()
		outcome, err := a.sess.Confirm(ctx, approved)
		if err != nil {
			return err
		}
		if !outcome.Executed {
			return nil
		}

		a.printOutput(outcome)
		if remembered && !outcome.Output.Success && a.mem != nil {
			a.mem.Forget(query)
		}
		switch {
		case outcome.Output.Success:
			if a.mem != nil {
				a.mem.RememberSuccess(query, a.sess.LastCommand(), pending.Dangerous)
			}
			return nil
		case a.sess.CanRetry():
			fmt.Println(ui.NoteStyle.Render("Attempting to fix..."))
			fix, err := a.sess.RequestFix(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "spren: could not generate fix: %v\n", err)
				return nil
			}
			a.printSuggestion("Fixed command", fix.Command, fix.Dangerous, 0)
		default:
			fmt.Println(ui.DangerStyle.Render("Max retries reached."))
			a.printExplanation(ctx)
			a.sess.Abandon()
			return nil
		}
	}
}

func (a *app) confirmPending() (bool, error) {
	if a.sess.AutoConfirmAllowed() {
		return true, nil
	}
	pending := a.sess.Pending()
	return ui.ConfirmExecution(a.cfg.Display.UIBackend, pending.Command, pending.Dangerous)
}

func (a *app) printSuggestion(label, command string, dangerous bool, took time.Duration) {
	fmt.Println()
	header := label + ":"
	if a.cfg.Display.ShowExecutionTime && took > 0 {
		header += " " + ui.FaintStyle.Render(fmt.Sprintf("(%s)", took.Round(time.Millisecond)))
	}
	fmt.Println(ui.PromptStyle.Render(header))
	if dangerous {
		fmt.Printf("%s %s\n", ui.CommandStyle.Render(command), ui.DangerStyle.Render("[DANGEROUS]"))
		fmt.Println(ui.NoteStyle.Render("This command has been identified as potentially dangerous."))
	} else {
		fmt.Println(ui.CommandStyle.Render(command))
	}
}

func (a *app) printOutput(outcome session.Outcome) {
	out := outcome.Output
	if stdout := strings.TrimRight(out.Stdout, "\n"); stdout != "" {
		fmt.Println()
		fmt.Println(stdout)
	}
	if stderr := strings.TrimRight(out.Stderr, "\n"); stderr != "" {
		if out.Success {
			fmt.Printf("%s %s\n", ui.NoteStyle.Render("Note:"), stderr)
		} else {
			fmt.Printf("%s %s\n", ui.DangerStyle.Render("Error:"), stderr)
		}
	}
}

func (a *app) printExplanation(ctx context.Context) {
	explanation, err := a.sess.Explain(ctx)
	if err != nil || strings.TrimSpace(explanation) == "" {
		return
	}
	fmt.Println()
	fmt.Println(ui.NoteStyle.Render(explanation))
}
