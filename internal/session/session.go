// Package session is the control loop around one suggestion at a time:
// suggest, confirm, execute, and the bounded retry-with-fix cycle.
package session

import (
	"context"
	"fmt"

	"github.com/smadgulkar/spren/internal/ai"
	"github.com/smadgulkar/spren/internal/executor"
	"github.com/smadgulkar/spren/internal/extract"
	"github.com/smadgulkar/spren/internal/safety"
)

type State int

const (
	AwaitingQuery State = iota
	Suggested
	FailedRetryable
	FailedTerminal
)

func (s State) String() string {
	switch s {
	case Suggested:
		return "suggested"
	case FailedRetryable:
		return "failed-retryable"
	case FailedTerminal:
		return "failed-terminal"
	default:
		return "awaiting-query"
	}
}

// Runner dispatches a confirmed command. Satisfied by *executor.Executor.
type Runner interface {
	Run(ctx context.Context, command string) (executor.Output, error)
}

// Outcome reports one confirmation's result. On success, non-empty stderr is
// a note for the user, not an error.
type Outcome struct {
	Executed bool
	Output   executor.Output
}

type Session struct {
	provider ai.Provider
	runner   Runner

	maxRetries          int
	requireConfirmation bool

	// widens the model's danger flag from the configured blocklist
	dangerCheck func(string) bool

	state    State
	pending  extract.Suggestion
	attempts int
	lastRun  executor.Output
	lastCmd  string
}

func New(provider ai.Provider, runner Runner, maxRetries int, requireConfirmation bool, dangerCheck func(string) bool) *Session {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if dangerCheck == nil {
		dangerCheck = func(string) bool { return false }
	}
	return &Session{
		provider:            provider,
		runner:              runner,
		maxRetries:          maxRetries,
		requireConfirmation: requireConfirmation,
		dangerCheck:         dangerCheck,
	}
}

func (s *Session) State() State                  { return s.state }
func (s *Session) Pending() extract.Suggestion   { return s.pending }
func (s *Session) LastOutput() executor.Output   { return s.lastRun }
func (s *Session) LastCommand() string           { return s.lastCmd }
func (s *Session) Attempts() int                 { return s.attempts }

// Reset abandons any live suggestion and returns to AwaitingQuery.
func (s *Session) Reset() {
	s.state = AwaitingQuery
	s.pending = extract.Suggestion{}
	s.attempts = 0
	s.lastRun = executor.Output{}
	s.lastCmd = ""
}

// SubmitQuery asks the provider for a suggestion. On error the session stays
// in AwaitingQuery; on success the suggestion is live and awaits Confirm.
func (s *Session) SubmitQuery(ctx context.Context, query string) (extract.Suggestion, error) {
	s.Reset()
	suggestion, err := s.provider.SuggestCommand(ctx, query)
	if err != nil {
		return extract.Suggestion{}, err
	}
	s.accept(suggestion)
	return s.pending, nil
}

func (s *Session) accept(suggestion extract.Suggestion) {
	if !suggestion.Dangerous && s.dangerCheck(suggestion.Command) {
		suggestion.Dangerous = true
	}
	s.pending = suggestion
	s.state = Suggested
}

// Propose makes an externally sourced suggestion (a remembered command, a
// user-typed one) live, subject to the same blocklist and confirm gate as a
// provider suggestion.
func (s *Session) Propose(suggestion extract.Suggestion) {
	s.Reset()
	s.accept(suggestion)
}

// ReplacePending swaps the live suggestion's command for a user-edited one.
// The danger blocklist is re-applied; an edit can escalate the flag but a
// model-asserted danger flag is never cleared by editing.
func (s *Session) ReplacePending(command string) {
	if s.state != Suggested {
		return
	}
	s.pending.Command = command
	if s.dangerCheck(command) {
		s.pending.Dangerous = true
	}
}

// AutoConfirmAllowed reports whether policy permits executing the live
// suggestion without asking. Dangerous suggestions always require the
// explicit gate, regardless of policy.
func (s *Session) AutoConfirmAllowed() bool {
	return s.state == Suggested && !s.requireConfirmation && !s.pending.Dangerous
}

// Confirm resolves the live suggestion. Declining returns to AwaitingQuery
// without executing. Accepting dispatches the command; a failed run enters
// the retry cycle until the attempt bound is exhausted.
func (s *Session) Confirm(ctx context.Context, accepted bool) (Outcome, error) {
	if s.state != Suggested {
		return Outcome{}, fmt.Errorf("no suggestion awaiting confirmation (state %s)", s.state)
	}
	if !accepted {
		s.Reset()
		return Outcome{}, nil
	}

	command := s.pending.Command
	out, err := s.runner.Run(ctx, command)
	if err != nil {
		s.Reset()
		return Outcome{}, err
	}

	s.lastCmd = command
	s.lastRun = out
	if out.Success {
		s.state = AwaitingQuery
		s.pending = extract.Suggestion{}
		s.attempts = 0
		return Outcome{Executed: true, Output: out}, nil
	}

	s.attempts++
	if s.attempts >= s.maxRetries {
		s.state = FailedTerminal
	} else {
		s.state = FailedRetryable
	}
	return Outcome{Executed: true, Output: out}, nil
}

// CanRetry reports whether a fix may still be requested for the last failure.
func (s *Session) CanRetry() bool {
	return s.state == FailedRetryable
}

// RequestFix asks the provider to repair the failed command. The fix becomes
// the live suggestion and needs its own confirmation. Valid only in
// FailedRetryable.
func (s *Session) RequestFix(ctx context.Context) (extract.Suggestion, error) {
	if s.state != FailedRetryable {
		return extract.Suggestion{}, fmt.Errorf("no retryable failure to fix (state %s)", s.state)
	}
	query := ai.FixQuery(s.lastCmd, safety.Redact(s.lastRun.Stdout), safety.Redact(s.lastRun.Stderr))
	suggestion, err := s.provider.SuggestCommand(ctx, query)
	if err != nil {
		s.Reset()
		return extract.Suggestion{}, err
	}
	s.accept(suggestion)
	return s.pending, nil
}

// Explain asks the provider for a prose diagnosis of the last failure.
func (s *Session) Explain(ctx context.Context) (string, error) {
	if s.state != FailedRetryable && s.state != FailedTerminal {
		return "", fmt.Errorf("no failure to explain (state %s)", s.state)
	}
	return s.provider.ExplainError(ctx, s.lastCmd, safety.Redact(s.lastRun.Stdout), safety.Redact(s.lastRun.Stderr))
}

// Abandon leaves a failure state without requesting a fix.
func (s *Session) Abandon() {
	if s.state == FailedRetryable || s.state == FailedTerminal {
		s.Reset()
	}
}
