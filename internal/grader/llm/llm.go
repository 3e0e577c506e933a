// Package llm asks a hosted language model to grade an essay answer and
// returns a 0–100 logical score with short feedback.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultTimeout bounds a single provider call when the caller sets none.
const DefaultTimeout = 30 * time.Second

// DefaultFeedback is used when the model returns a score but no feedback.
const DefaultFeedback = "No feedback from LLM."

// Provider sends one prompt to a hosted model and returns its raw text.
// Implementations must honour ctx cancellation.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// FailureKind classifies why a logical score could not be produced.
type FailureKind string

const (
	FailureNoCredential FailureKind = "no_credential"
	FailureTransport    FailureKind = "transport"
	FailureTimeout      FailureKind = "timeout"
	FailureStatus       FailureKind = "status"
	FailureParse        FailureKind = "parse"
)

// Failure is the failure side of a Verdict.
type Failure struct {
	Kind    FailureKind
	Message string // human-readable, safe to show to students
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("llm %s: %v", f.Kind, f.Err)
	}
	return fmt.Sprintf("llm %s", f.Kind)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Verdict is either a score with feedback, or a Failure.
type Verdict struct {
	Score    float64
	Feedback string
	Failure  *Failure
}

// OK reports whether the verdict carries a score.
func (v Verdict) OK() bool {
	return v.Failure == nil
}

// StatusError is returned by providers for non-2xx responses.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.Code, e.Body)
	}
	return fmt.Sprintf("%s returned status %d", e.Provider, e.Code)
}

// Client turns provider completions into verdicts. A Client without a
// provider is valid and reports itself unavailable.
type Client struct {
	provider Provider
	timeout  time.Duration
	logger   *slog.Logger
}

// NewClient wraps p. A nil p yields an unavailable client.
func NewClient(p Provider, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{provider: p, timeout: timeout, logger: logger}
}

// Available reports whether a credentialed provider is configured.
func (c *Client) Available() bool {
	return c != nil && c.provider != nil
}

// ProviderName returns the configured provider, or "" when unavailable.
func (c *Client) ProviderName() string {
	if !c.Available() {
		return ""
	}
	return c.provider.Name()
}

// ScoreLogical grades studentAnswer. It never panics and never returns an
// error: every failure is folded into the Verdict.
func (c *Client) ScoreLogical(ctx context.Context, question, reference, studentAnswer string) Verdict {
	if !c.Available() {
		return Verdict{Failure: &Failure{
			Kind:    FailureNoCredential,
			Message: "Logical grading is unavailable: no LLM API key is configured.",
		}}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	raw, err := c.provider.Complete(ctx, BuildPrompt(question, reference, studentAnswer))
	if err != nil {
		f := classify(ctx, err)
		c.logger.Warn("llm call failed",
			"provider", c.provider.Name(),
			"kind", f.Kind,
			"elapsed", time.Since(start),
			"error", err,
		)
		return Verdict{Failure: f}
	}

	score, feedback, err := ParseResponse(raw)
	if err != nil {
		c.logger.Warn("llm response unparseable",
			"provider", c.provider.Name(),
			"error", err,
			"response", truncate(raw, 300),
		)
		return Verdict{Failure: &Failure{
			Kind:    FailureParse,
			Message: "The AI grader returned a response that could not be read.",
			Err:     err,
		}}
	}

	c.logger.Debug("llm graded answer",
		"provider", c.provider.Name(),
		"score", score,
		"elapsed", time.Since(start),
	)
	return Verdict{Score: score, Feedback: feedback}
}

func classify(ctx context.Context, err error) *Failure {
	var se *StatusError
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &Failure{Kind: FailureTimeout, Message: "The AI grader did not answer in time.", Err: err}
	case errors.As(err, &se):
		return &Failure{
			Kind:    FailureStatus,
			Message: fmt.Sprintf("The AI grader rejected the request (status %d).", se.Code),
			Err:     err,
		}
	default:
		return &Failure{Kind: FailureTransport, Message: "Could not reach the AI grader.", Err: err}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
