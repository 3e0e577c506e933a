package llm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Settings select and configure the hosted model.
type Settings struct {
	Provider string // "openai", "gemini" or "anthropic"
	APIKey   string
	BaseURL  string // openai only
	Model    string
	Timeout  time.Duration
}

// New builds the client once at startup. A missing API key, or a provider
// SDK that fails to initialise, yields an unavailable client rather than an
// error; only an unknown provider name is rejected.
func New(ctx context.Context, s Settings, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	name := strings.ToLower(strings.TrimSpace(s.Provider))
	if name == "" {
		name = "openai"
	}
	switch name {
	case "openai", "gemini", "anthropic":
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", s.Provider)
	}

	if strings.TrimSpace(s.APIKey) == "" {
		logger.Warn("no LLM API key configured; logical grading disabled", "provider", name)
		return NewClient(nil, s.Timeout, logger), nil
	}

	var p Provider
	switch name {
	case "openai":
		p = NewOpenAIProvider(s.BaseURL, s.APIKey, s.Model, &http.Client{})
	case "gemini":
		g, err := NewGeminiProvider(ctx, s.APIKey, s.Model)
		if err != nil {
			logger.Error("gemini client init failed; logical grading disabled", "error", err)
			return NewClient(nil, s.Timeout, logger), nil
		}
		p = g
	case "anthropic":
		p = NewAnthropicProvider(s.APIKey, s.Model)
	}

	logger.Info("llm backend ready", "provider", name, "model", s.Model)
	return NewClient(p, s.Timeout, logger), nil
}

// Close releases provider resources, if the provider holds any.
func (c *Client) Close() error {
	if c == nil || c.provider == nil {
		return nil
	}
	if cl, ok := c.provider.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}
