package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/liushuangls/go-anthropic/v2"
)

// AnthropicProvider grades through the Anthropic Messages API.
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

// Compile-time check: *AnthropicProvider satisfies the Provider interface.
var _ Provider = (*AnthropicProvider)(nil)

// NewAnthropicProvider creates a provider for model using apiKey.
func NewAnthropicProvider(apiKey, model string, opts ...anthropic.ClientOption) *AnthropicProvider {
	return &AnthropicProvider{client: anthropic.NewClient(apiKey, opts...), model: model}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

// Complete sends prompt as one user turn. The Messages API has no JSON mode,
// so the prompt's schema instruction is all the model gets.
func (p *AnthropicProvider) Complete(ctx context.Context, prompt string) (string, error) {
	temp := float32(Temperature)
	resp, err := p.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(p.model),
		MaxTokens:   400,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				{Type: "text", Text: &prompt},
			}},
		},
	})
	if err != nil {
		var reqErr *anthropic.RequestError
		if errors.As(err, &reqErr) {
			return "", &StatusError{Provider: p.Name(), Code: reqErr.StatusCode, Body: reqErr.Error()}
		}
		var apiErr *anthropic.APIError
		if errors.As(err, &apiErr) {
			return "", &StatusError{Provider: p.Name(), Code: apiErrorStatus(apiErr.Type), Body: apiErr.Message}
		}
		return "", fmt.Errorf("anthropic: %w", err)
	}

	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			return *block.Text, nil
		}
	}
	return "", errors.New("anthropic: response has no text content")
}

// apiErrorStatus recovers the HTTP status of an Anthropic error body, which
// the SDK reports by type only.
func apiErrorStatus(t anthropic.ErrType) int {
	switch t {
	case anthropic.ErrTypeInvalidRequest:
		return http.StatusBadRequest
	case anthropic.ErrTypeAuthentication:
		return http.StatusUnauthorized
	case anthropic.ErrTypePermission:
		return http.StatusForbidden
	case anthropic.ErrTypeNotFound:
		return http.StatusNotFound
	case anthropic.ErrTypeTooLarge:
		return http.StatusRequestEntityTooLarge
	case anthropic.ErrTypeRateLimit:
		return http.StatusTooManyRequests
	case anthropic.ErrTypeOverloaded:
		return 529
	default:
		return http.StatusInternalServerError
	}
}
