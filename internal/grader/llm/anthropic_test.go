package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
)

func messagesServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("path = %s, want /messages", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "test-key" {
			t.Errorf("X-Api-Key = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnthropicComplete(t *testing.T) {
	srv := messagesServer(t, http.StatusOK, `{
		"id": "msg_1", "type": "message", "role": "assistant", "model": "claude",
		"content": [{"type": "text", "text": "{\"score\": 72, \"feedback\": \"Solid.\"}"}],
		"stop_reason": "end_turn", "usage": {"input_tokens": 10, "output_tokens": 5}
	}`)
	p := NewAnthropicProvider("test-key", "claude", anthropic.WithBaseURL(srv.URL))

	v := NewClient(p, time.Second, quietLogger()).ScoreLogical(context.Background(), "Q", "ref", "answer")
	if !v.OK() || v.Score != 72 || v.Feedback != "Solid." {
		t.Errorf("verdict = %+v", v)
	}
}

func TestAnthropicErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   int
	}{
		{"rate limited", http.StatusTooManyRequests,
			`{"type": "error", "error": {"type": "rate_limit_error", "message": "slow down"}}`, http.StatusTooManyRequests},
		{"overloaded", 529,
			`{"type": "error", "error": {"type": "overloaded_error", "message": "busy"}}`, 529},
		{"bad key", http.StatusUnauthorized,
			`{"type": "error", "error": {"type": "authentication_error", "message": "invalid x-api-key"}}`, http.StatusUnauthorized},
		{"non json body", http.StatusBadGateway, `upstream unavailable`, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := messagesServer(t, tt.status, tt.body)
			p := NewAnthropicProvider("test-key", "claude", anthropic.WithBaseURL(srv.URL))

			_, err := p.Complete(context.Background(), "prompt")
			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatalf("err = %v (%T), want *StatusError", err, err)
			}
			if se.Code != tt.want {
				t.Errorf("Code = %d, want %d", se.Code, tt.want)
			}

			v := NewClient(p, time.Second, quietLogger()).ScoreLogical(context.Background(), "Q", "ref", "answer")
			assertFailure(t, v, FailureStatus)
		})
	}
}
