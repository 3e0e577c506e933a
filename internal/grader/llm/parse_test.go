package llm

import (
	"strings"
	"testing"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantScore    float64
		wantFeedback string
	}{
		{"plain", `{"score": 82, "feedback": "Clear argument."}`, 82, "Clear argument."},
		{"skor key", `{"skor": 64.5, "feedback": "Cukup baik."}`, 64.5, "Cukup baik."},
		{"out of range high", `{"skor": 150, "feedback": "..."}`, 100, "..."},
		{"null score falls back to skor", `{"score": null, "skor": 80, "feedback": "ok"}`, 80, "ok"},
		{"out of range low", `{"score": -20, "feedback": "Off topic."}`, 0, "Off topic."},
		{"string score", `{"score": "75", "feedback": "ok"}`, 75, "ok"},
		{"percent string", `{"score": "90%", "feedback": "ok"}`, 90, "ok"},
		{"missing feedback", `{"score": 40}`, 40, DefaultFeedback},
		{"blank feedback", `{"score": 40, "feedback": "  "}`, 40, DefaultFeedback},
		{"code fence", "```json\n{\"score\": 55, \"feedback\": \"Needs depth.\"}\n```", 55, "Needs depth."},
		{"prose around", `Sure! Here is the grade: {"score": 70, "feedback": "Good {structure}."} Hope it helps.`, 70, "Good {structure}."},
		{"think block", "<think>the answer has {gaps}</think>{\"score\": 30, \"feedback\": \"Weak.\"}", 30, "Weak."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, feedback, err := ParseResponse(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if score != tt.wantScore {
				t.Errorf("score = %v, want %v", score, tt.wantScore)
			}
			if feedback != tt.wantFeedback {
				t.Errorf("feedback = %q, want %q", feedback, tt.wantFeedback)
			}
		})
	}
}

func TestParseResponseErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no json", "I think this answer deserves a B."},
		{"missing score", `{"feedback": "no number here"}`},
		{"null score", `{"score": null, "feedback": "x"}`},
		{"non numeric", `{"score": "excellent", "feedback": "x"}`},
		{"broken json", `{"score": 80, "feedback": }`},
		{"unterminated", `{"score": 80`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ParseResponse(tt.raw); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("What is TCP?", "A reliable transport protocol.", "TCP guarantees delivery.")
	for _, want := range []string{"What is TCP?", "A reliable transport protocol.", "TCP guarantees delivery.", `"score"`, `"feedback"`} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !strings.HasSuffix(p, `"<short feedback, at most 3 sentences>"}`) {
		t.Error("prompt should end with the JSON schema")
	}

	noRef := BuildPrompt("Q", "   ", "answer text")
	if !strings.Contains(noRef, "no reference answer provided") {
		t.Error("empty reference should be called out in the prompt")
	}
}
