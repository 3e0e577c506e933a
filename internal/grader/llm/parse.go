package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errNoJSON = errors.New("no JSON object found in LLM response")

// ParseResponse extracts the score and feedback from raw model output. It
// tolerates prose, code fences and <think> blocks around the JSON object.
// The score is clamped to [0, 100].
func ParseResponse(raw string) (float64, string, error) {
	jsonStr := extractJSON(stripThink(raw))
	if jsonStr == "" {
		return 0, "", errNoJSON
	}

	var body struct {
		Score    json.RawMessage `json:"score"`
		Skor     json.RawMessage `json:"skor"`
		Feedback *string         `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &body); err != nil {
		return 0, "", fmt.Errorf("invalid JSON from LLM: %w", err)
	}

	rawScore := body.Score
	if isNull(rawScore) {
		rawScore = body.Skor
	}
	score, err := parseScore(rawScore)
	if err != nil {
		return 0, "", err
	}

	feedback := DefaultFeedback
	if body.Feedback != nil && strings.TrimSpace(*body.Feedback) != "" {
		feedback = strings.TrimSpace(*body.Feedback)
	}
	return clamp(score), feedback, nil
}

// parseScore accepts a JSON number or a numeric string.
func parseScore(raw json.RawMessage) (float64, error) {
	if isNull(raw) {
		return 0, errors.New("LLM response has no score")
	}
	raw = bytes.TrimSpace(raw)

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("score is neither number nor string: %s", raw)
	}
	n, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("score %q is not numeric", s)
	}
	return n, nil
}

// isNull reports whether a field is absent or a JSON null.
func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func clamp(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

// stripThink drops a <think>...</think> block some reasoning models emit.
func stripThink(s string) string {
	start := strings.Index(s, "<think>")
	if start == -1 {
		return s
	}
	end := strings.Index(s[start:], "</think>")
	if end == -1 {
		return s[:start]
	}
	return s[:start] + s[start+end+len("</think>"):]
}

// extractJSON finds the first balanced JSON object in s, skipping braces
// inside quoted strings.
func extractJSON(s string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, ch := range s {
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if ch == '"' {
			if depth > 0 {
				inString = !inString
			}
			continue
		}
		if inString {
			continue
		}

		switch ch {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
