package llm

import (
	"fmt"
	"strings"
)

// BuildPrompt renders the grading instruction. The JSON schema comes last so
// it is the final thing the model reads.
func BuildPrompt(question, reference, studentAnswer string) string {
	ref := strings.TrimSpace(reference)
	if ref == "" {
		ref = "(no reference answer provided; judge against the question alone)"
	}

	return fmt.Sprintf(`You are a university lecturer grading an essay answer on a 0-100 scale.
Focus on the quality of reasoning, structure and depth of the material.
The reference answer shows what a complete answer covers; different wording is fine.

QUESTION:
%s

REFERENCE ANSWER:
%s

STUDENT ANSWER:
%s

Respond with ONLY this JSON, no explanation, no markdown:
{"score": <number 0-100>, "feedback": "<short feedback, at most 3 sentences>"}`,
		strings.TrimSpace(question), ref, strings.TrimSpace(studentAnswer))
}
