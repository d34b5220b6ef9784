package refine

import (
	"strings"
	"testing"
)

func TestBuildIterationPromptFirstAttempt(t *testing.T) {
	prompt := buildIterationPrompt("add sunglasses", "")

	if !strings.HasPrefix(prompt, "add sunglasses") {
		t.Errorf("prompt should start with the base prompt, got %q", prompt)
	}
	if !strings.Contains(prompt, subtleRefinementHint) {
		t.Error("first-attempt prompt missing the subtle refinement hint")
	}
	if !strings.Contains(prompt, identityDirective) {
		t.Error("prompt missing the identity-preservation directive")
	}
	if strings.Contains(prompt, "critiqued") {
		t.Error("first-attempt prompt should not reference a critique")
	}
}

func TestBuildIterationPromptWithFeedback(t *testing.T) {
	const feedback = "No, the sunglasses are missing."

	prompt := buildIterationPrompt("add sunglasses", feedback)

	if !strings.Contains(prompt, feedback) {
		t.Error("prompt should carry the previous critique verbatim")
	}
	if strings.Contains(prompt, subtleRefinementHint) {
		t.Error("feedback prompt should not carry the subtle refinement hint")
	}
	if !strings.Contains(prompt, identityDirective) {
		t.Error("prompt missing the identity-preservation directive")
	}
}
