package refine

import "strings"

// identityDirective is appended to every iteration prompt. Edits must never
// alter the recognizable subject.
const identityDirective = "CRITICAL: Preserve the subject's identity exactly - " +
	"the same face, facial structure, skin tone, hairstyle, and distinguishing " +
	"features as the original image. Do not alter the person."

// subtleRefinementHint is used on iterations that have no critique to address.
const subtleRefinementHint = "If the previous result already looks correct, " +
	"refine it subtly if needed."

// buildIterationPrompt constructs the prompt for one generation attempt from
// the base edit prompt and the previous iteration's critique, if any.
func buildIterationPrompt(basePrompt, lastFeedback string) string {
	var b strings.Builder
	b.WriteString(basePrompt)
	b.WriteString("\n\n")

	if lastFeedback != "" {
		b.WriteString("A reviewer critiqued the previous attempt as follows:\n")
		b.WriteString(lastFeedback)
		b.WriteString("\nAddress this critique in the new version.")
	} else {
		b.WriteString(subtleRefinementHint)
	}

	b.WriteString("\n\n")
	b.WriteString(identityDirective)
	return b.String()
}
