package refine

import "strings"

// ParseVerdict derives a Verdict from the judge's raw textual answer. The
// answer is acceptable only if its first token, after trimming surrounding
// whitespace, is an affirmative "yes" (case-insensitive); any other leading
// token is a rejection. The full text is kept verbatim as feedback.
func ParseVerdict(text string) Verdict {
	trimmed := strings.TrimSpace(text)

	first := trimmed
	if i := strings.IndexAny(trimmed, " \t\n\r.,:;!?"); i >= 0 {
		first = trimmed[:i]
	}

	return Verdict{
		Acceptable: strings.EqualFold(first, "yes"),
		Feedback:   trimmed,
	}
}
