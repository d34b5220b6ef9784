// Package refine implements the iterative image-edit refinement loop: it asks
// a generative image model for a candidate edit, normalizes it, asks a vision
// judge whether the candidate satisfies the prompt while preserving subject
// identity, and either stops or feeds the critique into the next attempt.
package refine

import (
	"context"

	"github.com/kwhite/imagerefine/internal/imaging"
)

const (
	// MinIterations is the lower bound on the per-session iteration cap.
	MinIterations = 1
	// MaxIterations is the upper bound on the per-session iteration cap.
	MaxIterations = 12
)

// EditRequest describes one refinement session. It is immutable once built;
// the handler validates that Prompt is non-empty and References has at least
// one element before the request reaches the loop.
type EditRequest struct {
	Prompt string

	// References holds the normalized input images. The first is the edit
	// target; any others are supplementary reference material.
	References []imaging.Asset

	MaxIterations int
}

// EffectiveIterations returns the requested iteration cap clamped to
// [MinIterations, MaxIterations].
func (r EditRequest) EffectiveIterations() int {
	n := r.MaxIterations
	if n < MinIterations {
		return MinIterations
	}
	if n > MaxIterations {
		return MaxIterations
	}
	return n
}

// Verdict is a judge's assessment of one candidate.
type Verdict struct {
	// Acceptable reports whether the candidate satisfies the edit prompt
	// and preserves the subject's identity.
	Acceptable bool

	// Feedback is the judge's full textual response, surfaced verbatim as
	// the critique for the next iteration regardless of verdict.
	Feedback string
}

// Generator produces a candidate edit for a prompt and one or more reference
// images. The first image is the primary edit target.
type Generator interface {
	Generate(ctx context.Context, prompt string, images []imaging.Asset) (imaging.Asset, error)
}

// Judge evaluates a candidate against the edit prompt and the original image.
type Judge interface {
	Evaluate(ctx context.Context, prompt string, original, candidate imaging.Asset) (Verdict, error)
}
