package refine

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kwhite/imagerefine/internal/imaging"
)

// EmitFunc consumes one progress event. Emission is best-effort: sinks must
// not return failures into the loop, so the signature has no error.
type EmitFunc func(Event)

// iterationState is the mutable per-session loop state. It is owned by one
// Run call and passed by value between steps, never shared.
type iterationState struct {
	current      imaging.Asset
	lastFeedback string
}

// Controller drives one refinement session at a time. A Controller is
// stateless between sessions and safe for concurrent Run calls.
type Controller struct {
	generator Generator
	judge     Judge
}

// NewController builds a Controller over the given model capabilities.
func NewController(generator Generator, judge Judge) *Controller {
	return &Controller{generator: generator, judge: judge}
}

// Run executes one refinement session, emitting a progress event for every
// state transition. The stream always ends with a CompleteEvent: acceptance,
// exhaustion, and failure (after its ErrorEvent) all finish the process.
// Whether the result was accepted is carried by the Evaluation events.
//
// ctx is threaded into every model call; cancelling it (e.g. on transport
// close) takes effect at the next call boundary, not mid-call.
func (c *Controller) Run(ctx context.Context, req EditRequest, emit EmitFunc) {
	// The process-finished signal is unconditional. Emitting Complete after
	// exhaustion (and even after an ErrorEvent) is deliberate: it marks the
	// end of the stream, not satisfaction of the request.
	defer emit(CompleteEvent{})

	if len(req.References) == 0 {
		emit(ErrorEvent{Message: "No image generated: the request carried no reference images"})
		return
	}

	maxIterations := req.EffectiveIterations()
	original := req.References[0]
	supplementary := req.References[1:]

	state := iterationState{current: original}

	startTime := time.Now()
	log.Info().
		Int("reference_images", len(req.References)).
		Int("max_iterations", maxIterations).
		Msg("Starting refinement session")

	for k := 0; k < maxIterations; k++ {
		emit(StatusEvent{Message: fmt.Sprintf("Generating candidate image (attempt %d of %d)...", k+1, maxIterations)})

		prompt := buildIterationPrompt(req.Prompt, state.lastFeedback)
		images := make([]imaging.Asset, 0, len(supplementary)+1)
		images = append(images, state.current)
		images = append(images, supplementary...)

		generated, err := c.generator.Generate(ctx, prompt, images)
		if err != nil {
			log.Error().Err(err).Int("iteration", k).Msg("Image generation failed, terminating session")
			emit(ErrorEvent{Message: fmt.Sprintf("No image generated: %v", err)})
			return
		}
		if len(generated.Data) == 0 {
			log.Error().Int("iteration", k).Msg("Generator returned empty image, terminating session")
			emit(ErrorEvent{Message: "No image generated: the model returned an empty image"})
			return
		}

		candidate, err := imaging.NormalizeCandidate(generated.Data)
		if err != nil {
			log.Error().Err(err).Int("iteration", k).Msg("Candidate image not decodable, terminating session")
			emit(ErrorEvent{Message: fmt.Sprintf("Generated image could not be decoded: %v", err)})
			return
		}

		emit(ImageEvent{
			Iteration: k,
			Base64:    base64.StdEncoding.EncodeToString(candidate.Data),
			MIMEType:  candidate.MIMEType,
		})

		emit(StatusEvent{Message: "Evaluating result..."})

		verdict, err := c.judge.Evaluate(ctx, req.Prompt, original, candidate)
		if err != nil {
			log.Error().Err(err).Int("iteration", k).Msg("Candidate evaluation failed, terminating session")
			emit(ErrorEvent{Message: fmt.Sprintf("Evaluation failed: %v", err)})
			return
		}

		emit(EvaluationEvent{
			Iteration:  k,
			Feedback:   verdict.Feedback,
			Acceptable: verdict.Acceptable,
		})

		if verdict.Acceptable {
			log.Info().
				Int("iteration", k).
				Dur("duration", time.Since(startTime)).
				Msg("Candidate accepted, session complete")
			return
		}

		state.lastFeedback = verdict.Feedback
		state.current = candidate
	}

	log.Info().
		Int("iterations", maxIterations).
		Dur("duration", time.Since(startTime)).
		Msg("Iteration budget exhausted without acceptance")
}
