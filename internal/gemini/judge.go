package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/kwhite/imagerefine/internal/imaging"
	"github.com/kwhite/imagerefine/internal/refine"
)

// judgeSystemInstruction encodes the strict acceptance policy. The answer
// must begin with Yes or No so the verdict can be parsed from the leading
// token.
const judgeSystemInstruction = `You are a strict reviewer of AI image edits.
You are given an edit request, the ORIGINAL image, and a CANDIDATE edit.

Check in this order:
1. Identity preservation. The candidate must show the same subject as the
   original: same face, facial structure, skin tone, hairstyle, and
   distinguishing features. If the subject's identity is broken, the answer
   is No regardless of anything else.
2. Every stated requirement of the edit request: content, style, composition,
   color, object identity and count, text, aspect ratio, and any other
   explicit constraint. The answer is Yes only if ALL of them are satisfied.

Your answer MUST begin with the single word "Yes" or "No", followed by a
short explanation. When the answer is No, describe precisely what is wrong
so the next attempt can fix it.`

// judgeUserPrompt frames the two images for the model.
const judgeUserPrompt = `Edit request: %q

The first image is the ORIGINAL. The second image is the CANDIDATE edit.
Does the candidate satisfy the edit request while preserving the subject's
identity? Answer Yes or No, then explain.`

// VisionJudge evaluates candidates with a Gemini vision model.
// It implements refine.Judge.
type VisionJudge struct {
	client *genai.Client
	model  string
}

// NewVisionJudge creates a judge over the given SDK client. An empty model
// selects ModelFlashPreview.
func NewVisionJudge(client *genai.Client, model string) *VisionJudge {
	if model == "" {
		model = ModelFlashPreview
	}
	return &VisionJudge{client: client, model: model}
}

// Evaluate asks the vision model whether the candidate satisfies the prompt
// and preserves subject identity. The verdict is parsed from the leading
// token of the answer; the full answer is kept verbatim as feedback.
func (j *VisionJudge) Evaluate(ctx context.Context, prompt string, original, candidate imaging.Asset) (refine.Verdict, error) {
	startTime := time.Now()
	log.Info().
		Str("model", j.model).
		Int("original_bytes", len(original.Data)).
		Int("candidate_bytes", len(candidate.Data)).
		Msg("Sending candidate to Gemini for evaluation")

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: judgeSystemInstruction}},
		},
	}

	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: original.MIMEType, Data: original.Data}},
		{InlineData: &genai.Blob{MIMEType: candidate.MIMEType, Data: candidate.Data}},
		{Text: fmt.Sprintf(judgeUserPrompt, prompt)},
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	resp, err := j.client.Models.GenerateContent(ctx, j.model, contents, config)
	if err != nil {
		log.Error().Err(err).Msg("Failed to evaluate candidate")
		return refine.Verdict{}, fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil {
		return refine.Verdict{}, fmt.Errorf("received empty response from Gemini API")
	}

	answer := resp.Text()
	if answer == "" {
		return refine.Verdict{}, fmt.Errorf("judge returned no text")
	}

	verdict := refine.ParseVerdict(answer)

	log.Info().
		Bool("acceptable", verdict.Acceptable).
		Int("feedback_length", len(verdict.Feedback)).
		Dur("duration", time.Since(startTime)).
		Msg("Candidate evaluation complete")

	return verdict, nil
}
