package gemini

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// GenerateText is the single-shot text passthrough: one prompt in, one text
// response out, no iteration or state.
func GenerateText(ctx context.Context, client *genai.Client, model, prompt string) (string, error) {
	if model == "" {
		model = ModelFlashPreview
	}

	log.Debug().Str("model", model).Int("prompt_length", len(prompt)).Msg("Sending text prompt to Gemini")

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("received empty response from Gemini API")
	}

	text := resp.Text()
	log.Debug().Int("response_length", len(text)).Msg("Received response from Gemini")
	return text, nil
}
