package gemini

// generate.go is a REST client for the Gemini image model. It uses direct
// HTTP calls instead of the Go SDK because the SDK does not support image
// output; the judge and text paths use the SDK.

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kwhite/imagerefine/internal/imaging"
)

// GenerationError reports that the model call succeeded but produced no
// usable image output.
type GenerationError struct {
	Detail string
}

func (e *GenerationError) Error() string {
	if e.Detail == "" {
		return "model returned no image output"
	}
	return "model returned no image output: " + e.Detail
}

// ImageClientOptions configures an ImageClient.
type ImageClientOptions struct {
	APIKey string
	// Model defaults to ModelImagePreview.
	Model string
	// BaseURL defaults to DefaultBaseURL. Overridable for tests.
	BaseURL string
	// HTTPClient defaults to a client with a 120s timeout; image generation
	// can take tens of seconds.
	HTTPClient *http.Client
}

// ImageClient calls the Gemini image model via REST for image editing.
// It implements refine.Generator.
type ImageClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewImageClient creates a client for Gemini image generation.
func NewImageClient(opts ImageClientOptions) *ImageClient {
	c := &ImageClient{
		apiKey:     opts.APIKey,
		model:      opts.Model,
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
	}
	if c.model == "" {
		c.model = ModelImagePreview
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	return c
}

// --- REST API request/response types ---

type generateRequest struct {
	Contents         []generateContent `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateContent struct {
	Role  string         `json:"role,omitempty"`
	Parts []generatePart `json:"parts"`
}

type generatePart struct {
	Text       string    `json:"text,omitempty"`
	InlineData *blobData `json:"inlineData,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type blobData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // base64 encoded
}

type generateResponse struct {
	Candidates []generateCandidate `json:"candidates"`
	Error      *apiError           `json:"error,omitempty"`
}

type generateCandidate struct {
	Content generateContent `json:"content"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Generate sends the prompt and reference images to the image model and
// returns the generated candidate. The first image is the primary edit
// target; the rest are supplementary reference material. Failures are
// reported up, never retried here: retry at iteration granularity is the
// refinement loop's concern.
func (c *ImageClient) Generate(ctx context.Context, prompt string, images []imaging.Asset) (imaging.Asset, error) {
	startTime := time.Now()
	log.Info().
		Str("model", c.model).
		Int("images", len(images)).
		Msg("Sending images to Gemini for editing")

	parts := make([]generatePart, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, generatePart{
			InlineData: &blobData{
				MIMEType: img.MIMEType,
				Data:     base64.StdEncoding.EncodeToString(img.Data),
			},
		})
	}
	parts = append(parts, generatePart{Text: prompt})

	req := generateRequest{
		Contents: []generateContent{{Role: "user", Parts: parts}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return imaging.Asset{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return imaging.Asset{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return imaging.Asset{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return imaging.Asset{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error().
			Int("status", resp.StatusCode).
			Str("body", truncate(string(respBody), 500)).
			Msg("Gemini image API returned error")
		return imaging.Asset{}, fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return imaging.Asset{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if genResp.Error != nil {
		return imaging.Asset{}, fmt.Errorf("API error: %s (code: %d)", genResp.Error.Message, genResp.Error.Code)
	}

	var out imaging.Asset
	var text string
	for _, candidate := range genResp.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil {
				decoded, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
				if err != nil {
					return imaging.Asset{}, fmt.Errorf("failed to decode image data: %w", err)
				}
				out = imaging.Asset{Data: decoded, MIMEType: part.InlineData.MIMEType}
			}
			if part.Text != "" {
				text += part.Text
			}
		}
	}

	if len(out.Data) == 0 {
		return imaging.Asset{}, &GenerationError{Detail: truncate(text, 200)}
	}

	log.Info().
		Int("output_bytes", len(out.Data)).
		Str("output_mime", out.MIMEType).
		Dur("duration", time.Since(startTime)).
		Msg("Gemini image editing complete")

	return out, nil
}

// truncate shortens a string to maxLen, appending "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
