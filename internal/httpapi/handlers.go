package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kwhite/imagerefine/internal/gemini"
	"github.com/kwhite/imagerefine/internal/imaging"
	"github.com/kwhite/imagerefine/internal/refine"
	"github.com/kwhite/imagerefine/internal/stream"
)

func (app *App) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleEdit runs one refinement session and streams its progress events as
// newline-delimited records. The request invariants (non-empty prompt, at
// least one decodable image) are enforced here, before the loop starts.
func (app *App) handleEdit(w http.ResponseWriter, r *http.Request) {
	sessionID := uuid.NewString()
	logger := log.With().Str("session_id", sessionID).Logger()

	req, ok := app.parseEditRequest(w, r)
	if !ok {
		return
	}

	logger.Info().
		Int("reference_images", len(req.References)).
		Int("max_iterations", req.MaxIterations).
		Msg("Edit session starting")

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	enc := stream.NewEncoder(w)

	// Event emission is best-effort: a failure to serialize or write one
	// event is logged and skipped, never surfaced into the loop.
	emit := func(ev refine.Event) {
		if err := enc.Encode(ev); err != nil {
			logger.Warn().Err(err).Msg("Failed to write progress event, skipping")
		}
	}

	controller := refine.NewController(app.Generator, app.Judge)
	controller.Run(r.Context(), req, emit)

	logger.Info().Msg("Edit session finished")
}

// parseEditRequest validates the multipart form and normalizes the uploads.
// On failure it writes the error response and returns ok=false.
func (app *App) parseEditRequest(w http.ResponseWriter, r *http.Request) (refine.EditRequest, bool) {
	if err := r.ParseMultipartForm(app.Config.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return refine.EditRequest{}, false
	}

	prompt := r.FormValue("prompt")
	if prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return refine.EditRequest{}, false
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "at least one image is required")
		return refine.EditRequest{}, false
	}

	maxIterations := app.Config.DefaultMaxIterations
	if v := r.FormValue("maxIterations"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "maxIterations must be an integer")
			return refine.EditRequest{}, false
		}
		maxIterations = n
	}

	references := make([]imaging.Asset, 0, len(files))
	for _, fh := range files {
		asset, err := normalizeUpload(fh)
		if err != nil {
			if errors.Is(err, imaging.ErrDecode) {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("%s is not a decodable image", fh.Filename))
				return refine.EditRequest{}, false
			}
			writeError(w, http.StatusInternalServerError, "failed to read uploaded image")
			return refine.EditRequest{}, false
		}
		references = append(references, asset)
	}

	return refine.EditRequest{
		Prompt:        prompt,
		References:    references,
		MaxIterations: maxIterations,
	}, true
}

func normalizeUpload(fh *multipart.FileHeader) (imaging.Asset, error) {
	f, err := fh.Open()
	if err != nil {
		return imaging.Asset{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return imaging.Asset{}, fmt.Errorf("failed to read upload: %w", err)
	}

	return imaging.Normalize(data)
}

// imageResponse is the single-shot generation response body.
type imageResponse struct {
	Base64    string `json:"base64"`
	MediaType string `json:"mediaType"`
}

// handleGenerateImage is the single-shot image passthrough: one generation
// call, no iteration or judging.
func (app *App) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	req, ok := app.parseEditRequest(w, r)
	if !ok {
		return
	}

	generated, err := app.Generator.Generate(r.Context(), req.Prompt, req.References)
	if err != nil {
		log.Error().Err(err).Msg("Single-shot image generation failed")
		writeError(w, http.StatusBadGateway, fmt.Sprintf("image generation failed: %v", err))
		return
	}

	candidate, err := imaging.NormalizeCandidate(generated.Data)
	if err != nil {
		log.Error().Err(err).Msg("Generated image not decodable")
		writeError(w, http.StatusBadGateway, "generated image could not be decoded")
		return
	}

	writeJSON(w, http.StatusOK, imageResponse{
		Base64:    base64.StdEncoding.EncodeToString(candidate.Data),
		MediaType: candidate.MIMEType,
	})
}

type textRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
}

type textResponse struct {
	Text string `json:"text"`
}

// handleGenerateText is the single-shot text passthrough.
func (app *App) handleGenerateText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	if app.GenAI == nil {
		writeError(w, http.StatusServiceUnavailable, "text generation is not configured")
		return
	}

	text, err := gemini.GenerateText(r.Context(), app.GenAI, req.Model, req.Prompt)
	if err != nil {
		log.Error().Err(err).Msg("Single-shot text generation failed")
		writeError(w, http.StatusBadGateway, fmt.Sprintf("text generation failed: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, textResponse{Text: text})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("Failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
