// Package gemini provides the model-invocation capabilities the refinement
// loop depends on: an image-editing generation client (REST, since the SDK
// does not expose image output) and a vision judge built on the genai SDK.
package gemini

// Gemini model IDs used by the service.
const (
	// ModelImagePreview generates and edits images.
	ModelImagePreview = "gemini-3-pro-image-preview"

	// ModelFlashPreview is the default text/vision model, used for judging
	// candidates and the single-shot text endpoint.
	ModelFlashPreview = "gemini-3-flash-preview"
)

// DefaultBaseURL is the Gemini REST API base URL.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
