// Package httpapi exposes the refinement loop over HTTP: a streaming edit
// endpoint plus the single-shot generation passthroughs.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"google.golang.org/genai"

	"github.com/kwhite/imagerefine/internal/config"
	"github.com/kwhite/imagerefine/internal/refine"
)

// App bundles the dependencies the handlers need.
type App struct {
	Config    *config.Config
	Generator refine.Generator
	Judge     refine.Judge

	// GenAI backs the single-shot text endpoint.
	GenAI *genai.Client
}

// NewRouter builds the HTTP routing table.
func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	r.Get("/healthz", app.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/edit", app.handleEdit)
		r.Post("/generate-image", app.handleGenerateImage)
		r.Post("/generate-text", app.handleGenerateText)
	})

	return r
}
