package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kwhite/imagerefine/internal/auth"
	"github.com/kwhite/imagerefine/internal/config"
	"github.com/kwhite/imagerefine/internal/gemini"
	"github.com/kwhite/imagerefine/internal/httpapi"
	"github.com/kwhite/imagerefine/internal/logging"
)

// CLI flags
var (
	portFlag       int
	imageModelFlag string
	judgeModelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "refine-web",
	Short: "HTTP service for iterative AI image editing",
	Long: `Refine Web starts an HTTP server that edits images with a generative
model in a judge-guided refinement loop: each candidate is evaluated against
the edit prompt and the original subject, and the judge's critique steers the
next attempt. Progress is streamed as newline-delimited JSON events.

Examples:
  refine-web
  refine-web --port 9090
  refine-web --judge-model gemini-3-pro-preview`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (overrides PORT)")
	rootCmd.Flags().StringVar(&imageModelFlag, "image-model", "", "Image generation model (overrides REFINE_IMAGE_MODEL)")
	rootCmd.Flags().StringVar(&judgeModelFlag, "judge-model", "", "Vision model for candidate evaluation (overrides REFINE_JUDGE_MODEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	logging.Init()

	cfg := config.Load()
	if portFlag != 0 {
		cfg.Port = portFlag
	}
	if imageModelFlag != "" {
		cfg.ImageModel = imageModelFlag
	}
	if judgeModelFlag != "" {
		cfg.JudgeModel = judgeModelFlag
	}

	apiKey, err := auth.GetAPIKey()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get API key")
	}

	ctx := context.Background()
	client, err := gemini.NewClient(ctx, apiKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}
	if err := auth.ValidateAPIKey(ctx, client, cfg.JudgeModel); err != nil {
		log.Fatal().Err(err).Msg("Invalid API key")
	}

	app := &httpapi.App{
		Config: cfg,
		Generator: gemini.NewImageClient(gemini.ImageClientOptions{
			APIKey:  apiKey,
			Model:   cfg.ImageModel,
			BaseURL: cfg.GeminiBaseURL,
		}),
		Judge: gemini.NewVisionJudge(client, cfg.JudgeModel),
		GenAI: client,
	}

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     httpapi.NewRouter(app),
		ReadTimeout: cfg.HTTPReadTimeout,
		IdleTimeout: cfg.HTTPIdleTimeout,
		// No WriteTimeout: edit sessions stream for as long as the
		// refinement loop runs.
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Shutdown did not finish cleanly")
		}
	}()

	log.Info().
		Int("port", cfg.Port).
		Str("image_model", cfg.ImageModel).
		Str("judge_model", cfg.JudgeModel).
		Msg("Starting refine-web server")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
