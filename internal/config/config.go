// Package config loads service configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the runtime configuration for the refinement service.
type Config struct {
	AppEnv string
	Port   int

	// Model selection. ImageModel must be an image-output capable model;
	// JudgeModel is a vision model used for candidate evaluation.
	ImageModel    string
	JudgeModel    string
	GeminiBaseURL string

	// DefaultMaxIterations is used when a request does not specify a cap.
	DefaultMaxIterations int

	HTTPReadTimeout time.Duration
	HTTPIdleTimeout time.Duration

	// MaxUploadBytes bounds the total multipart form size for edit requests.
	MaxUploadBytes int64
}

// Load reads configuration from environment variables, applying defaults.
func Load() *Config {
	return &Config{
		AppEnv:               getEnv("APP_ENV", "development"),
		Port:                 getEnvInt("PORT", 8080),
		ImageModel:           getEnv("REFINE_IMAGE_MODEL", "gemini-3-pro-image-preview"),
		JudgeModel:           getEnv("REFINE_JUDGE_MODEL", "gemini-3-flash-preview"),
		GeminiBaseURL:        getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		DefaultMaxIterations: getEnvInt("REFINE_MAX_ITERATIONS", 5),
		HTTPReadTimeout:      time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:      time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 120)),
		MaxUploadBytes:       int64(getEnvInt("REFINE_MAX_UPLOAD_MB", 32)) << 20,
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
