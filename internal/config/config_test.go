package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.ImageModel == "" {
		t.Error("ImageModel should have a default")
	}
	if cfg.JudgeModel == "" {
		t.Error("JudgeModel should have a default")
	}
	if cfg.DefaultMaxIterations <= 0 {
		t.Errorf("DefaultMaxIterations = %d, want positive", cfg.DefaultMaxIterations)
	}
	if cfg.MaxUploadBytes <= 0 {
		t.Errorf("MaxUploadBytes = %d, want positive", cfg.MaxUploadBytes)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REFINE_IMAGE_MODEL", "custom-image-model")
	t.Setenv("REFINE_MAX_ITERATIONS", "7")
	t.Setenv("HTTP_READ_TIMEOUT_SECONDS", "5")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.ImageModel != "custom-image-model" {
		t.Errorf("ImageModel = %q, want custom-image-model", cfg.ImageModel)
	}
	if cfg.DefaultMaxIterations != 7 {
		t.Errorf("DefaultMaxIterations = %d, want 7", cfg.DefaultMaxIterations)
	}
	if cfg.HTTPReadTimeout != 5*time.Second {
		t.Errorf("HTTPReadTimeout = %v, want 5s", cfg.HTTPReadTimeout)
	}
}

func TestLoadIgnoresMalformedInt(t *testing.T) {
	t.Setenv("PORT", "not-a-number")

	cfg := Load()
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want fallback 8080", cfg.Port)
	}
}
