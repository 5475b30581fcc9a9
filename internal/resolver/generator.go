package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Supported model backends.
const (
	BackendGenerativeAI = "generative-ai"
	BackendGenAI        = "genai"
)

// ErrNoModel means no external model is configured. The resolver then runs
// in deterministic-only mode.
var ErrNoModel = errors.New("no external model configured")

// TextGenerator is a single-shot call to an external text model.
type TextGenerator interface {
	// Generate sends system instructions and a user prompt and returns the
	// raw model text.
	Generate(ctx context.Context, system, prompt string) (string, error)
	// Name identifies the backend in logs.
	Name() string
}

// ModelConfig selects and authenticates a backend.
type ModelConfig struct {
	Enabled bool
	Backend string
	Model   string
	APIKey  string
}

// NewTextGenerator builds the configured backend. It returns ErrNoModel when
// the model is disabled or no API key is set.
func NewTextGenerator(ctx context.Context, cfg ModelConfig) (TextGenerator, error) {
	if !cfg.Enabled || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoModel
	}
	switch cfg.Backend {
	case BackendGenerativeAI, "":
		c, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendGenAI:
		c, err := NewGenAIClient(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown model backend %q", cfg.Backend)
	}
}
