package oracle

import (
	"context"
	"fmt"
	"strings"
)

// Provider names accepted by NewBackend.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// BackendConfig selects and configures a Backend.
type BackendConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// NewBackend builds the backend named by cfg.Provider.
func NewBackend(ctx context.Context, cfg BackendConfig) (Backend, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderGemini, "":
		return NewGeminiBackend(ctx, cfg.APIKey, cfg.Model)
	case ProviderOpenAI:
		return NewOpenAIBackend(cfg.APIKey, cfg.Model, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}
