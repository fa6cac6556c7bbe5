package llm

import (
	"context"
	"time"

	"github.com/ppiankov/mathblocks/internal/model"
)

// Provider is a text-completion backend
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete returns the model's reply to a single-turn prompt
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest is a single-turn prompt
type CompletionRequest struct {
	System    string
	Prompt    string
	Model     string // Overrides the configured model when set
	MaxTokens int    // Overrides the configured limit when set
}

// CompletionResponse is the model's reply
type CompletionResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds provider settings
type Config struct {
	Provider  string // "openai", "anthropic", "ollama" or "" (disabled)
	Model     string
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	MaxTokens int

	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// ConfigFromModel builds provider settings from the application config.
// Proxy settings are shared with the lesson fetcher.
func ConfigFromModel(llmCfg model.LLMConfig, httpCfg model.HTTPConfig) Config {
	return Config{
		Provider:   llmCfg.Provider,
		Model:      llmCfg.Model,
		APIKey:     llmCfg.APIKey,
		BaseURL:    llmCfg.BaseURL,
		Timeout:    llmCfg.Timeout,
		MaxTokens:  llmCfg.MaxTokens,
		HTTPProxy:  httpCfg.HTTPProxy,
		HTTPSProxy: httpCfg.HTTPSProxy,
		NoProxy:    httpCfg.NoProxy,
	}
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return fallback
}

func (c Config) maxTokens(requested int) int {
	switch {
	case requested > 0:
		return requested
	case c.MaxTokens > 0:
		return c.MaxTokens
	default:
		return 600
	}
}
