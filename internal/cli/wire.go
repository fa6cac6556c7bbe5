package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/ppiankov/mathblocks/internal/cache"
	"github.com/ppiankov/mathblocks/internal/llm"
	"github.com/ppiankov/mathblocks/internal/model"
	"github.com/ppiankov/mathblocks/internal/pipeline"
	"github.com/ppiankov/mathblocks/internal/worker"
)

// fetchFlags are shared by every command that loads lessons
type fetchFlags struct {
	noCache    bool
	userAgent  string
	httpProxy  string
	httpsProxy string
	noRobots   bool
}

func (f *fetchFlags) register(fs *pflag.FlagSet) {
	fs.BoolVar(&f.noCache, "no-cache", false, "disable cache (force fresh fetch)")
	fs.StringVar(&f.userAgent, "ua", "", "HTTP User-Agent (default from config)")
	fs.StringVar(&f.httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	fs.StringVar(&f.httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
	fs.BoolVar(&f.noRobots, "ignore-robots", false, "do not consult robots.txt")
}

func (f *fetchFlags) apply(cfg *model.Config) {
	if f.noCache {
		cfg.Cache.Enabled = false
	}
	if f.userAgent != "" {
		cfg.HTTP.UserAgent = f.userAgent
	}
	if f.httpProxy != "" {
		cfg.HTTP.HTTPProxy = f.httpProxy
	}
	if f.httpsProxy != "" {
		cfg.HTTP.HTTPSProxy = f.httpsProxy
	}
	if f.noRobots {
		cfg.HTTP.RespectRobots = false
	}
}

// llmFlags select the optional hint writer
type llmFlags struct {
	enabled  bool
	provider string
	model    string
}

func (f *llmFlags) register(fs *pflag.FlagSet) {
	fs.BoolVar(&f.enabled, "hints", false, "ask an LLM to write a hint for each solution step")
	fs.StringVar(&f.provider, "llm-provider", "", "LLM provider (openai, anthropic, ollama); default from config")
	fs.StringVar(&f.model, "llm-model", "", "LLM model name")
}

// apply turns the hint pass on or off. Without --hints the configured
// provider is ignored.
func (f *llmFlags) apply(cfg *model.Config) error {
	if !f.enabled {
		cfg.LLM.Provider = ""
		return nil
	}
	if f.provider != "" {
		cfg.LLM.Provider = f.provider
	}
	if f.model != "" {
		cfg.LLM.Model = f.model
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}

	// A key picked up for one vendor is useless for another.
	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai":
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			cfg.LLM.APIKey = key
		}
		if cfg.LLM.APIKey == "" && cfg.LLM.BaseURL == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			cfg.LLM.APIKey = key
		}
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	}
	return nil
}

// buildPipeline wires the loader, its limiter and cache, and the optional
// hint writer around the analyzer.
func buildPipeline(cfg *model.Config, logger *slog.Logger) (*pipeline.Pipeline, error) {
	var store cache.Store
	if cfg.Cache.Enabled {
		store = cache.New(cfg.Cache)
	}
	limiter := worker.NewLimiter(cfg.HTTP.RequestsPerSecond, cfg.HTTP.Burst)
	loader := pipeline.NewLoader(cfg.HTTP, cfg.Cache, limiter, store, logger)

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithLoader(loader),
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	if provider != nil {
		opts = append(opts, pipeline.WithHintWriter(llm.NewHintWriter(provider, logger)))
	}

	return pipeline.NewPipeline(cfg, opts...), nil
}

func validThreshold(t float64) error {
	if t < 0 || t > 1 {
		return fmt.Errorf("threshold must be between 0 and 1, got %v", t)
	}
	return nil
}
