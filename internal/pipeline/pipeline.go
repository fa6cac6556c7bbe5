package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/mathblocks/internal/extract"
	"github.com/ppiankov/mathblocks/internal/extract/adapters"
	"github.com/ppiankov/mathblocks/internal/llm"
	"github.com/ppiankov/mathblocks/internal/model"
	"github.com/ppiankov/mathblocks/internal/score"
)

// Pipeline loads a lesson, analyzes it and assembles a report
type Pipeline struct {
	loader    *Loader
	adapters  *adapters.Registry
	analyzer  *extract.Analyzer
	hints     *llm.HintWriter // Optional (nil if disabled)
	threshold float64
	logger    *slog.Logger
	now       func() time.Time
}

// Option customises a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithLoader replaces the default loader
func WithLoader(loader *Loader) Option {
	return func(p *Pipeline) { p.loader = loader }
}

// WithAdapters replaces the built-in site adapters
func WithAdapters(r *adapters.Registry) Option {
	return func(p *Pipeline) { p.adapters = r }
}

// WithHintWriter enables the LLM hint pass
func WithHintWriter(w *llm.HintWriter) Option {
	return func(p *Pipeline) { p.hints = w }
}

// NewPipeline creates a pipeline from cfg. Without WithLoader it reads
// lessons with no rate limiting and no cache.
func NewPipeline(cfg *model.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		adapters:  adapters.NewRegistry(),
		analyzer:  extract.NewAnalyzer(extract.WithParallelDetectors(cfg.Analysis.ParallelDetectors)),
		threshold: cfg.Analysis.SelectionThreshold,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.loader == nil {
		p.loader = NewLoader(cfg.HTTP, model.CacheConfig{}, nil, nil, p.logger)
	}
	return p
}

// Run loads source and returns its report
func (p *Pipeline) Run(ctx context.Context, source string) (*model.Report, error) {
	start := p.now()

	src, err := p.loader.Load(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", source, err)
	}

	report := p.Analyze(ctx, src)

	p.logger.Info("analyzed lesson",
		"source", src.Name,
		"suggestions", report.Summary.Total,
		"selected", len(report.Summary.Selected),
		"elapsed", p.now().Sub(start).Round(time.Millisecond))

	return report, nil
}

// Analyze builds a report for an already loaded source
func (p *Pipeline) Analyze(ctx context.Context, src *Source) *model.Report {
	var contentType string
	if src.Meta != nil {
		contentType = src.Meta.ContentType
	}
	content, adapter := p.adapters.Prepare(src.Name, contentType, src.HTML)

	suggestions := p.analyzer.Analyze(content)

	report := &model.Report{
		Source:      src.Name,
		Adapter:     adapter,
		AnalyzedAt:  p.now().UTC(),
		FetchMeta:   src.Meta,
		Suggestions: suggestions,
		Summary:     score.Summarize(suggestions, p.threshold),
	}

	// Hints run after ranking and selection and never change either.
	if p.hints != nil {
		enriched, summary := p.hints.Enrich(ctx, suggestions)
		report.Suggestions = enriched
		report.Hints = summary
		p.logger.Debug("hint pass", "source", src.Name, "filled", summary.Filled, "warnings", len(summary.Warnings))
	}

	return report
}
