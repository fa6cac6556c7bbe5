package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/mathblocks/internal/model"
)

// Runner analyzes one lesson source
type Runner interface {
	Run(ctx context.Context, source string) (*model.Report, error)
}

// AnalyzeJob analyzes a single source
type AnalyzeJob struct {
	Index  int
	Source string
	Runner Runner
}

// Execute runs the analysis
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	report, err := j.Runner.Run(ctx, j.Source)
	return &AnalyzeResult{Index: j.Index, Source: j.Source, Report: report, Error: err}
}

// AnalyzeResult is the outcome for one source
type AnalyzeResult struct {
	Index  int
	Source string
	Report *model.Report
	Error  error
}

// Err returns the analysis error, if any
func (r *AnalyzeResult) Err() error {
	return r.Error
}

// BatchProcessor analyzes many sources concurrently
type BatchProcessor struct {
	runner      Runner
	concurrency int

	// OnResult, when set, is called from the collecting goroutine as each
	// result arrives.
	OnResult func(*AnalyzeResult)
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(runner Runner, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		runner:      runner,
		concurrency: concurrency,
	}
}

// Process analyzes sources and returns one result per source, in input
// order. Sources not reached before ctx is cancelled carry ctx's error.
func (b *BatchProcessor) Process(ctx context.Context, sources []string) []*AnalyzeResult {
	results := make([]*AnalyzeResult, len(sources))
	if len(sources) == 0 {
		return results
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	go func() {
		defer pool.Close()
		for i, src := range sources {
			if !pool.Submit(&AnalyzeJob{Index: i, Source: src, Runner: b.runner}) {
				return
			}
		}
	}()

	for r := range pool.Results() {
		res := r.(*AnalyzeResult)
		results[res.Index] = res
		if b.OnResult != nil {
			b.OnResult(res)
		}
	}

	for i, res := range results {
		if res == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			results[i] = &AnalyzeResult{Index: i, Source: sources[i], Error: fmt.Errorf("not analyzed: %w", err)}
		}
	}

	return results
}

// ProcessFile reads sources from a list file and analyzes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, path string) ([]*AnalyzeResult, error) {
	sources, err := ReadSourcesFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}
	return b.Process(ctx, sources), nil
}

// ReadSourcesFromFile reads one path or URL per line. Blank lines and
// lines starting with # are skipped; duplicates keep their first position.
func ReadSourcesFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var sources []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			sources = append(sources, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return sources, nil
}
