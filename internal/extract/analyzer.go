package extract

import (
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/mathblocks/internal/dom"
	"github.com/ppiankov/mathblocks/internal/model"
	"github.com/ppiankov/mathblocks/internal/score"
)

// Detector scans a parsed document and proposes suggestions. Detectors
// must not mutate the document; they may run concurrently.
type Detector interface {
	Name() string
	Detect(doc *dom.Document) []model.Suggestion
}

// Analyzer runs every detector over one document and ranks the result
type Analyzer struct {
	detectors []Detector
	parallel  bool
	policy    *bluemonday.Policy
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithParallelDetectors runs detectors concurrently. Output is identical to
// the sequential run.
func WithParallelDetectors(on bool) Option {
	return func(a *Analyzer) { a.parallel = on }
}

// WithDetectors replaces the default detector set
func WithDetectors(detectors ...Detector) Option {
	return func(a *Analyzer) { a.detectors = detectors }
}

// NewAnalyzer creates an analyzer with the equation and problem detectors
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		detectors: []Detector{NewEquationDetector(), NewProblemDetector()},
		policy:    bluemonday.UGCPolicy(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze parses htmlContent and returns suggestions sorted by confidence,
// descending, ties kept in encounter order. It is a pure function of its
// input.
func (a *Analyzer) Analyze(htmlContent string) []model.Suggestion {
	return a.AnalyzeDocument(dom.Parse(htmlContent))
}

// AnalyzeDocument is Analyze over an already parsed document
func (a *Analyzer) AnalyzeDocument(doc *dom.Document) []model.Suggestion {
	batches := make([][]model.Suggestion, len(a.detectors))

	if a.parallel {
		var g errgroup.Group
		for i, d := range a.detectors {
			g.Go(func() error {
				batches[i] = d.Detect(doc)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, d := range a.detectors {
			batches[i] = d.Detect(doc)
		}
	}

	suggestions := make([]model.Suggestion, 0)
	for _, batch := range batches {
		suggestions = append(suggestions, batch...)
	}

	for i := range suggestions {
		suggestions[i].ID = fmt.Sprintf("sg-%03d", i+1)
		suggestions[i].Sources = a.sourceRefs(suggestions[i].SourceElements)
	}

	return score.Rank(suggestions)
}

func (a *Analyzer) sourceRefs(elements []dom.Element) []model.SourceRef {
	refs := make([]model.SourceRef, 0, len(elements))
	for _, el := range elements {
		refs = append(refs, model.SourceRef{
			Tag:  el.Tag(),
			ID:   el.ID(),
			Text: el.Text(),
			HTML: a.policy.Sanitize(el.InnerHTML()),
		})
	}
	return refs
}
