package extract

import (
	"regexp"

	"github.com/ppiankov/mathblocks/internal/dom"
	"github.com/ppiankov/mathblocks/internal/model"
)

const (
	minProblemTextLen = 10
	problemConfidence = 0.8
)

var problemCues = []*regexp.Regexp{
	regexp.MustCompile(`(?i)solve\s+for\s+[a-z]\s*:`),
	regexp.MustCompile(`(?i)find\s+the\s+value\s+of\s+[a-z]\b`),
	regexp.MustCompile(`(?i)calculate\s+the\s+\w+`),
	regexp.MustCompile(`(?i)determine\s+\w+`),
	regexp.MustCompile(`(?i)[\w.]+\s*[+\-]\s*[\w.]+\s*=\s*[\w.]+`),
}

// ProblemDetector finds problem statements and their worked solutions
type ProblemDetector struct {
	cues []*regexp.Regexp
}

// NewProblemDetector creates a problem/solution detector
func NewProblemDetector() *ProblemDetector {
	return &ProblemDetector{cues: problemCues}
}

// Name returns the detector name
func (d *ProblemDetector) Name() string {
	return "problem"
}

// Detect emits one problem-solver suggestion per recognised problem that
// yields at least one step.
func (d *ProblemDetector) Detect(doc *dom.Document) []model.Suggestion {
	var out []model.Suggestion

	for _, el := range problemCandidates(doc) {
		text := el.Text()
		if len(text) < minProblemTextLen || !d.isProblem(text) {
			continue
		}

		steps, container, rule := discoverSteps(doc, el)
		if len(steps) == 0 {
			continue
		}

		sources := []dom.Element{el}
		if container != nil {
			sources = append(sources, container)
		}

		out = append(out, model.Suggestion{
			Type:           model.BlockProblemSolver,
			Rule:           "problem:" + rule,
			Description:    "Turn this problem into a step-by-step solver",
			Confidence:     problemConfidence,
			SourceElements: sources,
			BlockParameters: map[string]any{
				"problem":           text,
				"steps":             steps,
				"showHints":         true,
				"progressiveReveal": true,
				"requireUserInput":  false,
				"feedbackLevel":     "detailed",
				"solutionVisible":   "after-attempt",
			},
		})
	}

	return out
}

func (d *ProblemDetector) isProblem(text string) bool {
	for _, cue := range d.cues {
		if cue.MatchString(text) {
			return true
		}
	}
	return false
}

// problemCandidates returns, in document order and without duplicates:
// paragraphs right after an h2/h3/h4, .problem elements,
// [data-type=problem] elements, paragraphs holding b/strong text, and
// divs whose first element child is a paragraph.
func problemCandidates(doc *dom.Document) []dom.Element {
	var out []dom.Element
	for _, el := range doc.All() {
		if isProblemCandidate(el) {
			out = append(out, el)
		}
	}
	return out
}

func isProblemCandidate(el dom.Element) bool {
	switch {
	case el.HasClass("problem"):
		return true
	case el.Attr("data-type") == "problem":
		return true
	}

	switch el.Tag() {
	case "p":
		if prev := el.PrevSibling(); prev != nil {
			switch prev.Tag() {
			case "h2", "h3", "h4":
				return true
			}
		}
		return el.Query("b, strong") != nil
	case "div":
		children := el.Children()
		return len(children) > 0 && children[0].Tag() == "p"
	}
	return false
}
