package model

import (
	"encoding/json"
	"fmt"

	"github.com/ppiankov/mathblocks/internal/dom"
)

// BlockType names one interactive widget kind
type BlockType string

const (
	BlockEquationExplorer  BlockType = "equation-explorer"
	BlockProblemSolver     BlockType = "problem-solver"
	BlockConceptVisualizer BlockType = "concept-visualizer" // reserved, no detector emits it yet
	BlockDataExplorer      BlockType = "data-explorer"      // reserved, no detector emits it yet
)

// BlockTypes lists every known block type in display order
func BlockTypes() []BlockType {
	return []BlockType{BlockEquationExplorer, BlockProblemSolver, BlockConceptVisualizer, BlockDataExplorer}
}

// Suggestion is a proposed mapping from source content to an interactive block
type Suggestion struct {
	ID              string         `json:"id"`              // Stable synthetic id, assigned in encounter order
	Type            BlockType      `json:"type"`            // Target block type
	Rule            string         `json:"rule"`            // Detection rule that fired (e.g. "equation:linear")
	Description     string         `json:"description"`     // Human-readable label
	Confidence      float64        `json:"confidence"`      // Fixed per rule, in [0,1]
	BlockParameters map[string]any `json:"blockParameters"` // Parameters for the target block type
	Sources         []SourceRef    `json:"sources"`         // Serializable view of SourceElements

	// SourceElements are the elements that justified the suggestion. They
	// are borrowed from the analyzed document and not serialized.
	SourceElements []dom.Element `json:"-"`
}

// SourceRef is the serializable view of a source element
type SourceRef struct {
	Tag  string `json:"tag"`
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
	HTML string `json:"html,omitempty"` // Sanitized inner markup
}

// SourceText returns the text of the first source element, or "".
func (s Suggestion) SourceText() string {
	if len(s.Sources) > 0 {
		return s.Sources[0].Text
	}
	if len(s.SourceElements) > 0 {
		return s.SourceElements[0].Text()
	}
	return ""
}

// SourceTag returns the tag of the first source element, or "".
func (s Suggestion) SourceTag() string {
	if len(s.Sources) > 0 {
		return s.Sources[0].Tag
	}
	if len(s.SourceElements) > 0 {
		return s.SourceElements[0].Tag()
	}
	return ""
}

// Steps returns the problem-solver steps carried in BlockParameters, or nil
func (s Suggestion) Steps() []ProblemSolverStep {
	steps, _ := s.BlockParameters["steps"].([]ProblemSolverStep)
	return steps
}

// ProblemSolverStep is one step of a worked solution
type ProblemSolverStep struct {
	Description string `json:"description"`           // Step label, e.g. "Step 1"
	Expression  string `json:"expression"`            // Algebraic or display content
	Explanation string `json:"explanation,omitempty"` // What was done in this step
	Hint        string `json:"hint,omitempty"`        // Optional nudge shown before the step
}

// UnmarshalJSON decodes a suggestion and restores typed problem-solver
// steps, so Steps works on suggestions read back from a report.
func (s *Suggestion) UnmarshalJSON(data []byte) error {
	type plain Suggestion
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	if raw, ok := p.BlockParameters["steps"]; ok {
		b, err := json.Marshal(raw)
		if err != nil {
			return fmt.Errorf("re-encode steps: %w", err)
		}
		var steps []ProblemSolverStep
		if err := json.Unmarshal(b, &steps); err != nil {
			return fmt.Errorf("decode steps: %w", err)
		}
		p.BlockParameters["steps"] = steps
	}

	*s = Suggestion(p)
	return nil
}
