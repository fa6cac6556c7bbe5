package validate

import (
	"github.com/ppiankov/mathblocks/internal/model"
)

// Schema describes the parameters a block type accepts.
type Schema struct {
	Required []string       // Keys every suggestion of this type must carry
	Defaults map[string]any // Values used when a key is absent
}

// Registry maps block types to their parameter schemas.
type Registry struct {
	schemas map[model.BlockType]Schema
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[model.BlockType]Schema)}
}

// Register adds or replaces the schema for a block type
func (r *Registry) Register(t model.BlockType, s Schema) {
	r.schemas[t] = s
}

// Lookup returns the schema for a block type
func (r *Registry) Lookup(t model.BlockType) (Schema, bool) {
	s, ok := r.schemas[t]
	return s, ok
}

// Types returns the registered block types in display order
func (r *Registry) Types() []model.BlockType {
	var types []model.BlockType
	for _, t := range model.BlockTypes() {
		if _, ok := r.schemas[t]; ok {
			types = append(types, t)
		}
	}
	return types
}

// DefaultRegistry returns a registry holding the four built-in block types.
// Each call builds a fresh registry, so callers may register overrides
// without affecting one another.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(model.BlockEquationExplorer, Schema{
		Required: []string{"equation", "variables", "range", "initialValues", "showGraph", "showFormula"},
		Defaults: map[string]any{
			"showGraph":   true,
			"showFormula": true,
		},
	})

	r.Register(model.BlockProblemSolver, Schema{
		Required: []string{"problem", "steps", "showHints", "progressiveReveal", "requireUserInput", "feedbackLevel", "solutionVisible"},
		Defaults: map[string]any{
			"showHints":         true,
			"progressiveReveal": true,
			"requireUserInput":  false,
			"feedbackLevel":     "detailed",
			"solutionVisible":   "after-attempt",
		},
	})

	r.Register(model.BlockConceptVisualizer, Schema{
		Required: []string{"concept", "visualizationType"},
		Defaults: map[string]any{
			"visualizationType": "diagram",
			"interactive":       true,
		},
	})

	r.Register(model.BlockDataExplorer, Schema{
		Required: []string{"dataset", "chartType"},
		Defaults: map[string]any{
			"chartType":    "bar",
			"allowFilters": true,
		},
	})

	return r
}
