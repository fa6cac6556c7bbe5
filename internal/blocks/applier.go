package blocks

import (
	"fmt"
	"maps"

	"github.com/google/uuid"

	"github.com/ppiankov/mathblocks/internal/model"
	"github.com/ppiankov/mathblocks/internal/score"
	"github.com/ppiankov/mathblocks/internal/validate"
)

// Applier turns accepted suggestions into block instances
type Applier struct {
	registry  *validate.Registry
	validator *validate.Validator
	newID     func() string
}

// NewApplier creates an applier backed by registry
func NewApplier(registry *validate.Registry) *Applier {
	return &Applier{
		registry:  registry,
		validator: validate.NewValidator(registry),
		newID:     uuid.NewString,
	}
}

// Apply builds one block per selected suggestion, in ranked order.
// An unknown id or a suggestion that fails validation aborts the whole
// call; no partial result is returned.
func (a *Applier) Apply(suggestions []model.Suggestion, selectedIDs []string) ([]model.Block, error) {
	selected, unknown := score.Select(suggestions, selectedIDs)
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown suggestion id %q", unknown[0])
	}

	blocks := make([]model.Block, 0, len(selected))
	for _, s := range selected {
		if err := a.validator.Check(s); err != nil {
			return nil, fmt.Errorf("suggestion %s: %w", s.ID, err)
		}
		blocks = append(blocks, a.build(s))
	}

	return blocks, nil
}

func (a *Applier) build(s model.Suggestion) model.Block {
	schema, _ := a.registry.Lookup(s.Type)

	params := make(map[string]any, len(schema.Defaults)+len(s.BlockParameters))
	maps.Copy(params, schema.Defaults)
	maps.Copy(params, s.BlockParameters)

	tag := s.SourceTag()
	if tag == "" {
		tag = "unknown"
	}

	return model.Block{
		ID:           a.newID(),
		Type:         s.Type,
		Title:        s.Description,
		Description:  fmt.Sprintf("Generated from %s element", tag),
		Parameters:   params,
		SuggestionID: s.ID,
	}
}
