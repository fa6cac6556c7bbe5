package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/mathblocks/internal/mathexpr"
	"github.com/ppiankov/mathblocks/internal/model"
)

var (
	// ErrUnknownType is returned for a block type missing from the registry.
	ErrUnknownType = errors.New("unknown block type")
	// ErrMissingParameter is returned when a required parameter is absent.
	ErrMissingParameter = errors.New("missing block parameter")
	// ErrInvalidParameter is returned when a parameter is present but unusable.
	ErrInvalidParameter = errors.New("invalid block parameter")
)

// Validator checks suggestions against a registry
type Validator struct {
	registry *Registry
}

// NewValidator creates a validator backed by registry
func NewValidator(registry *Registry) *Validator {
	return &Validator{registry: registry}
}

// Check reports the first problem found with s, or nil if it can be applied.
// Missing keys are not an error when the schema supplies a default.
func (v *Validator) Check(s model.Suggestion) error {
	schema, ok := v.registry.Lookup(s.Type)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, s.Type)
	}

	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v outside [0,1]", ErrInvalidParameter, s.Confidence)
	}

	var missing []string
	for _, key := range schema.Required {
		if _, ok := s.BlockParameters[key]; ok {
			continue
		}
		if _, ok := schema.Defaults[key]; ok {
			continue
		}
		missing = append(missing, key)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingParameter, strings.Join(missing, ", "))
	}

	switch s.Type {
	case model.BlockEquationExplorer:
		return checkEquation(s.BlockParameters["equation"])
	case model.BlockProblemSolver:
		if len(s.Steps()) == 0 {
			return fmt.Errorf("%w: steps must not be empty", ErrInvalidParameter)
		}
	}

	return nil
}

// checkEquation accepts either an equation with one '=' or a bare expression
func checkEquation(raw any) error {
	eq, ok := raw.(string)
	if !ok || strings.TrimSpace(eq) == "" {
		return fmt.Errorf("%w: equation must be a non-empty string", ErrInvalidParameter)
	}

	var err error
	if strings.Contains(eq, "=") {
		_, err = mathexpr.ParseEquation(eq)
	} else {
		_, err = mathexpr.Parse(eq)
	}
	if err != nil {
		return fmt.Errorf("%w: equation %q: %w", ErrInvalidParameter, eq, err)
	}
	return nil
}
