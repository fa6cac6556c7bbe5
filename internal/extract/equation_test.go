package extract

import (
	"math"
	"testing"

	"github.com/ppiankov/mathblocks/internal/dom"
	"github.com/ppiankov/mathblocks/internal/model"
)

func detectEquations(t *testing.T, html string) []model.Suggestion {
	t.Helper()
	return NewEquationDetector().Detect(dom.Parse(html))
}

func TestEquationDetector_Linear(t *testing.T) {
	got := detectEquations(t, `<p>y = 2x + 1</p>`)
	if len(got) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(got))
	}

	s := got[0]
	if s.Type != model.BlockEquationExplorer {
		t.Errorf("expected equation-explorer, got %s", s.Type)
	}
	if math.Abs(s.Confidence-0.85) > 1e-9 {
		t.Errorf("expected confidence 0.85, got %v", s.Confidence)
	}
	if s.Rule != "equation:linear" {
		t.Errorf("expected linear rule, got %s", s.Rule)
	}
	if eq := s.BlockParameters["equation"]; eq != "y = 2x + 1" {
		t.Errorf("unexpected equation %q", eq)
	}
	vars := s.BlockParameters["variables"].([]string)
	if len(vars) != 1 || vars[0] != "y" {
		t.Errorf("expected variables [y], got %v", vars)
	}
	rng := s.BlockParameters["range"].(map[string][]float64)
	if r := rng["y"]; len(r) != 2 || r[0] != -10 || r[1] != 10 {
		t.Errorf("unexpected range %v", rng)
	}
	init := s.BlockParameters["initialValues"].(map[string]float64)
	if v, ok := init["y"]; !ok || v != 0 {
		t.Errorf("unexpected initial values %v", init)
	}
	if s.BlockParameters["showGraph"] != true || s.BlockParameters["showFormula"] != true {
		t.Error("expected showGraph and showFormula to default to true")
	}
}

func TestEquationDetector_LinearEqualsOnRight(t *testing.T) {
	got := detectEquations(t, `<li>Now 3x - 4 = 11 holds.</li>`)
	if len(got) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(got))
	}
	if eq := got[0].BlockParameters["equation"]; eq != "3x - 4 = 11" {
		t.Errorf("expected only the matched snippet, got %q", eq)
	}
	vars := got[0].BlockParameters["variables"].([]string)
	if vars[0] != "x" {
		t.Errorf("expected leading-term variable x, got %v", vars)
	}
}

func TestEquationDetector_QuadraticOutranksLinear(t *testing.T) {
	for _, html := range []string{
		`<p>y = x^2 + 2x + 1</p>`,
		`<p>y = x² - 4</p>`,
		`<p>x^2 + 2x + 1 = 0</p>`,
	} {
		got := detectEquations(t, html)
		if len(got) != 1 {
			t.Fatalf("%s: expected 1 suggestion, got %d", html, len(got))
		}
		if got[0].Rule != "equation:quadratic" {
			t.Errorf("%s: expected quadratic rule, got %s", html, got[0].Rule)
		}
		if math.Abs(got[0].Confidence-0.9) > 1e-9 {
			t.Errorf("%s: expected confidence 0.9, got %v", html, got[0].Confidence)
		}
	}
}

func TestEquationDetector_LinearBesideUnrelatedSquare(t *testing.T) {
	got := detectEquations(t, `<p>Solve 2x + 3 = 7, then compare with x^2.</p>`)
	if len(got) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(got))
	}
	if got[0].Rule != "equation:linear" || math.Abs(got[0].Confidence-0.85) > 1e-9 {
		t.Errorf("expected linear at 0.85, got %s at %v", got[0].Rule, got[0].Confidence)
	}
	if eq := got[0].BlockParameters["equation"]; eq != "2x + 3 = 7" {
		t.Errorf("unexpected equation %q", eq)
	}
}

func TestEquationDetector_PartOfLongerExpressionIsNotLinear(t *testing.T) {
	for _, html := range []string{
		`<p>x^2 - 5x + 6 = 0</p>`,
		`<p>x² -5x + 6 = 0</p>`,
		`<p>y = 3x + 2 - x^2</p>`,
	} {
		for _, s := range detectEquations(t, html) {
			if s.Rule == "equation:linear" {
				t.Errorf("%s: linear match on %q", html, s.BlockParameters["equation"])
			}
		}
	}
}

func TestEquationDetector_UnparseableSnippetsAreSkipped(t *testing.T) {
	for _, html := range []string{
		`<p>y = (x + 1</p>`,
		`<p>y = .x + 1</p>`,
		`<p>y = 2 ** x</p>`,
	} {
		if got := detectEquations(t, html); len(got) != 0 {
			t.Errorf("%s: expected no suggestions, got %q", html, got[0].BlockParameters["equation"])
		}
	}
}

func TestEquationDetector_General(t *testing.T) {
	got := detectEquations(t, `<span>z = (a + b) / 2</span>`)
	if len(got) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(got))
	}
	if got[0].Rule != "equation:general" {
		t.Errorf("expected general rule, got %s", got[0].Rule)
	}
	if math.Abs(got[0].Confidence-0.7) > 1e-9 {
		t.Errorf("expected confidence 0.7, got %v", got[0].Confidence)
	}
	if eq := got[0].BlockParameters["equation"]; eq != "z = (a + b) / 2" {
		t.Errorf("unexpected equation %q", eq)
	}
}

func TestEquationDetector_SkipsNonMathAndShortText(t *testing.T) {
	for _, html := range []string{
		`<p>Hello world</p>`,
		`<p>x=</p>`,
		`<p>The value = unknown!</p>`,
		`<h2>y = 2x + 1</h2>`, // headings are not candidates
	} {
		if got := detectEquations(t, html); len(got) != 0 {
			t.Errorf("%s: expected no suggestions, got %d (%v)", html, len(got), got[0].BlockParameters)
		}
	}
}

func TestEquationDetector_OneSuggestionPerElement(t *testing.T) {
	got := detectEquations(t, `<p>y = 2x + 1 and also z = 3w - 2</p>`)
	if len(got) != 1 {
		t.Fatalf("expected exactly one suggestion for the element, got %d", len(got))
	}
	if eq := got[0].BlockParameters["equation"]; eq != "y = 2x + 1" {
		t.Errorf("expected first match, got %q", eq)
	}
}

func TestExtractVariable_Fallbacks(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"y = 2x + 1", "y"},
		{"2t + 3 = 7", "t"},
		{"-4 + 3 = -1", "x"},
	}
	for _, tt := range tests {
		if got := extractVariable(tt.in); got != tt.want {
			t.Errorf("extractVariable(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
