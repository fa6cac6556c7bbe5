package extract

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/ppiankov/mathblocks/internal/model"
	"github.com/ppiankov/mathblocks/internal/validate"
)

const worksheet = `
<html>
<body>
	<h2>Linear equations</h2>
	<p>A line can be written as y = 2x + 1.</p>
	<p>Another curve is y = x^2 + 2x + 1</p>
	<div><span>Average: m = (a + b) / 2</span></div>
	<h3>Problem</h3>
	<p>Solve for x: 2x + 3 = 7</p>
	<h3>Worked example</h3>
	<p><strong>Find the value of k</strong> if 3k - 6 = 9</p>
	<ol>
		<li>Add 6: 3k = 15</li>
		<li>Divide by 3: k = 5</li>
	</ol>
	<p>Hello world</p>
	<script>document.write("y = 3x + 2")</script>
</body>
</html>`

func TestAnalyzer_SortedByConfidence(t *testing.T) {
	got := NewAnalyzer().Analyze(worksheet)
	if len(got) == 0 {
		t.Fatal("expected suggestions")
	}
	for i := 1; i < len(got); i++ {
		if got[i].Confidence > got[i-1].Confidence {
			t.Errorf("suggestion %d (%v) ranks above %d (%v)", i, got[i].Confidence, i-1, got[i-1].Confidence)
		}
	}
}

func TestAnalyzer_ParametersCompleteForEveryType(t *testing.T) {
	registry := validate.DefaultRegistry()
	validator := validate.NewValidator(registry)

	for _, s := range NewAnalyzer().Analyze(worksheet) {
		if err := validator.Check(s); err != nil {
			t.Errorf("%s (%s): %v", s.ID, s.Rule, err)
		}
		if s.Type == model.BlockProblemSolver && len(s.Steps()) == 0 {
			t.Errorf("%s: problem-solver without steps", s.ID)
		}
		if len(s.SourceElements) == 0 || len(s.Sources) != len(s.SourceElements) {
			t.Errorf("%s: expected source elements and refs", s.ID)
		}
	}
}

func TestAnalyzer_MalformedEquationsStayApplicable(t *testing.T) {
	validator := validate.NewValidator(validate.DefaultRegistry())

	for _, html := range []string{
		`<p>y = (x + 1</p>`,
		`<p>y = .x + 1</p>`,
		`<p>y = 2 ** x</p>`,
		`<p>Then k = ((2k) and stop</p>`,
		`<p>x^2 -5x + 6 = 0, or y = 3x + 2</p>`,
	} {
		for _, s := range NewAnalyzer().Analyze(html) {
			if err := validator.Check(s); err != nil {
				t.Errorf("%s: %s (%v) does not validate: %v", html, s.ID, s.BlockParameters["equation"], err)
			}
		}
	}
}

func TestAnalyzer_Idempotent(t *testing.T) {
	a := NewAnalyzer()
	first, err := json.Marshal(a.Analyze(worksheet))
	if err != nil {
		t.Fatal(err)
	}
	second, err := json.Marshal(a.Analyze(worksheet))
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Errorf("expected identical output across calls")
	}
}

func TestAnalyzer_ParallelMatchesSequential(t *testing.T) {
	seq, _ := json.Marshal(NewAnalyzer().Analyze(worksheet))
	par, _ := json.Marshal(NewAnalyzer(WithParallelDetectors(true)).Analyze(worksheet))
	if string(seq) != string(par) {
		t.Errorf("parallel detectors changed the output")
	}
}

func TestAnalyzer_LinearScenario(t *testing.T) {
	got := NewAnalyzer().Analyze(`<p>y = 2x + 1</p>`)
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 suggestion, got %d", len(got))
	}
	if got[0].Type != model.BlockEquationExplorer || math.Abs(got[0].Confidence-0.85) > 1e-9 {
		t.Errorf("unexpected suggestion %s %v", got[0].Type, got[0].Confidence)
	}
	if got[0].ID != "sg-001" {
		t.Errorf("expected id sg-001, got %s", got[0].ID)
	}
}

func TestAnalyzer_QuadraticScenario(t *testing.T) {
	got := NewAnalyzer().Analyze(`<p>y = x^2 + 2x + 1</p>`)
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 suggestion, got %d", len(got))
	}
	if math.Abs(got[0].Confidence-0.9) > 1e-9 {
		t.Errorf("expected quadratic confidence 0.9, got %v", got[0].Confidence)
	}
}

func TestAnalyzer_ProblemScenario(t *testing.T) {
	got := NewAnalyzer().Analyze(`<h3>Problem</h3><p>Solve for x: 2x + 3 = 7</p>`)

	var solvers []model.Suggestion
	for _, s := range got {
		if s.Type == model.BlockProblemSolver {
			solvers = append(solvers, s)
		}
	}
	if len(solvers) != 1 {
		t.Fatalf("expected 1 problem-solver suggestion, got %d", len(solvers))
	}
	steps := solvers[0].Steps()
	if len(steps) != 2 || steps[1].Expression != "x = 2" {
		t.Errorf("unexpected steps %+v", steps)
	}
}

func TestAnalyzer_NoMath(t *testing.T) {
	got := NewAnalyzer().Analyze(`<p>Hello world</p>`)
	if len(got) != 0 {
		t.Errorf("expected no suggestions, got %d", len(got))
	}
	if got == nil {
		t.Error("expected an empty, non-nil list")
	}
}

func TestAnalyzer_OrdersByConfidenceAcrossElements(t *testing.T) {
	got := NewAnalyzer().Analyze(`<p>m = (a + b) / 2</p><p>y = x^2 + 1</p>`)
	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(got))
	}
	if got[0].Confidence != 0.9 || got[1].Confidence != 0.7 {
		t.Errorf("expected [0.9, 0.7], got [%v, %v]", got[0].Confidence, got[1].Confidence)
	}
	// Ids follow encounter order, not rank.
	if got[0].ID != "sg-002" || got[1].ID != "sg-001" {
		t.Errorf("unexpected ids %s, %s", got[0].ID, got[1].ID)
	}
}

func TestAnalyzer_SanitizesSourceMarkup(t *testing.T) {
	got := NewAnalyzer().Analyze(`<p onclick="steal()">y = 2x + 1<img src=x onerror="alert(1)"></p>`)
	if len(got) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(got))
	}
	html := got[0].Sources[0].HTML
	for _, bad := range []string{"onerror", "alert", "onclick"} {
		if strings.Contains(html, bad) {
			t.Errorf("sanitized markup still contains %q: %s", bad, html)
		}
	}
}
