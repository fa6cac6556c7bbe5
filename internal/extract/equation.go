package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/mathblocks/internal/dom"
	"github.com/ppiankov/mathblocks/internal/mathexpr"
	"github.com/ppiankov/mathblocks/internal/model"
)

const minEquationTextLen = 3

// Every pattern captures the equation snippet in group 1. The leading
// (?:^|[^a-z0-9.]) keeps a variable from being read out of the middle of a
// word or number. Coefficients are optional numbers, never a lone ".".
var (
	linearPatterns = []*regexp.Regexp{
		// y = 2x + 1
		regexp.MustCompile(`(?i)(?:^|[^a-z0-9.])([a-z]\s*=\s*-?(?:\d+(?:\.\d+)?|\.\d+)?\s*[a-z]\s*[+\-]\s*\d+(?:\.\d+)?)`),
		// 2x + 3 = 7
		regexp.MustCompile(`(?i)(?:^|[^a-z0-9.])(-?(?:\d+(?:\.\d+)?|\.\d+)?\s*[a-z]\s*[+\-]\s*\d+(?:\.\d+)?\s*=\s*-?\d+(?:\.\d+)?)`),
	}

	quadraticPatterns = []*regexp.Regexp{
		// y = x^2 + 2x + 1, y = 3x² - 4
		regexp.MustCompile(`(?i)(?:^|[^a-z0-9.])([a-z]\s*=\s*-?(?:\d+(?:\.\d+)?|\.\d+)?\s*[a-z]\s*(?:\^\s*2|²)(?:\s*[+\-]\s*(?:\d+(?:\.\d+)?)?[a-z]\b)?(?:\s*[+\-]\s*\d+(?:\.\d+)?)?)`),
		// x^2 - 5x + 6 = 0
		regexp.MustCompile(`(?i)(?:^|[^a-z0-9.])(-?(?:\d+(?:\.\d+)?|\.\d+)?\s*[a-z]\s*(?:\^\s*2|²)(?:\s*[+\-]\s*(?:\d+(?:\.\d+)?)?[a-z]\b)?(?:\s*[+\-]\s*\d+(?:\.\d+)?)?\s*=\s*-?\d+(?:\.\d+)?)`),
	}

	generalPatterns = []*regexp.Regexp{
		// y = (x + 1) / 2
		regexp.MustCompile(`(?i)(?:^|[^a-z0-9.])([a-z]\s*=\s*[0-9a-z+\-*/^().²\s]*[0-9a-z)²])`),
	}

	varBeforeEquals = regexp.MustCompile(`(?i)([a-z])\s*=`)
	varLeadingTerm  = regexp.MustCompile(`(?i)^\s*-?\d*\.?\d*\s*([a-z])`)
)

// equationRule is one entry of the ordered strategy list
type equationRule struct {
	form       string
	confidence float64
	patterns   []*regexp.Regexp
}

// match returns the first snippet a pattern captures in text that stands
// on its own and parses as an equation
func (r equationRule) match(text string) (string, bool) {
	for _, p := range r.patterns {
		for _, m := range p.FindAllStringSubmatchIndex(text, -1) {
			start, end := m[2], m[3]
			if continuesExpression(text[:start], text[start:end], text[end:]) {
				continue
			}
			// A sentence-ending period is not part of the equation.
			snippet := strings.TrimRight(strings.TrimSpace(text[start:end]), ".")
			if _, err := mathexpr.ParseEquation(snippet); err != nil {
				continue
			}
			return snippet, true
		}
	}
	return "", false
}

// continuesExpression reports whether snippet is only part of a longer
// expression, as "5x + 6 = 0" is inside "x^2 - 5x + 6 = 0".
func continuesExpression(before, snippet, after string) bool {
	before = strings.TrimRightFunc(before, unicode.IsSpace)
	if before != "" {
		last, _ := utf8.DecodeLastRuneInString(before)
		if strings.ContainsRune("+-*/^=", last) {
			return true
		}
		// "x^2 -5x + 6 = 0": a sign after an operand is a binary minus.
		if strings.HasPrefix(snippet, "-") && (unicode.IsLetter(last) || unicode.IsDigit(last) || last == ')' || last == '²') {
			return true
		}
	}
	after = strings.TrimLeftFunc(after, unicode.IsSpace)
	if after == "" {
		return false
	}
	next, _ := utf8.DecodeRuneInString(after)
	return strings.ContainsRune("+-*/^²", next)
}

// EquationDetector finds single-variable equations and classifies their form
type EquationDetector struct {
	rules []equationRule
}

// NewEquationDetector creates the detector with its rules in priority order
func NewEquationDetector() *EquationDetector {
	return &EquationDetector{
		rules: []equationRule{
			{
				form:       "linear",
				confidence: 0.85,
				patterns:   linearPatterns,
			},
			{
				form:       "quadratic",
				confidence: 0.9,
				patterns:   quadraticPatterns,
			},
			{
				form:       "general",
				confidence: 0.7,
				patterns:   generalPatterns,
			},
		},
	}
}

// Name returns the detector name
func (d *EquationDetector) Name() string {
	return "equation"
}

// Detect emits at most one suggestion per p/div/span/li element
func (d *EquationDetector) Detect(doc *dom.Document) []model.Suggestion {
	var out []model.Suggestion

	for _, el := range doc.ByTag("p", "div", "span", "li") {
		text := el.Text()
		if len(text) < minEquationTextLen {
			continue
		}

		for _, rule := range d.rules {
			snippet, ok := rule.match(text)
			if !ok {
				continue
			}
			out = append(out, newEquationSuggestion(el, rule, snippet))
			break // Only one suggestion per element
		}
	}

	return out
}

func newEquationSuggestion(el dom.Element, rule equationRule, equation string) model.Suggestion {
	v := extractVariable(equation)

	label := "equation"
	if rule.form != "general" {
		label = rule.form + " equation"
	}

	return model.Suggestion{
		Type:           model.BlockEquationExplorer,
		Rule:           "equation:" + rule.form,
		Description:    fmt.Sprintf("Explore the %s %s", label, equation),
		Confidence:     rule.confidence,
		SourceElements: []dom.Element{el},
		BlockParameters: map[string]any{
			"equation":      equation,
			"variables":     []string{v},
			"range":         map[string][]float64{v: {-10, 10}},
			"initialValues": map[string]float64{v: 0},
			"showGraph":     true,
			"showFormula":   true,
		},
	}
}

// extractVariable prefers the letter right before "=", then the letter of
// the leading term, then "x".
func extractVariable(equation string) string {
	if m := varBeforeEquals.FindStringSubmatch(equation); m != nil {
		return m[1]
	}
	if m := varLeadingTerm.FindStringSubmatch(equation); m != nil {
		return m[1]
	}
	return "x"
}
