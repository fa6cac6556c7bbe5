package extract

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/mathblocks/internal/dom"
	"github.com/ppiankov/mathblocks/internal/mathexpr"
	"github.com/ppiankov/mathblocks/internal/model"
)

var (
	// operand (op operand)+, e.g. "2x = 4" inside "Subtract 3: 2x = 4"
	algebraicSpan = regexp.MustCompile(`(?i)[0-9a-z().²]+(?:\s*[-+*/=^]\s*[0-9a-z().²]+)+`)

	// coeff·var ± const = rhs
	linearProblem = regexp.MustCompile(`(?i)(-?\d*\.?\d*)\s*([a-z])\s*([+\-])\s*(\d+\.?\d*)\s*=\s*(-?\d+\.?\d*)`)
)

// discoverSteps tries the solution-container strategy, then the linear
// synthesis strategy. It returns the steps, the container (when one was
// used) and the name of the strategy that succeeded.
func discoverSteps(doc *dom.Document, problem dom.Element) ([]model.ProblemSolverStep, dom.Element, string) {
	if container := findSolutionContainer(doc, problem); container != nil {
		if steps := stepsFromContainer(container); len(steps) > 0 {
			return steps, container, "container"
		}
	}

	text := problem.Text()
	if strings.Contains(text, "=") {
		if steps := synthesizeLinearSteps(text); len(steps) > 0 {
			return steps, nil, "synthesized"
		}
	}

	return nil, nil, ""
}

// findSolutionContainer looks, in order, for .solution inside the closest
// .problem-container, #solution-<id>, then the nearest following sibling
// ol, ul, or div with more than one element child. Sibling search stops at
// the next heading.
func findSolutionContainer(doc *dom.Document, problem dom.Element) dom.Element {
	if c := problem.Closest(".problem-container"); c != nil {
		if s := c.Query(".solution"); s != nil {
			return s
		}
	}

	if id := problem.ID(); id != "" {
		if s := doc.ByID("solution-" + id); s != nil {
			return s
		}
	}

	var siblings []dom.Element
	for s := problem.NextSibling(); s != nil; s = s.NextSibling() {
		if isHeading(s.Tag()) {
			break
		}
		siblings = append(siblings, s)
	}

	for _, want := range []string{"ol", "ul"} {
		for _, s := range siblings {
			if s.Tag() == want {
				return s
			}
		}
	}
	for _, s := range siblings {
		if s.Tag() == "div" && len(s.Children()) > 1 {
			return s
		}
	}
	return nil
}

func isHeading(tag string) bool {
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}

// stepsFromContainer turns every li, p and div.step into one step. Items
// nested inside another item are folded into their parent.
func stepsFromContainer(container dom.Element) []model.ProblemSolverStep {
	items := container.QueryAll("li, p, div.step")

	taken := make(map[dom.Element]bool, len(items))
	var steps []model.ProblemSolverStep

	for _, item := range items {
		if nestedIn(item, container, taken) {
			continue
		}
		taken[item] = true

		text := item.Text()
		if text == "" {
			continue
		}

		expression, explanation := splitStep(text)
		steps = append(steps, model.ProblemSolverStep{
			Description: fmt.Sprintf("Step %d", len(steps)+1),
			Expression:  expression,
			Explanation: explanation,
		})
	}

	return steps
}

func nestedIn(el, container dom.Element, taken map[dom.Element]bool) bool {
	for p := el.Parent(); p != nil && p != container; p = p.Parent() {
		if taken[p] {
			return true
		}
	}
	return false
}

// splitStep separates the first algebraic span from the surrounding prose.
// Text with no algebraic span is kept whole as the expression.
func splitStep(text string) (expression, explanation string) {
	expression = algebraicSpan.FindString(text)
	if expression == "" {
		return text, ""
	}
	explanation = strings.Replace(text, expression, "", 1)
	explanation = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(explanation), ":"))
	return strings.TrimSpace(expression), explanation
}

// synthesizeLinearSteps solves coeff·var ± const = rhs in two steps. A zero
// coefficient has no solution to show and yields no steps.
func synthesizeLinearSteps(text string) []model.ProblemSolverStep {
	m := linearProblem.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	coeff, ok := parseCoefficient(m[1])
	if !ok || coeff == 0 {
		return nil
	}
	variable := m[2]
	constant, err := strconv.ParseFloat(m[4], 64)
	if err != nil {
		return nil
	}
	if m[3] == "-" {
		constant = -constant
	}
	rhs, err := strconv.ParseFloat(m[5], 64)
	if err != nil {
		return nil
	}

	isolated := rhs - constant
	solution := isolated / coeff

	if !checkSolution(m[0], variable, solution, coeff, constant, rhs) {
		return nil
	}

	isolateExplanation := fmt.Sprintf("Subtract %s from both sides", formatNumber(constant))
	if constant < 0 {
		isolateExplanation = fmt.Sprintf("Add %s to both sides", formatNumber(-constant))
	}

	return []model.ProblemSolverStep{
		{
			Description: "Step 1",
			Expression:  fmt.Sprintf("%s = %s", formatTerm(coeff, variable), formatNumber(isolated)),
			Explanation: isolateExplanation,
		},
		{
			Description: "Step 2",
			Expression:  fmt.Sprintf("%s = %s", variable, formatNumber(solution)),
			Explanation: fmt.Sprintf("Divide both sides by %s", formatNumber(coeff)),
		},
	}
}

func parseCoefficient(s string) (float64, bool) {
	switch s {
	case "":
		return 1, true
	case "-":
		return -1, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// checkSolution substitutes the solution back into the matched equation.
// The tolerance is relative to the largest magnitude involved.
func checkSolution(equation, variable string, solution float64, magnitudes ...float64) bool {
	eq, err := mathexpr.ParseEquation(equation)
	if err != nil {
		return false
	}
	residual, err := eq.Residual(map[string]float64{strings.ToLower(variable): solution})
	if err != nil {
		return false
	}
	scale := 1.0
	for _, m := range magnitudes {
		scale = max(scale, math.Abs(m))
	}
	scale = max(scale, math.Abs(solution))
	return math.Abs(residual) <= max(1e-9, 1e-12*scale)
}

func formatTerm(coeff float64, variable string) string {
	switch coeff {
	case 1:
		return variable
	case -1:
		return "-" + variable
	}
	return formatNumber(coeff) + variable
}

// formatNumber renders v with at most six decimals and no trailing zeros
func formatNumber(v float64) string {
	v = math.Round(v*1e6) / 1e6
	if v == 0 {
		v = 0 // normalise -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
