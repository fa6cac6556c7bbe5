package llm

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/mathblocks/internal/model"
)

const hintSystemPrompt = "You write short hints for students working through a solved maths problem. " +
	"A hint nudges toward the next step without stating its result."

var hintLine = regexp.MustCompile(`(?i)^\s*(?:step\s*)?(\d+)\s*[:.)\-]\s*(.+?)\s*$`)

// HintWriter fills problem-solver steps with hints from a Provider
type HintWriter struct {
	provider Provider
	logger   *slog.Logger
}

// NewHintWriter creates a hint writer. logger may be nil.
func NewHintWriter(provider Provider, logger *slog.Logger) *HintWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HintWriter{provider: provider, logger: logger}
}

// Enrich returns copies of suggestions with step hints filled in. The input
// is never modified, and confidence and order are left alone. Provider
// failures are recorded as warnings and leave the affected suggestion as it
// was.
func (w *HintWriter) Enrich(ctx context.Context, suggestions []model.Suggestion) ([]model.Suggestion, *model.HintSummary) {
	summary := &model.HintSummary{Enabled: true, Provider: w.provider.Name()}

	out := make([]model.Suggestion, len(suggestions))
	copy(out, suggestions)

	for i, s := range out {
		if s.Type != model.BlockProblemSolver || len(s.Steps()) == 0 {
			continue
		}

		resp, err := w.provider.Complete(ctx, CompletionRequest{
			System: hintSystemPrompt,
			Prompt: BuildHintPrompt(s),
		})
		if err != nil {
			w.logger.Warn("hint generation failed", "suggestion", s.ID, "error", err)
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("%s: %v", s.ID, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if summary.Model == "" {
			summary.Model = resp.Model
		}

		steps, filled, dropped := applyHints(s.Steps(), ParseHints(resp.Text))
		for _, n := range dropped {
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("%s: hint for step %d gave away the answer", s.ID, n))
		}
		if filled == 0 {
			continue
		}

		params := maps.Clone(s.BlockParameters)
		params["steps"] = steps
		out[i].BlockParameters = params
		summary.Filled += filled
	}

	return out, summary
}

// BuildHintPrompt asks for one hint per numbered step
func BuildHintPrompt(s model.Suggestion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Problem: %s\n\nWorked solution:\n", s.BlockParameters["problem"])
	for i, step := range s.Steps() {
		fmt.Fprintf(&b, "%d. %s", i+1, step.Expression)
		if step.Explanation != "" {
			fmt.Fprintf(&b, " (%s)", step.Explanation)
		}
		b.WriteByte('\n')
	}
	b.WriteString("\nFor each step write one line \"N: hint\", at most 20 words. ")
	b.WriteString("Do not include the step's expression or its final value.")
	return b.String()
}

// ParseHints reads "N: hint" lines; other lines are ignored
func ParseHints(text string) map[int]string {
	hints := make(map[int]string)
	for _, line := range strings.Split(text, "\n") {
		m := hintLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			continue
		}
		if _, dup := hints[n]; !dup {
			hints[n] = m[2]
		}
	}
	return hints
}

// applyHints copies steps and sets hints by 1-based step number. A hint
// that repeats its step's expression is dropped.
func applyHints(steps []model.ProblemSolverStep, hints map[int]string) (out []model.ProblemSolverStep, filled int, dropped []int) {
	out = make([]model.ProblemSolverStep, len(steps))
	copy(out, steps)

	for i := range out {
		hint, ok := hints[i+1]
		if !ok {
			continue
		}
		if leaksExpression(hint, out[i].Expression) {
			dropped = append(dropped, i+1)
			continue
		}
		out[i].Hint = hint
		filled++
	}
	return out, filled, dropped
}

func leaksExpression(hint, expression string) bool {
	squash := func(s string) string { return strings.ToLower(strings.Join(strings.Fields(s), "")) }
	e := squash(expression)
	return e != "" && strings.Contains(squash(hint), e)
}
