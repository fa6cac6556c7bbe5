package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/ppiankov/mathblocks/internal/mathexpr"
	"github.com/ppiankov/mathblocks/internal/model"
)

const defaultRange = 10.0

// Renderer writes reports as JSON, Markdown or HTML
type Renderer struct {
	includeFooter bool
	sampleSize    int
	converter     *converter.Converter
	markdown      goldmark.Markdown
}

// NewRenderer creates a renderer. sampleSize is the number of points shown
// in equation previews; 0 disables them.
func NewRenderer(includeFooter bool, sampleSize int) *Renderer {
	return &Renderer{
		includeFooter: includeFooter,
		sampleSize:    sampleSize,
		converter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		markdown: goldmark.New(goldmark.WithExtensions(extension.Table)),
	}
}

// WriteJSON writes v as indented JSON
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// RenderJSON writes report as JSON to path
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return writeFile(path, buf.Bytes())
}

// RenderMarkdown writes report as Markdown to path
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, []byte(r.Markdown(report)))
}

// RenderHTML writes report as a standalone HTML page to path
func (r *Renderer) RenderHTML(report *model.Report, path string) error {
	page, err := r.HTML(report)
	if err != nil {
		return err
	}
	return writeFile(path, []byte(page))
}

// HTML renders the Markdown report to an HTML page
func (r *Renderer) HTML(report *model.Report) (string, error) {
	var body bytes.Buffer
	if err := r.markdown.Convert([]byte(r.Markdown(report)), &body); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>mathblocks: %s</title>\n", html.EscapeString(report.Source))
	b.WriteString("</head>\n<body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

// Markdown renders report as Markdown
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Interactive block suggestions\n\n")
	fmt.Fprintf(&b, "- **Source:** %s\n", report.Source)
	fmt.Fprintf(&b, "- **Analyzed:** %s\n", report.AnalyzedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "- **Suggestions:** %d (%d preselected at confidence ≥ %s)\n",
		report.Summary.Total, len(report.Summary.Selected), formatFloat(report.Summary.Threshold))
	if report.FetchMeta != nil && report.FetchMeta.FromCache {
		b.WriteString("- **Fetched from cache**\n")
	}
	b.WriteString("\n")

	if len(report.Suggestions) == 0 {
		b.WriteString("No mathematical content was detected.\n")
	}

	selected := make(map[string]bool, len(report.Summary.Selected))
	for _, id := range report.Summary.Selected {
		selected[id] = true
	}

	for _, s := range report.Suggestions {
		r.writeSuggestion(&b, s, selected[s.ID])
	}

	if report.Hints != nil && report.Hints.Enabled {
		fmt.Fprintf(&b, "## Hints\n\nGenerated by %s", report.Hints.Provider)
		if report.Hints.Model != "" {
			fmt.Fprintf(&b, " (%s)", report.Hints.Model)
		}
		fmt.Fprintf(&b, ": %d step hints.\n\n", report.Hints.Filled)
		for _, w := range report.Hints.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		if len(report.Hints.Warnings) > 0 {
			b.WriteString("\n")
		}
	}

	if r.includeFooter {
		b.WriteString("---\n\n*Suggestions are heuristic. Review each block before publishing.*\n")
	}

	return b.String()
}

func (r *Renderer) writeSuggestion(b *strings.Builder, s model.Suggestion, selected bool) {
	mark := ""
	if selected {
		mark = " ✓"
	}
	fmt.Fprintf(b, "## %s: %s (%s)%s\n\n", s.ID, s.Type, formatFloat(s.Confidence), mark)
	fmt.Fprintf(b, "%s\n\n", s.Description)
	fmt.Fprintf(b, "*Rule:* `%s`\n\n", s.Rule)

	if excerpt := r.excerpt(s); excerpt != "" {
		for _, line := range strings.Split(excerpt, "\n") {
			fmt.Fprintf(b, "> %s\n", line)
		}
		b.WriteString("\n")
	}

	switch s.Type {
	case model.BlockEquationExplorer:
		r.writePreview(b, s)
	case model.BlockProblemSolver:
		writeSteps(b, s.Steps())
	}
}

// excerpt converts the first source element's sanitized markup to Markdown,
// falling back to its text.
func (r *Renderer) excerpt(s model.Suggestion) string {
	if len(s.Sources) == 0 {
		return ""
	}
	src := s.Sources[0]
	if src.HTML != "" {
		if md, err := r.converter.ConvertString(src.HTML); err == nil && strings.TrimSpace(md) != "" {
			return strings.TrimSpace(md)
		}
	}
	return src.Text
}

// writePreview tabulates an equation of the form "v = f(u)" over u's range
func (r *Renderer) writePreview(b *strings.Builder, s model.Suggestion) {
	if r.sampleSize <= 0 {
		return
	}
	raw, _ := s.BlockParameters["equation"].(string)
	fn, v, ok := functionForm(raw)
	if !ok {
		return
	}

	lo, hi := -defaultRange, defaultRange
	if rng, ok := s.BlockParameters["range"].(map[string][]float64); ok {
		if bounds := rng[v]; len(bounds) == 2 && bounds[0] < bounds[1] {
			lo, hi = bounds[0], bounds[1]
		}
	}

	points := mathexpr.Sample(fn, v, lo, hi, r.sampleSize)
	if len(points) == 0 {
		return
	}

	fmt.Fprintf(b, "| %s | %s |\n|---|---|\n", v, escapeCell(fn.String()))
	for _, p := range points {
		fmt.Fprintf(b, "| %s | %s |\n", formatFloat(p[0]), formatFloat(p[1]))
	}
	b.WriteString("\n")
}

// functionForm returns the right-hand side and its single variable when the
// left-hand side is a lone variable, as in "y = 2x + 1".
func functionForm(raw string) (*mathexpr.Expr, string, bool) {
	eq, err := mathexpr.ParseEquation(raw)
	if err != nil {
		return nil, "", false
	}
	lv := eq.Left.Vars()
	if len(lv) != 1 || strings.ToLower(eq.Left.String()) != lv[0] {
		return nil, "", false
	}
	rv := eq.Right.Vars()
	if len(rv) != 1 || rv[0] == lv[0] {
		return nil, "", false
	}
	return eq.Right, rv[0], true
}

func writeSteps(b *strings.Builder, steps []model.ProblemSolverStep) {
	if len(steps) == 0 {
		return
	}
	b.WriteString("| # | Expression | Explanation | Hint |\n|---|---|---|---|\n")
	for i, st := range steps {
		fmt.Fprintf(b, "| %d | %s | %s | %s |\n", i+1, escapeCell(st.Expression), escapeCell(st.Explanation), escapeCell(st.Hint))
	}
	b.WriteString("\n")
}

// RenderSummary prints a short plain-text summary
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	fmt.Fprintf(w, "\n%s\n", report.Source)
	fmt.Fprintf(w, "  suggestions: %d, preselected: %d\n", report.Summary.Total, len(report.Summary.Selected))
	for _, bt := range model.BlockTypes() {
		if n := report.Summary.ByType[bt]; n > 0 {
			fmt.Fprintf(w, "  %-20s %d\n", bt, n)
		}
	}
	for _, s := range report.Suggestions {
		fmt.Fprintf(w, "  %s  %.2f  %s\n", s.ID, s.Confidence, s.Description)
	}
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}
