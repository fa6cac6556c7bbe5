package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/mathblocks/internal/model"
)

func sampleReport(t *testing.T) *model.Report {
	t.Helper()
	return NewPipeline(model.DefaultConfig()).Analyze(context.Background(), &Source{
		Name: "lesson.html",
		HTML: `<p>Graph y = x^2 + 1 for a few values.</p><h3>Problem</h3><p>Solve for x: 2x + 3 = 7</p>`,
	})
}

func TestRenderer_Markdown(t *testing.T) {
	md := NewRenderer(true, 3).Markdown(sampleReport(t))

	for _, want := range []string{
		"# Interactive block suggestions",
		"**Source:** lesson.html",
		"equation-explorer",
		"problem-solver",
		"| x | x^2 + 1 |",
		"| -10 | 101 |",
		"| 0 | 1 |",
		"| 1 | 2x = 4 | Subtract 3 from both sides |  |",
		"| 2 | x = 2 | Divide both sides by 2 |  |",
		"Review each block before publishing",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}
}

func TestRenderer_MarkdownWithoutFooterOrPreview(t *testing.T) {
	md := NewRenderer(false, 0).Markdown(sampleReport(t))
	if strings.Contains(md, "Review each block") {
		t.Error("footer should be omitted")
	}
	if strings.Contains(md, "| x | x^2 + 1 |") {
		t.Error("preview should be omitted when sample size is 0")
	}
}

func TestRenderer_EmptyReport(t *testing.T) {
	report := NewPipeline(model.DefaultConfig()).Analyze(context.Background(), &Source{Name: "empty", HTML: "<p>Hello world</p>"})
	if md := NewRenderer(false, 5).Markdown(report); !strings.Contains(md, "No mathematical content was detected.") {
		t.Errorf("unexpected markdown for empty report:\n%s", md)
	}
}

func TestRenderer_Files(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(true, 5)
	report := sampleReport(t)

	jsonPath := filepath.Join(dir, "report.json")
	if err := r.RenderJSON(report, jsonPath); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(jsonPath)
	var decoded model.Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("report JSON does not decode: %v", err)
	}
	if decoded.Summary.Total != report.Summary.Total {
		t.Errorf("decoded total %d, want %d", decoded.Summary.Total, report.Summary.Total)
	}

	htmlPath := filepath.Join(dir, "report.html")
	if err := r.RenderHTML(report, htmlPath); err != nil {
		t.Fatal(err)
	}
	page, _ := os.ReadFile(htmlPath)
	for _, want := range []string{"<!DOCTYPE html>", "<table>", "<h1>Interactive block suggestions</h1>"} {
		if !strings.Contains(string(page), want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestFunctionForm(t *testing.T) {
	tests := []struct {
		in string
		v  string
		ok bool
	}{
		{"y = 2x + 1", "x", true},
		{"y = x^2 + 2x + 1", "x", true},
		{"3x - 4 = 11", "", false},
		{"z = (a + b) / 2", "", false},
		{"y = 3y + 1", "", false},
	}
	for _, tt := range tests {
		_, v, ok := functionForm(tt.in)
		if ok != tt.ok || v != tt.v {
			t.Errorf("functionForm(%q) = %q, %v; want %q, %v", tt.in, v, ok, tt.v, tt.ok)
		}
	}
}
