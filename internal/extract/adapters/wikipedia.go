package adapters

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// WikipediaAdapter narrows Wikipedia pages to the article body and turns
// its math markup back into text
type WikipediaAdapter struct {
	GenericAdapter
	noiseClasses []string
}

// NewWikipediaAdapter creates a new Wikipedia adapter
func NewWikipediaAdapter() *WikipediaAdapter {
	return &WikipediaAdapter{
		noiseClasses: []string{
			"reference", "mw-editsection", "navbox", "toc", "reflist",
			"mw-references-wrap", "hatnote", "sistersitebox", "metadata",
		},
	}
}

// Name returns the adapter name
func (a *WikipediaAdapter) Name() string {
	return "wikipedia"
}

// CanHandle checks if this is a Wikipedia URL
func (a *WikipediaAdapter) CanHandle(rawURL string, contentType string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "wikipedia.org" || strings.HasSuffix(host, ".wikipedia.org")
}

// Prepare keeps the parser output only, drops citation and navigation noise
// and replaces each rendered formula with its TeX source as text
func (a *WikipediaAdapter) Prepare(doc *html.Node) (*html.Node, bool) {
	content := a.FindFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "div" && a.HasClass(n, "mw-parser-output")
	})
	if content == nil {
		content = a.FindFirst(doc, func(n *html.Node) bool {
			return n.Type == html.ElementNode && a.GetAttribute(n, "id") == "mw-content-text"
		})
	}

	changed := false
	if content == nil {
		content = doc
	} else {
		changed = true
	}

	removed := a.Remove(content, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		if a.GetAttribute(n, "id") == "toc" {
			return true
		}
		for _, class := range a.noiseClasses {
			if a.HasClass(n, class) {
				return true
			}
		}
		return false
	})

	formulas := 0
	for _, n := range a.FindAll(content, func(n *html.Node) bool {
		return n.Type == html.ElementNode && a.HasClass(n, "mwe-math-element")
	}) {
		if tex := a.formulaSource(n); tex != "" {
			a.ReplaceWithText(n, TexToText(tex))
			formulas++
		}
	}

	// Anything the MediaWiki markup did not cover (e.g. bare <math>).
	formulas += a.unrenderMath(content)

	return content, changed || removed > 0 || formulas > 0
}

// formulaSource reads the TeX behind a MediaWiki formula: the MathML
// alttext, the annotation, or the fallback image's alt text.
func (a *WikipediaAdapter) formulaSource(n *html.Node) string {
	if m := a.FindFirst(n, func(c *html.Node) bool {
		return c.Type == html.ElementNode && c.Data == "math"
	}); m != nil {
		if alt := a.GetAttribute(m, "alttext"); alt != "" {
			return alt
		}
		if tex := a.annotation(m); tex != "" {
			return tex
		}
	}

	if img := a.FindFirst(n, func(c *html.Node) bool {
		return c.Type == html.ElementNode && c.Data == "img"
	}); img != nil {
		return a.GetAttribute(img, "alt")
	}
	return ""
}
