package adapters

import (
	"strings"

	"golang.org/x/net/html"
)

// GenericAdapter is the fallback adapter for unknown domains. It turns
// rendered math back into plain TeX-derived text so the equation rules can
// see it.
type GenericAdapter struct {
	BaseAdapter
}

// NewGenericAdapter creates a new generic adapter
func NewGenericAdapter() *GenericAdapter {
	return &GenericAdapter{}
}

// Name returns the adapter name
func (a *GenericAdapter) Name() string {
	return "generic"
}

// CanHandle always returns true (fallback adapter)
func (a *GenericAdapter) CanHandle(url string, contentType string) bool {
	return true
}

// Prepare rewrites rendered math in doc and analyzes the whole document
func (a *GenericAdapter) Prepare(doc *html.Node) (*html.Node, bool) {
	return doc, a.unrenderMath(doc) > 0
}

// unrenderMath replaces KaTeX output, MathML and MathJax TeX scripts with
// their source text and returns how many were replaced. KaTeX wraps its own
// MathML, so it goes first.
func (a *GenericAdapter) unrenderMath(root *html.Node) int {
	replaced := 0

	for _, n := range a.FindAll(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "span" && a.HasClass(n, "katex")
	}) {
		if tex := a.annotation(n); tex != "" {
			a.ReplaceWithText(n, TexToText(tex))
			replaced++
		}
	}

	for _, n := range a.FindAll(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "math"
	}) {
		tex := a.GetAttribute(n, "alttext")
		if tex == "" {
			tex = a.annotation(n)
		}
		if tex != "" {
			a.ReplaceWithText(n, TexToText(tex))
			replaced++
		}
	}

	for _, n := range a.FindAll(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "script" &&
			strings.HasPrefix(a.GetAttribute(n, "type"), "math/tex")
	}) {
		a.ReplaceWithText(n, TexToText(a.ExtractText(n)))
		replaced++
	}

	return replaced
}

// annotation returns the TeX annotation inside n, if any
func (a *GenericAdapter) annotation(n *html.Node) string {
	ann := a.FindFirst(n, func(c *html.Node) bool {
		return c.Type == html.ElementNode && c.Data == "annotation" &&
			a.GetAttribute(c, "encoding") == "application/x-tex"
	})
	if ann == nil {
		return ""
	}
	return strings.TrimSpace(a.ExtractText(ann))
}
