package dom

import (
	"bytes"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"
)

// Element is the minimal read-only traversal surface detectors depend on.
// Sibling and child accessors only ever yield elements, never text nodes.
type Element interface {
	Tag() string
	Text() string
	InnerHTML() string
	Attr(key string) string
	ID() string
	HasClass(class string) bool
	Parent() Element
	NextSibling() Element
	PrevSibling() Element
	Children() []Element
	Query(selector string) Element
	QueryAll(selector string) []Element
	Closest(selector string) Element
}

type node struct {
	n   *html.Node
	doc *Document

	textOnce sync.Once
	text     string
}

var _ Element = (*node)(nil)

func (e *node) Tag() string {
	return e.n.Data
}

// Text returns the flattened text content: descendant text joined, block
// boundaries turned into spaces, whitespace collapsed, NFC-normalised.
func (e *node) Text() string {
	e.textOnce.Do(func() {
		var buf strings.Builder
		flatten(e.n, &buf)
		e.text = norm.NFC.String(strings.Join(strings.Fields(buf.String()), " "))
	})
	return e.text
}

func (e *node) InnerHTML() string {
	var buf bytes.Buffer
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return buf.String()
		}
	}
	return buf.String()
}

func (e *node) Attr(key string) string {
	v, _ := e.attr(key)
	return v
}

func (e *node) attr(key string) (string, bool) {
	return lookupAttr(e.n, key)
}

func (e *node) ID() string {
	return e.Attr("id")
}

func (e *node) HasClass(class string) bool {
	return hasClass(e.n, class)
}

func (e *node) Parent() Element {
	return e.doc.wrap(e.n.Parent)
}

func (e *node) NextSibling() Element {
	for s := e.n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return e.doc.wrap(s)
		}
	}
	return nil
}

func (e *node) PrevSibling() Element {
	for s := e.n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return e.doc.wrap(s)
		}
	}
	return nil
}

func (e *node) Children() []Element {
	var out []Element
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, e.doc.wrap(c))
		}
	}
	return out
}

func (e *node) Query(selector string) Element {
	all := e.QueryAll(selector)
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

func (e *node) QueryAll(selector string) []Element {
	sel := parseSelector(selector)
	if sel.empty() {
		return nil
	}
	var out []Element
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if sel.matches(c, nil) {
				out = append(out, e.doc.wrap(c))
			}
			walk(c)
		}
	}
	walk(e.n)
	return out
}

// Closest returns e itself or its nearest ancestor matching selector.
func (e *node) Closest(selector string) Element {
	sel := parseSelector(selector)
	if sel.empty() {
		return nil
	}
	for n := e.n; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && sel.matches(n, nil) {
			return e.doc.wrap(n)
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

// flatten writes visible text under n, skipping non-rendered containers.
func flatten(n *html.Node, buf *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		buf.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Template:
			return
		case atom.Br:
			buf.WriteByte(' ')
			return
		}
	}

	block := isBlock(n)
	if block {
		buf.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		flatten(c, buf)
	}
	if block {
		buf.WriteByte(' ')
	}
}

func isBlock(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.P, atom.Div, atom.Li, atom.Ol, atom.Ul, atom.H1, atom.H2, atom.H3,
		atom.H4, atom.H5, atom.H6, atom.Tr, atom.Td, atom.Th, atom.Section,
		atom.Article, atom.Blockquote, atom.Pre, atom.Dd, atom.Dt:
		return true
	}
	return false
}
