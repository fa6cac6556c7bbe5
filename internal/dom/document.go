// Package dom provides a read-only element tree over parsed HTML.
//
// Parsing is structural only: scripts are never executed and nothing is
// fetched. Malformed input is recovered the way browsers do it (implicit
// html/body, unclosed tags), so Parse never fails.
package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Document is a parsed HTML document. It is immutable after Parse and safe
// for concurrent readers.
type Document struct {
	root  *html.Node
	elems []*node
	index map[*html.Node]*node
}

// Parse builds a Document from an HTML string. It never returns nil; input
// the parser cannot read yields an empty document.
func Parse(content string) *Document {
	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		root = &html.Node{Type: html.DocumentNode}
	}

	d := &Document{
		root:  root,
		index: make(map[*html.Node]*node),
	}

	// Wrap every element up front so lookups never write to the index.
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			el := &node{n: n, doc: d}
			d.index[n] = el
			d.elems = append(d.elems, el)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return d
}

// Len returns the number of elements in the document.
func (d *Document) Len() int {
	return len(d.elems)
}

// All returns every element in document order.
func (d *Document) All() []Element {
	out := make([]Element, 0, len(d.elems))
	for _, el := range d.elems {
		out = append(out, el)
	}
	return out
}

// ByTag returns elements whose tag is one of tags, in document order.
func (d *Document) ByTag(tags ...string) []Element {
	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		want[strings.ToLower(t)] = true
	}
	return d.filter(func(el *node) bool { return want[el.n.Data] })
}

// ByClass returns elements carrying the CSS class.
func (d *Document) ByClass(class string) []Element {
	return d.filter(func(el *node) bool { return el.HasClass(class) })
}

// ByAttr returns elements whose attribute key equals val.
func (d *Document) ByAttr(key, val string) []Element {
	return d.filter(func(el *node) bool {
		v, ok := el.attr(key)
		return ok && v == val
	})
}

// ByID returns the first element with the given id, or nil.
func (d *Document) ByID(id string) Element {
	if id == "" {
		return nil
	}
	for _, el := range d.elems {
		if el.ID() == id {
			return el
		}
	}
	return nil
}

// Query returns the first element matching selector, or nil.
func (d *Document) Query(selector string) Element {
	all := d.QueryAll(selector)
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

// QueryAll returns all elements matching selector in document order.
func (d *Document) QueryAll(selector string) []Element {
	sel := parseSelector(selector)
	if sel.empty() {
		return nil
	}
	return d.filter(func(el *node) bool { return sel.matches(el.n, nil) })
}

// NextMatching returns the element immediately following el when its tag
// is tag, otherwise nil.
func (d *Document) NextMatching(el Element, tag string) Element {
	if el == nil {
		return nil
	}
	next := el.NextSibling()
	if next == nil || next.Tag() != strings.ToLower(tag) {
		return nil
	}
	return next
}

// Closest returns the nearest ancestor of el matching selector, or nil.
func (d *Document) Closest(el Element, selector string) Element {
	if el == nil {
		return nil
	}
	return el.Closest(selector)
}

func (d *Document) filter(keep func(*node) bool) []Element {
	var out []Element
	for _, el := range d.elems {
		if keep(el) {
			out = append(out, el)
		}
	}
	return out
}

// wrap returns the Element for n, or a nil interface when n is not an
// element of this document.
func (d *Document) wrap(n *html.Node) Element {
	if n == nil {
		return nil
	}
	el, ok := d.index[n]
	if !ok {
		return nil
	}
	return el
}
