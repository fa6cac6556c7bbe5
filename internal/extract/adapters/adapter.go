package adapters

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Adapter prepares pages from one kind of site for analysis
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// CanHandle checks if this adapter can handle the given URL/content
	CanHandle(url string, contentType string) bool

	// Prepare rewrites doc in place and returns the subtree to analyze.
	// changed is false when the page needed no rewriting.
	Prepare(doc *html.Node) (root *html.Node, changed bool)
}

// Registry manages site adapters
type Registry struct {
	adapters []Adapter
	generic  Adapter
}

// NewRegistry creates a registry with the built-in adapters
func NewRegistry() *Registry {
	registry := &Registry{
		adapters: make([]Adapter, 0),
	}

	registry.Register(NewWikipediaAdapter())

	// Set generic adapter as fallback
	registry.generic = NewGenericAdapter()

	return registry
}

// Register registers a new adapter
func (r *Registry) Register(adapter Adapter) {
	r.adapters = append(r.adapters, adapter)
}

// FindAdapter finds the best adapter for the given URL and content type
func (r *Registry) FindAdapter(url string, contentType string) Adapter {
	for _, adapter := range r.adapters {
		if adapter.CanHandle(url, contentType) {
			return adapter
		}
	}
	return r.generic
}

// Prepare runs the matching adapter over content. The markup is returned
// untouched when the adapter changed nothing.
func (r *Registry) Prepare(url, contentType, content string) (prepared string, adapter string) {
	a := r.FindAdapter(url, contentType)

	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return content, a.Name()
	}

	root, changed := a.Prepare(doc)
	if !changed {
		return content, a.Name()
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return content, a.Name()
	}
	return buf.String(), a.Name()
}

// BaseAdapter provides common functionality for adapters
type BaseAdapter struct{}

// ExtractText extracts the concatenated text of a node
func (b *BaseAdapter) ExtractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}

	var buf strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		buf.WriteString(b.ExtractText(c))
	}
	return buf.String()
}

// HasClass checks if a node has a specific CSS class
func (b *BaseAdapter) HasClass(n *html.Node, className string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, class := range strings.Fields(b.GetAttribute(n, "class")) {
		if class == className {
			return true
		}
	}
	return false
}

// GetAttribute gets an attribute value from a node
func (b *BaseAdapter) GetAttribute(n *html.Node, attrKey string) string {
	for _, attr := range n.Attr {
		if attr.Key == attrKey {
			return attr.Val
		}
	}
	return ""
}

// FindAll finds all nodes matching a predicate. Matched nodes are not
// searched further, so nested matches are skipped.
func (b *BaseAdapter) FindAll(n *html.Node, predicate func(*html.Node) bool) []*html.Node {
	var results []*html.Node

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if predicate(node) {
			results = append(results, node)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return results
}

// FindFirst finds the first node matching a predicate
func (b *BaseAdapter) FindFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	var result *html.Node

	var walk func(*html.Node) bool
	walk = func(node *html.Node) bool {
		if predicate(node) {
			result = node
			return true
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	walk(n)
	return result
}

// Remove detaches every node matching predicate and reports how many went
func (b *BaseAdapter) Remove(n *html.Node, predicate func(*html.Node) bool) int {
	nodes := b.FindAll(n, predicate)
	for _, node := range nodes {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}
	return len(nodes)
}

// ReplaceWithText swaps node for a text node holding text
func (b *BaseAdapter) ReplaceWithText(node *html.Node, text string) {
	if node.Parent == nil {
		return
	}
	node.Parent.InsertBefore(&html.Node{Type: html.TextNode, Data: text}, node)
	node.Parent.RemoveChild(node)
}
