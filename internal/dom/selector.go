package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// selector is a parsed subset of CSS selectors:
//   - tag, .class, #id, [attr], [attr=val] and compounds such as div.step
//   - descendant combinator (whitespace)
//   - comma-separated groups
type selector struct {
	groups [][]compound
}

type compound struct {
	tag     string
	id      string
	classes []string
	attrs   []attrMatch
}

type attrMatch struct {
	key    string
	val    string
	hasVal bool
}

func parseSelector(s string) selector {
	var sel selector
	for _, group := range strings.Split(s, ",") {
		parts := strings.Fields(group)
		if len(parts) == 0 {
			continue
		}
		chain := make([]compound, 0, len(parts))
		for _, p := range parts {
			chain = append(chain, parseCompound(p))
		}
		sel.groups = append(sel.groups, chain)
	}
	return sel
}

func (s selector) empty() bool {
	return len(s.groups) == 0
}

// matches reports whether n matches any group. Descendant parts are
// resolved against n's ancestors, stopping at stop when it is non-nil.
func (s selector) matches(n *html.Node, stop *html.Node) bool {
	for _, chain := range s.groups {
		if matchChain(n, chain, stop) {
			return true
		}
	}
	return false
}

func matchChain(n *html.Node, chain []compound, stop *html.Node) bool {
	last := len(chain) - 1
	if !chain[last].matches(n) {
		return false
	}
	i := last - 1
	for p := n.Parent; p != nil && p != stop && i >= 0; p = p.Parent {
		if chain[i].matches(p) {
			i--
		}
	}
	return i < 0
}

func parseCompound(s string) compound {
	var c compound
	i := 0
	for i < len(s) && !isSelectorMark(s[i]) {
		i++
	}
	c.tag = strings.ToLower(s[:i])
	if c.tag == "*" {
		c.tag = ""
	}

	for i < len(s) {
		switch s[i] {
		case '.', '#':
			j := i + 1
			for j < len(s) && !isSelectorMark(s[j]) {
				j++
			}
			if s[i] == '.' {
				c.classes = append(c.classes, s[i+1:j])
			} else {
				c.id = s[i+1 : j]
			}
			i = j
		case '[':
			end := strings.IndexByte(s[i:], ']')
			var body string
			if end < 0 {
				body = s[i+1:]
				i = len(s)
			} else {
				body = s[i+1 : i+end]
				i += end + 1
			}
			c.attrs = append(c.attrs, parseAttrMatch(body))
		default:
			i++
		}
	}
	return c
}

func parseAttrMatch(body string) attrMatch {
	if eq := strings.IndexByte(body, '='); eq >= 0 {
		return attrMatch{
			key:    strings.TrimSpace(body[:eq]),
			val:    strings.Trim(strings.TrimSpace(body[eq+1:]), `"'`),
			hasVal: true,
		}
	}
	return attrMatch{key: strings.TrimSpace(body)}
}

func isSelectorMark(b byte) bool {
	return b == '.' || b == '#' || b == '['
}

func (c compound) matches(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if c.tag != "" && n.Data != c.tag {
		return false
	}
	if c.id != "" && attrValue(n, "id") != c.id {
		return false
	}
	for _, class := range c.classes {
		if !hasClass(n, class) {
			return false
		}
	}
	for _, a := range c.attrs {
		v, ok := lookupAttr(n, a.key)
		if !ok || (a.hasVal && v != a.val) {
			return false
		}
	}
	return true
}

func attrValue(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
