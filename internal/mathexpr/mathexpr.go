// Package mathexpr parses and evaluates a small, closed arithmetic grammar.
//
// Grammar:
//
//	expr   = term { ("+" | "-") term }
//	term   = unary { ("*" | "/" | implicit) unary }
//	unary  = "-" unary | "+" unary | power
//	power  = atom [ "^" unary ] [ "²" ]
//	atom   = number | letter | "(" expr ")"
//
// Variables are single letters. Implicit multiplication covers "2x",
// "3(x+1)" and "xy". Nothing outside the grammar is ever evaluated.
package mathexpr

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

var (
	// ErrSyntax is returned for input outside the grammar.
	ErrSyntax = errors.New("mathexpr: syntax error")
	// ErrUnbound is returned when evaluation meets a variable with no value.
	ErrUnbound = errors.New("mathexpr: unbound variable")
)

// Expr is a parsed expression.
type Expr struct {
	src  string
	root exprNode
}

type exprNode interface {
	eval(vars map[string]float64) (float64, error)
	collect(seen map[string]bool)
}

type numNode float64

type varNode string

type unaryNode struct {
	x exprNode
}

type binNode struct {
	op   byte
	l, r exprNode
}

func (n numNode) eval(map[string]float64) (float64, error) { return float64(n), nil }
func (n numNode) collect(map[string]bool)                  {}

func (n varNode) eval(vars map[string]float64) (float64, error) {
	v, ok := vars[string(n)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnbound, string(n))
	}
	return v, nil
}
func (n varNode) collect(seen map[string]bool) { seen[string(n)] = true }

func (n unaryNode) eval(vars map[string]float64) (float64, error) {
	v, err := n.x.eval(vars)
	return -v, err
}
func (n unaryNode) collect(seen map[string]bool) { n.x.collect(seen) }

func (n binNode) eval(vars map[string]float64) (float64, error) {
	l, err := n.l.eval(vars)
	if err != nil {
		return 0, err
	}
	r, err := n.r.eval(vars)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	case '/':
		return l / r, nil
	case '^':
		return math.Pow(l, r), nil
	}
	return 0, fmt.Errorf("%w: unknown operator %q", ErrSyntax, n.op)
}
func (n binNode) collect(seen map[string]bool) {
	n.l.collect(seen)
	n.r.collect(seen)
}

// Parse parses src into an expression.
func Parse(src string) (*Expr, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("%w: empty expression", ErrSyntax)
	}
	p := &parser{toks: toks}
	root, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.toks) {
		return nil, fmt.Errorf("%w: unexpected %q", ErrSyntax, p.toks[p.pos].text)
	}
	return &Expr{src: strings.TrimSpace(src), root: root}, nil
}

// String returns the source the expression was parsed from.
func (e *Expr) String() string {
	return e.src
}

// Eval evaluates the expression with the given variable bindings.
func (e *Expr) Eval(vars map[string]float64) (float64, error) {
	return e.root.eval(vars)
}

// Vars returns the sorted set of variable names the expression uses.
func (e *Expr) Vars() []string {
	seen := make(map[string]bool)
	e.root.collect(seen)
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Equation is "lhs = rhs" with both sides parsed.
type Equation struct {
	Left  *Expr
	Right *Expr
}

// ParseEquation splits src on its single "=" and parses both sides.
func ParseEquation(src string) (*Equation, error) {
	left, right, ok := strings.Cut(src, "=")
	if !ok || strings.Contains(right, "=") {
		return nil, fmt.Errorf("%w: equation needs exactly one '='", ErrSyntax)
	}
	l, err := Parse(left)
	if err != nil {
		return nil, fmt.Errorf("left side: %w", err)
	}
	r, err := Parse(right)
	if err != nil {
		return nil, fmt.Errorf("right side: %w", err)
	}
	return &Equation{Left: l, Right: r}, nil
}

// Residual returns left - right under vars. Zero means the bindings
// satisfy the equation.
func (q *Equation) Residual(vars map[string]float64) (float64, error) {
	l, err := q.Left.Eval(vars)
	if err != nil {
		return 0, err
	}
	r, err := q.Right.Eval(vars)
	if err != nil {
		return 0, err
	}
	return l - r, nil
}

// Vars returns the sorted union of both sides' variables.
func (q *Equation) Vars() []string {
	seen := make(map[string]bool)
	q.Left.root.collect(seen)
	q.Right.root.collect(seen)
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Sample evaluates e at n evenly spaced points of variable v over [lo, hi].
// Points where evaluation fails are skipped.
func Sample(e *Expr, v string, lo, hi float64, n int) [][2]float64 {
	if n < 2 {
		n = 2
	}
	step := (hi - lo) / float64(n-1)
	out := make([][2]float64, 0, n)
	for i := 0; i < n; i++ {
		x := lo + step*float64(i)
		y, err := e.Eval(map[string]float64{v: x})
		if err != nil || math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		out = append(out, [2]float64{x, y})
	}
	return out
}

type tokKind int

const (
	tokNum tokKind = iota
	tokVar
	tokOp
	tokLParen
	tokRParen
	tokSquare
)

type token struct {
	kind tokKind
	text string
	num  float64
}

func tokenize(src string) ([]token, error) {
	var toks []token
	rs := []rune(src)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || r == '.':
			j := i
			for j < len(rs) && (unicode.IsDigit(rs[j]) || rs[j] == '.') {
				j++
			}
			text := string(rs[i:j])
			f, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad number %q", ErrSyntax, text)
			}
			toks = append(toks, token{kind: tokNum, text: text, num: f})
			i = j
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			toks = append(toks, token{kind: tokVar, text: strings.ToLower(string(r))})
			i++
		case strings.ContainsRune("+-*/^", r):
			toks = append(toks, token{kind: tokOp, text: string(r)})
			i++
		case r == '×' || r == '·':
			toks = append(toks, token{kind: tokOp, text: "*"})
			i++
		case r == '÷':
			toks = append(toks, token{kind: tokOp, text: "/"})
			i++
		case r == '−':
			toks = append(toks, token{kind: tokOp, text: "-"})
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "("})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")"})
			i++
		case r == '²':
			toks = append(toks, token{kind: tokSquare, text: "²"})
			i++
		default:
			return nil, fmt.Errorf("%w: unexpected character %q", ErrSyntax, r)
		}
	}
	return toks, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) peekOp(ops string) (byte, bool) {
	t, ok := p.peek()
	if !ok || t.kind != tokOp || !strings.Contains(ops, t.text) {
		return 0, false
	}
	return t.text[0], true
}

func (p *parser) expr() (exprNode, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.peekOp("+-")
		if !ok {
			return left, nil
		}
		p.pos++
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = binNode{op: op, l: left, r: right}
	}
}

func (p *parser) term() (exprNode, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		if op, ok := p.peekOp("*/"); ok {
			p.pos++
			right, err := p.unary()
			if err != nil {
				return nil, err
			}
			left = binNode{op: op, l: left, r: right}
			continue
		}
		// Implicit multiplication: an atom directly after an operand.
		t, ok := p.peek()
		if ok && (t.kind == tokVar || t.kind == tokLParen || t.kind == tokNum) {
			right, err := p.power()
			if err != nil {
				return nil, err
			}
			left = binNode{op: '*', l: left, r: right}
			continue
		}
		return left, nil
	}
}

func (p *parser) unary() (exprNode, error) {
	if op, ok := p.peekOp("+-"); ok {
		p.pos++
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		if op == '-' {
			return unaryNode{x: x}, nil
		}
		return x, nil
	}
	return p.power()
}

func (p *parser) power() (exprNode, error) {
	base, err := p.atom()
	if err != nil {
		return nil, err
	}
	if _, ok := p.peekOp("^"); ok {
		p.pos++
		exp, err := p.unary()
		if err != nil {
			return nil, err
		}
		base = binNode{op: '^', l: base, r: exp}
	}
	if t, ok := p.peek(); ok && t.kind == tokSquare {
		p.pos++
		base = binNode{op: '^', l: base, r: numNode(2)}
	}
	return base, nil
}

func (p *parser) atom() (exprNode, error) {
	t, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("%w: unexpected end of input", ErrSyntax)
	}
	switch t.kind {
	case tokNum:
		p.pos++
		return numNode(t.num), nil
	case tokVar:
		p.pos++
		return varNode(t.text), nil
	case tokLParen:
		p.pos++
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if c, ok := p.peek(); !ok || c.kind != tokRParen {
			return nil, fmt.Errorf("%w: missing ')'", ErrSyntax)
		}
		p.pos++
		return inner, nil
	}
	return nil, fmt.Errorf("%w: unexpected %q", ErrSyntax, t.text)
}
