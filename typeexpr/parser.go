package typeexpr

import (
	"fmt"
	"strings"
)

type nodeKind int

const (
	nodeName nodeKind = iota
	nodeUnion
	nodeArray
	nodeMap
	nodeDict
)

type node struct {
	kind nodeKind
	name string
	key  *node
	elem *node
	alts []*node
}

func (n *node) isContainer() bool {
	return n.kind == nodeArray || n.kind == nodeMap || n.kind == nodeDict
}

func (n *node) isNull() bool {
	return n.kind == nodeName && strings.EqualFold(n.name, NullName)
}

func (n *node) String() string {
	switch n.kind {
	case nodeUnion:
		parts := make([]string, len(n.alts))
		for i, a := range n.alts {
			parts[i] = a.String()
		}
		return strings.Join(parts, "|")
	case nodeArray:
		if n.elem == nil {
			return "array"
		}
		if n.elem.kind == nodeUnion {
			return "(" + n.elem.String() + ")[]"
		}
		return n.elem.String() + "[]"
	case nodeMap:
		return "array<" + n.keyString() + ", " + n.elem.String() + ">"
	case nodeDict:
		if n.elem == nil {
			return "map"
		}
		return "map<" + n.keyString() + ", " + n.elem.String() + ">"
	default:
		return n.name
	}
}

func (n *node) keyString() string {
	if n.key == nil {
		return "string"
	}
	return n.key.String()
}

// Parse parses a type expression into a Descriptor. An empty expression
// yields an empty Descriptor and no error.
func Parse(expr string) (Descriptor, error) {
	if strings.TrimSpace(expr) == "" {
		return Descriptor{}, nil
	}

	tokens, err := lex(expr)
	if err != nil {
		return Descriptor{}, err
	}

	p := &parser{expr: expr, tokens: tokens}
	root, err := p.parseUnion()
	if err != nil {
		return Descriptor{}, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return Descriptor{}, p.errorf(tok, "unexpected %s", tok.kind)
	}

	return describe(root), nil
}

// MustParse is like Parse but panics on malformed input. Intended for
// expressions fixed at compile time.
func MustParse(expr string) Descriptor {
	d, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return d
}

// Canonical parses the expression and renders it back in canonical form.
func Canonical(expr string) (string, error) {
	d, err := Parse(expr)
	if err != nil {
		return "", err
	}
	return d.String(), nil
}

func describe(root *node) Descriptor {
	var (
		d    Descriptor
		rest []*node
	)

	for _, alt := range flatten(root) {
		if alt.isNull() {
			d.Nullable = true
			continue
		}
		rest = append(rest, alt)
	}

	if len(rest) == 1 && rest[0].isContainer() {
		c := rest[0]
		switch c.kind {
		case nodeArray:
			d.Container = Array
		case nodeMap:
			d.Container = Map
			d.Key = c.keyString()
		case nodeDict:
			d.Container = Dict
			d.Key = c.keyString()
		}

		if c.elem != nil {
			inner := describe(c.elem)
			if inner.Nullable || inner.Container != None {
				d.Types = []string{c.elem.String()}
			} else {
				d.Types = inner.Types
			}
		}
		return d
	}

	for _, alt := range rest {
		d.Types = append(d.Types, alt.String())
	}
	return d
}

func flatten(n *node) []*node {
	if n.kind != nodeUnion {
		return []*node{n}
	}
	var out []*node
	for _, a := range n.alts {
		out = append(out, flatten(a)...)
	}
	return out
}

type parser struct {
	expr   string
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(kind tokenKind) (token, error) {
	tok := p.next()
	if tok.kind != kind {
		return tok, p.errorf(tok, "expected %s, found %s", kind, tok.kind)
	}
	return tok, nil
}

func (p *parser) errorf(tok token, format string, args ...any) error {
	return &SyntaxError{Expr: p.expr, Offset: tok.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseUnion() (*node, error) {
	first, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	alts := []*node{first}
	for p.peek().kind == tokPipe {
		p.next()
		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		alts = append(alts, term)
	}

	if len(alts) == 1 {
		return first, nil
	}
	return &node{kind: nodeUnion, alts: alts}, nil
}

func (p *parser) parseTerm() (*node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for p.peek().kind == tokLBrack {
		p.next()
		if _, err := p.expect(tokRBrack); err != nil {
			return nil, err
		}
		n = &node{kind: nodeArray, elem: n}
	}
	return n, nil
}

func (p *parser) parsePrimary() (*node, error) {
	tok := p.next()

	switch tok.kind {
	case tokQuestion:
		inner, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &node{kind: nodeUnion, alts: []*node{inner, {kind: nodeName, name: NullName}}}, nil

	case tokLParen:
		inner, err := p.parseUnion()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return inner, nil

	case tokName:
		keyword := strings.ToLower(tok.text)
		switch keyword {
		case "array", "list", "map":
			return p.parseContainer(tok, keyword)
		}
		if p.peek().kind == tokLAngle {
			return nil, p.errorf(p.peek(), "type arguments are only supported on array, list and map")
		}
		return &node{kind: nodeName, name: tok.text}, nil
	}

	return nil, p.errorf(tok, "unexpected %s", tok.kind)
}

func (p *parser) parseContainer(tok token, keyword string) (*node, error) {
	if p.peek().kind != tokLAngle {
		if keyword == "map" {
			return &node{kind: nodeDict}, nil
		}
		return &node{kind: nodeArray}, nil
	}
	p.next()

	first, err := p.parseUnion()
	if err != nil {
		return nil, err
	}

	var second *node
	if p.peek().kind == tokComma {
		p.next()
		if second, err = p.parseUnion(); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(tokRAngle); err != nil {
		return nil, err
	}

	switch keyword {
	case "map":
		if second == nil {
			return &node{kind: nodeDict, elem: first}, nil
		}
		return &node{kind: nodeDict, key: first, elem: second}, nil
	case "list":
		if second != nil {
			return nil, p.errorf(tok, "list takes a single type argument")
		}
		return &node{kind: nodeArray, elem: first}, nil
	default:
		if second == nil {
			return &node{kind: nodeArray, elem: first}, nil
		}
		return &node{kind: nodeMap, key: first, elem: second}, nil
	}
}
