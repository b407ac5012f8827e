package depexpr

import (
	"fmt"
	"regexp"
)

// DefaultVersionPattern matches core version tags such as VK_VERSION_1_3 or
// VKSC_VERSION_1_0.
const DefaultVersionPattern = `^[A-Z]+_VERSION_[0-9]+_[0-9]+$`

// Grammar holds the token classification used by the parser.
// The zero value is not usable; use [NewGrammar] or [DefaultGrammar].
type Grammar struct {
	version *regexp.Regexp
}

// DefaultGrammar classifies version tokens with [DefaultVersionPattern].
var DefaultGrammar = MustGrammar(DefaultVersionPattern)

// NewGrammar compiles a grammar whose version tokens match pattern.
func NewGrammar(pattern string) (*Grammar, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile version pattern: %w", err)
	}
	return &Grammar{version: re}, nil
}

// MustGrammar is like [NewGrammar] but panics on an invalid pattern.
func MustGrammar(pattern string) *Grammar {
	g, err := NewGrammar(pattern)
	if err != nil {
		panic(err)
	}
	return g
}

// IsVersion reports whether name is a version token under g.
func (g *Grammar) IsVersion(name string) bool {
	return g.version.MatchString(name)
}

// Parse parses expr with [DefaultGrammar].
func Parse(expr string) (Node, error) {
	return DefaultGrammar.Parse(expr)
}

// Parse turns expr into an AST. The returned tree is normalized: singleton
// And/Or groups are collapsed into their only child.
func (g *Grammar) Parse(expr string) (Node, error) {
	toks, err := lex(expr)
	if err != nil {
		return nil, err
	}
	p := &parser{g: g, expr: expr, toks: toks}
	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %s after complete expression", t.kind)
	}
	return n, nil
}

type parser struct {
	g    *Grammar
	expr string
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &SyntaxError{Expr: p.expr, Pos: t.pos, Msg: fmt.Sprintf(format, args...)}
}

// parseExpr parses a comma-separated disjunction.
func (p *parser) parseExpr() (Node, error) {
	first, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	terms := []Node{first}
	for p.peek().kind == tokComma {
		p.next()
		t, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	return NewOr(terms...), nil
}

// parseTerm parses a plus-separated conjunction.
func (p *parser) parseTerm() (Node, error) {
	first, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	factors := []Node{first}
	for p.peek().kind == tokPlus {
		p.next()
		f, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		factors = append(factors, f)
	}
	return NewAnd(factors...), nil
}

func (p *parser) parseFactor() (Node, error) {
	t := p.next()
	switch t.kind {
	case tokIdent:
		if p.g.IsVersion(t.text) {
			return &VersionNode{Name: t.text}, nil
		}
		return &ItemNode{Name: t.text}, nil
	case tokLParen:
		n, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, p.errorf(closing, "expected ')' to close group opened at offset %d, got %s", t.pos, closing.kind)
		}
		return n, nil
	}
	return nil, p.errorf(t, "expected identifier or '(', got %s", t.kind)
}
