package rdsexp

import (
	"fmt"
	"io"
	"strings"
)

// Parser reads top-level s-expressions.
type Parser struct {
	lex *lexer
	cur token
}

// NewParser creates a parser reading from r.
func NewParser(r io.Reader) *Parser {
	return &Parser{lex: newLexer(r)}
}

// ParseAll parses every top-level expression.
func (p *Parser) ParseAll() ([]Sexp, error) {
	var out []Sexp
	if err := p.advance(); err != nil {
		return nil, err
	}
	for p.cur.typ != tokEOF {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *Parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func (p *Parser) parseExpr() (Sexp, error) {
	switch p.cur.typ {
	case tokLParen:
		return p.parseList()
	case tokSymbol:
		return Symbol(p.cur.value), nil
	case tokString:
		return String(p.cur.value), nil
	case tokRParen:
		return nil, fmt.Errorf("line %d: unexpected ')'", p.cur.line)
	default:
		return nil, fmt.Errorf("line %d: unexpected EOF", p.cur.line)
	}
}

func (p *Parser) parseList() (Sexp, error) {
	l := &List{Line: p.cur.line}
	for {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.typ == tokRParen {
			return l, nil
		}
		if p.cur.typ == tokEOF {
			return nil, fmt.Errorf("line %d: unexpected EOF in list", l.Line)
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		l.Items = append(l.Items, e)
	}
}

// Parse parses every expression in r.
func Parse(r io.Reader) ([]Sexp, error) {
	return NewParser(r).ParseAll()
}

// ParseString parses every expression in s.
func ParseString(s string) ([]Sexp, error) {
	return Parse(strings.NewReader(s))
}
