// Package stubcfg parses stub files: the per-family list of stub wires,
// supply nodes, slot aliases and skips a verification run starts from.
//
//	# test-only plumbing
//	stub out "TEST_TAP";
//	stub in cond "IMUX_B5" tilekind "CLBLL";
//	vcc "INT_X0Y0" "VCC_WIRE";
//	alias slot "LH0" -> "LH0_ALT";
//	alias intf "C2R5.IMUX_CLK" -> "C2R5.GCLK0";
//	skip residual pips;
//	skip pin "SLICE" "CIN";
//	inject pip "CLB" "OUT" "C";
package stubcfg

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/participle/v2"
)

// Parser parses stub files.
type Parser struct {
	parser *participle.Parser[File]
}

// NewParser builds the stub file grammar.
func NewParser() (*Parser, error) {
	parser, err := participle.Build[File](
		participle.Lexer(StubLexer),
		participle.Elide("Comment", "Whitespace"),
		participle.Unquote("String"),
		participle.UseLookahead(2),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build parser: %w", err)
	}
	return &Parser{parser: parser}, nil
}

// Parse parses a stub file from a reader. name is used in positions.
func (p *Parser) Parse(name string, r io.Reader) (*File, error) {
	f, err := p.parser.Parse(name, r)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if err := f.check(); err != nil {
		return nil, err
	}
	return f, nil
}

// ParseString parses a stub file from a string.
func (p *Parser) ParseString(name, input string) (*File, error) {
	f, err := p.parser.ParseString(name, input)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if err := f.check(); err != nil {
		return nil, err
	}
	return f, nil
}

// ParseFile parses a stub file from a path.
func ParseFile(path string) (*File, error) {
	p, err := NewParser()
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return p.Parse(path, file)
}

// check rejects statements the grammar accepts but that mean nothing.
func (f *File) check() error {
	for _, s := range f.Stmts {
		if st := s.Stub; st != nil && st.TileKind != "" && (st.Dir != "in" || !st.Cond) {
			return fmt.Errorf("%s: tilekind only applies to stub in cond", s.Pos)
		}
	}
	return nil
}
