package stubcfg

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// StubLexer tokenizes stub files. Keywords are plain identifiers; the
// grammar matches them by value.
var StubLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `(?:#|//)[^\n]*`},
	{Name: "Whitespace", Pattern: `[\s]+`},
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},
	{Name: "Arrow", Pattern: `->`},
	{Name: "Semicolon", Pattern: `;`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
})
