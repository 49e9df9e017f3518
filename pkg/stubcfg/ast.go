package stubcfg

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// File is a parsed stub file.
type File struct {
	Stmts []*Stmt `@@*`
}

// Stmt is one statement. Exactly one field is set.
type Stmt struct {
	Pos lexer.Position

	Stub     *Stub         `  @@`
	Vcc      *Vcc          `| @@`
	Alias    *Alias        `| @@`
	Residual *SkipResidual `| @@`
	Pin      *SkipPin      `| @@`
	ClassPip *ClassPip     `| @@`
}

// Stub marks a wire as a stub: stub out|in [cond] "WIRE" [tilekind "KIND"];
type Stub struct {
	Dir      string `"stub" @( "out" | "in" )`
	Cond     bool   `@"cond"?`
	Wire     string `@String`
	TileKind string `( "tilekind" @String )? ";"`
}

// Vcc claims a supply node: vcc "TILE" "WIRE";
type Vcc struct {
	Tile string `"vcc" @String`
	Wire string `@String ";"`
}

// Alias pins one wire as another. Slot aliases name wire slots:
// alias slot "FROM" -> "TO"; interface aliases name grid wires and pin the
// interface side of FROM as the routing wire TO:
// alias intf "C0R0.FROM" -> "C0R0.TO";
type Alias struct {
	Kind string `"alias" @( "slot" | "intf" )`
	From string `@String`
	To   string `"->" @String ";"`
}

// SkipResidual turns off part of the residual scan:
// skip residual pips|sites|nodes|all;
type SkipResidual struct {
	What string `"skip" "residual" @( "pips" | "sites" | "nodes" | "all" ) ";"`
}

// SkipPin leaves a bel pin out: skip pin "BEL" "PIN";
type SkipPin struct {
	Bel string `"skip" "pin" @String`
	Pin string `@String ";"`
}

// ClassPip edits the mux edges of a tile class:
// skip|inject pip "CLASS" "DST" "SRC";
type ClassPip struct {
	Op    string `@( "skip" | "inject" ) "pip"`
	Class string `@String`
	Dst   string `@String`
	Src   string `@String ";"`
}

func (s *Stmt) String() string {
	switch {
	case s.Stub != nil:
		var sb strings.Builder
		fmt.Fprintf(&sb, "stub %s ", s.Stub.Dir)
		if s.Stub.Cond {
			sb.WriteString("cond ")
		}
		fmt.Fprintf(&sb, "%q", s.Stub.Wire)
		if s.Stub.TileKind != "" {
			fmt.Fprintf(&sb, " tilekind %q", s.Stub.TileKind)
		}
		sb.WriteString(";")
		return sb.String()
	case s.Vcc != nil:
		return fmt.Sprintf("vcc %q %q;", s.Vcc.Tile, s.Vcc.Wire)
	case s.Alias != nil:
		return fmt.Sprintf("alias %s %q -> %q;", s.Alias.Kind, s.Alias.From, s.Alias.To)
	case s.Residual != nil:
		return fmt.Sprintf("skip residual %s;", s.Residual.What)
	case s.Pin != nil:
		return fmt.Sprintf("skip pin %q %q;", s.Pin.Bel, s.Pin.Pin)
	case s.ClassPip != nil:
		return fmt.Sprintf("%s pip %q %q %q;", s.ClassPip.Op, s.ClassPip.Class, s.ClassPip.Dst, s.ClassPip.Src)
	}
	return ""
}

// String renders the file in canonical form, one statement per line.
func (f *File) String() string {
	var sb strings.Builder
	for _, s := range f.Stmts {
		sb.WriteString(s.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
