// Package rdsexp reads the textual s-expression form of a rawdump part.
//
// Load parses the whole dump into a tree before building the part from it.
// Comments run from ';' or '#' to end of line. Bare words such as conn, in
// and out are symbols; names are always quoted strings, so a wire called
// "conn" is never taken for the marker.
//
// # Format
//
//	(part "xc7a35t" (family "series7")
//	  (tile_kind "CLB"
//	    (wire "A")                        ; internal
//	    (wire "OMUX" conn)                ; connected
//	    (pip "A" "OMUX")                  ; from to
//	    (site "SLICE" "SLICEL" (pin "I" in "A") (pin "O" out "OMUX")))
//	  (tile 3 4 "CLB_X3Y4" "CLB" (site "SLICE" "SLICE_X3Y4") (unbound "OMUX"))
//	  (connect "CLB_X3Y4" "OMUX" "INT_X2Y4" "IN0"))
package rdsexp

import (
	"strconv"
	"strings"
)

// Sexp is either an atom or a list.
type Sexp interface {
	IsLeaf() bool
	String() string
}

// Symbol is a bare atom: a keyword or a number.
type Symbol string

func (s Symbol) IsLeaf() bool   { return true }
func (s Symbol) String() string { return string(s) }

// String is a quoted atom, unescaped.
type String string

func (s String) IsLeaf() bool   { return true }
func (s String) String() string { return strconv.Quote(string(s)) }

// List is a parenthesized sequence. Line is where it opened.
type List struct {
	Items []Sexp
	Line  int
}

func (l *List) IsLeaf() bool { return false }

func (l *List) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, it := range l.Items {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(it.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// Head returns the leading symbol of the list, or "".
func (l *List) Head() string {
	if len(l.Items) == 0 {
		return ""
	}
	if s, ok := l.Items[0].(Symbol); ok {
		return string(s)
	}
	return ""
}

// Len returns the number of items including the head.
func (l *List) Len() int {
	return len(l.Items)
}
