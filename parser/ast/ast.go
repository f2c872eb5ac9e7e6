// Copyright © 2024 The ELPS authors

// Package ast defines the syntax tree produced by dan readers and consumed by
// the evaluator.
package ast

import (
	"fmt"
	"strconv"
	"strings"
	"unique"

	"github.com/luthersystems/dan/parser/token"
)

// Node is a syntax tree node.  Nodes are immutable once read.
type Node interface {
	Source() *token.Location
	String() string
	node()
}

// AtomKind classifies leaf nodes.
type AtomKind uint8

const (
	Number AtomKind = iota
	String
	Boolean
	Nil
	Symbol
	Keyword
)

var atomKindStrings = []string{
	Number:  "number",
	String:  "string",
	Boolean: "boolean",
	Nil:     "nil",
	Symbol:  "symbol",
	Keyword: "keyword",
}

func (k AtomKind) String() string {
	if int(k) >= len(atomKindStrings) {
		return "invalid"
	}
	return atomKindStrings[k]
}

// Name is an interned symbol or keyword name.  Comparing two Names is a
// pointer comparison.
type Name = unique.Handle[string]

// Intern returns the interned Name for s.
func Intern(s string) Name {
	return unique.Make(s)
}

// Interned names of the special forms and reader macros.
var (
	SymQuote         = Intern("quote")
	SymQuasiquote    = Intern("quasiquote")
	SymUnquote       = Intern("unquote")
	SymSpliceUnquote = Intern("splice-unquote")
	SymBegin         = Intern("begin")
	SymAmpersand     = Intern("&")
	SymBeginModule   = Intern("begin-module")
)

// Atom is a leaf node.  Only the field matching Kind is meaningful, except
// that symbols and keywords carry both Name and Str (the plain text).
type Atom struct {
	Kind AtomKind
	Num  float64
	Str  string
	Bool bool
	Name Name
	Loc  *token.Location
}

func (*Atom) node() {}

func (a *Atom) Source() *token.Location { return a.Loc }

func (a *Atom) String() string {
	switch a.Kind {
	case Number:
		return FormatNumber(a.Num)
	case String:
		return strconv.Quote(a.Str)
	case Boolean:
		return strconv.FormatBool(a.Bool)
	case Nil:
		return "nil"
	default:
		return a.Str
	}
}

// IsSymbol returns true if a is the symbol name.
func (a *Atom) IsSymbol(name Name) bool {
	return a.Kind == Symbol && a.Name == name
}

// FormatNumber renders n the way the printer and the reader agree on.
func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func NewNumber(n float64, loc *token.Location) *Atom {
	return &Atom{Kind: Number, Num: n, Loc: loc}
}

func NewString(s string, loc *token.Location) *Atom {
	return &Atom{Kind: String, Str: s, Loc: loc}
}

func NewBool(b bool, loc *token.Location) *Atom {
	return &Atom{Kind: Boolean, Bool: b, Loc: loc}
}

func NewNil(loc *token.Location) *Atom {
	return &Atom{Kind: Nil, Loc: loc}
}

func NewSymbol(name string, loc *token.Location) *Atom {
	return &Atom{Kind: Symbol, Str: name, Name: Intern(name), Loc: loc}
}

func NewKeyword(name string, loc *token.Location) *Atom {
	return &Atom{Kind: Keyword, Str: name, Name: Intern(name), Loc: loc}
}

// List is a parenthesized form.
type List struct {
	Nodes []Node
	Loc   *token.Location
}

func (*List) node() {}

func (l *List) Source() *token.Location { return l.Loc }

func (l *List) String() string { return formatNodes("(", l.Nodes, ")") }

// Head returns the head symbol of l, if there is one.
func (l *List) Head() (*Atom, bool) {
	if len(l.Nodes) == 0 {
		return nil, false
	}
	a, ok := l.Nodes[0].(*Atom)
	if !ok || a.Kind != Symbol {
		return nil, false
	}
	return a, true
}

// ListPattern is a bracketed literal, [a b c].
type ListPattern struct {
	Nodes []Node
	Loc   *token.Location
}

func (*ListPattern) node() {}

func (l *ListPattern) Source() *token.Location { return l.Loc }

func (l *ListPattern) String() string { return formatNodes("[", l.Nodes, "]") }

// HashPattern is a braced literal, {k v ...}.
type HashPattern struct {
	Nodes []Node
	Loc   *token.Location
}

func (*HashPattern) node() {}

func (h *HashPattern) Source() *token.Location { return h.Loc }

func (h *HashPattern) String() string { return formatNodes("{", h.Nodes, "}") }

// Module is a begin-module form with its name separated from the body.
type Module struct {
	Name string
	Body []Node
	Loc  *token.Location
}

func (*Module) node() {}

func (m *Module) Source() *token.Location { return m.Loc }

func (m *Module) String() string {
	head := "(begin-module " + strconv.Quote(m.Name)
	if len(m.Body) == 0 {
		return head + ")"
	}
	return formatNodes(head+" ", m.Body, ")")
}

func formatNodes(open string, nodes []Node, close string) string {
	var buf strings.Builder
	buf.WriteString(open)
	for i, n := range nodes {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(n.String())
	}
	buf.WriteString(close)
	return buf.String()
}

// Program is the result of reading one input unit.
type Program struct {
	File  string
	Forms []Node
}

// Begin wraps the program forms in an implicit (begin ...) form.
func (p *Program) Begin() *List {
	loc := &token.Location{File: p.File, Line: 1, Col: 1}
	nodes := make([]Node, 0, len(p.Forms)+1)
	nodes = append(nodes, &Atom{Kind: Symbol, Str: "begin", Name: SymBegin, Loc: loc})
	nodes = append(nodes, p.Forms...)
	return &List{Nodes: nodes, Loc: loc}
}

// Wrap returns the 2-element list (sym node) used for reader macros.
func Wrap(sym Name, node Node, loc *token.Location) *List {
	head := &Atom{Kind: Symbol, Str: sym.Value(), Name: sym, Loc: loc}
	return &List{Nodes: []Node{head, node}, Loc: loc}
}

// Constant embeds an already evaluated value in a syntax tree.  Macro
// expansion and eval produce Constants for values that have no literal
// syntax, such as functions.
type Constant struct {
	Value interface{}
	Loc   *token.Location
}

func (*Constant) node() {}

func (c *Constant) Source() *token.Location { return c.Loc }

func (c *Constant) String() string {
	if s, ok := c.Value.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(c.Value)
}
