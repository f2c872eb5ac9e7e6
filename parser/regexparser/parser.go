// Copyright © 2018 The ELPS authors

// Package regexparser provides an alternate dan reader built from parser
// combinators.  It accepts the same language as rdparser and produces the same
// syntax trees.
//
//	expr    := list | vector | hash | prefix <expr> | atom | comment
//	list    := '(' <expr>* ')'
//	vector  := '[' <expr>* ']'
//	hash    := '{' <expr>* '}'
//	prefix  := '~@' | '~' | '`' | '\''
//	atom    := <string> | <number> | <word>
//	string  := '"' /([^"\\]|\\.)*/ '"'
//	number  := /[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)([eE][+-]?[0-9]+)?/
//	word    := /[^\s()\[\]{}"'`~;#\\,]+/
//
// A word is nil, a boolean, a keyword, or a symbol.
package regexparser

import (
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/parser/ast"
	"github.com/luthersystems/dan/parser/lexer"
	"github.com/luthersystems/dan/parser/rdparser"
	"github.com/luthersystems/dan/parser/token"
	parsec "github.com/prataprc/goparsec"
)

// NewReader returns a lisp.Reader.
func NewReader() lisp.Reader {
	return &parsecReader{}
}

type parsecReader struct{}

func (p *parsecReader) Read(name string, r io.Reader) (*ast.Program, error) {
	return p.ReadLocation(name, "", r)
}

func (p *parsecReader) ReadLocation(name string, loc string, r io.Reader) (*ast.Program, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	forms, err := Parse(name, loc, b)
	if err != nil {
		return nil, err
	}
	return &ast.Program{File: name, Forms: forms}, nil
}

// Parse reads every form in text.  File and path are attached to node
// locations.
func Parse(file, path string, text []byte) ([]ast.Node, error) {
	g := &grammar{lines: newLineIndex(file, path, text)}
	expr := g.parser()
	var forms []ast.Node
	s := parsec.NewScanner(text)
	for {
		var root parsec.ParsecNode
		root, s = expr(s)
		if root == nil {
			break
		}
		switch n := root.(type) {
		case error:
			return nil, n
		case ast.Node:
			forms = append(forms, n)
		}
	}
	_, s = s.SkipWS()
	if !s.Endof() {
		pos := s.GetCursor()
		b, _ := s.Match(`[\s\S]{1,16}`)
		return nil, &rdparser.ReadError{
			Text:   string(b),
			Msg:    "unexpected source text",
			Source: g.lines.loc(pos),
		}
	}
	return forms, nil
}

type grammar struct {
	lines *lineIndex
}

func (g *grammar) parser() parsec.Parser {
	comment := parsec.Token(`;[^\n]*`, "COMMENT")
	str := parsec.Token(`"(?:[^"\\]|\\[\s\S])*"`, "STRING")
	number := parsec.Token(`[+-]?(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)(?:[eE][+-]?[0-9]+)?`, "NUMBER")
	word := parsec.Token(`[^\s\x00-\x1f\x7f()\[\]{}"'`+"`"+`~;#\\,]+`, "WORD")
	atom := parsec.OrdChoice(g.atom, str, number, word)

	var expr parsec.Parser
	items := parsec.Kleene(nil, &expr)
	seq := func(open, close string, build func(open *parsec.Terminal, nodes []ast.Node) ast.Node) parsec.Parser {
		o := parsec.Atom(open, "OPEN")
		c := parsec.Atom(close, "CLOSE")
		matched := parsec.And(g.seq(build), o, items, c)
		unmatched := parsec.And(g.unmatched, o, items, parsec.Parser(end))
		return parsec.OrdChoice(first, matched, unmatched)
	}
	list := seq("(", ")", g.list)
	vector := seq("[", "]", func(open *parsec.Terminal, nodes []ast.Node) ast.Node {
		return &ast.ListPattern{Nodes: nodes, Loc: g.lines.loc(open.Position)}
	})
	hash := seq("{", "}", func(open *parsec.Terminal, nodes []ast.Node) ast.Node {
		return &ast.HashPattern{Nodes: nodes, Loc: g.lines.loc(open.Position)}
	})
	prefix := func(mark string, sym ast.Name) parsec.Parser {
		return parsec.And(g.prefix(sym), parsec.Atom(mark, "PREFIX"), &expr)
	}
	expr = parsec.OrdChoice(first,
		comment,
		list,
		vector,
		hash,
		prefix("~@", ast.SymSpliceUnquote),
		prefix("~", ast.SymUnquote),
		prefix("`", ast.SymQuasiquote),
		prefix("'", ast.SymQuote),
		atom,
	)
	// Comments are consumed between forms but produce no node.
	return func(s parsec.Scanner) (parsec.ParsecNode, parsec.Scanner) {
		for {
			n, next := expr(s)
			if t, ok := n.(*parsec.Terminal); ok && t.Name == "COMMENT" {
				s = next
				continue
			}
			return n, next
		}
	}
}

// first unwraps the single node matched by an OrdChoice.
func first(nodes []parsec.ParsecNode) parsec.ParsecNode {
	return nodes[0]
}

// end matches the end of input after any trailing whitespace.
func end(s parsec.Scanner) (parsec.ParsecNode, parsec.Scanner) {
	news := s.Clone()
	news.SkipWS()
	if news.Endof() {
		return true, news
	}
	return nil, s
}

func (g *grammar) atom(nodes []parsec.ParsecNode) parsec.ParsecNode {
	t := nodes[0].(*parsec.Terminal)
	loc := g.lines.loc(t.Position)
	switch t.Name {
	case "STRING":
		s, ok := rdparser.Unquote(t.Value)
		if !ok {
			return &rdparser.ReadError{Text: t.Value, Msg: "unterminated string", Source: loc, Recoverable: true}
		}
		return ast.NewString(s, loc)
	case "NUMBER":
		x, err := strconv.ParseFloat(t.Value, 64)
		if err != nil {
			return &rdparser.ReadError{Text: t.Value, Msg: "bad number", Source: loc}
		}
		return ast.NewNumber(x, loc)
	}
	switch {
	case t.Value == "nil":
		return ast.NewNil(loc)
	case t.Value == "true" || t.Value == "false":
		return ast.NewBool(t.Value == "true", loc)
	case len(t.Value) > 1 && t.Value[0] == ':':
		return ast.NewKeyword(t.Value, loc)
	}
	return ast.NewSymbol(t.Value, loc)
}

// children converts the nodes matched inside a sequence, dropping comments.
// The first error found is returned.
func children(n parsec.ParsecNode) ([]ast.Node, error) {
	items, _ := n.([]parsec.ParsecNode)
	nodes := make([]ast.Node, 0, len(items))
	for _, item := range items {
		switch item := item.(type) {
		case error:
			return nil, item
		case ast.Node:
			nodes = append(nodes, item)
		}
	}
	return nodes, nil
}

func (g *grammar) seq(build func(open *parsec.Terminal, nodes []ast.Node) ast.Node) parsec.Nodify {
	return func(nodes []parsec.ParsecNode) parsec.ParsecNode {
		items, err := children(nodes[1])
		if err != nil {
			return err
		}
		return build(nodes[0].(*parsec.Terminal), items)
	}
}

func (g *grammar) list(open *parsec.Terminal, nodes []ast.Node) ast.Node {
	loc := g.lines.loc(open.Position)
	if len(nodes) > 0 {
		if head, ok := nodes[0].(*ast.Atom); ok && head.Kind == ast.Symbol && head.Str == lexer.ModuleBegin {
			mod := &ast.Module{Loc: loc}
			body := nodes[1:]
			if len(body) > 0 {
				if a, ok := body[0].(*ast.Atom); ok && a.Kind == ast.String {
					mod.Name = a.Str
					body = body[1:]
				}
			}
			mod.Body = body
			return mod
		}
	}
	return &ast.List{Nodes: nodes, Loc: loc}
}

func (g *grammar) unmatched(nodes []parsec.ParsecNode) parsec.ParsecNode {
	if _, err := children(nodes[1]); err != nil {
		return err
	}
	open := nodes[0].(*parsec.Terminal)
	return &rdparser.ReadError{
		Text:        open.Value,
		Msg:         fmt.Sprintf("unmatched %s", open.Value),
		Source:      g.lines.loc(open.Position),
		Recoverable: true,
	}
}

func (g *grammar) prefix(sym ast.Name) parsec.Nodify {
	return func(nodes []parsec.ParsecNode) parsec.ParsecNode {
		mark := nodes[0].(*parsec.Terminal)
		switch n := nodes[1].(type) {
		case error:
			return n
		case ast.Node:
			return ast.Wrap(sym, n, g.lines.loc(mark.Position))
		}
		return &rdparser.ReadError{
			Text:   mark.Value,
			Msg:    "missing form after " + mark.Value,
			Source: g.lines.loc(mark.Position),
		}
	}
}

// lineIndex maps byte offsets to line and column numbers.
type lineIndex struct {
	file   string
	path   string
	text   []byte
	starts []int
}

func newLineIndex(file, path string, text []byte) *lineIndex {
	idx := &lineIndex{file: file, path: path, text: text, starts: []int{0}}
	for i, c := range text {
		if c == '\n' {
			idx.starts = append(idx.starts, i+1)
		}
	}
	return idx
}

func (idx *lineIndex) loc(pos int) *token.Location {
	line := 0
	for line+1 < len(idx.starts) && idx.starts[line+1] <= pos {
		line++
	}
	start := idx.starts[line]
	if pos > len(idx.text) {
		pos = len(idx.text)
	}
	return &token.Location{
		File: idx.file,
		Path: idx.path,
		Pos:  pos,
		Line: line + 1,
		Col:  utf8.RuneCount(idx.text[start:pos]) + 1,
	}
}
