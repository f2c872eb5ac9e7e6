// Copyright © 2018 The ELPS authors

// Package rdparser implements the recursive-descent reader for dan source.
package rdparser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/parser/ast"
	"github.com/luthersystems/dan/parser/lexer"
	"github.com/luthersystems/dan/parser/token"
)

type reader struct{}

// NewReader returns a lisp.Reader to use in a lisp.Runtime.
func NewReader() lisp.Reader {
	return &reader{}
}

// Read implements lisp.Reader.
func (*reader) Read(name string, r io.Reader) (*ast.Program, error) {
	return readLocation(name, "", r)
}

// ReadLocation implements lisp.LocationReader.
func (*reader) ReadLocation(name string, loc string, r io.Reader) (*ast.Program, error) {
	return readLocation(name, loc, r)
}

func readLocation(name string, loc string, r io.Reader) (*ast.Program, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	lex := lexer.New(name, b)
	lex.SetPath(loc)
	toks, err := lex.All()
	if err != nil {
		return nil, err
	}
	return New(toks).ParseProgram(name)
}

// ReadString reads all forms in src.
func ReadString(name, src string) (*ast.Program, error) {
	return readLocation(name, "", strings.NewReader(src))
}

// ReadError reports malformed syntax.  A ReadError is Recoverable when the
// input ended while forms were still open, so an interactive front end can
// ask for more input instead of reporting the error.
type ReadError struct {
	Text        string
	Msg         string
	Source      *token.Location
	Recoverable bool
}

func (err *ReadError) Error() string {
	if err.Text == "" {
		return fmt.Sprintf("%s: %s", err.Source, err.Msg)
	}
	return fmt.Sprintf("%s: %s: invalid token %s at %d:%d",
		err.Source, err.Msg, err.Text, err.Source.Line, err.Source.Col)
}

// Condition returns the error condition reported to dan programs.
func (err *ReadError) Condition() string {
	return lisp.CondReadError
}

// Location returns the position of the token that caused the error.
func (err *ReadError) Location() *token.Location {
	return err.Source
}

// Parser is a dan reader with one token of lookahead.
type Parser struct {
	src   *TokenSource
	depth int
}

// New initializes and returns a Parser that reads toks.
func New(toks []*token.Token) *Parser {
	return NewFromSource(NewTokenSource(toks))
}

// NewFromSource initializes and returns a Parser that reads tokens from src.
func NewFromSource(src *TokenSource) *Parser {
	return &Parser{src: src}
}

// ParseProgram reads every form in the token stream.
func (p *Parser) ParseProgram(file string) (*ast.Program, error) {
	prog := &ast.Program{File: file}
	for {
		node, err := p.Parse()
		if err == io.EOF {
			return prog, nil
		}
		if err != nil {
			return nil, err
		}
		prog.Forms = append(prog.Forms, node)
	}
}

// Parse reads the next form.  Parse returns io.EOF when the stream is
// exhausted before a form begins.
func (p *Parser) Parse() (ast.Node, error) {
	if p.src.IsEOF() {
		return nil, io.EOF
	}
	return p.ParseExpression()
}

// ParseExpression reads a single form and reports EOF as a recoverable
// ReadError.
func (p *Parser) ParseExpression() (ast.Node, error) {
	tok := p.src.Next()
	switch tok.Type {
	case token.EOF:
		return nil, p.errorf(tok, true, "unexpected end of input")
	case token.PAREN_L:
		if p.src.Peek().Type == token.MODULE_BEGIN {
			p.src.Next()
			return p.parseModule(tok)
		}
		nodes, err := p.parseSeq(tok)
		if err != nil {
			return nil, err
		}
		return &ast.List{Nodes: nodes, Loc: tok.Source}, nil
	case token.BRACKET_L:
		nodes, err := p.parseSeq(tok)
		if err != nil {
			return nil, err
		}
		return &ast.ListPattern{Nodes: nodes, Loc: tok.Source}, nil
	case token.BRACE_L:
		nodes, err := p.parseSeq(tok)
		if err != nil {
			return nil, err
		}
		return &ast.HashPattern{Nodes: nodes, Loc: tok.Source}, nil
	case token.PAREN_R, token.BRACKET_R, token.BRACE_R:
		return nil, p.errorf(tok, false, "unexpected closing delimiter")
	case token.QUOTE:
		return p.parsePrefix(tok, ast.SymQuote)
	case token.QUASIQUOTE:
		return p.parsePrefix(tok, ast.SymQuasiquote)
	case token.UNQUOTE:
		return p.parsePrefix(tok, ast.SymUnquote)
	case token.SPLICE_UNQUOTE:
		return p.parsePrefix(tok, ast.SymSpliceUnquote)
	default:
		return p.parseAtom(tok)
	}
}

// parseSeq reads forms until the closer matching open.
func (p *Parser) parseSeq(open *token.Token) ([]ast.Node, error) {
	closer := open.Type.Closer()
	p.depth++
	defer func() { p.depth-- }()
	var nodes []ast.Node
	for {
		tok := p.src.Peek()
		switch {
		case tok.Type == closer:
			p.src.Next()
			return nodes, nil
		case tok.Type.IsCloser():
			p.src.Next()
			return nil, p.errorf(tok, false, fmt.Sprintf("unexpected %s, expected %s", tok.Type, closer))
		case tok.Type == token.EOF:
			return nil, p.errorf(open, true, fmt.Sprintf("unmatched %s", open.Type))
		}
		node, err := p.ParseExpression()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
}

func (p *Parser) parseModule(open *token.Token) (ast.Node, error) {
	nodes, err := p.parseSeq(open)
	if err != nil {
		return nil, err
	}
	mod := &ast.Module{Loc: open.Source}
	if len(nodes) > 0 {
		if a, ok := nodes[0].(*ast.Atom); ok && a.Kind == ast.String {
			mod.Name = a.Str
			nodes = nodes[1:]
		}
	}
	mod.Body = nodes
	return mod, nil
}

func (p *Parser) parsePrefix(tok *token.Token, sym ast.Name) (ast.Node, error) {
	if p.src.Peek().Type == token.EOF {
		return nil, p.errorf(tok, true, "missing form after "+tok.Text)
	}
	node, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	return ast.Wrap(sym, node, tok.Source), nil
}

func (p *Parser) parseAtom(tok *token.Token) (ast.Node, error) {
	switch tok.Type {
	case token.NUMBER:
		x, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, p.errorf(tok, false, "bad number")
		}
		return ast.NewNumber(x, tok.Source), nil
	case token.STRING:
		s, ok := Unquote(tok.Text)
		if !ok {
			return nil, p.errorf(tok, true, "unterminated string")
		}
		return ast.NewString(s, tok.Source), nil
	case token.BOOLEAN:
		return ast.NewBool(tok.Text == "true", tok.Source), nil
	case token.NIL:
		return ast.NewNil(tok.Source), nil
	case token.KEYWORD:
		return ast.NewKeyword(tok.Text, tok.Source), nil
	case token.SYMBOL, token.AMPERSAND, token.MODULE_BEGIN:
		return ast.NewSymbol(tok.Text, tok.Source), nil
	default:
		return nil, p.errorf(tok, false, "unexpected token")
	}
}

func (p *Parser) errorf(tok *token.Token, recoverable bool, msg string) error {
	loc := tok.Source
	if loc == nil {
		loc = &token.Location{Pos: -1}
	}
	return &ReadError{
		Text:        tok.Text,
		Msg:         msg,
		Source:      loc,
		Recoverable: recoverable,
	}
}

// Unquote strips the quotes from a string token and replaces escape
// sequences.  Unquote returns false if the string is not terminated.
func Unquote(text string) (string, bool) {
	if len(text) < 2 || text[len(text)-1] != '"' || escapedAt(text, len(text)-1) {
		return "", false
	}
	return unescape(text[1 : len(text)-1]), true
}

// escapedAt reports whether the byte at i is preceded by an odd number of
// backslashes.
func escapedAt(s string, i int) bool {
	n := 0
	for j := i - 1; j > 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var buf strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			buf.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			buf.WriteByte('\n')
		case 't':
			buf.WriteByte('\t')
		case 'r':
			buf.WriteByte('\r')
		case 'b':
			buf.WriteByte('\b')
		case 'f':
			buf.WriteByte('\f')
		case 'v':
			buf.WriteByte('\v')
		case '\\', '"', '\'':
			buf.WriteByte(s[i])
		case 'u':
			// \uXXXX takes exactly four hex digits.
			if i+5 > len(s) || !isHex4(s[i+1:i+5]) {
				buf.WriteString(`\u`)
				continue
			}
			r, _ := strconv.ParseUint(s[i+1:i+5], 16, 32)
			buf.WriteRune(rune(r))
			i += 4
		default:
			buf.WriteByte('\\')
			buf.WriteByte(s[i])
		}
	}
	return buf.String()
}

func isHex4(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9') && !('a' <= c && c <= 'f') && !('A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}
