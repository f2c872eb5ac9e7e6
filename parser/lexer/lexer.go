// Copyright © 2018 The ELPS authors

// Package lexer converts dan source text into a flat stream of positioned
// tokens using a single composed regular expression.
package lexer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/luthersystems/dan/parser/token"
)

// symbolChars is the character class shared by symbols, keywords, and the
// boundary check applied to word-like rules (nil, booleans, &).
const symbolChars = "[^\\s\\x00-\\x1f\\x7f()\\[\\]{}\"'`~;#\\\\,]"

// rules are tried in order.  Word-like rules must come before the generic
// symbol rule because the symbol class would otherwise swallow them.
var rules = []struct {
	name string
	expr string
	typ  token.Type
	word bool
}{
	{"nil", `nil`, token.NIL, true},
	{"bool", `true|false`, token.BOOLEAN, true},
	{"string", `"(?:[^"\\]|\\[\s\S])*(?:"|\\?$)`, token.STRING, false},
	{"number", `[+-]?(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)(?:[eE][+-]?[0-9]+)?`, token.NUMBER, false},
	{"comment", `;[^\n]*`, token.COMMENT, false},
	{"ws", `\s+`, token.WHITESPACE, false},
	{"splice", `~@`, token.SPLICE_UNQUOTE, false},
	{"unquote", `~`, token.UNQUOTE, false},
	{"quasi", "`", token.QUASIQUOTE, false},
	{"quote", `'`, token.QUOTE, false},
	{"amp", `&`, token.AMPERSAND, true},
	{"lparen", `\(`, token.PAREN_L, false},
	{"rparen", `\)`, token.PAREN_R, false},
	{"lbracket", `\[`, token.BRACKET_L, false},
	{"rbracket", `\]`, token.BRACKET_R, false},
	{"lbrace", `\{`, token.BRACE_L, false},
	{"rbrace", `\}`, token.BRACE_R, false},
	{"symbol", symbolChars + "+", token.SYMBOL, false},
}

var (
	composed   = compose()
	symbolRe   = regexp.MustCompile(`\A` + symbolChars + "+")
	symbolRune = regexp.MustCompile(`\A` + symbolChars)
)

func compose() *regexp.Regexp {
	alts := make([]string, len(rules))
	for i, r := range rules {
		alts[i] = fmt.Sprintf("(?P<%s>%s)", r.name, r.expr)
	}
	return regexp.MustCompile(`\A(?:` + strings.Join(alts, "|") + `)`)
}

// ModuleBegin is the symbol text that opens a module form.
const ModuleBegin = "begin-module"

// LexError is returned when source text contains a character that matches
// no token rule.
type LexError struct {
	Char   rune
	Source *token.Location
}

func (err *LexError) Error() string {
	return fmt.Sprintf("%s: invalid token %q at (%d:%d)",
		err.Source, err.Char, err.Source.Line, err.Source.Col)
}

// Condition returns the error condition reported to dan programs.
func (err *LexError) Condition() string {
	return "lex-error"
}

// Location returns the position of the offending character.
func (err *LexError) Location() *token.Location {
	return err.Source
}

// Lexer produces tokens from a source buffer.  The zero value is not usable;
// create a Lexer with New.
type Lexer struct {
	file string
	path string
	src  string
	pos  int
	line int
	col  int
}

// New returns a Lexer reading src.  The file name is attached to every token
// location.
func New(file string, src []byte) *Lexer {
	return &Lexer{
		file: file,
		src:  string(src),
		line: 1,
		col:  1,
	}
}

// SetPath sets the physical path reported in token locations.
func (lex *Lexer) SetPath(path string) {
	lex.path = path
}

// Tokenize returns all tokens in src, including comment and whitespace
// tokens, terminated by an EOF token.  Tokenize either succeeds on the whole
// input or returns a *LexError.
func Tokenize(file string, src []byte) ([]*token.Token, error) {
	return New(file, src).All()
}

// All reads the remaining input.
func (lex *Lexer) All() ([]*token.Token, error) {
	var toks []*token.Token
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks, nil
		}
	}
}

// Next returns the next token in the input.  After the input is exhausted
// Next returns EOF tokens indefinitely.
func (lex *Lexer) Next() (*token.Token, error) {
	loc := lex.loc()
	if lex.pos >= len(lex.src) {
		return &token.Token{Type: token.EOF, Source: loc}, nil
	}
	rest := lex.src[lex.pos:]
	if c, size := utf8.DecodeRuneInString(rest); c == utf8.RuneError && size <= 1 {
		return nil, &LexError{Char: c, Source: loc}
	}
	m := composed.FindStringSubmatchIndex(rest)
	if m == nil {
		c, _ := utf8.DecodeRuneInString(rest)
		return nil, &LexError{Char: c, Source: loc}
	}
	typ, end := lex.classify(rest, m)
	text := rest[:end]
	lex.advance(text)
	return &token.Token{Type: typ, Text: text, Source: loc}, nil
}

// classify determines the rule which matched and the length of the match.
// Word-like matches directly followed by a symbol character are reread as
// symbols so that "nilly" and "&rest" are single symbols.
func (lex *Lexer) classify(rest string, m []int) (token.Type, int) {
	for i, r := range rules {
		start := m[2*(i+1)]
		if start < 0 {
			continue
		}
		end := m[2*(i+1)+1]
		if r.word && symbolRune.MatchString(rest[end:]) {
			return symbolType(rest[:symbolRe.FindStringIndex(rest)[1]])
		}
		if r.typ == token.SYMBOL {
			return symbolType(rest[:end])
		}
		return r.typ, end
	}
	panic("lexer: no rule matched")
}

func symbolType(text string) (token.Type, int) {
	switch {
	case text == ModuleBegin:
		return token.MODULE_BEGIN, len(text)
	case len(text) > 1 && text[0] == ':':
		return token.KEYWORD, len(text)
	default:
		return token.SYMBOL, len(text)
	}
}

func (lex *Lexer) loc() *token.Location {
	return &token.Location{
		File: lex.file,
		Path: lex.path,
		Pos:  lex.pos,
		Line: lex.line,
		Col:  lex.col,
	}
}

func (lex *Lexer) advance(text string) {
	lex.pos += len(text)
	for _, c := range text {
		if c == '\n' {
			lex.line++
			lex.col = 1
			continue
		}
		lex.col++
	}
}

// Significant returns toks without comment and whitespace tokens.
func Significant(toks []*token.Token) []*token.Token {
	out := make([]*token.Token, 0, len(toks))
	for _, tok := range toks {
		if !tok.Type.IsTrivia() {
			out = append(out, tok)
		}
	}
	return out
}
