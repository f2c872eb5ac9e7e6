// Copyright © 2018 The ELPS authors

package token

import "fmt"

// Token is a lexeme produced by the tokenizer.  Tokens are never modified
// after they are produced.
type Token struct {
	Type   Type
	Text   string
	Source *Location
}

func (tok *Token) String() string {
	if tok.Type == EOF {
		return "EOF"
	}
	return fmt.Sprintf("%s %q", tok.Type, tok.Text)
}

type Type uint

// Type constants used for the dan lexer/parser.
const (
	INVALID Type = iota
	EOF

	// Atoms
	NUMBER
	STRING
	BOOLEAN
	NIL
	SYMBOL
	KEYWORD

	// Delimiters
	PAREN_L
	PAREN_R
	BRACKET_L
	BRACKET_R
	BRACE_L
	BRACE_R

	// Reader macros
	QUOTE
	QUASIQUOTE
	UNQUOTE
	SPLICE_UNQUOTE
	AMPERSAND
	MODULE_BEGIN

	// Trivia retained for tooling and filtered before reading
	COMMENT
	WHITESPACE

	numTokenTypes
)

var typeStrings = [numTokenTypes]string{
	INVALID:        "invalid",
	EOF:            "EOF",
	NUMBER:         "number",
	STRING:         "string",
	BOOLEAN:        "boolean",
	NIL:            "nil",
	SYMBOL:         "symbol",
	KEYWORD:        "keyword",
	PAREN_L:        "(",
	PAREN_R:        ")",
	BRACKET_L:      "[",
	BRACKET_R:      "]",
	BRACE_L:        "{",
	BRACE_R:        "}",
	QUOTE:          "'",
	QUASIQUOTE:     "`",
	UNQUOTE:        "~",
	SPLICE_UNQUOTE: "~@",
	AMPERSAND:      "&",
	MODULE_BEGIN:   "begin-module",
	COMMENT:        ";",
	WHITESPACE:     "whitespace",
}

func (typ Type) String() string {
	if typ >= numTokenTypes {
		return typeStrings[INVALID]
	}
	return typeStrings[typ]
}

// IsTrivia returns true for token types which carry no meaning for the
// reader.
func (typ Type) IsTrivia() bool {
	return typ == COMMENT || typ == WHITESPACE
}

// Closer returns the token type which closes an opening delimiter typ.  For
// any other token type Closer returns INVALID.
func (typ Type) Closer() Type {
	switch typ {
	case PAREN_L:
		return PAREN_R
	case BRACKET_L:
		return BRACKET_R
	case BRACE_L:
		return BRACE_R
	}
	return INVALID
}

// IsCloser returns true if typ closes a list or literal.
func (typ Type) IsCloser() bool {
	return typ == PAREN_R || typ == BRACKET_R || typ == BRACE_R
}

type Location struct {
	File string // a name representing the source stream
	Path string // a physical location which may differ from File
	Pos  int    // byte offset
	Line int    // line number (starting at 1 when tracked)
	Col  int    // line column number (starting at 1 when tracked)
}

// Native returns a location used for values created by Go code.
func Native() *Location {
	return &Location{File: "<native code>", Pos: -1}
}

func (loc *Location) String() string {
	switch {
	case loc == nil:
		return "<unknown>"
	case loc.Pos < 0:
		return loc.File
	case loc.Line == 0:
		return fmt.Sprintf("%s[%d]", loc.File, loc.Pos)
	case loc.Col == 0:
		return fmt.Sprintf("%s:%d", loc.File, loc.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Col)
	}
}

type LocationError struct {
	Err    error
	Source *Location
}

func (err *LocationError) Error() string {
	return fmt.Sprintf("%s: %s", err.Source, err.Err)
}

func (err *LocationError) Unwrap() error {
	return err.Err
}
