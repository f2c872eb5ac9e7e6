// Copyright © 2018 The ELPS authors

package lexer

import (
	"testing"

	"github.com/luthersystems/dan/parser/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexer(t *testing.T) {
	tests := []struct {
		input  string
		tokens []*token.Token
	}{
		{``, []*token.Token{
			testToken(token.EOF, ""),
		}},
		{`abc`, []*token.Token{
			testToken(token.SYMBOL, "abc"),
			testToken(token.EOF, ""),
		}},
		{`=+()[]{}`, []*token.Token{
			testToken(token.SYMBOL, "=+"),
			testToken(token.PAREN_L, "("),
			testToken(token.PAREN_R, ")"),
			testToken(token.BRACKET_L, "["),
			testToken(token.BRACKET_R, "]"),
			testToken(token.BRACE_L, "{"),
			testToken(token.BRACE_R, "}"),
			testToken(token.EOF, ""),
		}},
		{`nil nilly true false truest`, []*token.Token{
			testToken(token.NIL, "nil"),
			testToken(token.SYMBOL, "nilly"),
			testToken(token.BOOLEAN, "true"),
			testToken(token.BOOLEAN, "false"),
			testToken(token.SYMBOL, "truest"),
			testToken(token.EOF, ""),
		}},
		{`10 -5 0.1 +3 12e12 12e-12 -`, []*token.Token{
			testToken(token.NUMBER, "10"),
			testToken(token.NUMBER, "-5"),
			testToken(token.NUMBER, "0.1"),
			testToken(token.NUMBER, "+3"),
			testToken(token.NUMBER, "12e12"),
			testToken(token.NUMBER, "12e-12"),
			testToken(token.SYMBOL, "-"),
			testToken(token.EOF, ""),
		}},
		{`"abc" "" "a\"b"`, []*token.Token{
			testToken(token.STRING, `"abc"`),
			testToken(token.STRING, `""`),
			testToken(token.STRING, `"a\"b"`),
			testToken(token.EOF, ""),
		}},
		{`"abc`, []*token.Token{
			testToken(token.STRING, `"abc`),
			testToken(token.EOF, ""),
		}},
		{"'a `(b ~c ~@d)", []*token.Token{
			testToken(token.QUOTE, "'"),
			testToken(token.SYMBOL, "a"),
			testToken(token.QUASIQUOTE, "`"),
			testToken(token.PAREN_L, "("),
			testToken(token.SYMBOL, "b"),
			testToken(token.UNQUOTE, "~"),
			testToken(token.SYMBOL, "c"),
			testToken(token.SPLICE_UNQUOTE, "~@"),
			testToken(token.SYMBOL, "d"),
			testToken(token.PAREN_R, ")"),
			testToken(token.EOF, ""),
		}},
		{`(f & xs &rest :key string=? ->)`, []*token.Token{
			testToken(token.PAREN_L, "("),
			testToken(token.SYMBOL, "f"),
			testToken(token.AMPERSAND, "&"),
			testToken(token.SYMBOL, "xs"),
			testToken(token.SYMBOL, "&rest"),
			testToken(token.KEYWORD, ":key"),
			testToken(token.SYMBOL, "string=?"),
			testToken(token.SYMBOL, "->"),
			testToken(token.PAREN_R, ")"),
			testToken(token.EOF, ""),
		}},
		{`(begin-module "m")`, []*token.Token{
			testToken(token.PAREN_L, "("),
			testToken(token.MODULE_BEGIN, "begin-module"),
			testToken(token.STRING, `"m"`),
			testToken(token.PAREN_R, ")"),
			testToken(token.EOF, ""),
		}},
	}
	for i, test := range tests {
		toks, err := Tokenize("test", []byte(test.input))
		require.NoError(t, err, "test %d", i)
		toks = Significant(toks)
		require.Len(t, toks, len(test.tokens), "test %d: %q", i, test.input)
		for j := range toks {
			assert.Equal(t, test.tokens[j].Type, toks[j].Type, "test %d token %d", i, j)
			assert.Equal(t, test.tokens[j].Text, toks[j].Text, "test %d token %d", i, j)
		}
	}
}

func TestLexerTrivia(t *testing.T) {
	toks, err := Tokenize("test", []byte("a ; note\n b"))
	require.NoError(t, err)
	types := make([]token.Type, len(toks))
	for i := range toks {
		types[i] = toks[i].Type
	}
	assert.Equal(t, []token.Type{
		token.SYMBOL,
		token.WHITESPACE,
		token.COMMENT,
		token.WHITESPACE,
		token.SYMBOL,
		token.EOF,
	}, types)
}

func TestLexerPositions(t *testing.T) {
	toks, err := Tokenize("test.dan", []byte("(a\n  bc)\n\"x\ny\" z"))
	require.NoError(t, err)
	toks = Significant(toks)
	want := []struct {
		text      string
		line, col int
		pos       int
	}{
		{"(", 1, 1, 0},
		{"a", 1, 2, 1},
		{"bc", 2, 3, 5},
		{")", 2, 5, 7},
		{"\"x\ny\"", 3, 1, 9},
		{"z", 4, 4, 15},
	}
	for i, w := range want {
		assert.Equal(t, w.text, toks[i].Text)
		assert.Equal(t, w.line, toks[i].Source.Line, "token %d line", i)
		assert.Equal(t, w.col, toks[i].Source.Col, "token %d col", i)
		assert.Equal(t, w.pos, toks[i].Source.Pos, "token %d pos", i)
		assert.Equal(t, "test.dan", toks[i].Source.File)
	}
}

func TestLexerError(t *testing.T) {
	_, err := Tokenize("test", []byte("(a\n #b)"))
	require.Error(t, err)
	lexErr, ok := err.(*LexError)
	require.True(t, ok, "unexpected error type %T", err)
	assert.Equal(t, '#', lexErr.Char)
	assert.Equal(t, 2, lexErr.Source.Line)
	assert.Equal(t, 2, lexErr.Source.Col)
	assert.Contains(t, err.Error(), "invalid token")
}

func testToken(typ token.Type, text string) *token.Token {
	return &token.Token{
		Type: typ,
		Text: text,
	}
}
