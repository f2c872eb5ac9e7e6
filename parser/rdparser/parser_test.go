// Copyright © 2018 The ELPS authors

package rdparser

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/luthersystems/dan/parser/ast"
	"github.com/luthersystems/dan/parser/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ignoreLocations compares trees structurally.
var ignoreLocations = cmp.Options{
	cmp.Comparer(func(a, b *token.Location) bool { return true }),
	cmp.Comparer(func(a, b ast.Name) bool { return a == b }),
}

func sym(s string) *ast.Atom { return ast.NewSymbol(s, nil) }
func num(x float64) *ast.Atom { return ast.NewNumber(x, nil) }
func str(s string) *ast.Atom { return ast.NewString(s, nil) }
func kw(s string) *ast.Atom { return ast.NewKeyword(s, nil) }
func list(n ...ast.Node) *ast.List { return &ast.List{Nodes: n} }

func TestParser(t *testing.T) {
	tests := []struct {
		src  string
		want []ast.Node
	}{
		{`1 "a" nil true false sym :kw`, []ast.Node{
			num(1), str("a"), ast.NewNil(nil), ast.NewBool(true, nil), ast.NewBool(false, nil), sym("sym"), kw(":kw"),
		}},
		{`()`, []ast.Node{list()}},
		{`(f (g 1) -2.5)`, []ast.Node{list(sym("f"), list(sym("g"), num(1)), num(-2.5))}},
		{`[a & rest]`, []ast.Node{&ast.ListPattern{Nodes: []ast.Node{sym("a"), sym("&"), sym("rest")}}}},
		{`{:a 1 "b" 2}`, []ast.Node{&ast.HashPattern{Nodes: []ast.Node{kw(":a"), num(1), str("b"), num(2)}}}},
		{`'x`, []ast.Node{list(sym("quote"), sym("x"))}},
		{"`(a ~b ~@c)", []ast.Node{list(sym("quasiquote"), list(
			sym("a"),
			list(sym("unquote"), sym("b")),
			list(sym("splice-unquote"), sym("c")),
		))}},
		{`(begin-module "m" (define x 1) (provide x))`, []ast.Node{&ast.Module{
			Name: "m",
			Body: []ast.Node{
				list(sym("define"), sym("x"), num(1)),
				list(sym("provide"), sym("x")),
			},
		}}},
		{"; comment\n(a ; trailing\n b)", []ast.Node{list(sym("a"), sym("b"))}},
	}
	for i, test := range tests {
		prog, err := ReadString("test", test.src)
		require.NoError(t, err, "test %d", i)
		if diff := cmp.Diff(test.want, prog.Forms, ignoreLocations); diff != "" {
			t.Errorf("test %d %q: mismatch (-want +got):\n%s", i, test.src, diff)
		}
	}
}

func TestParserStrings(t *testing.T) {
	prog, err := ReadString("test", `"a\nb\t\\\"é\'"`)
	require.NoError(t, err)
	require.Len(t, prog.Forms, 1)
	assert.Equal(t, "a\nb\t\\\"é'", prog.Forms[0].(*ast.Atom).Str)
}

func TestParserUnicodeEscapes(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`"\u0041"`, "A"},
		{`"\u00411"`, "A1"},
		{`"\u00e9t\u00E9"`, "été"},
		{`"\u41"`, `\u41`},
		{`"\u"`, `\u`},
		{`"\uzzzz"`, `\uzzzz`},
	}
	for i, test := range tests {
		prog, err := ReadString("test", test.src)
		require.NoError(t, err, "test %d", i)
		require.Len(t, prog.Forms, 1)
		assert.Equal(t, test.want, prog.Forms[0].(*ast.Atom).Str, "test %d %s", i, test.src)
	}
}

func TestParserLocations(t *testing.T) {
	prog, err := ReadString("loc.dan", "(a\n  (b c))")
	require.NoError(t, err)
	outer := prog.Forms[0].(*ast.List)
	inner := outer.Nodes[1].(*ast.List)
	assert.Equal(t, "loc.dan:1:1", outer.Source().String())
	assert.Equal(t, "loc.dan:2:3", inner.Source().String())
	assert.Equal(t, "loc.dan:2:6", inner.Nodes[1].Source().String())
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		src         string
		recoverable bool
		msg         string
	}{
		{`(a b`, true, "unmatched ("},
		{`[a (b c)`, true, "unmatched ["},
		{`"abc`, true, "unterminated string"},
		{`'`, true, "missing form"},
		{`(a))`, false, "unexpected closing delimiter"},
		{`(a]`, false, "unexpected ]"},
		{`}`, false, "unexpected closing delimiter"},
	}
	for i, test := range tests {
		_, err := ReadString("test", test.src)
		require.Error(t, err, "test %d", i)
		var rerr *ReadError
		require.True(t, errors.As(err, &rerr), "test %d: %T", i, err)
		assert.Equal(t, test.recoverable, rerr.Recoverable, "test %d %q", i, test.src)
		assert.True(t, strings.Contains(err.Error(), test.msg), "test %d: %v", i, err)
		assert.Equal(t, test.recoverable, Incomplete(test.src), "test %d %q", i, test.src)
	}
}

func TestIncomplete(t *testing.T) {
	assert.False(t, Incomplete(`(+ 1 2)`))
	assert.True(t, Incomplete("(define (f x)\n  (+ x"))
	assert.False(t, Incomplete(`#`))
	assert.False(t, Incomplete("(a)) (b"))
}

func TestInteractive(t *testing.T) {
	p := NewInteractive("stdin")
	p.SetPrompts("> ", "  ")
	assert.Equal(t, "> ", p.Prompt())

	prog, err := p.Feed("(+ 1")
	require.NoError(t, err)
	assert.Nil(t, prog)
	assert.True(t, p.IsParsing())
	assert.Equal(t, "  ", p.Prompt())

	prog, err = p.Feed("   2) (f)")
	require.NoError(t, err)
	require.NotNil(t, prog)
	assert.Len(t, prog.Forms, 2)
	assert.False(t, p.IsParsing())

	_, err = p.Feed(")")
	assert.Error(t, err)
	assert.False(t, p.IsParsing())
}

func TestBalance(t *testing.T) {
	toks := []*token.Token{
		{Type: token.PAREN_L}, {Type: token.BRACKET_L}, {Type: token.BRACKET_R}, {Type: token.BRACE_L},
	}
	assert.Equal(t, 2, Balance(toks))
}
