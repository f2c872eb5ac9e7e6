// Copyright © 2018 The ELPS authors

package regexparser_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/luthersystems/dan/parser/ast"
	"github.com/luthersystems/dan/parser/rdparser"
	"github.com/luthersystems/dan/parser/regexparser"
	"github.com/luthersystems/dan/parser/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ignoreLocations = cmp.Options{
	cmp.Comparer(func(a, b *token.Location) bool { return true }),
	cmp.Comparer(func(a, b ast.Name) bool { return a == b }),
}

const program = `; squares
(begin-module "shapes"
  (class Square (Shape) (side)
    (define (area self) (* self.side self.side)))
  (provide Square))

(define xs '(1 -2.5 .5 1e3 "two\n" :three nil true false))
(define (f [a & rest] {:k v}) ` + "`(a ~a ~@rest))" + `
(for [x (range 3)] (print x)) ; trailing
`

func TestMatchesRDParser(t *testing.T) {
	sources := []string{
		program,
		`1 "a" nil true false sym :kw`,
		`()`,
		`(f (g 1) -2.5)`,
		`[a & rest]`,
		`{:a 1 "b" 2}`,
		"'x `(a ~b ~@c)",
		`(begin-module (define x 1))`,
		"; only a comment\n",
		`+ - 1a nilly &rest`,
	}
	for i, src := range sources {
		want, err := rdparser.ReadString("test", src)
		require.NoError(t, err, "source %d", i)
		got, err := regexparser.NewReader().Read("test", strings.NewReader(src))
		require.NoError(t, err, "source %d", i)
		if diff := cmp.Diff(want.Forms, got.Forms, ignoreLocations); diff != "" {
			t.Errorf("source %d: mismatch (-rdparser +parsec):\n%s", i, diff)
		}
	}
}

func TestLocations(t *testing.T) {
	forms, err := regexparser.Parse("loc.dan", "/src/loc.dan", []byte("(a\n  (b c))"))
	require.NoError(t, err)
	outer := forms[0].(*ast.List)
	inner := outer.Nodes[1].(*ast.List)
	assert.Equal(t, 1, outer.Source().Line)
	assert.Equal(t, 1, outer.Source().Col)
	assert.Equal(t, 2, inner.Source().Line)
	assert.Equal(t, 3, inner.Source().Col)
	assert.Equal(t, 6, inner.Nodes[1].Source().Col)
	assert.Equal(t, "/src/loc.dan", inner.Source().Path)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		src         string
		recoverable bool
	}{
		{`(a b`, true},
		{`[a (b c)`, true},
		{`(a))`, false},
		{`}`, false},
	}
	for i, test := range tests {
		_, err := regexparser.Parse("test", "", []byte(test.src))
		require.Error(t, err, "test %d", i)
		var rerr *rdparser.ReadError
		require.True(t, errors.As(err, &rerr), "test %d: %T", i, err)
		assert.Equal(t, test.recoverable, rerr.Recoverable, "test %d %q", i, test.src)
	}
}

func BenchmarkParser(b *testing.B) {
	src := []byte(strings.Repeat(program, 20))
	b.Run("parsec", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := regexparser.Parse("bench", "", src); err != nil {
				b.Fatal(err)
			}
		}
	})
	b.Run("rd", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := rdparser.ReadString("bench", string(src)); err != nil {
				b.Fatal(err)
			}
		}
	})
}
