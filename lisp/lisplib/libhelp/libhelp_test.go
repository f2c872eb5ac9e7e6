// Copyright © 2021 The ELPS authors

package libhelp

import (
	"bytes"
	"strings"
	"testing"

	"github.com/luthersystems/dan/lisp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal { return lisp.Nil() }

func TestCleanDoc(t *testing.T) {
	doc := `
		First line of the
		docstring.
		`
	assert.Equal(t, "  First line of the\n  docstring.", CleanDoc(doc))
	assert.Equal(t, "", CleanDoc(""))
	assert.Equal(t, "  one line", CleanDoc("one line"))
}

func TestRenderValue(t *testing.T) {
	fn := lisp.Function("math", "add", lisp.Formals("a", "b", lisp.VarArgSymbol, "more"), noop, "Adds numbers.")
	var buf bytes.Buffer
	require.NoError(t, RenderValue(&buf, "", fn))
	assert.Equal(t, "function (math.add a b & more)\n  Adds numbers.\n", buf.String())

	buf.Reset()
	require.NoError(t, RenderValue(&buf, "plus", fn))
	assert.True(t, strings.HasPrefix(buf.String(), "function (plus a b & more)\n"))

	buf.Reset()
	require.NoError(t, RenderValue(&buf, "x", lisp.Int(3)))
	assert.Equal(t, "number x 3\n", buf.String())

	buf.Reset()
	require.NoError(t, RenderValue(&buf, "", lisp.String("s")))
	assert.Equal(t, "string \"s\"\n", buf.String())
}

func TestRenderModule(t *testing.T) {
	mod := lisp.NewModule("shapes")
	mod.Doc = "Geometry helpers."
	mod.Provide("area", lisp.Function("shapes", "area", lisp.Formals("w", "h"), noop, ""))
	mod.Provide("unit", lisp.Int(1))
	var buf bytes.Buffer
	require.NoError(t, RenderModule(&buf, mod))
	expect := "module shapes\n" +
		"  Geometry helpers.\n" +
		"\n" +
		"function (area w h)\n" +
		"\n" +
		"number unit 1\n"
	assert.Equal(t, expect, buf.String())
}

func TestRenderNatives(t *testing.T) {
	natives := []*lisp.NativeModule{
		{Name: "help", Doc: "Interactive documentation.\nMore text."},
		{Name: "bare"},
	}
	var buf bytes.Buffer
	require.NoError(t, RenderNatives(&buf, natives))
	expect := "  help" + strings.Repeat(" ", 10) + "Interactive documentation.\n" +
		"  bare" + strings.Repeat(" ", 8) + "\n"
	assert.Equal(t, expect, buf.String())
}

func TestRenderSpecialForms(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderSpecialForms(&buf))
	assert.Contains(t, buf.String(), "special form (define")
	assert.Contains(t, buf.String(), "special form (lambda")
}

func TestDocstring(t *testing.T) {
	fn := lisp.Function("m", "f", lisp.Formals("x"), noop, "doc for f")
	assert.Equal(t, "doc for f", Docstring(fn))
	assert.Equal(t, "", Docstring(lisp.Int(1)))
	mod := lisp.NewModule("m")
	mod.Doc = "module doc"
	assert.Equal(t, "module doc", Docstring(mod.Value()))
}
