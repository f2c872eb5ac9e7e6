// Copyright © 2024 The ELPS authors

package diagnostic

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/lisp/lisplib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRenderer returns a Renderer with colors disabled and a fake source reader.
func testRenderer(sources map[string]string) *Renderer {
	return &Renderer{
		Color: ColorNever,
		SourceReader: func(name string) ([]byte, error) {
			s, ok := sources[name]
			if !ok {
				return nil, fmt.Errorf("not found: %s", name)
			}
			return []byte(s), nil
		},
	}
}

func render(t *testing.T, r *Renderer, d Diagnostic) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, d))
	return buf.String()
}

func TestRenderError(t *testing.T) {
	r := testRenderer(map[string]string{
		"test.dan": "(set! true 42)",
	})
	got := render(t, r, Diagnostic{
		Severity: SeverityError,
		Message:  "invalid binding target: true",
		Spans: []Span{
			{File: "test.dan", Line: 1, Col: 7, EndCol: 10, Label: "not a symbol"},
		},
	})
	expect := "error: invalid binding target: true\n" +
		"  --> test.dan:1:7\n" +
		"   |\n" +
		" 1 |  (set! true 42)\n" +
		"   |        ^^^^ not a symbol\n" +
		"   |\n"
	assert.Equal(t, expect, got)
}

func TestRenderWarning(t *testing.T) {
	r := testRenderer(map[string]string{
		"test.dan": "(define x 1)\n(define x 2)",
	})
	got := render(t, r, Diagnostic{
		Severity: SeverityWarning,
		Message:  "name already defined in scope: x",
		Spans:    []Span{{File: "test.dan", Line: 2, Col: 1, EndCol: 12}},
	})
	assert.Contains(t, got, "warning: name already defined in scope: x")
	assert.Contains(t, got, "--> test.dan:2:1")
	assert.Contains(t, got, "(define x 2)")
	assert.Contains(t, got, strings.Repeat("^", 12))
}

func TestRenderNoSource(t *testing.T) {
	r := testRenderer(nil)
	got := render(t, r, Diagnostic{
		Severity: SeverityError,
		Message:  "some error",
		Spans:    []Span{{File: "stdin", Line: 5, Col: 3}},
	})
	assert.Equal(t, "error: some error\n  --> stdin:5:3\n   |\n", got)
}

func TestRenderNotes(t *testing.T) {
	r := testRenderer(map[string]string{"test.dan": "(my-fn 1 2)"})
	got := render(t, r, Diagnostic{
		Severity: SeverityError,
		Message:  "unbound-name: my-fn",
		Spans:    []Span{{File: "test.dan", Line: 1, Col: 2, EndCol: 6}},
		Notes: []string{
			"in my-fn at test.dan:1:1",
			"in main at main.dan:10:5",
		},
	})
	assert.Contains(t, got, "= note: in my-fn at test.dan:1:1\n")
	assert.Contains(t, got, "= note: in main at main.dan:10:5\n")
}

func TestRenderAutoDetectEndCol(t *testing.T) {
	tests := []struct {
		source string
		col    int
		expect string
	}{
		{"(define true 42)", 9, "        ^^^^\n"},
		{`(concat "a b" 1)`, 9, "        ^^^^^\n"},
		{"(f)", 3, "  ^\n"},
		{"(é x)", 4, "   ^\n"},
		{"\t(x)", 3, "     ^\n"},
	}
	for _, test := range tests {
		r := testRenderer(map[string]string{"test.dan": test.source})
		got := render(t, r, Diagnostic{Message: "m", Spans: []Span{{File: "test.dan", Line: 1, Col: test.col}}})
		assert.Contains(t, got, "   |  "+test.expect, "source %q", test.source)
	}
}

func TestRenderMultipleDiagnostics(t *testing.T) {
	r := testRenderer(map[string]string{
		"test.dan": "(define x 1)\n(define x 2)\n(if true)",
	})
	diags := []Diagnostic{
		{
			Severity: SeverityWarning,
			Message:  "name already defined in scope: x",
			Spans:    []Span{{File: "test.dan", Line: 2, Col: 1, EndCol: 12}},
		},
		{
			Severity: SeverityError,
			Message:  "if requires 3 forms",
			Spans:    []Span{{File: "test.dan", Line: 3, Col: 1, EndCol: 9}},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, r.RenderAll(&buf, diags))
	got := buf.String()
	assert.Contains(t, got, "   |\n\nerror: if requires 3 forms")
	assert.Contains(t, got, "warning: name already defined in scope: x")
}

func TestRenderNoSpans(t *testing.T) {
	r := testRenderer(nil)
	got := render(t, r, Diagnostic{Severity: SeverityError, Message: "library error: file not found"})
	assert.Equal(t, "error: library error: file not found\n", got)
}

func TestRenderColor(t *testing.T) {
	r := &Renderer{Color: ColorAlways}
	got := render(t, r, Diagnostic{Severity: SeverityError, Message: "boom"})
	assert.Equal(t, "\033[1;31m\033[1merror\033[0m: \033[1mboom\033[0m\n", got)

	r = &Renderer{Color: ColorAuto}
	got = render(t, r, Diagnostic{Severity: SeverityError, Message: "boom"})
	assert.Equal(t, "error: boom\n", got, "a buffer is not a terminal")
}

func TestParseColorMode(t *testing.T) {
	for _, s := range []string{"auto", "always", "never"} {
		m, err := ParseColorMode(s)
		require.NoError(t, err)
		assert.Equal(t, s, m.String())
	}
	m, err := ParseColorMode("")
	require.NoError(t, err)
	assert.Equal(t, ColorAuto, m)
	_, err = ParseColorMode("sometimes")
	assert.Error(t, err)
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}

func TestFromError(t *testing.T) {
	env, err := lisplib.NewDocEnv()
	require.NoError(t, err)

	src := "(define (f x)\n  (+ x \"a\"))\n(f 1)"
	v := env.EvalString("test.dan", src)
	require.Equal(t, lisp.LError, v.Type)
	d := FromError(lisp.GoError(v))
	assert.Equal(t, SeverityError, d.Severity)
	assert.True(t, strings.HasPrefix(d.Message, "type-error: "), d.Message)
	require.NotEmpty(t, d.Spans)
	assert.Equal(t, "test.dan", d.Spans[0].File)
	assert.Equal(t, 2, d.Spans[0].Line)
	require.NotEmpty(t, d.Notes)
	assert.True(t, strings.HasPrefix(d.Notes[0], "in number.+ at "), d.Notes[0])

	v = env.EvalString("bad.dan", "(list 1\n  (+ 2 3)")
	require.Equal(t, lisp.LError, v.Type)
	d = FromError(lisp.GoError(v))
	assert.True(t, strings.HasPrefix(d.Message, "read-error: "), d.Message)
	require.Len(t, d.Spans, 1)
	assert.Equal(t, 1, d.Spans[0].Line)

	d = FromError(errors.New("plain"))
	assert.Equal(t, Diagnostic{Severity: SeverityError, Message: "plain"}, d)
}
