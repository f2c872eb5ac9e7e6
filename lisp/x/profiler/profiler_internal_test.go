// Copyright © 2018 The ELPS authors

package profiler

import (
	"context"
	"testing"

	"github.com/luthersystems/dan/lisp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal { return lisp.Nil() }

func TestCleanLabel(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		expected string
	}{
		{"empty", "", ""},
		{"normal", "@trace{ Add-It }", "Add-It"},
		{"set", "@trace{ user-add! }", "user-add!"},
		{"predicate", "@trace { user-exists? }", "user-exists?"},
		{"spaces", "@trace{Add  It}", "Add_It"},
		{"surrounding doc", "Adds things.\n@trace{add}\nMore.", "add"},
		{"no label", "@trace", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, cleanLabel(tc.label), "cleanLabel(%s)", tc.label)
		})
	}
}

func TestSkipFilters(t *testing.T) {
	traced := lisp.Function("m", "traced", lisp.Formals("x"), noop, "Does work. @trace")
	plain := lisp.Function("m", "plain", lisp.Formals("x"), noop, "Does work.")
	assert.False(t, defaultSkipFilter(traced))
	assert.True(t, defaultSkipFilter(lisp.Int(1)))
	assert.False(t, docSkipFilter(traced))
	assert.True(t, docSkipFilter(plain))
}

func TestPrettyFunName(t *testing.T) {
	fn := lisp.Function("m", "f", lisp.Formals("x"), noop, "@trace{ Eff }")
	p := &profiler{}
	label, name := p.prettyFunName(fn)
	assert.Equal(t, "m.f", label)
	assert.Equal(t, "m.f", name)

	p.applyConfigs(WithDocLabeler())
	label, name = p.prettyFunName(fn)
	assert.Equal(t, "Eff", label)
	assert.Equal(t, "m.f", name)

	label, name = p.prettyFunName(lisp.Int(1))
	assert.Equal(t, "", label)
	assert.Equal(t, "", name)
}

func TestPprofLabels(t *testing.T) {
	rt := lisp.StandardRuntime()
	p := NewPprofAnnotator(rt, context.Background()).(*pprofAnnotator)
	require.NoError(t, p.Enable())
	fn := lisp.Function("m", "f", lisp.Formals("x"), noop, "")
	end := p.Start(fn)
	assert.Equal(t, map[string]string{"function": "m.f"}, p.labels())
	inner := p.Start(lisp.Function("m", "g", lisp.Formals("x"), noop, ""))
	assert.Equal(t, "m.g", p.labels()["function"])
	inner()
	assert.Equal(t, "m.f", p.labels()["function"])
	end()
	assert.Empty(t, p.labels())
	require.NoError(t, p.Complete())
}
