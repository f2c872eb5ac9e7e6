// Copyright © 2024 The ELPS authors

package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocCommand_DefaultFlags(t *testing.T) {
	cmd := DocCommand()
	assert.Equal(t, "doc [flags] [NAME]", cmd.Use)
	assert.Equal(t, "m", cmd.Flags().Lookup("module").Shorthand)
	assert.Equal(t, "f", cmd.Flags().Lookup("source-file").Shorthand)
}

func TestDocListsNatives(t *testing.T) {
	stdout, _, err := execute(t, DocCommand(WithNatives(greetModule())), "")
	require.NoError(t, err)
	for _, name := range []string{"string", "lambda", "testing", "greet"} {
		assert.Contains(t, stdout, name)
	}
	assert.Contains(t, stdout, "Greetings from Go.")
}

func TestDocSpecialForm(t *testing.T) {
	stdout, _, err := execute(t, DocCommand(), "", "define")
	require.NoError(t, err)
	assert.Contains(t, stdout, "special form (define name expr)")
}

func TestDocForms(t *testing.T) {
	stdout, _, err := execute(t, DocCommand(), "", "--forms")
	require.NoError(t, err)
	for _, usage := range []string{"(provide name...)", "(import \"module\""} {
		assert.Contains(t, stdout, usage)
	}
}

func TestDocGlobalFunction(t *testing.T) {
	stdout, _, err := execute(t, DocCommand(), "", "println")
	require.NoError(t, err)
	assert.Contains(t, stdout, "function (println")
	assert.Contains(t, stdout, "newline")
}

func TestDocModule(t *testing.T) {
	stdout, _, err := execute(t, DocCommand(), "", "-m", "string")
	require.NoError(t, err)
	assert.Contains(t, stdout, "module string")
	assert.Contains(t, stdout, "upper")

	stdout, _, err = execute(t, DocCommand(), "", "-m", "string", "upper")
	require.NoError(t, err)
	assert.Contains(t, stdout, "function (upper str)")

	dotted, _, err := execute(t, DocCommand(), "", "string.upper")
	require.NoError(t, err)
	assert.Equal(t, stdout, dotted)
}

func TestDocNativeExtension(t *testing.T) {
	stdout, _, err := execute(t, DocCommand(WithNatives(greetModule())), "", "greet.hello")
	require.NoError(t, err)
	assert.Contains(t, stdout, "function (hello name)")
	assert.Contains(t, stdout, "Returns a greeting for name.")
}

func TestDocSourceFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"shapes.dan": "(define (area r)\n  \"Returns the area of a square of side r.\"\n  (* r r))",
	})
	stdout, _, err := execute(t, DocCommand(), "", "-f", filepath.Join(dir, "shapes.dan"), "area")
	require.NoError(t, err)
	assert.Contains(t, stdout, "function (area r)")
	assert.Contains(t, stdout, "Returns the area")
}

func TestDocErrors(t *testing.T) {
	_, _, err := execute(t, DocCommand(), "", "-m", "no-such-module")
	assert.EqualError(t, err, "unknown module: no-such-module")

	_, _, err = execute(t, DocCommand(), "", "-m", "string", "nope")
	assert.EqualError(t, err, "module string does not export nope")

	_, _, err = execute(t, DocCommand(), "", "no-such-name")
	assert.Error(t, err)
}

func TestDocLibraryModule(t *testing.T) {
	stdout, _, err := execute(t, DocCommand(), "", "-m", "math")
	require.NoError(t, err)
	assert.Contains(t, stdout, "module math")
	assert.Contains(t, stdout, "number pi 3.14159")
	assert.Contains(t, stdout, "function (hypot x y)")
}
