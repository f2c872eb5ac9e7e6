// Copyright © 2024 The ELPS authors

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luthersystems/dan/lisp"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs cmd with args and returns its stdout and stderr.
func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeFiles creates files below a temporary directory and returns it.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, text := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(text), 0o600))
	}
	return dir
}

// greetModule is a native module exercising WithNatives.
func greetModule() *lisp.NativeModule {
	return &lisp.NativeModule{
		Name: "greet",
		Doc:  "Greetings from Go.",
		Factory: func(env *lisp.LEnv, deps ...*lisp.Module) (*lisp.Module, *lisp.LVal) {
			mod := lisp.NewModule("greet")
			mod.Doc = "Greetings from Go."
			mod.Provide("hello", lisp.Function("greet", "hello", lisp.Formals("name"),
				func(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
					return lisp.String("hello " + args.Cells[0].Str)
				}, "Returns a greeting for name."))
			return mod, nil
		},
	}
}

func TestRunExpressions(t *testing.T) {
	stdout, stderr, err := execute(t, RunCommand(), "",
		"-p", "-e", "(define (sq x) (* x x))", "(sq 7)")
	require.NoError(t, err, stderr)
	assert.Equal(t, "nil\n49\n", stdout)
}

func TestRunFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.dan": "(define greeting \"hi\")",
		"b.dan": "(println greeting)",
	})
	stdout, stderr, err := execute(t, RunCommand(), "",
		filepath.Join(dir, "a.dan"), filepath.Join(dir, "b.dan"))
	require.NoError(t, err, stderr)
	assert.Equal(t, "hi\n", stdout)
}

func TestRunError(t *testing.T) {
	stdout, stderr, err := execute(t, RunCommand(), "",
		"-e", "(println 1)\n(no-such-function 2)")
	assert.ErrorIs(t, err, errReported)
	assert.Equal(t, "1\n", stdout)
	assert.Contains(t, stderr, "no-such-function")
	assert.Contains(t, stderr, "<expr 1>")
	assert.NotContains(t, stdout+stderr, "Usage:")
}

func TestRunMissingFile(t *testing.T) {
	_, _, err := execute(t, RunCommand(), "", filepath.Join(t.TempDir(), "missing.dan"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, errReported)
}

func TestRunWithNatives(t *testing.T) {
	stdout, stderr, err := execute(t, RunCommand(WithNatives(greetModule())), "",
		"-p", "-e", `(import "builtin:greet" :as g)`, `(g.hello "dan")`)
	require.NoError(t, err, stderr)
	assert.Equal(t, "nil\n\"hello dan\"\n", stdout)
}

func TestRunCallgrind(t *testing.T) {
	out := filepath.Join(t.TempDir(), "run.callgrind")
	_, stderr, err := execute(t, RunCommand(), "",
		"--callgrind", out, "-e", "(define (f x) (+ x 1))", "(f 1)")
	require.NoError(t, err, stderr)
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), "events:")
}

func TestCheckClean(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.dan":       `(import "shapes" :as s)`,
		"lib/shapes.dan": "(begin-module \"shapes\"\n  (define (area r) (* r r))\n  (provide area))",
	})
	stdout, stderr, err := execute(t, CheckCommand(), "", dir+"/...")
	require.NoError(t, err, stderr)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)
}

func TestCheckErrors(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"bad.dan":    `(open "a" "b")`,
		"broken.dan": "(define x",
	})
	_, stderr, err := execute(t, CheckCommand(), "", dir+"/...")
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, stderr, "open requires 1 argument, got 2")
	assert.Contains(t, stderr, "broken.dan")
}

func TestCheckWarningsPass(t *testing.T) {
	_, stderr, err := execute(t, CheckCommand(), "(begin-module \"m\" (define a 1) (provide a a))")
	require.NoError(t, err)
	assert.Contains(t, stderr, "a is already provided")
}

func TestCheckJSON(t *testing.T) {
	stdout, _, err := execute(t, CheckCommand(), "(define x #)", "--json")
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, stdout, `"analyzer": "lex-error"`)
	assert.Contains(t, stdout, `"file": "<stdin>"`)
}

func TestCheckSelected(t *testing.T) {
	_, _, err := execute(t, CheckCommand(), `(open 1 2)`, "--checks=module-form")
	require.NoError(t, err)

	_, _, err = execute(t, CheckCommand(), "", "--checks=nope")
	assert.EqualError(t, err, "unknown check: nope")
}

func TestCheckList(t *testing.T) {
	stdout, _, err := execute(t, CheckCommand(), "", "--list")
	require.NoError(t, err)
	for _, name := range []string{"module-form", "module-toplevel", "provide"} {
		assert.Contains(t, stdout, name)
	}
}

func TestCheckExclude(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"ok.dan":            "(define x 1)",
		"vendor/broken.dan": "(define x",
	})
	_, stderr, err := execute(t, CheckCommand(), "", "--exclude=vendor", dir+"/...")
	require.NoError(t, err, stderr)
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		flags []string
	}{
		{RunCommand(), []string{"expression", "print", "callgrind", "cpuprofile"}},
		{ReplCommand(), []string{"no-history"}},
		{CheckCommand(), []string{"json", "checks", "list", "exclude"}},
		{DocCommand(), []string{"module", "source-file", "forms"}},
		{LSPCommand(), []string{"stdio", "port", "verbose", "log"}},
	}
	for _, test := range tests {
		for _, name := range test.flags {
			assert.NotNil(t, test.cmd.Flags().Lookup(name), "%s: missing flag %s", test.cmd.Name(), name)
		}
	}
}

func TestRootCommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, name := range []string{"run", "repl", "check", "doc", "lsp"} {
		assert.Contains(t, names, name)
	}
}
