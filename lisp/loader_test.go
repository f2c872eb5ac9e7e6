// Copyright © 2024 The ELPS authors

package lisp_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/lisp/lisplib"
	"github.com/luthersystems/dan/parser/rdparser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoaderEnv(t *testing.T, fsys fstest.MapFS) (*lisp.LEnv, *bytes.Buffer) {
	var out bytes.Buffer
	env, err := lisplib.NewEnv(
		lisp.WithResolver(&lisp.FSResolver{FS: fsys}),
		lisp.WithStdout(&out),
	)
	require.NoError(t, err)
	return env, &out
}

func TestLoaderOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"a.dan": {Data: []byte(`
			(open "b")
			(open "c")
			(println "load a")
			(define a (+ b c))
			(provide a)`)},
		"b.dan": {Data: []byte(`
			(open "c")
			(println "load b")
			(define b (* c 2))
			(provide b)`)},
		"c.dan": {Data: []byte(`
			(println "load c")
			(define c 1)
			(provide c)`)},
	}
	env, out := newLoaderEnv(t, fsys)

	mods, lerr := env.Runtime.Loader.Load(env, "a")
	require.Nil(t, lerr)
	assert.Len(t, mods, 3)
	assert.Equal(t, "load c\nload b\nload a\n", out.String())
	mod, ok := env.Runtime.Loader.Cached("b.dan")
	require.True(t, ok)
	assert.Equal(t, []string{"b"}, mod.Exports())

	out.Reset()
	v := env.EvalString("main", `(import "a") a.a`)
	require.NoError(t, lisp.GoError(v))
	assert.Equal(t, "3", v.String())
	v = env.EvalString("main", `(open "a") (open "c") (list a c)`)
	require.NoError(t, lisp.GoError(v))
	assert.Equal(t, "(3 1)", v.String())
	assert.Empty(t, out.String(), "cached modules were evaluated again")
}

func TestLoaderCycle(t *testing.T) {
	fsys := fstest.MapFS{
		"a.dan": {Data: []byte(`(open "b") (println "load a")`)},
		"b.dan": {Data: []byte(`(open "a") (println "load b")`)},
	}
	env, out := newLoaderEnv(t, fsys)
	v := env.EvalString("main", `(open "a")`)
	require.Equal(t, lisp.LError, v.Type)
	assert.Equal(t, lisp.CondCircularDependency, lisp.Condition(v))
	assert.Contains(t, v.String(), "a -> b -> a")
	assert.Empty(t, out.String())
	_, ok := env.Runtime.Loader.Cached("a.dan")
	assert.False(t, ok)
}

func TestLoaderSelfCycle(t *testing.T) {
	env, _ := newLoaderEnv(t, fstest.MapFS{
		"a.dan": {Data: []byte(`(open "a")`)},
	})
	v := env.EvalString("main", `(open "a")`)
	assert.Equal(t, lisp.CondCircularDependency, lisp.Condition(v))
	assert.Contains(t, v.String(), "a -> a")
}

func TestLoaderChain(t *testing.T) {
	const n = 200
	fsys := fstest.MapFS{}
	for i := 0; i < n-1; i++ {
		fsys[fmt.Sprintf("m%d.dan", i)] = &fstest.MapFile{Data: []byte(fmt.Sprintf(
			`(open "m%d") (define v%d (+ v%d 1)) (provide v%d)`, i+1, i, i+1, i))}
	}
	fsys[fmt.Sprintf("m%d.dan", n-1)] = &fstest.MapFile{Data: []byte(fmt.Sprintf(
		`(define v%d 0) (provide v%d)`, n-1, n-1))}
	env, _ := newLoaderEnv(t, fsys)

	mods, lerr := env.Runtime.Loader.Load(env, "m0")
	require.Nil(t, lerr)
	assert.Len(t, mods, n)
	v := env.EvalString("main", `(import "m0") m0.v0`)
	require.NoError(t, lisp.GoError(v))
	assert.Equal(t, fmt.Sprint(n-1), v.String())
}

func TestLoaderUnresolved(t *testing.T) {
	env, _ := newLoaderEnv(t, fstest.MapFS{
		"a.dan": {Data: []byte(`(open "missing")`)},
	})
	v := env.EvalString("main", `(open "a")`)
	assert.Equal(t, lisp.CondUnresolvedModule, lisp.Condition(v))

	v = env.EvalString("main", `(open "builtin:nonexistent")`)
	assert.Equal(t, lisp.CondUnresolvedModule, lisp.Condition(v))
}

func TestLoaderNatives(t *testing.T) {
	env, _ := newLoaderEnv(t, fstest.MapFS{})
	natives := env.Runtime.Loader.Natives()
	var names []string
	for _, m := range natives {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{
		"base", "base64", "error", "global", "help", "io", "json", "lambda",
		"math", "number", "regexp", "string", "testing", "time",
	}, names)

	v := env.EvalString("main", `(import "builtin:string" :as s) (s.upper "abc")`)
	require.NoError(t, lisp.GoError(v))
	assert.Equal(t, `"ABC"`, v.String())
}

func TestRequires(t *testing.T) {
	prog, err := rdparser.ReadString("test", strings.Join([]string{
		`(open "x")`,
		`(import "y" :as why)`,
		`(open "x")`,
		`(begin-module "local" (open "z") (provide))`,
		`(import "local")`,
	}, "\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, lisp.Requires(prog))
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	env, err := lisplib.NewEnv(lisp.WithResolver(&lisp.DirResolver{RootDir: dir, Paths: []string{dir}}))
	require.NoError(t, err)
	v := env.EvalString("main", `(open "../escape")`)
	assert.Equal(t, lisp.CondUnresolvedModule, lisp.Condition(v))
}
