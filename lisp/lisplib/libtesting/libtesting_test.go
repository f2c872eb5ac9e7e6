// Copyright © 2018 The ELPS authors

package libtesting_test

import (
	"strings"
	"testing"

	"github.com/luthersystems/dan/dantest"
	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/lisp/lisplib"
	"github.com/luthersystems/dan/lisp/lisplib/libtesting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const source = `
(open "builtin:testing")

(define (square x) (* x x))

(test "square" (lambda ()
  (assert= 9 (square 3))
  (assert (= 16 (square 4)) "square of 4")))

(test "lists" (lambda ()
  (assert= '(1 4 9) (map square '(1 2 3)))))
`

func TestRunner(t *testing.T) {
	r := &dantest.Runner{}
	names := r.LoadTests(t, "square_test.dan", strings.NewReader(source))
	assert.Equal(t, []string{"square", "lists"}, names)
	for i, name := range names {
		t.Run(name, func(t *testing.T) {
			r.RunTest(t, i, "square_test.dan", strings.NewReader(source))
		})
	}
}

func TestTeardown(t *testing.T) {
	var ran int
	r := &dantest.Runner{
		Teardown: func(env *lisp.LEnv) *lisp.LVal {
			ran++
			return lisp.Nil()
		},
	}
	r.RunTest(t, 0, "square_test.dan", strings.NewReader(source))
	assert.Equal(t, 1, ran)
}

func TestAssertions(t *testing.T) {
	tests := dantest.TestSuite{
		{"assert", dantest.TestSequence{
			{Expr: `(open "builtin:testing")`, Result: `nil`},
			{Expr: `(assert true)`, Result: `nil`},
			{Expr: `(assert 0)`, Result: `nil`},
			{Expr: `(assert false)`, Error: lisp.CondRuntimeError},
			{Expr: `(assert nil "message")`, Error: lisp.CondRuntimeError},
			{Expr: `(assert= '(1 2) (list 1 2))`, Result: `nil`},
			{Expr: `(assert= 1 2)`, Error: lisp.CondRuntimeError},
		}},
		{"test", dantest.TestSequence{
			{Expr: `(open "builtin:testing")`, Result: `nil`},
			{Expr: `(test "a" (lambda () nil))`, Result: `nil`},
			{Expr: `(test "a" (lambda () nil))`, Error: lisp.CondDuplicateBinding},
			{Expr: `(test 'b (lambda () nil))`, Error: lisp.CondTypeError},
			{Expr: `(test "c" 3)`, Error: lisp.CondTypeError},
		}},
	}
	dantest.RunTestSuite(t, tests)
}

func TestAssertEqualMessage(t *testing.T) {
	env, err := lisplib.NewDocEnv()
	require.NoError(t, err)
	v := env.EvalString("test", `(open "builtin:testing") (assert= 1 2)`)
	err = lisp.GoError(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected: 1")
	assert.Contains(t, err.Error(), "actual: 2")
}

func TestEnvTestSuite(t *testing.T) {
	env, err := lisplib.NewDocEnv()
	require.NoError(t, err)
	assert.Nil(t, libtesting.EnvTestSuite(env))
	v := env.EvalString("test", `(open "builtin:testing") (test "x" (lambda () 1))`)
	require.NoError(t, lisp.GoError(v))
	suite := libtesting.EnvTestSuite(env)
	require.NotNil(t, suite)
	assert.Equal(t, 1, suite.Len())
	assert.Equal(t, "x", suite.Test(0).Name)
	assert.Equal(t, "1", suite.Run(env, 0).String())
}

func TestSuiteAdd(t *testing.T) {
	suite := libtesting.NewTestSuite()
	require.NoError(t, suite.Add(&libtesting.Test{Name: "a"}))
	require.NoError(t, suite.Add(&libtesting.Test{Name: "b"}))
	assert.Error(t, suite.Add(&libtesting.Test{Name: "a"}))
	assert.Equal(t, []string{"a", "b"}, suite.Tests())
}
