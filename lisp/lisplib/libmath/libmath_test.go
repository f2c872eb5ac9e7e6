// Copyright © 2018 The ELPS authors

package libmath_test

import (
	"testing"

	"github.com/luthersystems/dan/dantest"
	"github.com/luthersystems/dan/lisp"
)

func TestMath(t *testing.T) {
	tests := dantest.TestSuite{
		{"constants", dantest.TestSequence{
			{Expr: `(import "builtin:math" :as m)`, Result: `nil`},
			{Expr: `(> m.pi 3.14)`, Result: `true`},
			{Expr: `(m.inf? m.inf)`, Result: `true`},
			{Expr: `(m.inf? 1000)`, Result: `false`},
			{Expr: `(m.nan? 1)`, Result: `false`},
		}},
		{"functions", dantest.TestSequence{
			{Expr: `(import "builtin:math" :as m)`, Result: `nil`},
			{Expr: `(m.hypot 3 4)`, Result: `5`},
			{Expr: `(m.round 2.5)`, Result: `3`},
			{Expr: `(m.round -2.5)`, Result: `-3`},
			{Expr: `(m.trunc -2.7)`, Result: `-2`},
			{Expr: `(m.exp 0)`, Result: `1`},
			{Expr: `(m.ln 1)`, Result: `0`},
			{Expr: `(m.log 2 1024)`, Result: `10`},
			{Expr: `(m.sin 0)`, Result: `0`},
			{Expr: `(m.cos 0)`, Result: `1`},
			{Expr: `(m.atan2 0 1)`, Result: `0`},
			{Expr: `(m.nan? (m.asin 2))`, Result: `true`},
			{Expr: `(m.hypot "3" 4)`, Error: lisp.CondTypeError},
			{Expr: `(m.sin)`, Error: lisp.CondArityError},
		}},
	}
	dantest.RunTestSuite(t, tests)
}
