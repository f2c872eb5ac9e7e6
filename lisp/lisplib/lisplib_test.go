// Copyright © 2018 The ELPS authors

package lisplib_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/luthersystems/dan/dantest"
	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/lisp/lisplib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase(t *testing.T) {
	tests := dantest.TestSuite{
		{"types", dantest.TestSequence{
			{Expr: `(type 1)`, Result: `"number"`},
			{Expr: `(type (lambda () 1))`, Result: `"function"`},
			{Expr: `(type (cons 1))`, Result: `"function"`},
			{Expr: `(type :k)`, Result: `"keyword"`},
			{Expr: `(function? +)`, Result: `true`},
			{Expr: `(nil? nil)`, Result: `true`},
			{Expr: `(list? '(1))`, Result: `true`},
			{Expr: `(map? {})`, Result: `true`},
			{Expr: `(keyword? 'k)`, Result: `false`},
			{Expr: `(symbol? 'k)`, Result: `true`},
		}},
		{"lists", dantest.TestSequence{
			{Expr: `(cons 1 '(2 3))`, Result: `(1 2 3)`},
			{Expr: `(fst '(1 2 3))`, Result: `1`},
			{Expr: `(snd '(1 2 3))`, Result: `2`},
			{Expr: `(last '(1 2 3))`, Result: `3`},
			{Expr: `(rest '(1 2 3))`, Result: `(2 3)`},
			{Expr: `(rest '())`, Result: `()`},
			{Expr: `(fst '())`, Error: lisp.CondOutOfRange},
			{Expr: `(length "abc")`, Result: `3`},
			{Expr: `(append '(1) 2 3)`, Result: `(1 2 3)`},
			{Expr: `(nth 1 '(a b))`, Result: `b`},
		}},
		{"maps", dantest.TestSequence{
			{Expr: `(define m {:a 1})`, Result: `nil`},
			{Expr: `(get :a m)`, Result: `1`},
			{Expr: `(get :z m)`, Error: lisp.CondOutOfRange},
			{Expr: `(has? :z m)`, Result: `false`},
			{Expr: `(set :b 2 m)`, Result: `{:a => 1, :b => 2}`},
			{Expr: `(keys m)`, Result: `(:a :b)`},
			{Expr: `(values m)`, Result: `(1 2)`},
			{Expr: `(entries m)`, Result: `((:a 1) (:b 2))`},
		}},
		{"higher order", dantest.TestSequence{
			{Expr: `(map inc '(1 2))`, Result: `(2 3)`},
			{Expr: `(filter even? (range 5))`, Result: `(0 2 4)`},
			{Expr: `(reduce + 0 '(1 2 3))`, Result: `6`},
			{Expr: `(apply + '(1 2))`, Result: `3`},
			{Expr: `(eval '(+ 1 2))`, Result: `3`},
			{Expr: `(not nil)`, Result: `true`},
		}},
		{"ranges", dantest.TestSequence{
			{Expr: `(range 1 10 3)`, Result: `Range(1, 10, 3)`},
			{Expr: `(length (range 1 10 3))`, Result: `3`},
			{Expr: `(range 1 2 0)`, Error: lisp.CondRuntimeError},
			{Expr: `(range 1 2 3 4)`, Error: lisp.CondArityError},
		}},
		{"equality", dantest.TestSequence{
			{Expr: `(equal? '(1 (2)) '(1 (2)))`, Result: `true`},
			{Expr: `(equal? (hash '(1 2)) (hash '(1 2)))`, Result: `true`},
			{Expr: `(equal? 1 "1")`, Result: `false`},
		}},
	}
	dantest.RunTestSuite(t, tests)
}

func TestNumber(t *testing.T) {
	tests := dantest.TestSuite{
		{"arithmetic", dantest.TestSequence{
			{Expr: `(+ 1 2 3)`, Result: `6`},
			{Expr: `(- 10 1 2)`, Result: `7`},
			{Expr: `(* 2 2.5)`, Result: `5`},
			{Expr: `(/ 7 2)`, Result: `3.5`},
			{Expr: `(/ 1 0)`, Error: lisp.CondRuntimeError},
			{Expr: `(% 7 3)`, Result: `1`},
			{Expr: `(+ 1)`, Error: lisp.CondArityError},
			{Expr: `(+ 1 "a")`, Error: lisp.CondTypeError},
		}},
		{"comparison", dantest.TestSequence{
			{Expr: `(< 1 2 3)`, Result: `true`},
			{Expr: `(< 1 3 2)`, Result: `false`},
			{Expr: `(= 2 2)`, Result: `true`},
			{Expr: `(>= 3 3 1)`, Result: `true`},
		}},
		{"functions", dantest.TestSequence{
			{Expr: `(max 1 5 2)`, Result: `5`},
			{Expr: `(min 4)`, Result: `4`},
			{Expr: `(abs -3)`, Result: `3`},
			{Expr: `(floor 2.7)`, Result: `2`},
			{Expr: `(ceil 2.1)`, Result: `3`},
			{Expr: `(sqrt 16)`, Result: `4`},
			{Expr: `(sqrt -1)`, Error: lisp.CondRuntimeError},
			{Expr: `(expt 2 10)`, Result: `1024`},
			{Expr: `(odd? 3)`, Result: `true`},
			{Expr: `(number "2.5")`, Result: `2.5`},
			{Expr: `(number "x")`, Error: lisp.CondRuntimeError},
		}},
	}
	dantest.RunTestSuite(t, tests)
}

func TestString(t *testing.T) {
	tests := dantest.TestSuite{
		{"strings", dantest.TestSequence{
			{Expr: `(string 12)`, Result: `"12"`},
			{Expr: `(string "s")`, Result: `"s"`},
			{Expr: `(string=? "a" "a")`, Result: `true`},
			{Expr: `(string-length "héllo")`, Result: `5`},
			{Expr: `(concat "a" "b" "c")`, Result: `"abc"`},
			{Expr: `(split "," "a,b")`, Result: `("a" "b")`},
			{Expr: `(join "-" '("a" "b"))`, Result: `"a-b"`},
			{Expr: `(upper "abc")`, Result: `"ABC"`},
			{Expr: `(lower "ABC")`, Result: `"abc"`},
			{Expr: `(trim "  x ")`, Result: `"x"`},
			{Expr: `(substring "hello" 1 3)`, Result: `"el"`},
			{Expr: `(substring "hi" 0 5)`, Error: lisp.CondOutOfRange},
			{Expr: `(contains? "ell" "hello")`, Result: `true`},
		}},
	}
	dantest.RunTestSuite(t, tests)
}

func TestLambda(t *testing.T) {
	tests := dantest.TestSuite{
		{"composition", dantest.TestSequence{
			{Expr: `(|> 3 inc even?)`, Result: `true`},
			{Expr: `((compose inc inc) 1)`, Result: `3`},
			{Expr: `((compose string inc) 1)`, Result: `"2"`},
			{Expr: `((partial + 1) 2)`, Result: `3`},
			{Expr: `((partial list 1 2) 3 4)`, Result: `(1 2 3 4)`},
			{Expr: `(identity :x)`, Result: `:x`},
		}},
	}
	dantest.RunTestSuite(t, tests)
}

func TestError(t *testing.T) {
	tests := dantest.TestSuite{
		{"catch", dantest.TestSequence{
			{Expr: `(fail "boom")`, Error: lisp.CondRuntimeError},
			{Expr: `(define e (catch (lambda () (fail "boom"))))`, Result: `nil`},
			{Expr: `(error? e)`, Result: `true`},
			{Expr: `(error-message e)`, Result: `"boom"`},
			{Expr: `(error-condition e)`, Result: `"runtime-error"`},
			{Expr: `(error-condition (catch (lambda () (+ 1 "a"))))`, Result: `"type-error"`},
			{Expr: `(catch (lambda () 5))`, Result: `5`},
			{Expr: `(error? 5)`, Result: `false`},
			{Expr: `(error-message 5)`, Error: lisp.CondTypeError},
		}},
	}
	dantest.RunTestSuite(t, tests)
}

func TestIO(t *testing.T) {
	tests := dantest.TestSuite{
		{"print", dantest.TestSequence{
			{Expr: `(println "a" 1 '("b"))`, Result: `nil`, Output: "a 1 (\"b\")\n"},
			{Expr: `(print "x")`, Result: `nil`, Output: "x"},
		}},
	}
	dantest.RunTestSuite(t, tests)
}

func TestReadline(t *testing.T) {
	var out bytes.Buffer
	env, err := lisplib.NewEnv(
		lisp.WithStdin(strings.NewReader("first\nsecond")),
		lisp.WithStdout(&out),
	)
	require.NoError(t, err)
	v := env.EvalString("test", `(list (input "? ") (readline) (readline))`)
	require.NoError(t, lisp.GoError(v))
	assert.Equal(t, `("first" "second" nil)`, v.String())
	assert.Equal(t, "? ", out.String())
}

func TestNatives(t *testing.T) {
	natives := lisplib.Natives()
	names := make(map[string]bool)
	for _, m := range natives {
		assert.False(t, names[m.Name], "duplicate module %s", m.Name)
		names[m.Name] = true
		assert.NotEmpty(t, m.Doc, "module %s", m.Name)
	}
	assert.True(t, names["global"])
}

func TestDocEnv(t *testing.T) {
	env, err := lisplib.NewDocEnv()
	require.NoError(t, err)
	v := env.EvalString("test", `(open "builtin:help") (println "hidden") (help +) (doc concat)`)
	require.NoError(t, lisp.GoError(v))
	assert.Equal(t, `"Returns the concatenation of its string arguments."`, v.String())
}
