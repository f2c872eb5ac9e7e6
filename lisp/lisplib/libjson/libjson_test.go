// Copyright © 2018 The ELPS authors

package libjson_test

import (
	"testing"

	"github.com/luthersystems/dan/dantest"
	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/lisp/lisplib/libjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	tests := dantest.TestSuite{
		{"dump", dantest.TestSequence{
			{Expr: `(import "builtin:json" :as json)`, Result: `nil`},
			{Expr: `(json.dump-string nil)`, Result: `"null"`},
			{Expr: `(json.dump-string 1.5)`, Result: `"1.5"`},
			{Expr: `(json.dump-string :key)`, Result: `"\"key\""`},
			{Expr: `(json.dump-string {:a 1 "b" (list true nil "x")})`, Result: `"{\"a\":1,\"b\":[true,null,\"x\"]}"`},
			{Expr: `(json.dump-pretty (list 1 2))`, Result: `"[\n  1,\n  2\n]"`},
			{Expr: `(json.dump-string (lambda () 1))`, Error: lisp.CondTypeError},
			{Expr: `(json.dump-string {1 2})`, Error: lisp.CondTypeError},
		}},
		{"load", dantest.TestSequence{
			{Expr: `(import "builtin:json" :as json)`, Result: `nil`},
			{Expr: `(json.load-string "{\"z\": 1, \"a\": [1.5, null, false]}")`, Result: `{"z" => 1, "a" => (1.5 nil false)}`},
			{Expr: `(json.load-string "\"s\"")`, Result: `"s"`},
			{Expr: `(json.load-string "[]")`, Result: `()`},
			{Expr: `(json.load-string "[1,")`, Error: lisp.CondRuntimeError},
			{Expr: `(json.load-string "1 2")`, Error: lisp.CondRuntimeError},
			{Expr: `(json.valid? "{}")`, Result: `true`},
			{Expr: `(json.valid? "{")`, Result: `false`},
		}},
		{"non-finite", dantest.TestSequence{
			{Expr: `(import "builtin:json" :as json)`, Result: `nil`},
			{Expr: `(import "builtin:math" :as m)`, Result: `nil`},
			{Expr: `(json.dump-string m.inf)`, Error: lisp.CondRuntimeError},
		}},
	}
	dantest.RunTestSuite(t, tests)
}

func TestLoadPreservesKeyOrder(t *testing.T) {
	v, err := libjson.Load([]byte(`{"c": 1, "a": {"y": 2, "x": 3}, "b": 4}`))
	require.NoError(t, err)
	require.Equal(t, lisp.LMap, v.Type)
	var keys []string
	for _, k := range v.Map.Keys() {
		keys = append(keys, k.Str)
	}
	assert.Equal(t, []string{"c", "a", "b"}, keys)

	b, err := libjson.Dump(v)
	require.NoError(t, err)
	assert.Equal(t, `{"c":1,"a":{"y":2,"x":3},"b":4}`, string(b))
}
