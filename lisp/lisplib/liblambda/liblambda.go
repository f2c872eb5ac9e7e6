// Copyright © 2024 The ELPS authors

// Package liblambda provides function combinators.
package liblambda

import (
	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/lisp/lisplib/internal/libutil"
)

// DefaultModuleName is the name of the module loaded as builtin:lambda.
const DefaultModuleName = "lambda"

// Module returns the native definition of the lambda module.
func Module() *lisp.NativeModule {
	return libutil.NativeModule(DefaultModuleName, "Function composition and application helpers.", builtins)
}

var builtins = []*libutil.Builtin{
	libutil.FunctionDoc("|>", lisp.Formals("value", lisp.VarArgSymbol, "fns"), builtinPipe,
		`Passes value through each function in fns from left to right and
		returns the final result.

		(|> 3 inc even?) ; => true`),
	libutil.FunctionDoc("compose", lisp.Formals("fn", lisp.VarArgSymbol, "fns"), builtinCompose,
		`Returns a function which applies its arguments to the last function
		given and passes each result to the function before it.`),
	libutil.FunctionDoc("identity", lisp.Formals("value"), builtinIdentity,
		`Returns value.`),
	libutil.FunctionDoc("partial", lisp.Formals("fn", lisp.VarArgSymbol, "args"), builtinPartial,
		`Returns a function which calls fn with args followed by its own
		arguments.  Unlike automatic currying this works for any callable
		value.`),
}

func builtinPipe(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	v := args.Cells[0]
	for _, fn := range args.Cells[1:] {
		v = env.Call(fn, v)
		if v.Type == lisp.LError {
			return v
		}
	}
	return v
}

func builtinCompose(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	fns := make([]*lisp.LVal, len(args.Cells))
	copy(fns, args.Cells)
	composed := func(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
		v := env.Call(fns[len(fns)-1], args.Cells...)
		for i := len(fns) - 2; i >= 0 && v.Type != lisp.LError; i-- {
			v = env.Call(fns[i], v)
		}
		return v
	}
	return lisp.Function(DefaultModuleName, "compose", lisp.Formals(lisp.VarArgSymbol, "args"), composed, "")
}

func builtinIdentity(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	return args.Cells[0]
}

func builtinPartial(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	fn := args.Cells[0]
	bound := make([]*lisp.LVal, len(args.Cells)-1)
	copy(bound, args.Cells[1:])
	partial := func(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
		all := make([]*lisp.LVal, 0, len(bound)+len(args.Cells))
		all = append(all, bound...)
		all = append(all, args.Cells...)
		return env.Call(fn, all...)
	}
	return lisp.Function(DefaultModuleName, "partial", lisp.Formals(lisp.VarArgSymbol, "args"), partial, "")
}
