// Copyright © 2024 The ELPS authors

// Package liberror provides functions to raise and inspect errors.
//
// An error propagates out of every expression that produces it.  The catch
// function stops propagation and returns the error as a value that the
// other functions in the module can inspect.
package liberror

import (
	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/lisp/lisplib/internal/libutil"
)

// DefaultModuleName is the name of the module loaded as builtin:error.
const DefaultModuleName = "error"

// Module returns the native definition of the error module.
func Module() *lisp.NativeModule {
	return libutil.NativeModule(DefaultModuleName, "Raising, catching, and inspecting errors.", builtins)
}

var builtins = []*libutil.Builtin{
	libutil.FunctionDoc("fail", lisp.Formals("message"), builtinFail,
		`Raises a runtime-error with message.`),
	libutil.FunctionDoc("error?", lisp.Formals("value"), builtinIsError,
		`Returns true when value is an error returned by catch.`),
	libutil.FunctionDoc("catch", lisp.Formals("fn"), builtinCatch,
		`Calls fn with no arguments.  If the call raises an error the
		error is returned as a value instead of propagating.`),
	libutil.FunctionDoc("error-condition", lisp.Formals("err"), builtinCondition,
		`Returns the condition name of a caught error as a string, for
		example "type-error".`),
	libutil.FunctionDoc("error-message", lisp.Formals("err"), builtinMessage,
		`Returns the message of a caught error.`),
}

// Caught returns the error held by a value returned from catch.
func Caught(v *lisp.LVal) (*lisp.ErrorVal, bool) {
	if v.Type != lisp.LNative {
		return nil, false
	}
	err, ok := v.Native.(*lisp.ErrorVal)
	return err, ok
}

func builtinFail(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	return env.ErrorCondition(lisp.CondRuntimeError, args.Cells[0])
}

func builtinIsError(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	_, ok := Caught(args.Cells[0])
	return lisp.Bool(ok)
}

func builtinCatch(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	v := env.Call(args.Cells[0])
	if v.Type != lisp.LError {
		return v
	}
	return lisp.Native((*lisp.ErrorVal)(v))
}

func caughtArg(env *lisp.LEnv, v *lisp.LVal) (*lisp.ErrorVal, *lisp.LVal) {
	err, ok := Caught(v)
	if !ok {
		return nil, env.ErrorAssociate(lisp.TypeError(v, "error"))
	}
	return err, nil
}

func builtinCondition(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	err, lerr := caughtArg(env, args.Cells[0])
	if lerr != nil {
		return lerr
	}
	return lisp.String(err.Condition())
}

func builtinMessage(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	err, lerr := caughtArg(env, args.Cells[0])
	if lerr != nil {
		return lerr
	}
	return lisp.String(err.ErrorMessage())
}
