// Copyright © 2018 The ELPS authors

// Package libmath provides the transcendental functions and floating point
// constants missing from the number module.
package libmath

import (
	"math"

	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/lisp/lisplib/internal/libutil"
)

// DefaultModuleName is the name of the module loaded as builtin:math.
const DefaultModuleName = "math"

const moduleDoc = `Trigonometric, exponential and logarithmic functions.  The module
also exports the constants pi, e and inf.`

// Module returns the native definition of the math module.
func Module() *lisp.NativeModule {
	return &lisp.NativeModule{
		Name: DefaultModuleName,
		Doc:  moduleDoc,
		Factory: func(env *lisp.LEnv, deps ...*lisp.Module) (*lisp.Module, *lisp.LVal) {
			mod := lisp.NewModule(DefaultModuleName)
			mod.Doc = moduleDoc
			mod.Provide("pi", lisp.Number(math.Pi))
			mod.Provide("e", lisp.Number(math.E))
			mod.Provide("inf", lisp.Number(math.Inf(1)))
			for _, fn := range builtins {
				mod.Provide(fn.Name(), fn.Value(DefaultModuleName))
			}
			return mod, nil
		},
	}
}

var builtins = []*libutil.Builtin{
	libutil.FunctionDoc("nan?", lisp.Formals("x"), builtinIsNaN,
		`Returns true if x is the IEEE 754 not-a-number value.`),
	libutil.FunctionDoc("inf?", lisp.Formals("x"), builtinIsInf,
		`Returns true if x is positive or negative infinity.`),
	libutil.FunctionDoc("round", lisp.Formals("x"), realFunc(math.Round).builtin,
		`Returns the nearest integer to x, rounding half away from zero.`),
	libutil.FunctionDoc("trunc", lisp.Formals("x"), realFunc(math.Trunc).builtin,
		`Returns the integer part of x.`),
	libutil.FunctionDoc("exp", lisp.Formals("x"), realFunc(math.Exp).builtin,
		`Returns e raised to the power x.`),
	libutil.FunctionDoc("ln", lisp.Formals("x"), realFunc(math.Log).builtin,
		`Returns the natural logarithm of x.`),
	libutil.FunctionDoc("log", lisp.Formals("base", "x"), builtinLog,
		`Returns the logarithm of x in base.`),
	libutil.Function("sin", lisp.Formals("radians"), realFunc(math.Sin).builtin),
	libutil.Function("cos", lisp.Formals("radians"), realFunc(math.Cos).builtin),
	libutil.Function("tan", lisp.Formals("radians"), realFunc(math.Tan).builtin),
	libutil.Function("sinh", lisp.Formals("x"), realFunc(math.Sinh).builtin),
	libutil.Function("cosh", lisp.Formals("x"), realFunc(math.Cosh).builtin),
	libutil.Function("tanh", lisp.Formals("x"), realFunc(math.Tanh).builtin),
	libutil.FunctionDoc("asin", lisp.Formals("x"), realFunc(math.Asin).builtin,
		`Returns the arcsine of x in radians.  x must be in [-1, 1].`),
	libutil.FunctionDoc("acos", lisp.Formals("x"), realFunc(math.Acos).builtin,
		`Returns the arccosine of x in radians.  x must be in [-1, 1].`),
	libutil.FunctionDoc("atan", lisp.Formals("x"), realFunc(math.Atan).builtin,
		`Returns the arctangent of x in radians.`),
	libutil.FunctionDoc("atan2", lisp.Formals("y", "x"), builtinAtan2,
		`Returns the angle of the point (x, y) from the positive x axis, in
		the quadrant given by the signs of both arguments.`),
	libutil.FunctionDoc("hypot", lisp.Formals("x", "y"), builtinHypot,
		`Returns the length of the hypotenuse of a right triangle with
		sides x and y.`),
}

func builtinIsNaN(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	x, lerr := libutil.NumberArg(env, args.Cells[0])
	if lerr != nil {
		return lerr
	}
	return lisp.Bool(math.IsNaN(x))
}

func builtinIsInf(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	x, lerr := libutil.NumberArg(env, args.Cells[0])
	if lerr != nil {
		return lerr
	}
	return lisp.Bool(math.IsInf(x, 0))
}

func builtinLog(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	return binary(env, args, func(b, x float64) float64 {
		return math.Log(x) / math.Log(b)
	})
}

func builtinAtan2(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	return binary(env, args, math.Atan2)
}

func builtinHypot(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	return binary(env, args, math.Hypot)
}

func binary(env *lisp.LEnv, args *lisp.LVal, fn func(float64, float64) float64) *lisp.LVal {
	a, lerr := libutil.NumberArg(env, args.Cells[0])
	if lerr != nil {
		return lerr
	}
	b, lerr := libutil.NumberArg(env, args.Cells[1])
	if lerr != nil {
		return lerr
	}
	return lisp.Number(fn(a, b))
}

// realFunc is a function of the real number line (potentially with special
// cases for NaN and -Inf/+Inf)
type realFunc func(float64) float64

func (fn realFunc) builtin(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	x, lerr := libutil.NumberArg(env, args.Cells[0])
	if lerr != nil {
		return lerr
	}
	return lisp.Number(fn(x))
}
