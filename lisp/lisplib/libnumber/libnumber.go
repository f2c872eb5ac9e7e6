// Copyright © 2018 The ELPS authors

// Package libnumber provides arithmetic and numeric comparison.
package libnumber

import (
	"math"
	"strconv"
	"strings"

	"github.com/luthersystems/dan/lisp"
	"github.com/luthersystems/dan/lisp/lisplib/internal/libutil"
)

// DefaultModuleName is the name of the module loaded as builtin:number.
const DefaultModuleName = "number"

// Module returns the native definition of the number module.
func Module() *lisp.NativeModule {
	return libutil.NativeModule(DefaultModuleName,
		"Arithmetic, comparison, and rounding of numbers.", builtins)
}

var builtins = []*libutil.Builtin{
	libutil.FunctionDoc("number", lisp.Formals("value"), builtinNumber,
		`Converts a string to a number.  Numbers are returned unchanged.`),
	libutil.FunctionDoc("+", lisp.Formals("a", "b", lisp.VarArgSymbol, "more"), builtinAdd,
		`Returns the sum of its arguments.`),
	libutil.FunctionDoc("-", lisp.Formals("a", "b", lisp.VarArgSymbol, "more"), builtinSub,
		`Subtracts each later argument from a.`),
	libutil.FunctionDoc("*", lisp.Formals("a", "b", lisp.VarArgSymbol, "more"), builtinMul,
		`Returns the product of its arguments.`),
	libutil.FunctionDoc("/", lisp.Formals("a", "b", lisp.VarArgSymbol, "more"), builtinDiv,
		`Divides a by each later argument.  Division by zero is a
		runtime-error.`),
	libutil.FunctionDoc("%", lisp.Formals("a", "b"), builtinMod,
		`Returns the remainder of a divided by b, with the sign of a.`),
	libutil.FunctionDoc("=", lisp.Formals("a", "b", lisp.VarArgSymbol, "more"), compare(func(a, b float64) bool { return a == b }),
		`Returns true when all arguments are numerically equal.`),
	libutil.FunctionDoc("<", lisp.Formals("a", "b", lisp.VarArgSymbol, "more"), compare(func(a, b float64) bool { return a < b }),
		`Returns true when the arguments are strictly increasing.`),
	libutil.FunctionDoc(">", lisp.Formals("a", "b", lisp.VarArgSymbol, "more"), compare(func(a, b float64) bool { return a > b }),
		`Returns true when the arguments are strictly decreasing.`),
	libutil.FunctionDoc("<=", lisp.Formals("a", "b", lisp.VarArgSymbol, "more"), compare(func(a, b float64) bool { return a <= b }),
		`Returns true when the arguments are non-decreasing.`),
	libutil.FunctionDoc(">=", lisp.Formals("a", "b", lisp.VarArgSymbol, "more"), compare(func(a, b float64) bool { return a >= b }),
		`Returns true when the arguments are non-increasing.`),
	libutil.FunctionDoc("even?", lisp.Formals("n"), builtinEven,
		`Returns true when the integer n is even.`),
	libutil.FunctionDoc("odd?", lisp.Formals("n"), builtinOdd,
		`Returns true when the integer n is odd.`),
	libutil.FunctionDoc("inc", lisp.Formals("x"), unary(func(x float64) float64 { return x + 1 }),
		`Returns x plus one.`),
	libutil.FunctionDoc("dec", lisp.Formals("x"), unary(func(x float64) float64 { return x - 1 }),
		`Returns x minus one.`),
	libutil.FunctionDoc("abs", lisp.Formals("x"), unary(math.Abs),
		`Returns the absolute value of x.`),
	libutil.FunctionDoc("floor", lisp.Formals("x"), unary(math.Floor),
		`Returns the largest integer not greater than x.`),
	libutil.FunctionDoc("ceil", lisp.Formals("x"), unary(math.Ceil),
		`Returns the smallest integer not less than x.`),
	libutil.FunctionDoc("sqrt", lisp.Formals("x"), builtinSqrt,
		`Returns the square root of x.  A negative x is a runtime-error.`),
	libutil.FunctionDoc("expt", lisp.Formals("base", "power"), builtinExpt,
		`Returns base raised to power.`),
	libutil.FunctionDoc("max", lisp.Formals("x", lisp.VarArgSymbol, "more"), extremum(math.Max),
		`Returns the largest argument.`),
	libutil.FunctionDoc("min", lisp.Formals("x", lisp.VarArgSymbol, "more"), extremum(math.Min),
		`Returns the smallest argument.`),
}

func numbers(env *lisp.LEnv, args *lisp.LVal) ([]float64, *lisp.LVal) {
	xs := make([]float64, len(args.Cells))
	for i, v := range args.Cells {
		x, lerr := libutil.NumberArg(env, v)
		if lerr != nil {
			return nil, lerr
		}
		xs[i] = x
	}
	return xs, nil
}

func builtinNumber(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	v := args.Cells[0]
	switch v.Type {
	case lisp.LNumber:
		return v
	case lisp.LString:
		x, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return env.ErrorConditionf(lisp.CondRuntimeError, "cannot convert to number: %q", v.Str)
		}
		return lisp.Number(x)
	}
	return env.ErrorAssociate(lisp.TypeError(v, "string"))
}

func fold(fn func(acc, x float64) float64) lisp.LBuiltin {
	return func(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
		xs, lerr := numbers(env, args)
		if lerr != nil {
			return lerr
		}
		acc := xs[0]
		for _, x := range xs[1:] {
			acc = fn(acc, x)
		}
		return lisp.Number(acc)
	}
}

var (
	builtinAdd = fold(func(acc, x float64) float64 { return acc + x })
	builtinSub = fold(func(acc, x float64) float64 { return acc - x })
	builtinMul = fold(func(acc, x float64) float64 { return acc * x })
)

func builtinDiv(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	xs, lerr := numbers(env, args)
	if lerr != nil {
		return lerr
	}
	acc := xs[0]
	for _, x := range xs[1:] {
		if x == 0 {
			return env.ErrorConditionf(lisp.CondRuntimeError, "division by zero")
		}
		acc /= x
	}
	return lisp.Number(acc)
}

func builtinMod(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	xs, lerr := numbers(env, args)
	if lerr != nil {
		return lerr
	}
	if xs[1] == 0 {
		return env.ErrorConditionf(lisp.CondRuntimeError, "division by zero")
	}
	return lisp.Number(math.Mod(xs[0], xs[1]))
}

func compare(ok func(a, b float64) bool) lisp.LBuiltin {
	return func(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
		xs, lerr := numbers(env, args)
		if lerr != nil {
			return lerr
		}
		for i := 1; i < len(xs); i++ {
			if !ok(xs[i-1], xs[i]) {
				return lisp.Bool(false)
			}
		}
		return lisp.Bool(true)
	}
}

func unary(fn func(x float64) float64) lisp.LBuiltin {
	return func(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
		x, lerr := libutil.NumberArg(env, args.Cells[0])
		if lerr != nil {
			return lerr
		}
		return lisp.Number(fn(x))
	}
}

func extremum(pick func(a, b float64) float64) lisp.LBuiltin {
	return fold(pick)
}

func builtinEven(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	n, lerr := libutil.IntArg(env, args.Cells[0])
	if lerr != nil {
		return lerr
	}
	return lisp.Bool(n%2 == 0)
}

func builtinOdd(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	n, lerr := libutil.IntArg(env, args.Cells[0])
	if lerr != nil {
		return lerr
	}
	return lisp.Bool(n%2 != 0)
}

func builtinSqrt(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	x, lerr := libutil.NumberArg(env, args.Cells[0])
	if lerr != nil {
		return lerr
	}
	if x < 0 {
		return env.ErrorConditionf(lisp.CondRuntimeError, "square root of negative number: %v", x)
	}
	return lisp.Number(math.Sqrt(x))
}

func builtinExpt(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	xs, lerr := numbers(env, args)
	if lerr != nil {
		return lerr
	}
	return lisp.Number(math.Pow(xs[0], xs[1]))
}
