// Copyright © 2018 The ELPS authors

package lisp

import (
	"fmt"

	"github.com/luthersystems/dan/parser/ast"
	"github.com/luthersystems/dan/parser/token"
)

// LBuiltin is a function implemented in Go.  Args is a list of the
// evaluated arguments.
type LBuiltin func(env *LEnv, args *LVal) *LVal

// LFunData is the data of a function, macro, or method value.
type LFunData struct {
	Name   string
	Module string
	Doc    string

	// Params holds the fixed parameters of a lambda.  Each parameter is a
	// symbol or a destructuring pattern.
	Params []ast.Node
	// Rest is the parameter bound to extra arguments, or nil.
	Rest ast.Node
	Body []ast.Node
	Env  *LEnv

	// Formals names the parameters of a builtin for documentation.
	Formals []string
	Builtin LBuiltin

	Arity    int
	Variadic bool
	Macro    bool

	// Class is set for methods.
	Class   *ClassDef
	Private bool
	Static  bool
}

// QualifiedName returns the function name qualified by its module.
func (f *LFunData) QualifiedName() string {
	name := f.Name
	if name == "" {
		name = "lambda"
	}
	if f.Class != nil {
		name = f.Class.Name + "." + name
	}
	if f.Module == "" {
		return name
	}
	return f.Module + "." + name
}

// Signature returns the parameter list of f as it would be written in
// source.
func (f *LFunData) Signature() string {
	if f.Builtin != nil {
		return fmt.Sprint(f.Formals)
	}
	names := make([]string, 0, len(f.Params)+2)
	for _, p := range f.Params {
		names = append(names, p.String())
	}
	if f.Rest != nil {
		names = append(names, VarArgSymbol, f.Rest.String())
	}
	return fmt.Sprint(names)
}

// Function returns a native function value.  Formals must be constructed
// with the Formals function.
func Function(module string, name string, formals []string, fn LBuiltin, doc string) *LVal {
	f := &LFunData{
		Name:    name,
		Module:  module,
		Doc:     doc,
		Formals: formals,
		Builtin: fn,
		Arity:   len(formals),
	}
	if n := len(formals); n >= 2 && formals[n-2] == VarArgSymbol {
		f.Variadic = true
		f.Arity = n - 2
	}
	return &LVal{Type: LFun, Native: f}
}

// PartialApplication is a native function with some of its leading
// arguments already supplied.
type PartialApplication struct {
	Fun  *LVal
	Args []*LVal
}

// Remaining returns the number of arguments required to complete the call.
func (p *PartialApplication) Remaining() int {
	return p.Fun.Fun().Arity - len(p.Args)
}

// Partial returns a partial application of the native function fun.
func Partial(fun *LVal, args []*LVal) *LVal {
	bound := make([]*LVal, len(args))
	copy(bound, args)
	return &LVal{Type: LPartial, Native: &PartialApplication{Fun: fun, Args: bound}}
}

func arityDesc(f *LFunData) string {
	noun := "arguments"
	if f.Arity == 1 {
		noun = "argument"
	}
	if f.Variadic {
		return fmt.Sprintf("at least %d %s", f.Arity, noun)
	}
	return fmt.Sprintf("%d %s", f.Arity, noun)
}

// Call invokes fn with args.  Fn may be a function, a partial application,
// or a class.
func (env *LEnv) Call(fn *LVal, args ...*LVal) *LVal {
	return env.call(env.Loc, fn, args)
}

func (env *LEnv) call(loc *token.Location, fn *LVal, args []*LVal) *LVal {
	switch fn.Type {
	case LFun:
		f := fn.Fun()
		if f.Macro {
			return env.ErrorConditionf(CondTypeError, "macro cannot be called as a function: %s", f.QualifiedName())
		}
		if f.Builtin != nil {
			return env.callBuiltin(loc, fn, args)
		}
		if f.Class != nil {
			if f.Static {
				return env.invokeMethod(loc, fn, &LVal{Type: LClass, Native: f.Class}, args)
			}
			return env.ErrorConditionf(CondTypeError, "method %s requires a receiver: (.%s obj ...)", f.QualifiedName(), f.Name)
		}
		return env.callLambda(loc, fn, args)
	case LPartial:
		p := fn.Partial()
		if len(args) == 0 {
			return env.ErrorAssociate(ArityError(p.Fun.Fun().QualifiedName(), fmt.Sprintf("%d more", p.Remaining()), 0))
		}
		all := make([]*LVal, 0, len(p.Args)+len(args))
		all = append(all, p.Args...)
		all = append(all, args...)
		return env.call(loc, p.Fun, all)
	case LClass:
		return env.construct(loc, fn, args)
	}
	return env.ErrorConditionf(CondTypeError, "value is not callable: %s", fn)
}

func (env *LEnv) callBuiltin(loc *token.Location, fn *LVal, args []*LVal) *LVal {
	f := fn.Fun()
	n := len(args)
	if n < f.Arity {
		if f.Variadic || n == 0 {
			return env.ErrorAssociate(ArityError(f.QualifiedName(), arityDesc(f), n))
		}
		return Partial(fn, args)
	}
	if !f.Variadic && n > f.Arity {
		return env.ErrorAssociate(ArityError(f.QualifiedName(), arityDesc(f), n))
	}
	return env.enter(loc, fn, func() *LVal {
		return f.Builtin(env, List(args...))
	})
}

func (env *LEnv) callLambda(loc *token.Location, fn *LVal, args []*LVal) *LVal {
	f := fn.Fun()
	n := len(args)
	if n < f.Arity || (!f.Variadic && n > f.Arity) {
		return env.ErrorAssociate(ArityError(f.QualifiedName(), arityDesc(f), n))
	}
	return env.enter(loc, fn, func() *LVal {
		callEnv := f.Env.Extend(f.Name)
		if lerr := callEnv.bindArgs(f, args); lerr.Type == LError {
			return lerr
		}
		return callEnv.evalBody(f.Body)
	})
}

// enter runs body inside a new call frame for fn.
func (env *LEnv) enter(loc *token.Location, fn *LVal, body func() *LVal) *LVal {
	f := fn.Fun()
	stack := env.Runtime.Stack
	height := stack.Height()
	if err := stack.Push(loc, f.Module, f.Name); err != nil {
		return env.Error(err)
	}
	if prof := env.Runtime.Profiler; prof != nil && prof.IsEnabled() {
		end := prof.Start(fn)
		defer end()
	}
	v := body()
	if v.Type == LError {
		if v.Source == nil {
			v.Source = loc
		}
		if v.CallStack() == nil {
			v.SetCallStack(stack.Copy())
		}
	}
	stack.Unwind(height)
	return v
}

func (env *LEnv) bindArgs(f *LFunData, args []*LVal) *LVal {
	for i, p := range f.Params {
		if lerr := env.bind(p, args[i], false); lerr.Type == LError {
			return lerr
		}
	}
	if f.Rest != nil {
		rest := make([]*LVal, len(args)-f.Arity)
		copy(rest, args[f.Arity:])
		return env.bind(f.Rest, List(rest...), false)
	}
	return Nil()
}

// parseParams reads a parameter list.  The symbol & must be followed by
// exactly one parameter.
func (env *LEnv) parseParams(list ast.Node) (params []ast.Node, rest ast.Node, lerr *LVal) {
	var nodes []ast.Node
	switch n := list.(type) {
	case *ast.List:
		nodes = n.Nodes
	case *ast.ListPattern:
		nodes = n.Nodes
	default:
		return nil, nil, env.ErrorConditionf(CondRuntimeError, "parameter list expected: %s", list)
	}
	for i, p := range nodes {
		if !isParamTarget(p) {
			return nil, nil, env.ErrorConditionf(CondRuntimeError, "invalid parameter: %s", p)
		}
		if a, ok := p.(*ast.Atom); ok && a.IsSymbol(ast.SymAmpersand) {
			if i != len(nodes)-2 {
				return nil, nil, env.ErrorConditionf(CondRuntimeError, "%s must be followed by exactly one parameter", VarArgSymbol)
			}
			return params, nodes[i+1], nil
		}
		params = append(params, p)
	}
	return params, nil, nil
}

func isParamTarget(n ast.Node) bool {
	switch n := n.(type) {
	case *ast.Atom:
		return n.Kind == ast.Symbol
	case *ast.ListPattern, *ast.HashPattern:
		return true
	}
	return false
}

// Lambda builds a closure over env.  A string literal leading a body of more
// than one form is the function's docstring.
func (env *LEnv) Lambda(name string, params ast.Node, body []ast.Node) *LVal {
	fixed, rest, lerr := env.parseParams(params)
	if lerr != nil {
		return lerr
	}
	var doc string
	if len(body) > 1 {
		if a, ok := body[0].(*ast.Atom); ok && a.Kind == ast.String {
			doc = a.Str
		}
	}
	return &LVal{
		Type:   LFun,
		Source: env.Loc,
		Native: &LFunData{
			Name:     name,
			Module:   env.Module,
			Doc:      doc,
			Params:   fixed,
			Rest:     rest,
			Body:     body,
			Env:      env,
			Arity:    len(fixed),
			Variadic: rest != nil,
		},
	}
}
