// Copyright © 2018 The ELPS authors

package lisp

import (
	"github.com/luthersystems/dan/parser/ast"
	"github.com/luthersystems/dan/parser/token"
)

// Expand runs the macro mac on the unevaluated argument forms args and
// returns the syntax tree of its result.  Expansion is unhygienic: names in
// the result resolve in the scope where the expansion is evaluated.
func (env *LEnv) Expand(mac *LVal, args []ast.Node) (ast.Node, *LVal) {
	return env.expand(env.Loc, mac, args)
}

func (env *LEnv) expand(loc *token.Location, mac *LVal, args []ast.Node) (ast.Node, *LVal) {
	if mac.Type != LFun || !mac.Fun().Macro {
		return nil, env.ErrorConditionf(CondTypeError, "not a macro: %s", mac)
	}
	f := mac.Fun()
	data := make([]*LVal, len(args))
	for i, n := range args {
		data[i] = Quote(n)
		if data[i].Type == LError {
			return nil, env.ErrorAssociate(data[i])
		}
	}
	n := len(data)
	if n < f.Arity || (!f.Variadic && n > f.Arity) {
		return nil, env.ErrorAssociate(ArityError(f.QualifiedName(), arityDesc(f), n))
	}
	result := env.enter(loc, mac, func() *LVal {
		macEnv := f.Env.Extend(f.Name)
		if lerr := macEnv.bindArgs(f, data); lerr.Type == LError {
			return lerr
		}
		return macEnv.evalBody(f.Body)
	})
	if result.Type == LError {
		return nil, result
	}
	return Syntax(result, loc), nil
}

// MacroExpand1 expands datum once when it is a list whose head symbol names
// a macro visible in env.  Other data is returned unchanged.
func (env *LEnv) MacroExpand1(datum *LVal) *LVal {
	if datum.Type != LList || len(datum.Cells) == 0 || datum.Cells[0].Type != LSymbol {
		return datum
	}
	_, mac := env.Lookup(datum.Cells[0].Name)
	if mac.Type != LFun || !mac.Fun().Macro {
		return datum
	}
	args := make([]ast.Node, len(datum.Cells)-1)
	for i, c := range datum.Cells[1:] {
		args[i] = Syntax(c, env.Loc)
	}
	node, lerr := env.expand(env.Loc, mac, args)
	if lerr != nil {
		return lerr
	}
	return Quote(node)
}

// EvalDatum converts datum to syntax and evaluates it in env.
func (env *LEnv) EvalDatum(datum *LVal) *LVal {
	return env.Eval(Syntax(datum, env.Loc))
}
