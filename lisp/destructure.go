// Copyright © 2024 The ELPS authors

package lisp

import (
	"github.com/luthersystems/dan/parser/ast"
)

// bind binds the names in target to the parts of v.  A symbol binds v
// directly.  A list pattern binds list elements positionally and & binds the
// remaining elements.  A hash pattern binds each name to the map entry with
// the matching string key, or keyword key when no string key exists.
//
// When define is true bindings fail on names already bound in env's scope.
// The whole pattern is matched before any name is bound, so a failed bind
// leaves env unchanged.
func (env *LEnv) bind(target ast.Node, v *LVal, define bool) *LVal {
	var bs []binding
	if lerr := env.match(target, v, &bs); lerr != nil {
		return lerr
	}
	if define {
		seen := make(map[ast.Name]bool, len(bs))
		for _, b := range bs {
			if _, ok := env.Scope[b.name]; ok || seen[b.name] {
				return env.ErrorConditionf(CondDuplicateBinding, "name already defined in scope: %s", b.name.Value())
			}
			seen[b.name] = true
		}
	}
	for _, b := range bs {
		env.Set(b.name, b.v)
	}
	return Nil()
}

type binding struct {
	name ast.Name
	v    *LVal
}

// match appends the bindings for target and v to bs.  Match returns a
// non-nil error when v does not fit the pattern.
func (env *LEnv) match(target ast.Node, v *LVal, bs *[]binding) *LVal {
	switch t := target.(type) {
	case *ast.Atom:
		if t.Kind != ast.Symbol {
			return env.ErrorConditionf(CondRuntimeError, "cannot bind to %s", t)
		}
		*bs = append(*bs, binding{t.Name, v})
		return nil
	case *ast.ListPattern:
		return env.matchList(t, v, bs)
	case *ast.HashPattern:
		return env.matchHash(t, v, bs)
	}
	return env.ErrorConditionf(CondRuntimeError, "invalid binding target: %s", target)
}

func (env *LEnv) matchList(p *ast.ListPattern, v *LVal, bs *[]binding) *LVal {
	items, lerr := env.sequence(v)
	if lerr != nil {
		return env.ErrorConditionf(CondRuntimeError, "cannot destructure %s as a list", GetType(v))
	}
	for i, t := range p.Nodes {
		if a, ok := t.(*ast.Atom); ok && a.IsSymbol(ast.SymAmpersand) {
			if i != len(p.Nodes)-2 {
				return env.ErrorConditionf(CondRuntimeError, "%s must be followed by exactly one name: %s", VarArgSymbol, p)
			}
			var rest []*LVal
			if i < len(items) {
				rest = make([]*LVal, len(items)-i)
				copy(rest, items[i:])
			}
			return env.match(p.Nodes[i+1], List(rest...), bs)
		}
		if i >= len(items) {
			return env.ErrorConditionf(CondRuntimeError, "not enough values to destructure %s: got %d", p, len(items))
		}
		if lerr := env.match(t, items[i], bs); lerr != nil {
			return lerr
		}
	}
	return nil
}

func (env *LEnv) matchHash(p *ast.HashPattern, v *LVal, bs *[]binding) *LVal {
	var lookup func(name string) (*LVal, bool)
	switch v.Type {
	case LMap:
		lookup = func(name string) (*LVal, bool) {
			if x, ok := v.Map.Get(String(name)); ok {
				return x, true
			}
			return v.Map.Get(Keyword(name))
		}
	case LInstance:
		lookup = func(name string) (*LVal, bool) {
			x, ok := v.Instance().Fields[name]
			return x, ok
		}
	case LModule:
		lookup = v.Module().Export
	default:
		return env.ErrorConditionf(CondRuntimeError, "cannot destructure %s as a map", GetType(v))
	}
	for _, t := range p.Nodes {
		a, ok := t.(*ast.Atom)
		if !ok || a.Kind != ast.Symbol {
			return env.ErrorConditionf(CondRuntimeError, "hash pattern names must be symbols: %s", t)
		}
		x, ok := lookup(a.Str)
		if !ok {
			return env.ErrorConditionf(CondRuntimeError, "missing key for %s", a.Str)
		}
		*bs = append(*bs, binding{a.Name, x})
	}
	return nil
}
