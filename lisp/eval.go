// Copyright © 2018 The ELPS authors

package lisp

import (
	"strings"

	"github.com/luthersystems/dan/parser/ast"
)

// Eval evaluates node in env.
func (env *LEnv) Eval(node ast.Node) *LVal {
	for {
		if err := env.Runtime.step(); err != nil {
			return env.Error(err)
		}
		if loc := node.Source(); loc != nil {
			env.Loc = loc
		}
		switch n := node.(type) {
		case *ast.Atom:
			return env.evalAtom(n)
		case *ast.Constant:
			if v, ok := n.Value.(*LVal); ok {
				return v
			}
			return Native(n.Value)
		case *ast.ListPattern:
			cells, lerr := env.evalArgs(n.Nodes)
			if lerr != nil {
				return lerr
			}
			return List(cells...)
		case *ast.HashPattern:
			return env.evalHash(n)
		case *ast.Module:
			return env.evalModule(n)
		case *ast.List:
			if len(n.Nodes) == 0 {
				return List()
			}
			if head, ok := n.Head(); ok {
				if form := lookupSpecialForm(head.Name); form != nil {
					return form.fn(env, n)
				}
				if isMethodName(head.Str) {
					return env.evalMethodCall(n, head.Str[1:])
				}
			}
			fn := env.Eval(n.Nodes[0])
			if fn.Type == LError {
				return fn
			}
			if fn.Type == LFun && fn.Fun().Macro {
				expanded, lerr := env.expand(n.Loc, fn, n.Nodes[1:])
				if lerr != nil {
					return lerr
				}
				node = expanded
				continue
			}
			args, lerr := env.evalArgs(n.Nodes[1:])
			if lerr != nil {
				return lerr
			}
			env.Loc = n.Loc
			return env.call(n.Loc, fn, args)
		default:
			return env.ErrorConditionf(CondRuntimeError, "cannot evaluate node: %T", node)
		}
	}
}

func (env *LEnv) evalAtom(a *ast.Atom) *LVal {
	switch a.Kind {
	case ast.Number:
		return &LVal{Type: LNumber, Num: a.Num, Source: a.Loc}
	case ast.String:
		return &LVal{Type: LString, Str: a.Str, Source: a.Loc}
	case ast.Boolean:
		return &LVal{Type: LBool, Bool: a.Bool, Source: a.Loc}
	case ast.Nil:
		return &LVal{Type: LNil, Source: a.Loc}
	case ast.Keyword:
		return &LVal{Type: LKeyword, Str: a.Str, Name: a.Name, Source: a.Loc}
	case ast.Symbol:
		return env.resolve(a)
	}
	return env.ErrorConditionf(CondRuntimeError, "invalid atom: %s", a)
}

// resolve looks up a symbol.  A symbol containing dots which is not bound as
// a whole is resolved as a path of member accesses, so m.f names the export
// f of the module bound to m.
func (env *LEnv) resolve(sym *ast.Atom) *LVal {
	_, v := env.Lookup(sym.Name)
	if v.Type != LError || !isQualifiedName(sym.Str) {
		return v
	}
	parts := strings.Split(sym.Str, ".")
	_, v = env.Lookup(ast.Intern(parts[0]))
	if v.Type == LError {
		return v
	}
	for _, member := range parts[1:] {
		v = env.member(v, member)
		if v.Type == LError {
			return v
		}
	}
	return v
}

func isQualifiedName(s string) bool {
	if !strings.Contains(s, ".") || strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") {
		return false
	}
	return !strings.Contains(s, "..")
}

func isMethodName(s string) bool {
	return len(s) > 1 && s[0] == '.' && s[1] != '.'
}

// member returns the named member of a module, object, class, or map.
func (env *LEnv) member(v *LVal, name string) *LVal {
	switch v.Type {
	case LModule:
		if x, ok := v.Module().Export(name); ok {
			return x
		}
		return env.ErrorConditionf(CondUnboundName, "module %s does not export %s", v.Module().Name, name)
	case LInstance:
		obj := v.Instance()
		if x, ok := obj.Fields[name]; ok {
			return x
		}
		return env.ErrorConditionf(CondUnboundName, "%s has no field %s", obj.Class.Name, name)
	case LClass:
		c := v.Class()
		if x, ok := c.Env.Scope[ast.Intern(name)]; ok {
			return x
		}
		if m := env.Runtime.Classes.FindMethod(c, name, true); m != nil {
			return m
		}
		return env.ErrorConditionf(CondUnboundName, "class %s has no member %s", c.Name, name)
	case LMap:
		if x, ok := v.Map.lookupField(name); ok {
			return x
		}
		return env.ErrorConditionf(CondUnboundName, "map has no key %s", name)
	}
	return env.ErrorConditionf(CondTypeError, "%s has no members: %s", GetType(v), name)
}

// evalArgs evaluates nodes from left to right.  The symbol & splices the
// elements of the following sequence into the result.
func (env *LEnv) evalArgs(nodes []ast.Node) ([]*LVal, *LVal) {
	cells := make([]*LVal, 0, len(nodes))
	for i := 0; i < len(nodes); i++ {
		if a, ok := nodes[i].(*ast.Atom); ok && a.IsSymbol(ast.SymAmpersand) {
			if i+1 >= len(nodes) {
				return nil, env.ErrorConditionf(CondRuntimeError, "%s must be followed by an expression", VarArgSymbol)
			}
			i++
			seq := env.Eval(nodes[i])
			if seq.Type == LError {
				return nil, seq
			}
			items, lerr := env.sequence(seq)
			if lerr != nil {
				return nil, lerr
			}
			cells = append(cells, items...)
			continue
		}
		v := env.Eval(nodes[i])
		if v.Type == LError {
			return nil, v
		}
		cells = append(cells, v)
	}
	return cells, nil
}

// sequence returns the elements of a list or range.
func (env *LEnv) sequence(v *LVal) ([]*LVal, *LVal) {
	switch v.Type {
	case LList:
		return v.Cells, nil
	case LRange:
		return v.Range().Values(), nil
	}
	return nil, env.ErrorConditionf(CondTypeError, "expected a sequence, got %s: %s", GetType(v), v)
}

func (env *LEnv) evalHash(n *ast.HashPattern) *LVal {
	if len(n.Nodes)%2 != 0 {
		return env.ErrorConditionf(CondTypeError, "map literal has an odd number of forms")
	}
	m := NewMap(len(n.Nodes) / 2)
	for i := 0; i < len(n.Nodes); i += 2 {
		k := env.Eval(n.Nodes[i])
		if k.Type == LError {
			return k
		}
		v := env.Eval(n.Nodes[i+1])
		if v.Type == LError {
			return v
		}
		if err := m.Set(k, v); err != nil {
			return env.ErrorConditionf(CondTypeError, "%v", err)
		}
	}
	return &LVal{Type: LMap, Map: m, Source: n.Loc}
}

// evalBody evaluates nodes in sequence and returns the last value, or nil
// when nodes is empty.
func (env *LEnv) evalBody(nodes []ast.Node) *LVal {
	ret := Nil()
	for _, n := range nodes {
		ret = env.Eval(n)
		if ret.Type == LError {
			return ret
		}
	}
	return ret
}
