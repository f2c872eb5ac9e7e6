// Copyright © 2024 The ELPS authors

package lisp

import (
	"github.com/luthersystems/dan/parser/ast"
)

// Module is a named set of exported bindings.
type Module struct {
	Name string
	// ID is the resolved identifier the module was loaded under.
	ID  string
	Doc string

	exports []string
	values  map[string]*LVal
}

// NewModule returns an empty module.
func NewModule(name string) *Module {
	return &Module{
		Name:   name,
		ID:     name,
		values: make(map[string]*LVal),
	}
}

// Provide exports v under name.  A name provided twice keeps its original
// position in the export order.
func (m *Module) Provide(name string, v *LVal) {
	if _, ok := m.values[name]; !ok {
		m.exports = append(m.exports, name)
	}
	m.values[name] = v
}

// Export returns the value exported under name.
func (m *Module) Export(name string) (*LVal, bool) {
	v, ok := m.values[name]
	return v, ok
}

// Exports returns the exported names in the order they were provided.
func (m *Module) Exports() []string {
	names := make([]string, len(m.exports))
	copy(names, m.exports)
	return names
}

// Value returns m as an LVal.
func (m *Module) Value() *LVal {
	return &LVal{Type: LModule, Native: m}
}

// moduleFrame returns the module whose body env is being evaluated in.
func (env *LEnv) moduleFrame() *Module {
	for e := env; e != nil; e = e.Parent {
		if e.module != nil {
			return e.module
		}
	}
	return nil
}

func (env *LEnv) evalModule(n *ast.Module) *LVal {
	if n.Name == "" {
		return env.ErrorConditionf(CondRuntimeError, "begin-module requires a string name")
	}
	if len(n.Body) == 0 {
		return env.ErrorConditionf(CondRuntimeError, "begin-module %s requires a body", n.Name)
	}
	mod := NewModule(n.Name)
	modEnv := env.Extend(n.Name)
	modEnv.Module = n.Name
	modEnv.module = mod
	if v := modEnv.evalBody(n.Body); v.Type == LError {
		return v
	}
	env.Runtime.Loader.Register(mod)
	v := mod.Value()
	v.Source = n.Loc
	return v
}

func opProvide(env *LEnv, form *ast.List) *LVal {
	mod := env.moduleFrame()
	if mod == nil {
		return env.malformed(form, "not inside a module")
	}
	for _, n := range form.Nodes[1:] {
		sym, ok := n.(*ast.Atom)
		if !ok || sym.Kind != ast.Symbol {
			return env.malformed(form, "exported names must be symbols: "+n.String())
		}
		v := env.Get(sym.Name)
		if v.Type == LError {
			return v
		}
		mod.Provide(sym.Str, v)
	}
	return Nil()
}

// moduleArg returns the module name given by a string or symbol.
func moduleArg(n ast.Node) (string, bool) {
	a, ok := n.(*ast.Atom)
	if !ok || (a.Kind != ast.String && a.Kind != ast.Symbol) {
		return "", false
	}
	return a.Str, true
}

func opOpen(env *LEnv, form *ast.List) *LVal {
	if len(form.Nodes) != 2 {
		return env.formArity(form, "1 form")
	}
	name, ok := moduleArg(form.Nodes[1])
	if !ok {
		return env.malformed(form, "module name must be a string")
	}
	mod, lerr := env.Runtime.Loader.Require(env, name)
	if lerr != nil {
		return lerr
	}
	env.OpenModule(mod)
	return Nil()
}

func opImport(env *LEnv, form *ast.List) *LVal {
	if len(form.Nodes) != 2 && len(form.Nodes) != 4 {
		return env.formArity(form, "1 or 3 forms")
	}
	name, ok := moduleArg(form.Nodes[1])
	if !ok {
		return env.malformed(form, "module name must be a string")
	}
	var alias *ast.Atom
	if len(form.Nodes) == 4 {
		kw, ok := form.Nodes[2].(*ast.Atom)
		if !ok || kw.Kind != ast.Keyword || kw.Str != ":as" {
			return env.malformed(form, "expected :as")
		}
		alias, ok = form.Nodes[3].(*ast.Atom)
		if !ok || alias.Kind != ast.Symbol {
			return env.malformed(form, "alias must be a symbol")
		}
	}
	mod, lerr := env.Runtime.Loader.Require(env, name)
	if lerr != nil {
		return lerr
	}
	if alias != nil {
		env.Set(alias.Name, mod.Value())
	} else {
		env.Put(mod.Name, mod.Value())
	}
	return Nil()
}

// OpenModule binds every export of mod in env's scope.
func (env *LEnv) OpenModule(mod *Module) {
	for _, name := range mod.exports {
		env.Put(name, mod.values[name])
	}
}
