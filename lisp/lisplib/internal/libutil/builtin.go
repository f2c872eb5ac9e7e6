// Copyright © 2018 The ELPS authors

package libutil

import "github.com/luthersystems/dan/lisp"

func Function(name string, formals []string, fun lisp.LBuiltin) *Builtin {
	return &Builtin{name, formals, fun, ""}
}

func FunctionDoc(name string, formals []string, fun lisp.LBuiltin, docs string) *Builtin {
	return &Builtin{name, formals, fun, docs}
}

type Builtin struct {
	name    string
	formals []string
	fun     lisp.LBuiltin
	docs    string
}

func (fun *Builtin) Name() string {
	return fun.name
}

func (fun *Builtin) Formals() []string {
	return fun.formals
}

func (fun *Builtin) Eval(env *lisp.LEnv, args *lisp.LVal) *lisp.LVal {
	return fun.fun(env, args)
}

func (fun *Builtin) Docstring() string {
	return fun.docs
}

// Value returns the builtin as a function value owned by module.
func (fun *Builtin) Value(module string) *lisp.LVal {
	return lisp.Function(module, fun.name, fun.formals, fun.fun, fun.docs)
}

// NativeModule returns a module definition exporting builtins.  Each export
// is created anew when the module is loaded.
func NativeModule(name string, doc string, builtins []*Builtin) *lisp.NativeModule {
	return &lisp.NativeModule{
		Name: name,
		Doc:  doc,
		Factory: func(env *lisp.LEnv, deps ...*lisp.Module) (*lisp.Module, *lisp.LVal) {
			mod := lisp.NewModule(name)
			mod.Doc = doc
			for _, fn := range builtins {
				mod.Provide(fn.Name(), fn.Value(name))
			}
			return mod, nil
		},
	}
}

// NumberArg returns the number in v or a type error.
func NumberArg(env *lisp.LEnv, v *lisp.LVal) (float64, *lisp.LVal) {
	if v.Type != lisp.LNumber {
		return 0, env.ErrorAssociate(lisp.TypeError(v, "number"))
	}
	return v.Num, nil
}

// StringArg returns the string in v or a type error.
func StringArg(env *lisp.LEnv, v *lisp.LVal) (string, *lisp.LVal) {
	if v.Type != lisp.LString {
		return "", env.ErrorAssociate(lisp.TypeError(v, "string"))
	}
	return v.Str, nil
}

// IntArg returns the integer in v or an error when v is not a whole number.
func IntArg(env *lisp.LEnv, v *lisp.LVal) (int, *lisp.LVal) {
	x, lerr := NumberArg(env, v)
	if lerr != nil {
		return 0, lerr
	}
	if x != float64(int(x)) {
		return 0, env.ErrorAssociate(lisp.TypeError(v, "integer"))
	}
	return int(x), nil
}
