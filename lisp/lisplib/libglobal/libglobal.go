// Copyright © 2024 The ELPS authors

// Package libglobal defines the module opened into every user environment.
package libglobal

import (
	"github.com/luthersystems/dan/lisp"
)

// DefaultModuleName is the name of the module loaded as builtin:global.
const DefaultModuleName = "global"

const doc = "Every export of the error, io, number, base, string, and lambda modules."

// Requires lists the modules re-exported by global in the order they are
// opened.  A later module's export shadows an earlier one of the same name.
var Requires = []string{
	lisp.NativePrefix + "error",
	lisp.NativePrefix + "io",
	lisp.NativePrefix + "number",
	lisp.NativePrefix + "base",
	lisp.NativePrefix + "string",
	lisp.NativePrefix + "lambda",
}

// Module returns the native definition of the global module.
func Module() *lisp.NativeModule {
	return &lisp.NativeModule{
		Name:     DefaultModuleName,
		Doc:      doc,
		Requires: Requires,
		Factory:  factory,
	}
}

func factory(env *lisp.LEnv, deps ...*lisp.Module) (*lisp.Module, *lisp.LVal) {
	mod := lisp.NewModule(DefaultModuleName)
	mod.Doc = doc
	for _, dep := range deps {
		for _, name := range dep.Exports() {
			v, _ := dep.Export(name)
			mod.Provide(name, v)
		}
	}
	return mod, nil
}
