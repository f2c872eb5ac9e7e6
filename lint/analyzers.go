// Copyright © 2024 The ELPS authors

package lint

import (
	"github.com/luthersystems/dan/parser/ast"
)

// AnalyzerModuleForm checks that every begin-module form names its module
// with a string and has a body.
var AnalyzerModuleForm = &Analyzer{
	Name:     "module-form",
	Doc:      "Check that begin-module has a string name and a body.\n\nThe evaluator rejects a begin-module form without a name or without any body forms.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		walkCode(pass.Program.Forms, func(node ast.Node, _ int) {
			mod, ok := node.(*ast.Module)
			if !ok {
				return
			}
			switch {
			case mod.Name == "":
				pass.Reportf(mod.Loc, "begin-module requires a string name")
			case len(mod.Body) == 0:
				pass.Reportf(mod.Loc, "begin-module %s requires a body", mod.Name)
			}
		})
		return nil
	},
}

// AnalyzerModuleToplevel warns when begin-module or provide appear inside
// other expressions.
var AnalyzerModuleToplevel = &Analyzer{
	Name:     "module-toplevel",
	Doc:      "Warn when begin-module or provide is nested inside an expression.\n\nModules are registered when their form is evaluated, so a module defined inside a function exists only after the function is called.  A provide inside a function body exports a value only when the function runs.",
	Severity: SeverityWarning,
	Run: func(pass *Pass) error {
		top := topLevelSet(pass.Program.Forms)
		walkCode(pass.Program.Forms, func(node ast.Node, _ int) {
			if top[node] {
				return
			}
			if mod, ok := node.(*ast.Module); ok {
				pass.Reportf(mod.Loc, "begin-module %s should only be used at the top level", mod.Name)
				return
			}
			if ast.HeadSymbol(node) == "provide" {
				pass.Reportf(node.Source(), "provide should only be used at the top level of a module")
			}
		})
		return nil
	},
}

// AnalyzerDuplicateModule warns when one file defines two modules with the
// same name.
var AnalyzerDuplicateModule = &Analyzer{
	Name:     "duplicate-module",
	Doc:      "Warn when a file defines the same module name twice.\n\nThe module registered last replaces the first for every later import.",
	Severity: SeverityWarning,
	Run: func(pass *Pass) error {
		seen := make(map[string]*ast.Module)
		ast.TopLevel(pass.Program.Forms, func(node ast.Node, _ string) {
			mod, ok := node.(*ast.Module)
			if !ok || mod.Name == "" {
				return
			}
			if prev, ok := seen[mod.Name]; ok {
				pass.Reportf(mod.Loc, "module %s is already defined at line %d", mod.Name, prev.Loc.Line)
				return
			}
			seen[mod.Name] = mod
		})
		return nil
	},
}

// AnalyzerProvide checks the arguments of provide forms.
var AnalyzerProvide = &Analyzer{
	Name:     "provide",
	Doc:      "Check that provide exports symbols and exports each name once.\n\nNames which are not symbols are rejected by the evaluator.  A name provided twice keeps its first value.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		provided := make(map[string]map[string]bool)
		ast.TopLevel(pass.Program.Forms, func(node ast.Node, module string) {
			if ast.HeadSymbol(node) != "provide" {
				return
			}
			names := provided[module]
			if names == nil {
				names = make(map[string]bool)
				provided[module] = names
			}
			for _, n := range node.(*ast.List).Nodes[1:] {
				sym, ok := n.(*ast.Atom)
				if !ok || sym.Kind != ast.Symbol {
					pass.Reportf(n.Source(), "exported names must be symbols, got %s", n)
					continue
				}
				if names[sym.Str] {
					pass.Report(Diagnostic{
						Pos:      position(sym),
						Message:  sym.Str + " is already provided",
						Severity: SeverityWarning,
					})
					continue
				}
				names[sym.Str] = true
			}
		})
		return nil
	},
}

// AnalyzerModuleImport checks the shape of open and import forms.
var AnalyzerModuleImport = &Analyzer{
	Name:     "module-import",
	Doc:      "Check the shape of open and import forms.\n\nopen takes a module name.  import takes a module name optionally followed by :as and an alias symbol.",
	Severity: SeverityError,
	Run: func(pass *Pass) error {
		walkCode(pass.Program.Forms, func(node ast.Node, _ int) {
			head := ast.HeadSymbol(node)
			if head != "open" && head != "import" {
				return
			}
			l := node.(*ast.List)
			argc := len(l.Nodes) - 1
			switch {
			case head == "open" && argc != 1:
				pass.Reportf(l.Loc, "open requires 1 argument, got %d", argc)
				return
			case head == "import" && argc != 1 && argc != 3:
				pass.Reportf(l.Loc, "import requires 1 or 3 arguments, got %d", argc)
				return
			}
			if !isModuleName(l.Nodes[1]) {
				pass.Reportf(l.Nodes[1].Source(), "%s: module name must be a string, got %s", head, l.Nodes[1])
			}
			if argc != 3 {
				return
			}
			kw, ok := l.Nodes[2].(*ast.Atom)
			if !ok || kw.Kind != ast.Keyword || kw.Str != ":as" {
				pass.Reportf(l.Nodes[2].Source(), "import: expected :as, got %s", l.Nodes[2])
				return
			}
			alias, ok := l.Nodes[3].(*ast.Atom)
			if !ok || alias.Kind != ast.Symbol {
				pass.Reportf(l.Nodes[3].Source(), "import: alias must be a symbol, got %s", l.Nodes[3])
			}
		})
		return nil
	},
}

func isModuleName(n ast.Node) bool {
	a, ok := n.(*ast.Atom)
	return ok && (a.Kind == ast.String || a.Kind == ast.Symbol)
}

func position(n ast.Node) Position {
	loc := n.Source()
	if loc == nil {
		return Position{}
	}
	return Position{File: loc.File, Line: loc.Line, Col: loc.Col}
}

// topLevelSet returns the forms evaluated at the top level of a file or of
// a module body.
func topLevelSet(forms []ast.Node) map[ast.Node]bool {
	top := make(map[ast.Node]bool)
	ast.TopLevel(forms, func(node ast.Node, _ string) {
		top[node] = true
	})
	return top
}

// walkCode calls fn for every node which may be evaluated.  Quoted data is
// skipped.
func walkCode(nodes []ast.Node, fn func(node ast.Node, depth int)) {
	for _, n := range nodes {
		walkCodeNode(n, 0, fn)
	}
}

func walkCodeNode(node ast.Node, depth int, fn func(ast.Node, int)) {
	if node == nil {
		return
	}
	if l, ok := node.(*ast.List); ok {
		if head, ok := l.Head(); ok && head.Name == ast.SymQuote {
			return
		}
	}
	fn(node, depth)
	for _, child := range ast.Children(node) {
		walkCodeNode(child, depth+1, fn)
	}
}
