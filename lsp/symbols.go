// Copyright © 2024 The ELPS authors

package lsp

import (
	"github.com/luthersystems/dan/parser/ast"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) textDocumentDocumentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	content, prog, _ := doc.snapshot()
	if prog == nil {
		return []protocol.DocumentSymbol{}, nil
	}
	return documentSymbols(content, prog.Forms), nil
}

// documentSymbols lists the definitions made by top-level forms.  Modules
// nest the definitions of their bodies and classes nest their members.
func documentSymbols(content string, forms []ast.Node) []protocol.DocumentSymbol {
	syms := []protocol.DocumentSymbol{}
	for _, form := range forms {
		switch n := form.(type) {
		case *ast.Module:
			mod := protocol.DocumentSymbol{
				Name:           n.Name,
				Detail:         strPtr("module"),
				Kind:           protocol.SymbolKindModule,
				Range:          formRange(content, n.Loc),
				SelectionRange: danToLSPRange(n.Loc, len("(begin-module")),
				Children:       documentSymbols(content, n.Body),
			}
			if mod.Name == "" {
				mod.Name = "<module>"
			}
			syms = append(syms, mod)
		case *ast.List:
			if ast.HeadSymbol(n) == "begin" {
				syms = append(syms, documentSymbols(content, n.Nodes[1:])...)
				continue
			}
			if sym, ok := definitionSymbol(content, n); ok {
				syms = append(syms, sym)
			}
		}
	}
	return syms
}

// definitionSymbol returns the symbol defined by a define, defmacro or class
// form.
func definitionSymbol(content string, l *ast.List) (protocol.DocumentSymbol, bool) {
	if len(l.Nodes) < 2 {
		return protocol.DocumentSymbol{}, false
	}
	switch ast.HeadSymbol(l) {
	case "define":
		switch target := l.Nodes[1].(type) {
		case *ast.Atom:
			if target.Kind != ast.Symbol {
				break
			}
			return namedSymbol(content, l, target, protocol.SymbolKindVariable, nil), true
		case *ast.List:
			name, ok := target.Head()
			if !ok {
				break
			}
			return namedSymbol(content, l, name, protocol.SymbolKindFunction, strPtr(target.String())), true
		}
	case "defmacro":
		target, ok := l.Nodes[1].(*ast.List)
		if !ok {
			break
		}
		if name, ok := target.Head(); ok {
			return namedSymbol(content, l, name, protocol.SymbolKindFunction, strPtr("macro "+target.String())), true
		}
	case "class":
		name, ok := l.Nodes[1].(*ast.Atom)
		if !ok || name.Kind != ast.Symbol {
			break
		}
		sym := namedSymbol(content, l, name, protocol.SymbolKindClass, classDetail(l))
		sym.Children = memberSymbols(content, l.Nodes[2:])
		return sym, true
	}
	return protocol.DocumentSymbol{}, false
}

func classDetail(l *ast.List) *string {
	if len(l.Nodes) >= 4 {
		if kw, ok := l.Nodes[2].(*ast.Atom); ok && kw.Kind == ast.Keyword && kw.Str == ":extends" {
			return strPtr("extends " + l.Nodes[3].String())
		}
	}
	return nil
}

func memberSymbols(content string, members []ast.Node) []protocol.DocumentSymbol {
	syms := []protocol.DocumentSymbol{}
	for _, m := range members {
		l, ok := m.(*ast.List)
		if !ok {
			continue
		}
		head, ok := l.Head()
		if !ok {
			continue
		}
		switch head.Str {
		case "define":
			if len(l.Nodes) < 2 {
				continue
			}
			if name, ok := l.Nodes[1].(*ast.Atom); ok && name.Kind == ast.Symbol {
				syms = append(syms, namedSymbol(content, l, name, protocol.SymbolKindField, nil))
			}
		case "new", "init":
			syms = append(syms, namedSymbol(content, l, head, protocol.SymbolKindConstructor, nil))
		default:
			syms = append(syms, namedSymbol(content, l, head, protocol.SymbolKindMethod, strPtr(methodDetail(l))))
		}
	}
	return syms
}

// methodDetail renders the modifiers and parameter list of a method.
func methodDetail(l *ast.List) string {
	detail := ""
	for _, n := range l.Nodes[1:] {
		switch n := n.(type) {
		case *ast.Atom:
			if n.Kind == ast.Keyword {
				detail += n.Str + " "
				continue
			}
		case *ast.List:
			return detail + n.String()
		}
		break
	}
	return detail + "()"
}

func namedSymbol(content string, form *ast.List, name *ast.Atom, kind protocol.SymbolKind, detail *string) protocol.DocumentSymbol {
	return protocol.DocumentSymbol{
		Name:           name.Str,
		Detail:         detail,
		Kind:           kind,
		Range:          formRange(content, form.Loc),
		SelectionRange: danToLSPRange(name.Loc, len(name.Str)),
	}
}
