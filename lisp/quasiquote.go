// Copyright © 2018 The ELPS authors

package lisp

import (
	"github.com/luthersystems/dan/parser/ast"
	"github.com/luthersystems/dan/parser/token"
)

// Quote converts syntax to data.  Lists and list patterns become lists, hash
// patterns become maps, and begin-module forms become lists headed by the
// symbol begin-module.  Quote returns an LError when a hash pattern cannot
// be represented as a map.
func Quote(node ast.Node) *LVal {
	switch n := node.(type) {
	case *ast.Atom:
		return quoteAtom(n)
	case *ast.Constant:
		if v, ok := n.Value.(*LVal); ok {
			return v
		}
		return Native(n.Value)
	case *ast.List:
		return quoteNodes(n.Nodes, n.Loc)
	case *ast.ListPattern:
		return quoteNodes(n.Nodes, n.Loc)
	case *ast.HashPattern:
		if len(n.Nodes)%2 != 0 {
			return ErrorConditionf(CondTypeError, "map literal has an odd number of forms")
		}
		m := NewMap(len(n.Nodes) / 2)
		for i := 0; i < len(n.Nodes); i += 2 {
			k := Quote(n.Nodes[i])
			if k.Type == LError {
				return k
			}
			v := Quote(n.Nodes[i+1])
			if v.Type == LError {
				return v
			}
			if err := m.Set(k, v); err != nil {
				return ErrorConditionf(CondTypeError, "%v", err)
			}
		}
		return &LVal{Type: LMap, Map: m, Source: n.Loc}
	case *ast.Module:
		cells := make([]*LVal, 0, len(n.Body)+2)
		cells = append(cells, Symbol(ast.SymBeginModule.Value()), String(n.Name))
		for _, b := range n.Body {
			v := Quote(b)
			if v.Type == LError {
				return v
			}
			cells = append(cells, v)
		}
		return &LVal{Type: LList, Cells: cells, Source: n.Loc}
	}
	return ErrorConditionf(CondRuntimeError, "cannot quote node: %T", node)
}

func quoteAtom(a *ast.Atom) *LVal {
	switch a.Kind {
	case ast.Number:
		return &LVal{Type: LNumber, Num: a.Num, Source: a.Loc}
	case ast.String:
		return &LVal{Type: LString, Str: a.Str, Source: a.Loc}
	case ast.Boolean:
		return &LVal{Type: LBool, Bool: a.Bool, Source: a.Loc}
	case ast.Nil:
		return &LVal{Type: LNil, Source: a.Loc}
	case ast.Symbol:
		return &LVal{Type: LSymbol, Str: a.Str, Name: a.Name, Source: a.Loc}
	default:
		return &LVal{Type: LKeyword, Str: a.Str, Name: a.Name, Source: a.Loc}
	}
}

func quoteNodes(nodes []ast.Node, loc *token.Location) *LVal {
	cells := make([]*LVal, len(nodes))
	for i, n := range nodes {
		cells[i] = Quote(n)
		if cells[i].Type == LError {
			return cells[i]
		}
	}
	return &LVal{Type: LList, Cells: cells, Source: loc}
}

// Syntax converts data to syntax.  It is the inverse of Quote for values
// with a literal form.  Other values, such as functions, are embedded in the
// tree as ast.Constant nodes.  Nodes without a recorded source get loc.
func Syntax(v *LVal, loc *token.Location) ast.Node {
	src := v.Source
	if src == nil {
		src = loc
	}
	switch v.Type {
	case LNil:
		return ast.NewNil(src)
	case LBool:
		return ast.NewBool(v.Bool, src)
	case LNumber:
		return ast.NewNumber(v.Num, src)
	case LString:
		return ast.NewString(v.Str, src)
	case LSymbol:
		return &ast.Atom{Kind: ast.Symbol, Str: v.Str, Name: v.Name, Loc: src}
	case LKeyword:
		return &ast.Atom{Kind: ast.Keyword, Str: v.Str, Name: v.Name, Loc: src}
	case LList:
		if len(v.Cells) >= 2 && v.Cells[0].Type == LSymbol && v.Cells[0].Name == ast.SymBeginModule && v.Cells[1].Type == LString {
			mod := &ast.Module{Name: v.Cells[1].Str, Loc: src}
			for _, c := range v.Cells[2:] {
				mod.Body = append(mod.Body, Syntax(c, src))
			}
			return mod
		}
		nodes := make([]ast.Node, len(v.Cells))
		for i, c := range v.Cells {
			nodes[i] = Syntax(c, src)
		}
		return &ast.List{Nodes: nodes, Loc: src}
	case LMap:
		nodes := make([]ast.Node, 0, 2*v.Map.Len())
		v.Map.Each(func(key, val *LVal) bool {
			nodes = append(nodes, Syntax(key, src), Syntax(val, src))
			return true
		})
		return &ast.HashPattern{Nodes: nodes, Loc: src}
	}
	return &ast.Constant{Value: v, Loc: src}
}

// quasiquote returns node as data with unquoted forms evaluated.
func (env *LEnv) quasiquote(node ast.Node) *LVal {
	switch n := node.(type) {
	case *ast.List:
		if head, ok := n.Head(); ok {
			switch head.Name {
			case ast.SymUnquote:
				if len(n.Nodes) != 2 {
					return env.ErrorAssociate(ArityError("unquote", "1 form", len(n.Nodes)-1))
				}
				return env.Eval(n.Nodes[1])
			case ast.SymSpliceUnquote:
				return env.ErrorConditionf(CondRuntimeError, "splice-unquote must appear inside a list")
			}
		}
		return env.quasiquoteSeq(n.Nodes, n.Loc)
	case *ast.ListPattern:
		return env.quasiquoteSeq(n.Nodes, n.Loc)
	case *ast.HashPattern:
		if len(n.Nodes)%2 != 0 {
			return env.ErrorConditionf(CondTypeError, "map literal has an odd number of forms")
		}
		m := NewMap(len(n.Nodes) / 2)
		for i := 0; i < len(n.Nodes); i += 2 {
			k := env.quasiquote(n.Nodes[i])
			if k.Type == LError {
				return k
			}
			v := env.quasiquote(n.Nodes[i+1])
			if v.Type == LError {
				return v
			}
			if err := m.Set(k, v); err != nil {
				return env.ErrorConditionf(CondTypeError, "%v", err)
			}
		}
		return &LVal{Type: LMap, Map: m, Source: n.Loc}
	case *ast.Module:
		rest := env.quasiquoteSeq(n.Body, n.Loc)
		if rest.Type == LError {
			return rest
		}
		cells := append([]*LVal{Symbol(ast.SymBeginModule.Value()), String(n.Name)}, rest.Cells...)
		return &LVal{Type: LList, Cells: cells, Source: n.Loc}
	}
	v := Quote(node)
	if v.Type == LError {
		return env.ErrorAssociate(v)
	}
	return v
}

func (env *LEnv) quasiquoteSeq(nodes []ast.Node, loc *token.Location) *LVal {
	cells := make([]*LVal, 0, len(nodes))
	for _, n := range nodes {
		if l, ok := n.(*ast.List); ok {
			if head, ok := l.Head(); ok && head.Name == ast.SymSpliceUnquote {
				if len(l.Nodes) != 2 {
					return env.ErrorAssociate(ArityError("splice-unquote", "1 form", len(l.Nodes)-1))
				}
				seq := env.Eval(l.Nodes[1])
				if seq.Type == LError {
					return seq
				}
				if seq.Type == LNil {
					continue
				}
				items, lerr := env.sequence(seq)
				if lerr != nil {
					return lerr
				}
				cells = append(cells, items...)
				continue
			}
		}
		v := env.quasiquote(n)
		if v.Type == LError {
			return v
		}
		cells = append(cells, v)
	}
	return &LVal{Type: LList, Cells: cells, Source: loc}
}
