// Copyright © 2024 The ELPS authors

package ast

// Walk calls fn for every node in the tree, depth-first.  parent is nil for
// top-level forms.  Walk does not descend into quasiquote templates since
// the forms there are data rather than code.
func Walk(nodes []Node, fn func(node, parent Node, depth int)) {
	for _, n := range nodes {
		walkNode(n, nil, 0, fn)
	}
}

func walkNode(node, parent Node, depth int, fn func(Node, Node, int)) {
	if node == nil {
		return
	}
	fn(node, parent, depth)
	for _, child := range Children(node) {
		walkNode(child, node, depth+1, fn)
	}
}

// Children returns the nodes directly contained by node.
func Children(node Node) []Node {
	switch n := node.(type) {
	case *List:
		if head, ok := n.Head(); ok && head.Name == SymQuasiquote {
			return nil
		}
		return n.Nodes
	case *ListPattern:
		return n.Nodes
	case *HashPattern:
		return n.Nodes
	case *Module:
		return n.Body
	}
	return nil
}

// HeadSymbol returns the symbol name at the head of a list, or "".
func HeadSymbol(node Node) string {
	l, ok := node.(*List)
	if !ok {
		return ""
	}
	head, ok := l.Head()
	if !ok {
		return ""
	}
	return head.Str
}

// TopLevel calls fn for every top-level form in nodes, descending into
// begin and begin-module bodies.
func TopLevel(nodes []Node, fn func(node Node, module string)) {
	topLevel(nodes, "", fn)
}

func topLevel(nodes []Node, module string, fn func(Node, string)) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *Module:
			fn(n, module)
			topLevel(n.Body, n.Name, fn)
		case *List:
			if head, ok := n.Head(); ok && head.Name == SymBegin {
				topLevel(n.Nodes[1:], module, fn)
				continue
			}
			fn(n, module)
		default:
			fn(n, module)
		}
	}
}
