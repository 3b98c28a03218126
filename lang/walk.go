package lang

// Walk traverses the tree rooted at n in depth-first order, calling fn for
// each node. Children of a node are skipped when fn returns false.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}

	for _, c := range children(n) {
		Walk(c, fn)
	}
}

// children returns the direct operands of n.
func children(n Node) []Node {
	switch n := n.(type) {
	case *MemberAccess:
		return optional(n.Instance)
	case *Call:
		return append(optional(n.Instance), n.Args...)
	case *Invoke:
		return append([]Node{n.Func}, n.Args...)
	case *NewExpr:
		out := append([]Node(nil), n.Args...)
		for _, in := range n.Inits {
			out = append(out, in.Value)
		}

		out = append(out, n.Elems...)
		for _, kv := range n.Pairs {
			out = append(out, kv[0], kv[1])
		}

		return out
	case *NewArray:
		return append(optional(n.Len), n.Items...)
	case *Conditional:
		return []Node{n.Test, n.Then, n.Else}
	case *Binary:
		return []Node{n.Left, n.Right}
	case *Unary:
		return []Node{n.Operand}
	case *Index:
		return append([]Node{n.Instance}, n.Args...)
	case *Element:
		return []Node{n.Instance, n.Key}
	case *LambdaExpr:
		return []Node{n.Body}
	case *Convert:
		return []Node{n.Operand}
	case *TypeTest:
		return []Node{n.Operand}
	case *Coalesce:
		return []Node{n.Left, n.Right}
	case *Assign:
		return []Node{n.Target, n.Value}
	case *Let:
		return []Node{n.Value, n.Body}
	case *DynamicOp:
		return n.Operands
	}

	return nil
}

func optional(n Node) []Node {
	if n == nil {
		return nil
	}

	return []Node{n}
}

// assignedParameters returns the parameters that root stores to directly.
func assignedParameters(root Node) map[*Parameter]bool {
	out := map[*Parameter]bool{}

	Walk(root, func(n Node) bool {
		if a, ok := n.(*Assign); ok {
			if ref, ok := a.Target.(*ParamRef); ok {
				out[ref.Param] = true
			}
		}

		return true
	})

	return out
}
