package ast

// Inspect traverses the tree rooted at n in depth-first pre-order and calls
// f for each node. If f returns false the children of that node are
// skipped. The traversal keeps its own stack, so deeply nested trees do not
// grow the goroutine stack.
func Inspect(n Node, f func(Node) bool) {
	if isNil(n) {
		return
	}
	stack := []Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !f(cur) {
			continue
		}
		children := cur.Children()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
}

// InspectPost traverses the tree rooted at n in depth-first post-order.
func InspectPost(n Node, f func(Node)) {
	if isNil(n) {
		return
	}
	type frame struct {
		n    Node
		seen bool
	}
	stack := []frame{{n: n}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.seen {
			stack = stack[:len(stack)-1]
			f(top.n)
			continue
		}
		top.seen = true
		children := top.n.Children()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{n: children[i]})
		}
	}
}

// Names returns every explicit name in the tree rooted at n, in source
// order. The segments of a qualified name and the template name of a
// template-id are included after the enclosing name.
func Names(n Node) []NameNode {
	var out []NameNode
	Inspect(n, func(c Node) bool {
		if nm, ok := c.(NameNode); ok {
			out = append(out, nm)
		}
		return true
	})
	return out
}

// Depth returns the number of ancestors of n.
func Depth(n Node) int {
	d := 0
	for p := n.Parent(); !isNil(p); p = p.Parent() {
		d++
	}
	return d
}
