package doctree

// WalkStatus tells Walk how to continue after visiting a node.
type WalkStatus int

const (
	WalkContinue     WalkStatus = iota
	WalkSkipChildren            // do not descend into the visited node
	WalkStop
)

// WalkFunc is called for every node in pre-order. ancestors runs from the
// root down to the node's immediate parent and must not be retained.
type WalkFunc func(n *Node, ancestors []*Node) WalkStatus

// Walk visits n and its descendants in pre-order.
func Walk(n *Node, fn WalkFunc) {
	if n == nil {
		return
	}
	walk(n, nil, fn)
}

func walk(n *Node, ancestors []*Node, fn WalkFunc) WalkStatus {
	switch fn(n, ancestors) {
	case WalkStop:
		return WalkStop
	case WalkSkipChildren:
		return WalkContinue
	}
	ancestors = append(ancestors, n)
	for _, c := range n.Children {
		if walk(c, ancestors, fn) == WalkStop {
			return WalkStop
		}
	}
	return WalkContinue
}

// CountKinds tallies nodes by kind across the whole tree.
func CountKinds(n *Node) map[Kind]int {
	counts := make(map[Kind]int)
	Walk(n, func(n *Node, _ []*Node) WalkStatus {
		counts[n.Type]++
		return WalkContinue
	})
	return counts
}
