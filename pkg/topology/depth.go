package topology

// MaxDepth returns the maximum nesting depth of the subtree rooted at name:
// 0 for a network with no children, otherwise one more than the deepest
// child. Pure function over the children map; the caller must guarantee the
// map is acyclic ([Resolve] rejects cycles before anything reaches here).
func MaxDepth(name string, childrenOf map[string][]string) int {
	children := childrenOf[name]
	if len(children) == 0 {
		return 0
	}

	deepest := 0
	for _, child := range children {
		if d := MaxDepth(child, childrenOf); d > deepest {
			deepest = d
		}
	}
	return 1 + deepest
}
