package ir

// PostOrder visits the expression tree rooted at n in post-order, invoking
// fn exactly once per node. Shared subtrees are visited a single time, so
// the traversal is safe for DAG-shaped inputs.
func PostOrder(n *Node, fn func(*Node) error) error {
	seen := make(map[*Node]bool)
	return postOrder(n, seen, fn)
}

func postOrder(n *Node, seen map[*Node]bool, fn func(*Node) error) error {
	if n == nil || seen[n] {
		return nil
	}
	seen[n] = true
	for _, op := range n.ops {
		if err := postOrder(op, seen, fn); err != nil {
			return err
		}
	}
	return fn(n)
}
