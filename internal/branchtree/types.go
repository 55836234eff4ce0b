// Package branchtree generates the synthetic branch topology a benchmark run
// walks: a complete tree of fixed depth and branching degree.
package branchtree

import "fmt"

// Node is one branch in the tree. Nodes are never mutated after Build returns.
type Node struct {
	Name     string
	Parent   *Node
	Children []*Node
	Depth    int // 0 for the root
}

// IsRoot returns true for the node without a parent.
func (n *Node) IsRoot() bool {
	return n.Parent == nil
}

// ParentName returns the parent's name, or "" for the root.
func (n *Node) ParentName() string {
	if n.Parent == nil {
		return ""
	}
	return n.Parent.Name
}

// BranchName returns the generated name of the node at depth d and 0-based
// position idx across the whole level.
func BranchName(depth, idx int) string {
	return fmt.Sprintf("branch_d%d_n%d", depth, idx+1)
}

// BreadthFirst returns the nodes in level order, so every parent precedes
// its children.
func BreadthFirst(root *Node) []*Node {
	if root == nil {
		return nil
	}
	order := []*Node{root}
	for i := 0; i < len(order); i++ {
		order = append(order, order[i].Children...)
	}
	return order
}

// Levels groups nodes by depth.
func Levels(root *Node) [][]*Node {
	var levels [][]*Node
	for _, n := range BreadthFirst(root) {
		if n.Depth == len(levels) {
			levels = append(levels, nil)
		}
		levels[n.Depth] = append(levels[n.Depth], n)
	}
	return levels
}
