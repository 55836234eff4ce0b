package branchtree

import "fmt"

// Builder constructs a branch tree of fixed depth and degree.
type Builder struct {
	root   string
	depth  int
	degree int
}

// NewBuilder creates a builder. Nothing is generated until Build is called.
func NewBuilder(root string, depth, degree int) *Builder {
	return &Builder{root: root, depth: depth, degree: degree}
}

// Build generates the tree level by level and returns the root together with
// the number of nodes created. The count comes from construction itself.
//
// Level 0 is the root; each level d in 1..depth has degree children under
// every node of level d-1, named branch_d{d}_n{idx+1} where idx runs across
// the whole level.
func (b *Builder) Build() (*Node, int, error) {
	if b.root == "" {
		return nil, 0, fmt.Errorf("root branch name is empty")
	}
	if b.depth < 0 {
		return nil, 0, fmt.Errorf("tree depth must not be negative, got %d", b.depth)
	}
	if b.degree < 0 {
		return nil, 0, fmt.Errorf("tree degree must not be negative, got %d", b.degree)
	}

	root := &Node{Name: b.root}
	count := 1

	current := []*Node{root}
	for d := 1; d <= b.depth && b.degree > 0; d++ {
		next := make([]*Node, 0, len(current)*b.degree)
		for _, parent := range current {
			for i := 0; i < b.degree; i++ {
				child := &Node{
					Name:   BranchName(d, len(next)),
					Parent: parent,
					Depth:  d,
				}
				parent.Children = append(parent.Children, child)
				next = append(next, child)
				count++
			}
		}
		current = next
	}

	return root, count, nil
}

// Build is a convenience wrapper around NewBuilder(...).Build().
func Build(root string, depth, degree int) (*Node, int, error) {
	return NewBuilder(root, depth, degree).Build()
}
