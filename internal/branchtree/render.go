package branchtree

import (
	"fmt"
	"io"
	"strings"
)

// Render writes an indented ASCII drawing of the tree. At most maxNodes
// nodes are drawn; the remainder is summarized on a final line. maxNodes <= 0
// draws everything.
func Render(w io.Writer, root *Node, maxNodes int) error {
	if root == nil {
		return nil
	}
	r := &renderer{w: w, max: maxNodes}
	if _, err := fmt.Fprintln(w, root.Name); err != nil {
		return err
	}
	r.drawn = 1
	r.children(root, "")
	if r.err != nil {
		return r.err
	}
	if r.skipped > 0 {
		_, err := fmt.Fprintf(w, "... %d more branches\n", r.skipped)
		return err
	}
	return nil
}

type renderer struct {
	w       io.Writer
	max     int
	drawn   int
	skipped int
	err     error
}

func (r *renderer) children(n *Node, prefix string) {
	for i, c := range n.Children {
		if r.err != nil {
			return
		}
		if r.max > 0 && r.drawn >= r.max {
			r.skipped += subtreeSize(c)
			continue
		}
		last := i == len(n.Children)-1
		connector, indent := "├── ", "│   "
		if last {
			connector, indent = "└── ", "    "
		}
		if _, err := fmt.Fprintln(r.w, prefix+connector+c.Name); err != nil {
			r.err = err
			return
		}
		r.drawn++
		r.children(c, prefix+indent)
	}
}

func subtreeSize(n *Node) int {
	size := 1
	for _, c := range n.Children {
		size += subtreeSize(c)
	}
	return size
}

// String renders the full tree.
func (n *Node) String() string {
	var sb strings.Builder
	_ = Render(&sb, n, 0)
	return sb.String()
}
