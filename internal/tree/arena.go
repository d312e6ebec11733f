package tree

import (
	"fmt"

	"evodex/internal/gene"
)

func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns node i. The returned Children slice must not be modified.
func (t *Tree) Node(i int) Node {
	return t.nodes[i]
}

// Parent returns the index of i's parent, or -1 for the root.
func (t *Tree) Parent(i int) int {
	return t.parent[i]
}

// SetRecord replaces the record held by node i without touching its edges.
func (t *Tree) SetRecord(i int, r gene.Record) error {
	if i < 0 || i >= len(t.nodes) {
		return fmt.Errorf("%w: %d", ErrNodeRange, i)
	}
	t.nodes[i].Record = r
	return nil
}

// Nodes lists node indexes in depth-first order, keeping only records with
// the given role. An empty role keeps every node.
func (t *Tree) Nodes(role string) []int {
	out := make([]int, 0, len(t.nodes))
	for i := range t.nodes {
		if role == "" || gene.RoleOf(t.nodes[i].Record) == role {
			out = append(out, i)
		}
	}
	return out
}

// Depth returns the number of edges between node i and the root.
func (t *Tree) Depth(i int) int {
	d := 0
	for p := t.parent[i]; p >= 0; p = t.parent[p] {
		d++
	}
	return d
}

// Splice returns a new tree equal to t with the subtree rooted at node at
// replaced by a copy of donor's subtree rooted at from. The spliced root
// keeps the label and link flag of the node it replaces. When at is the
// root, the result is a copy of the donor subtree.
func (t *Tree) Splice(at int, donor *Tree, from int) (*Tree, error) {
	if at < 0 || at >= len(t.nodes) {
		return nil, fmt.Errorf("%w: splice target %d", ErrNodeRange, at)
	}
	if from < 0 || from >= len(donor.nodes) {
		return nil, fmt.Errorf("%w: splice source %d", ErrNodeRange, from)
	}
	s := splicer{out: &Tree{}, target: t, at: at, donor: donor, from: from}
	if at == 0 {
		s.copyDonor(from, -1, "", false)
	} else {
		s.copyTarget(0, -1)
	}
	return s.out, nil
}

type splicer struct {
	out    *Tree
	target *Tree
	at     int
	donor  *Tree
	from   int
}

func (s *splicer) copyTarget(i, parent int) {
	n := s.target.nodes[i]
	idx := s.out.add(parent, n.Record, n.Label, n.Link)
	for _, c := range n.Children {
		if c == s.at {
			replaced := s.target.nodes[c]
			s.copyDonor(s.from, idx, replaced.Label, replaced.Link)
			continue
		}
		s.copyTarget(c, idx)
	}
}

func (s *splicer) copyDonor(i, parent int, label string, link bool) {
	n := s.donor.nodes[i]
	idx := s.out.add(parent, n.Record, label, link)
	for _, c := range n.Children {
		child := s.donor.nodes[c]
		s.copyDonor(c, idx, child.Label, child.Link)
	}
}
