// Package tree projects genotypes onto rooted trees whose edges follow list
// gene topology, and rebuilds genotypes from such trees.
//
// Trees are arenas: nodes are addressed by index, children by index lists,
// and parents by a separate index array. Node 0 is the root.
package tree

import (
	"errors"
	"fmt"

	"evodex/internal/gene"
)

var ErrNodeRange = errors.New("node index out of range")

// Node holds one record. Label is the field name of the edge from the
// parent. Link marks a chain element that continues its parent's chain
// instead of starting a field of the parent.
type Node struct {
	Record   gene.Record
	Label    string
	Link     bool
	Children []int
}

type Tree struct {
	nodes  []Node
	parent []int
}

// Build projects a deep copy of r. Parallel list genes and plain sequences
// fan out as siblings, chain list genes thread as a linear path and nested
// records become a single labeled child.
func Build(r gene.Record) (*Tree, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil record", gene.ErrSchemaMismatch)
	}
	c, err := gene.Clone(r)
	if err != nil {
		return nil, err
	}
	t := &Tree{}
	t.add(-1, c, "", false)
	if err := t.project(0); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) add(parent int, r gene.Record, label string, link bool) int {
	idx := len(t.nodes)
	t.nodes = append(t.nodes, Node{Record: r, Label: label, Link: link})
	t.parent = append(t.parent, parent)
	if parent >= 0 {
		t.nodes[parent].Children = append(t.nodes[parent].Children, idx)
	}
	return idx
}

func (t *Tree) project(at int) error {
	rec := t.nodes[at].Record
	for _, f := range rec.Fields() {
		switch v := f.Value.(type) {
		case gene.Nested:
			if f.Gene != nil {
				return fmt.Errorf("%w: %s.%s: %T on nested record", gene.ErrSchemaMismatch, rec.Kind(), f.Name, f.Gene)
			}
			if v.Record == nil {
				continue
			}
			if err := t.project(t.add(at, v.Record, f.Name, false)); err != nil {
				return err
			}
		case gene.Seq:
			chain, err := isChain(f)
			if err != nil {
				return fmt.Errorf("%s.%s: %w", rec.Kind(), f.Name, err)
			}
			owner := at
			for i, item := range v.Items {
				child := t.add(owner, item, f.Name, chain && i > 0)
				if err := t.project(child); err != nil {
					return err
				}
				if chain {
					owner = child
				}
			}
		}
	}
	return nil
}

func isChain(f gene.Field) (bool, error) {
	switch g := f.Gene.(type) {
	case nil:
		return false, nil
	case gene.List:
		return g.Structure == gene.Chain, nil
	default:
		return false, fmt.Errorf("%w: %T on sequence", gene.ErrSchemaMismatch, f.Gene)
	}
}

// Record rebuilds the genotype held by the tree. Children are grouped by
// edge label; chains are followed through their link nodes.
func (t *Tree) Record() (gene.Record, error) {
	if t == nil || len(t.nodes) == 0 {
		return nil, fmt.Errorf("%w: empty tree", ErrNodeRange)
	}
	return t.rebuild(0)
}

func (t *Tree) rebuild(at int) (gene.Record, error) {
	rec := t.nodes[at].Record
	groups := make(map[string][]int)
	for _, c := range t.nodes[at].Children {
		if t.nodes[c].Link {
			continue
		}
		groups[t.nodes[c].Label] = append(groups[t.nodes[c].Label], c)
	}

	for _, f := range rec.Fields() {
		kids := groups[f.Name]
		var next gene.Value
		switch v := f.Value.(type) {
		case gene.Nested:
			if len(kids) == 0 {
				continue
			}
			if len(kids) > 1 {
				return nil, fmt.Errorf("%w: %s.%s has %d children, want 1", gene.ErrSchemaMismatch, rec.Kind(), f.Name, len(kids))
			}
			child, err := t.rebuild(kids[0])
			if err != nil {
				return nil, err
			}
			next = gene.Nested{Record: child}
		case gene.Seq:
			chain, err := isChain(f)
			if err != nil {
				return nil, err
			}
			var items []gene.Record
			if chain {
				items, err = t.rebuildChain(kids, f.Name)
			} else {
				items, err = t.rebuildAll(kids)
			}
			if err != nil {
				return nil, err
			}
			next = gene.Seq{Items: items, Elem: v.Elem}
		default:
			continue
		}
		var err error
		if rec, err = rec.With(f.Name, next); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func (t *Tree) rebuildAll(kids []int) ([]gene.Record, error) {
	items := make([]gene.Record, 0, len(kids))
	for _, c := range kids {
		item, err := t.rebuild(c)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (t *Tree) rebuildChain(heads []int, label string) ([]gene.Record, error) {
	if len(heads) == 0 {
		return nil, nil
	}
	if len(heads) > 1 {
		return nil, fmt.Errorf("%w: chain %q has %d heads", gene.ErrSchemaMismatch, label, len(heads))
	}
	var items []gene.Record
	for cur := heads[0]; cur >= 0; {
		item, err := t.rebuild(cur)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		next := -1
		for _, c := range t.nodes[cur].Children {
			if !t.nodes[c].Link || t.nodes[c].Label != label {
				continue
			}
			if next >= 0 {
				return nil, fmt.Errorf("%w: chain %q forks at node %d", gene.ErrSchemaMismatch, label, cur)
			}
			next = c
		}
		cur = next
	}
	return items, nil
}
