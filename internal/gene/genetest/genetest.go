// Package genetest provides small annotated record types shared by tests of
// the variation packages.
package genetest

import (
	"fmt"
	"math"

	"evodex/internal/gene"
)

var (
	LeafWeight   = gene.MustScalar(0.5, 0, 10)
	LeafCount    = gene.MustScalar(1, 0, 5)
	BranchScale  = gene.MustScalar(0.1, 0.5, 2)
	BranchLeaves = gene.MustList(gene.Chain, 1, 4, 0.5, 0.5)
	RootGain     = gene.MustScalar(0.2, -1, 1)
	RootBranches = gene.MustList(gene.Parallel, 1, 3, 0.5, 0.5)
)

type Leaf struct {
	Name   string
	Weight float64
	Count  int
}

func (Leaf) Kind() string { return "leaf" }
func (Leaf) Role() string { return "tip" }

func (l Leaf) Fields() []gene.Field {
	return []gene.Field{
		{Name: "weight", Gene: LeafWeight, Value: gene.Number{V: l.Weight}},
		{Name: "count", Gene: LeafCount, Value: gene.Number{V: float64(l.Count), Integral: true}},
	}
}

func (l Leaf) With(name string, v gene.Value) (gene.Record, error) {
	f, err := gene.NumberOf(v)
	if err != nil {
		return nil, fmt.Errorf("leaf.%s: %w", name, err)
	}
	switch name {
	case "weight":
		l.Weight = f
	case "count":
		l.Count = int(math.Round(f))
	default:
		return nil, unknownField(l, name)
	}
	return l, nil
}

type Branch struct {
	Label  string
	Scale  float64
	Leaves []Leaf
}

func (Branch) Kind() string { return "branch" }
func (Branch) Role() string { return "limb" }

func (b Branch) Fields() []gene.Field {
	return []gene.Field{
		{Name: "scale", Gene: BranchScale, Value: gene.Number{V: b.Scale}},
		{Name: "leaves", Gene: BranchLeaves, Value: gene.Seq{Items: gene.Records(b.Leaves), Elem: Leaf{}}},
	}
}

func (b Branch) With(name string, v gene.Value) (gene.Record, error) {
	switch name {
	case "scale":
		f, err := gene.NumberOf(v)
		if err != nil {
			return nil, err
		}
		b.Scale = f
	case "leaves":
		s, err := gene.SeqOf(v)
		if err != nil {
			return nil, err
		}
		if b.Leaves, err = gene.Items[Leaf](s); err != nil {
			return nil, err
		}
	default:
		return nil, unknownField(b, name)
	}
	return b, nil
}

// Root has every field shape: a scalar gene, a nested record without a
// gene, a parallel list gene and a plain list.
type Root struct {
	Name     string
	Gain     float64
	Core     Leaf
	Branches []Branch
	Extras   []Leaf
}

func (Root) Kind() string { return "root" }

func (r Root) Fields() []gene.Field {
	return []gene.Field{
		{Name: "gain", Gene: RootGain, Value: gene.Number{V: r.Gain}},
		{Name: "core", Value: gene.Nested{Record: r.Core}},
		{Name: "branches", Gene: RootBranches, Value: gene.Seq{Items: gene.Records(r.Branches), Elem: Branch{}}},
		{Name: "extras", Value: gene.Seq{Items: gene.Records(r.Extras), Elem: Leaf{}}},
	}
}

func (r Root) With(name string, v gene.Value) (gene.Record, error) {
	var err error
	switch name {
	case "gain":
		r.Gain, err = gene.NumberOf(v)
	case "core":
		r.Core, err = gene.As[Leaf](v)
	case "branches":
		var s gene.Seq
		if s, err = gene.SeqOf(v); err == nil {
			r.Branches, err = gene.Items[Branch](s)
		}
	case "extras":
		var s gene.Seq
		if s, err = gene.SeqOf(v); err == nil {
			r.Extras, err = gene.Items[Leaf](s)
		}
	default:
		return nil, unknownField(r, name)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Other is a record kind unrelated to the rest of the fixture schema.
type Other struct {
	Gain float64
}

func (Other) Kind() string { return "other" }

func (o Other) Fields() []gene.Field {
	return []gene.Field{{Name: "gain", Gene: RootGain, Value: gene.Number{V: o.Gain}}}
}

func (o Other) With(name string, v gene.Value) (gene.Record, error) {
	if name != "gain" {
		return nil, unknownField(o, name)
	}
	f, err := gene.NumberOf(v)
	if err != nil {
		return nil, err
	}
	o.Gain = f
	return o, nil
}

func unknownField(r gene.Record, name string) error {
	return fmt.Errorf("%w: %s has no field %q", gene.ErrSchemaMismatch, r.Kind(), name)
}

// Sample returns a root with two branches of two and three leaves.
func Sample() Root {
	return Root{
		Name: "sample",
		Gain: 0.25,
		Core: Leaf{Name: "core", Weight: 1.5, Count: 2},
		Branches: []Branch{
			{Label: "b0", Scale: 1.0, Leaves: []Leaf{
				{Name: "a", Weight: 1, Count: 1},
				{Name: "b", Weight: 2, Count: 2},
			}},
			{Label: "b1", Scale: 1.5, Leaves: []Leaf{
				{Name: "c", Weight: 3, Count: 3},
				{Name: "d", Weight: 4, Count: 4},
				{Name: "e", Weight: 5, Count: 5},
			}},
		},
		Extras: []Leaf{{Name: "x", Weight: 6, Count: 0}},
	}
}

// Alternate returns a root shaped differently from Sample: one branch with
// a single leaf.
func Alternate() Root {
	return Root{
		Name: "alternate",
		Gain: -0.5,
		Core: Leaf{Name: "core", Weight: 7, Count: 4},
		Branches: []Branch{
			{Label: "z0", Scale: 0.75, Leaves: []Leaf{
				{Name: "q", Weight: 9, Count: 0},
			}},
		},
	}
}
