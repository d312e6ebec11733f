package evo

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"evodex/internal/gene"
)

// Mutator perturbs scalar genes with clamped Gaussian noise and resizes list
// genes by cloning or dropping one element, recursing through every nested
// record and sequence.
//
// Add and remove are both decided against the list length at the start of
// the field's step; the removed element is drawn from the list after any
// addition.
type Mutator struct {
	Rand   *rand.Rand
	Logger *slog.Logger
}

func (m *Mutator) Name() string {
	return "mutate"
}

func (m *Mutator) Arity() int {
	return 1
}

func (m *Mutator) Apply(_ context.Context, parents ...gene.Record) (gene.Record, error) {
	if err := checkArity(m, parents); err != nil {
		return nil, err
	}
	return m.Mutate(parents[0])
}

// Mutate returns a mutated copy of r.
func (m *Mutator) Mutate(r gene.Record) (gene.Record, error) {
	if m == nil || m.Rand == nil {
		return nil, ErrRandomSource
	}
	out, err := m.mutateRecord(r)
	observe(m.Name(), err)
	return out, err
}

func (m *Mutator) mutateRecord(r gene.Record) (gene.Record, error) {
	out := r
	for _, f := range r.Fields() {
		var next gene.Value
		switch g := f.Gene.(type) {
		case gene.Scalar:
			n, ok := f.Value.(gene.Number)
			if !ok {
				return nil, fmt.Errorf("%w: %s.%s: scalar gene on %T", gene.ErrSchemaMismatch, r.Kind(), f.Name, f.Value)
			}
			next = gene.Number{V: perturb(g, n, m.Rand.NormFloat64()), Integral: n.Integral}
		case gene.List:
			s, ok := f.Value.(gene.Seq)
			if !ok {
				return nil, fmt.Errorf("%w: %s.%s: list gene on %T", gene.ErrSchemaMismatch, r.Kind(), f.Name, f.Value)
			}
			items, err := m.resize(r.Kind(), f.Name, g, s.Items)
			if err != nil {
				return nil, err
			}
			if items, err = m.mutateAll(items); err != nil {
				return nil, err
			}
			next = gene.Seq{Items: items, Elem: s.Elem}
		case nil:
			switch v := f.Value.(type) {
			case gene.Nested:
				if v.Record == nil {
					continue
				}
				child, err := m.mutateRecord(v.Record)
				if err != nil {
					return nil, err
				}
				next = gene.Nested{Record: child}
			case gene.Seq:
				items, err := m.mutateAll(v.Items)
				if err != nil {
					return nil, err
				}
				next = gene.Seq{Items: items, Elem: v.Elem}
			default:
				continue
			}
		default:
			return nil, fmt.Errorf("%w: %s.%s: unknown gene %T", gene.ErrSchemaMismatch, r.Kind(), f.Name, f.Gene)
		}

		var err error
		if out, err = out.With(f.Name, next); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (m *Mutator) mutateAll(items []gene.Record) ([]gene.Record, error) {
	out := make([]gene.Record, 0, len(items))
	for _, item := range items {
		mutated, err := m.mutateRecord(item)
		if err != nil {
			return nil, err
		}
		out = append(out, mutated)
	}
	return out, nil
}

// resize applies the add and remove steps of a list gene. An add on an empty
// list has nothing to clone and is a no-op.
func (m *Mutator) resize(kind, field string, g gene.List, items []gene.Record) ([]gene.Record, error) {
	n := len(items)
	out := append([]gene.Record(nil), items...)

	if m.Rand.Float64() < g.AddProb && n < g.MaxLen {
		if n == 0 {
			listResizeTotal.WithLabelValues("add_noop").Inc()
		} else {
			clone, err := gene.Clone(out[m.Rand.Intn(n)])
			if err != nil {
				return nil, err
			}
			out = append(out, clone)
			listResizeTotal.WithLabelValues("add").Inc()
		}
	}
	if m.Rand.Float64() < g.RemoveProb && n > g.MinLen {
		idx := m.Rand.Intn(len(out))
		out = append(out[:idx], out[idx+1:]...)
		listResizeTotal.WithLabelValues("remove").Inc()
	}

	if len(out) != n {
		loggerOrDefault(m.Logger).Debug("list gene resized",
			slog.String("kind", kind),
			slog.String("field", field),
			slog.Int("from", n),
			slog.Int("to", len(out)),
		)
	}
	return out, nil
}

// perturb adds std-scaled noise to a scalar and clamps it into the gene's
// bounds. draw is a standard normal sample.
func perturb(g gene.Scalar, n gene.Number, draw float64) float64 {
	return g.Bound(n.V+draw*g.MutationStd, n.Integral)
}
