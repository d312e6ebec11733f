package evo

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"evodex/internal/gene"
	"evodex/internal/tree"
)

// SubtreeCrossover swaps a whole subtree of parent A's projected tree for a
// subtree of parent B rooted at a record of the same kind, then blends the
// scalar genes of every position where the child and both parents agree on
// the record kind. Parents may differ in shape.
type SubtreeCrossover struct {
	Rand *rand.Rand
	// Role restricts the swap candidates in both parents. Empty means any node.
	Role   string
	Logger *slog.Logger
}

func (s *SubtreeCrossover) Name() string {
	return "subtree_crossover"
}

func (s *SubtreeCrossover) Arity() int {
	return 2
}

func (s *SubtreeCrossover) Apply(_ context.Context, parents ...gene.Record) (gene.Record, error) {
	if err := checkArity(s, parents); err != nil {
		return nil, err
	}
	return s.Cross(parents[0], parents[1])
}

func (s *SubtreeCrossover) Cross(a, b gene.Record) (gene.Record, error) {
	if s == nil || s.Rand == nil {
		return nil, ErrRandomSource
	}
	out, err := s.cross(a, b)
	observe(s.Name(), err)
	return out, err
}

func (s *SubtreeCrossover) cross(a, b gene.Record) (gene.Record, error) {
	ta, err := tree.Build(a)
	if err != nil {
		return nil, err
	}
	tb, err := tree.Build(b)
	if err != nil {
		return nil, err
	}

	candidates := ta.Nodes(s.Role)
	if len(candidates) == 0 {
		return s.fallback(ta, "no_candidate")
	}
	at := candidates[s.Rand.Intn(len(candidates))]
	kind := ta.Node(at).Record.Kind()

	var compatible []int
	for _, i := range tb.Nodes(s.Role) {
		if tb.Node(i).Record.Kind() == kind {
			compatible = append(compatible, i)
		}
	}
	if len(compatible) == 0 {
		return s.fallback(ta, "incompatible")
	}
	from := compatible[s.Rand.Intn(len(compatible))]

	child, err := ta.Splice(at, tb, from)
	if err != nil {
		return nil, err
	}
	loggerOrDefault(s.Logger).Debug("subtree swapped",
		slog.String("kind", kind),
		slog.Int("target", at),
		slog.Int("donor", from),
	)

	if err := s.blendAligned(child, ta, tb, 0, 0, 0); err != nil {
		return nil, err
	}
	rec, err := child.Record()
	if err != nil {
		return nil, err
	}
	fitted, ok, err := fitLengths(rec)
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.fallback(ta, "length")
	}
	return fitted, nil
}

func (s *SubtreeCrossover) fallback(ta *tree.Tree, reason string) (gene.Record, error) {
	subtreeFallbackTotal.WithLabelValues(reason).Inc()
	loggerOrDefault(s.Logger).Debug("subtree crossover kept parent A", slog.String("reason", reason))
	return ta.Record()
}

// blendAligned walks the child and both parent trees in lock-step by child
// index. Where all three nodes hold the same record kind, the child's scalar
// genes are replaced by a blend of the parents'; descent stops where the
// kinds diverge.
func (s *SubtreeCrossover) blendAligned(child, ta, tb *tree.Tree, ci, ai, bi int) error {
	cn, an, bn := child.Node(ci), ta.Node(ai), tb.Node(bi)
	kind := cn.Record.Kind()
	if an.Record.Kind() != kind || bn.Record.Kind() != kind {
		return nil
	}

	fa, fb := fieldsByName(an.Record), fieldsByName(bn.Record)
	rec := cn.Record
	for _, f := range cn.Record.Fields() {
		g, ok := f.Gene.(gene.Scalar)
		if !ok {
			continue
		}
		next, err := blend(g, fa[f.Name], fb[f.Name], s.Rand.Float64())
		if err != nil {
			return fmt.Errorf("%s.%s: %w", kind, f.Name, err)
		}
		if rec, err = rec.With(f.Name, next); err != nil {
			return err
		}
	}
	if err := child.SetRecord(ci, rec); err != nil {
		return err
	}

	shared := min(len(cn.Children), len(an.Children), len(bn.Children))
	for i := 0; i < shared; i++ {
		if err := s.blendAligned(child, ta, tb, cn.Children[i], an.Children[i], bn.Children[i]); err != nil {
			return err
		}
	}
	return nil
}

// fitLengths truncates list genes longer than their maximum. It reports
// false when a list gene is shorter than its minimum, which truncation
// cannot repair.
func fitLengths(r gene.Record) (gene.Record, bool, error) {
	out := r
	for _, f := range r.Fields() {
		var next gene.Value
		switch v := f.Value.(type) {
		case gene.Nested:
			if v.Record == nil {
				continue
			}
			child, ok, err := fitLengths(v.Record)
			if err != nil || !ok {
				return nil, ok, err
			}
			next = gene.Nested{Record: child}
		case gene.Seq:
			items := v.Items
			if g, isList := f.Gene.(gene.List); isList {
				if len(items) < g.MinLen {
					return nil, false, nil
				}
				if len(items) > g.MaxLen {
					items = items[:g.MaxLen]
				}
			}
			fitted := make([]gene.Record, 0, len(items))
			for _, item := range items {
				child, ok, err := fitLengths(item)
				if err != nil || !ok {
					return nil, ok, err
				}
				fitted = append(fitted, child)
			}
			next = gene.Seq{Items: fitted, Elem: v.Elem}
		default:
			continue
		}
		var err error
		if out, err = out.With(f.Name, next); err != nil {
			return nil, false, err
		}
	}
	return out, true, nil
}
