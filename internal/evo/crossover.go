package evo

import (
	"context"
	"fmt"
	"math/rand"

	"evodex/internal/gene"
)

// Crossover recombines two parents of the same record kind field by field:
// one-point splice for list genes, arithmetic blend for scalar genes and
// elementwise recursion for plain nested records and sequences. Everything
// else is taken from parent A.
type Crossover struct {
	Rand *rand.Rand
}

func (c *Crossover) Name() string {
	return "crossover"
}

func (c *Crossover) Arity() int {
	return 2
}

func (c *Crossover) Apply(_ context.Context, parents ...gene.Record) (gene.Record, error) {
	if err := checkArity(c, parents); err != nil {
		return nil, err
	}
	return c.Cross(parents[0], parents[1])
}

func (c *Crossover) Cross(a, b gene.Record) (gene.Record, error) {
	if c == nil || c.Rand == nil {
		return nil, ErrRandomSource
	}
	out, err := c.cross(a, b)
	observe(c.Name(), err)
	return out, err
}

// SameKind is the compatibility rule of record-aligned crossover.
func SameKind(parents []gene.Record) error {
	if len(parents) == 0 {
		return nil
	}
	for _, p := range parents[1:] {
		if p.Kind() != parents[0].Kind() {
			return fmt.Errorf("%w: %s vs %s", gene.ErrSchemaMismatch, parents[0].Kind(), p.Kind())
		}
	}
	return nil
}

func (c *Crossover) cross(a, b gene.Record) (gene.Record, error) {
	if a.Kind() != b.Kind() {
		return nil, fmt.Errorf("%w: %s vs %s", gene.ErrSchemaMismatch, a.Kind(), b.Kind())
	}
	partner := fieldsByName(b)

	out := a
	for _, fa := range a.Fields() {
		fb, ok := partner[fa.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s missing in parent B", gene.ErrSchemaMismatch, a.Kind(), fa.Name)
		}

		var (
			next gene.Value
			err  error
		)
		switch g := fa.Gene.(type) {
		case gene.Scalar:
			next, err = blend(g, fa, fb, c.Rand.Float64())
		case gene.List:
			var sa, sb gene.Seq
			if sa, sb, err = seqPair(fa, fb); err != nil {
				break
			}
			cut := c.Rand.Intn(min(len(sa.Items), len(sb.Items)) + 1)
			var items []gene.Record
			if items, err = onePoint(sa.Items, sb.Items, cut, g.MaxLen); err == nil {
				next = gene.Seq{Items: items, Elem: sa.Elem}
			}
		case nil:
			next, err = c.crossPlain(fa, fb)
		default:
			err = fmt.Errorf("%w: unknown gene %T", gene.ErrSchemaMismatch, fa.Gene)
		}
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", a.Kind(), fa.Name, err)
		}
		if next == nil {
			continue
		}
		if out, err = out.With(fa.Name, next); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// crossPlain handles fields without a gene. Nested records recurse; plain
// sequences recurse over the shared prefix and keep the longer parent's tail.
func (c *Crossover) crossPlain(fa, fb gene.Field) (gene.Value, error) {
	switch va := fa.Value.(type) {
	case gene.Nested:
		vb, ok := fb.Value.(gene.Nested)
		if !ok {
			return nil, fmt.Errorf("%w: nested vs %T", gene.ErrSchemaMismatch, fb.Value)
		}
		if va.Record == nil {
			return nil, nil
		}
		if vb.Record == nil {
			child, err := gene.Clone(va.Record)
			return gene.Nested{Record: child}, err
		}
		child, err := c.cross(va.Record, vb.Record)
		if err != nil {
			return nil, err
		}
		return gene.Nested{Record: child}, nil
	case gene.Seq:
		sa, sb, err := seqPair(fa, fb)
		if err != nil {
			return nil, err
		}
		shared := min(len(sa.Items), len(sb.Items))
		items := make([]gene.Record, 0, max(len(sa.Items), len(sb.Items)))
		for i := 0; i < shared; i++ {
			child, err := c.cross(sa.Items[i], sb.Items[i])
			if err != nil {
				return nil, err
			}
			items = append(items, child)
		}
		longer := sa.Items
		if len(sb.Items) > len(longer) {
			longer = sb.Items
		}
		tail, err := gene.CloneAll(longer[shared:])
		if err != nil {
			return nil, err
		}
		return gene.Seq{Items: append(items, tail...), Elem: sa.Elem}, nil
	default:
		return nil, nil
	}
}

// onePoint returns a[:cut] followed by b[cut:], truncated to maxLen, with
// every element deep-copied.
func onePoint(a, b []gene.Record, cut, maxLen int) ([]gene.Record, error) {
	if cut < 0 || cut > len(a) || cut > len(b) {
		return nil, fmt.Errorf("%w: cut %d outside [0, %d]", gene.ErrInvariant, cut, min(len(a), len(b)))
	}
	spliced := make([]gene.Record, 0, cut+len(b)-cut)
	spliced = append(spliced, a[:cut]...)
	spliced = append(spliced, b[cut:]...)
	if len(spliced) > maxLen {
		spliced = spliced[:maxLen]
	}
	return gene.CloneAll(spliced)
}

// blend returns alpha*A + (1-alpha)*B for a scalar gene, bounded and rounded
// like a mutation result.
func blend(g gene.Scalar, fa, fb gene.Field, alpha float64) (gene.Value, error) {
	na, ok := fa.Value.(gene.Number)
	if !ok {
		return nil, fmt.Errorf("%w: cannot blend %T", gene.ErrSchemaMismatch, fa.Value)
	}
	nb, ok := fb.Value.(gene.Number)
	if !ok {
		return nil, fmt.Errorf("%w: cannot blend number with %T", gene.ErrSchemaMismatch, fb.Value)
	}
	v := alpha*na.V + (1-alpha)*nb.V
	return gene.Number{V: g.Bound(v, na.Integral), Integral: na.Integral}, nil
}

func seqPair(fa, fb gene.Field) (gene.Seq, gene.Seq, error) {
	sa, err := gene.SeqOf(fa.Value)
	if err != nil {
		return gene.Seq{}, gene.Seq{}, err
	}
	sb, err := gene.SeqOf(fb.Value)
	if err != nil {
		return gene.Seq{}, gene.Seq{}, err
	}
	return sa, sb, nil
}

func fieldsByName(r gene.Record) map[string]gene.Field {
	fields := r.Fields()
	out := make(map[string]gene.Field, len(fields))
	for _, f := range fields {
		out[f.Name] = f
	}
	return out
}
