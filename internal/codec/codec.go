// Package codec converts genotypes to and from fixed-width float vectors for
// vector-based optimizers.
//
// Encoding follows declared field order. A scalar gene contributes its value.
// A list gene contributes its length, one block per element and NaN padding
// up to max_len blocks, so its width is 1 + max_len*block regardless of the
// current length. Nested records without a gene are encoded in place; plain
// sequences are not encoded.
package codec

import (
	"errors"
	"fmt"
	"math"

	"evodex/internal/gene"
)

var (
	ErrVectorLength         = errors.New("vector length does not match schema")
	ErrInconsistentEncoding = errors.New("list elements encode to different widths")
	ErrMissingTemplate      = errors.New("no template element for list gene")
)

// IsPad reports whether v is a padding entry.
func IsPad(v float64) bool {
	return math.IsNaN(v)
}

// Width returns the encoded length of r. It depends only on r's schema and
// the element prototypes of its lists.
func Width(r gene.Record) (int, error) {
	if r == nil {
		return 0, nil
	}
	n := 0
	for _, f := range r.Fields() {
		switch g := f.Gene.(type) {
		case gene.Scalar:
			n++
		case gene.List:
			s, err := gene.SeqOf(f.Value)
			if err != nil {
				return 0, fmt.Errorf("%s.%s: %w", r.Kind(), f.Name, err)
			}
			w, err := blockWidth(s)
			if err != nil {
				return 0, err
			}
			n += 1 + g.MaxLen*w
		case nil:
			if v, ok := f.Value.(gene.Nested); ok {
				w, err := Width(v.Record)
				if err != nil {
					return 0, err
				}
				n += w
			}
		default:
			return 0, fmt.Errorf("%w: %s.%s: unknown gene %T", gene.ErrSchemaMismatch, r.Kind(), f.Name, f.Gene)
		}
	}
	return n, nil
}

// blockWidth is the per-element width of a list: the prototype's width when
// declared, else the first element's.
func blockWidth(s gene.Seq) (int, error) {
	switch {
	case s.Elem != nil:
		return Width(s.Elem)
	case len(s.Items) > 0:
		return Width(s.Items[0])
	default:
		return 0, nil
	}
}

// Flatten encodes r.
func Flatten(r gene.Record) ([]float64, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil record", gene.ErrSchemaMismatch)
	}
	return appendRecord(nil, r)
}

func appendRecord(out []float64, r gene.Record) ([]float64, error) {
	for _, f := range r.Fields() {
		switch g := f.Gene.(type) {
		case gene.Scalar:
			n, ok := f.Value.(gene.Number)
			if !ok {
				return nil, fmt.Errorf("%w: %s.%s: scalar gene on %T", gene.ErrSchemaMismatch, r.Kind(), f.Name, f.Value)
			}
			out = append(out, n.V)
		case gene.List:
			s, ok := f.Value.(gene.Seq)
			if !ok {
				return nil, fmt.Errorf("%w: %s.%s: list gene on %T", gene.ErrSchemaMismatch, r.Kind(), f.Name, f.Value)
			}
			var err error
			if out, err = appendList(out, r.Kind()+"."+f.Name, g, s); err != nil {
				return nil, err
			}
		case nil:
			v, ok := f.Value.(gene.Nested)
			if !ok || v.Record == nil {
				continue
			}
			var err error
			if out, err = appendRecord(out, v.Record); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: %s.%s: unknown gene %T", gene.ErrSchemaMismatch, r.Kind(), f.Name, f.Gene)
		}
	}
	return out, nil
}

func appendList(out []float64, path string, g gene.List, s gene.Seq) ([]float64, error) {
	if len(s.Items) > g.MaxLen {
		return nil, fmt.Errorf("%w: %s has %d elements, max %d", gene.ErrInvariant, path, len(s.Items), g.MaxLen)
	}
	w, err := blockWidth(s)
	if err != nil {
		return nil, err
	}

	out = append(out, float64(len(s.Items)))
	for i, item := range s.Items {
		start := len(out)
		if out, err = appendRecord(out, item); err != nil {
			return nil, err
		}
		if got := len(out) - start; got != w {
			return nil, fmt.Errorf("%w: %s[%d] encodes to %d values, want %d", ErrInconsistentEncoding, path, i, got, w)
		}
	}
	for i := 0; i < (g.MaxLen-len(s.Items))*w; i++ {
		out = append(out, math.NaN())
	}
	return out, nil
}

// Unflatten decodes vec against template. The template supplies record
// kinds and every value the vector does not carry. Element i of a list is
// decoded over the template's element i, falling back to its first element
// and then to the list's prototype. Decoded values are not clamped; values
// of integral fields are rounded.
func Unflatten(vec []float64, template gene.Record) (gene.Record, error) {
	if template == nil {
		return nil, fmt.Errorf("%w: nil template", ErrMissingTemplate)
	}
	base, err := gene.Clone(template)
	if err != nil {
		return nil, err
	}
	d := &decoder{vec: vec}
	out, err := d.record(base)
	if err != nil {
		return nil, err
	}
	if d.pos != len(vec) {
		return nil, fmt.Errorf("%w: %d trailing values", ErrVectorLength, len(vec)-d.pos)
	}
	return out, nil
}

type decoder struct {
	vec []float64
	pos int
}

func (d *decoder) next(path string) (float64, error) {
	if d.pos >= len(d.vec) {
		return 0, fmt.Errorf("%w: ran out at %s (position %d)", ErrVectorLength, path, d.pos)
	}
	v := d.vec[d.pos]
	d.pos++
	return v, nil
}

func (d *decoder) record(r gene.Record) (gene.Record, error) {
	out := r
	for _, f := range r.Fields() {
		path := r.Kind() + "." + f.Name
		var next gene.Value
		switch g := f.Gene.(type) {
		case gene.Scalar:
			n, ok := f.Value.(gene.Number)
			if !ok {
				return nil, fmt.Errorf("%w: %s: scalar gene on %T", gene.ErrSchemaMismatch, path, f.Value)
			}
			v, err := d.next(path)
			if err != nil {
				return nil, err
			}
			if IsPad(v) {
				return nil, fmt.Errorf("%w: %s: padding in value position %d", gene.ErrInvariant, path, d.pos-1)
			}
			if n.Integral {
				v = math.Round(v)
			}
			next = gene.Number{V: v, Integral: n.Integral}
		case gene.List:
			s, ok := f.Value.(gene.Seq)
			if !ok {
				return nil, fmt.Errorf("%w: %s: list gene on %T", gene.ErrSchemaMismatch, path, f.Value)
			}
			items, err := d.list(path, g, s)
			if err != nil {
				return nil, err
			}
			next = gene.Seq{Items: items, Elem: s.Elem}
		case nil:
			v, ok := f.Value.(gene.Nested)
			if !ok || v.Record == nil {
				continue
			}
			child, err := d.record(v.Record)
			if err != nil {
				return nil, err
			}
			next = gene.Nested{Record: child}
		default:
			return nil, fmt.Errorf("%w: %s: unknown gene %T", gene.ErrSchemaMismatch, path, f.Gene)
		}

		var err error
		if out, err = out.With(f.Name, next); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (d *decoder) list(path string, g gene.List, s gene.Seq) ([]gene.Record, error) {
	raw, err := d.next(path)
	if err != nil {
		return nil, err
	}
	if IsPad(raw) {
		return nil, fmt.Errorf("%w: %s: padding in count position %d", gene.ErrInvariant, path, d.pos-1)
	}
	n := int(math.Round(raw))
	if n < 0 || n > g.MaxLen {
		return nil, fmt.Errorf("%w: %s: count %v outside [0, %d]", gene.ErrInvariant, path, raw, g.MaxLen)
	}
	w, err := blockWidth(s)
	if err != nil {
		return nil, err
	}

	var items []gene.Record
	for i := 0; i < n; i++ {
		base, err := elementBase(s, i)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", path, i, err)
		}
		start := d.pos
		item, err := d.record(base)
		if err != nil {
			return nil, err
		}
		if got := d.pos - start; got != w {
			return nil, fmt.Errorf("%w: %s[%d] decodes %d values, want %d", ErrInconsistentEncoding, path, i, got, w)
		}
		items = append(items, item)
	}

	skip := (g.MaxLen - n) * w
	if d.pos+skip > len(d.vec) {
		return nil, fmt.Errorf("%w: %s padding runs past the end", ErrVectorLength, path)
	}
	d.pos += skip
	return items, nil
}

func elementBase(s gene.Seq, i int) (gene.Record, error) {
	switch {
	case i < len(s.Items):
		return gene.Clone(s.Items[i])
	case len(s.Items) > 0:
		return gene.Clone(s.Items[0])
	case s.Elem != nil:
		return gene.Clone(s.Elem)
	default:
		return nil, ErrMissingTemplate
	}
}
