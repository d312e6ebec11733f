package gene

import "fmt"

// Clone deep-copies a record by rebuilding every nested record and sequence
// through With. The result shares no sequence storage with r.
func Clone(r Record) (Record, error) {
	if r == nil {
		return nil, nil
	}
	out := r
	for _, f := range r.Fields() {
		var (
			next Value
			err  error
		)
		switch v := f.Value.(type) {
		case Nested:
			if v.Record == nil {
				continue
			}
			var c Record
			c, err = Clone(v.Record)
			next = Nested{Record: c}
		case Seq:
			var items []Record
			items, err = CloneAll(v.Items)
			next = Seq{Items: items, Elem: v.Elem}
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("clone %s.%s: %w", r.Kind(), f.Name, err)
		}
		if out, err = out.With(f.Name, next); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func CloneAll(items []Record) ([]Record, error) {
	out := make([]Record, 0, len(items))
	for _, item := range items {
		c, err := Clone(item)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
