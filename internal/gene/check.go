package gene

import (
	"fmt"
	"strconv"
)

// WalkFunc is called for every record reached by Walk. path is a dotted
// field path such as "fingers[1].segments[0]"; the root has an empty path.
type WalkFunc func(path string, r Record) error

// Walk visits r and every record nested below it, depth first in declared
// field order.
func Walk(r Record, fn WalkFunc) error {
	return walk("", r, fn)
}

func walk(path string, r Record, fn WalkFunc) error {
	if r == nil {
		return nil
	}
	if err := fn(path, r); err != nil {
		return err
	}
	for _, f := range r.Fields() {
		switch v := f.Value.(type) {
		case Nested:
			if err := walk(join(path, f.Name), v.Record, fn); err != nil {
				return err
			}
		case Seq:
			for i, item := range v.Items {
				if err := walk(join(path, f.Name)+"["+strconv.Itoa(i)+"]", item, fn); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// Check verifies that every annotation sits on a value of the right shape
// and that scalar values and list lengths respect their bounds.
func Check(r Record) error {
	return Walk(r, func(path string, rec Record) error {
		for _, f := range rec.Fields() {
			if err := checkField(f); err != nil {
				return fmt.Errorf("%s: %w", join(path, f.Name), err)
			}
		}
		return nil
	})
}

func checkField(f Field) error {
	switch g := f.Gene.(type) {
	case nil:
		return nil
	case Scalar:
		n, ok := f.Value.(Number)
		if !ok {
			return fmt.Errorf("%w: scalar gene on %T", ErrSchemaMismatch, f.Value)
		}
		if !g.Contains(n.V) {
			return fmt.Errorf("%w: value %v outside [%v, %v]", ErrInvariant, n.V, g.Min, g.Max)
		}
	case List:
		s, ok := f.Value.(Seq)
		if !ok {
			return fmt.Errorf("%w: list gene on %T", ErrSchemaMismatch, f.Value)
		}
		if !g.Allows(len(s.Items)) {
			return fmt.Errorf("%w: length %d outside [%d, %d]", ErrInvariant, len(s.Items), g.MinLen, g.MaxLen)
		}
	default:
		return fmt.Errorf("%w: unknown gene %T", ErrSchemaMismatch, f.Gene)
	}
	return nil
}
