package gene

import "fmt"

// DefaultRole is the role of records that do not declare one.
const DefaultRole = "user"

// Record is a typed configuration record. Implementations are value types:
// With returns a changed copy and never mutates the receiver.
type Record interface {
	// Kind names the concrete record type. Two records are swap-compatible
	// exactly when their kinds are equal.
	Kind() string
	// Fields lists the record's evolvable and structural fields in declared
	// order. Plain data that no operation touches may be left out.
	Fields() []Field
	With(name string, v Value) (Record, error)
}

// Roled is implemented by records that restrict subtree crossover to a role.
type Roled interface {
	Role() string
}

func RoleOf(r Record) string {
	if roled, ok := r.(Roled); ok {
		return roled.Role()
	}
	return DefaultRole
}

// Field is one declared field of a record. Gene is nil for fields that are
// not subject to variation.
type Field struct {
	Name  string
	Gene  Gene
	Value Value
}

// Value is the content of a field: a Number, a Nested record or a Seq.
type Value interface {
	value()
}

type Number struct {
	V        float64
	Integral bool
}

type Nested struct {
	Record Record
}

// Seq is an ordered sequence of sub-records. Elem is an optional zero-value
// prototype of the element type, used when the sequence is empty.
type Seq struct {
	Items []Record
	Elem  Record
}

func (Number) value() {}
func (Nested) value() {}
func (Seq) value()    {}

func Lookup(r Record, name string) (Field, bool) {
	for _, f := range r.Fields() {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Items converts a sequence into a typed slice, failing on any element of
// another concrete type.
func Items[T Record](s Seq) ([]T, error) {
	if len(s.Items) == 0 {
		return nil, nil
	}
	out := make([]T, 0, len(s.Items))
	for i, item := range s.Items {
		typed, ok := item.(T)
		if !ok {
			var want T
			return nil, fmt.Errorf("%w: element %d is %T, want %T", ErrSchemaMismatch, i, item, want)
		}
		out = append(out, typed)
	}
	return out, nil
}

func Records[T Record](xs []T) []Record {
	if len(xs) == 0 {
		return nil
	}
	out := make([]Record, 0, len(xs))
	for _, x := range xs {
		out = append(out, x)
	}
	return out
}

// As converts a nested value into its concrete type.
func As[T Record](v Value) (T, error) {
	var zero T
	nested, ok := v.(Nested)
	if !ok {
		return zero, fmt.Errorf("%w: got %T, want nested record", ErrSchemaMismatch, v)
	}
	typed, ok := nested.Record.(T)
	if !ok {
		return zero, fmt.Errorf("%w: got %T, want %T", ErrSchemaMismatch, nested.Record, zero)
	}
	return typed, nil
}

func NumberOf(v Value) (float64, error) {
	n, ok := v.(Number)
	if !ok {
		return 0, fmt.Errorf("%w: got %T, want number", ErrSchemaMismatch, v)
	}
	return n.V, nil
}

func SeqOf(v Value) (Seq, error) {
	s, ok := v.(Seq)
	if !ok {
		return Seq{}, fmt.Errorf("%w: got %T, want sequence", ErrSchemaMismatch, v)
	}
	return s, nil
}
