package gene

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrSchemaMismatch reports values whose shape or record kind does not fit
	// the operation: differing root kinds, a scalar gene on a non-number, etc.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrInvariant reports an annotation or value that breaks its declared bounds.
	ErrInvariant = errors.New("invariant violation")
)

var validate = validator.New()

// Structure is the topological role of a list gene's elements.
type Structure string

const (
	// Parallel elements are independent siblings.
	Parallel Structure = "parallel"
	// Chain elements form a linear parent->child path.
	Chain Structure = "chain"
)

// Gene is the annotation attached to an evolvable field. It is either a
// Scalar or a List; no other implementations exist.
type Gene interface {
	gene()
}

// Scalar marks a bounded numeric field mutated with additive Gaussian noise.
type Scalar struct {
	MutationStd float64 `yaml:"mutation_std" validate:"gte=0"`
	Min         float64 `yaml:"min_val"`
	Max         float64 `yaml:"max_val" validate:"gtefield=Min"`
}

// List marks a bounded, variable-length sequence of sub-records.
type List struct {
	Structure  Structure `yaml:"structure" validate:"oneof=parallel chain"`
	MinLen     int       `yaml:"min_len" validate:"gte=0"`
	MaxLen     int       `yaml:"max_len" validate:"gtefield=MinLen"`
	AddProb    float64   `yaml:"add_prob" validate:"gte=0,lte=1"`
	RemoveProb float64   `yaml:"remove_prob" validate:"gte=0,lte=1"`
}

func (Scalar) gene() {}
func (List) gene()   {}

// NewScalar returns a validated scalar annotation.
func NewScalar(mutationStd, min, max float64) (Scalar, error) {
	s := Scalar{MutationStd: mutationStd, Min: min, Max: max}
	return s, s.Validate()
}

// Unbounded returns a scalar annotation clamped to (-Inf, +Inf).
func Unbounded(mutationStd float64) (Scalar, error) {
	return NewScalar(mutationStd, math.Inf(-1), math.Inf(1))
}

// MustScalar is NewScalar for package-level schema tables. It panics on an
// invalid annotation.
func MustScalar(mutationStd, min, max float64) Scalar {
	s, err := NewScalar(mutationStd, min, max)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Scalar) Validate() error {
	if math.IsNaN(s.MutationStd) || math.IsNaN(s.Min) || math.IsNaN(s.Max) {
		return fmt.Errorf("%w: scalar gene has NaN parameter", ErrInvariant)
	}
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: scalar gene: %v", ErrInvariant, err)
	}
	return nil
}

// Bound clamps v into [Min, Max]. Integral values are rounded after
// clamping and kept inside the interval when the bounds are fractional.
func (s Scalar) Bound(v float64, integral bool) float64 {
	v = math.Max(s.Min, math.Min(s.Max, v))
	if !integral {
		return v
	}
	r := math.Round(v)
	if r > s.Max {
		r = math.Floor(s.Max)
	}
	if r < s.Min {
		r = math.Ceil(s.Min)
	}
	return r
}

// Contains reports whether v lies in [Min, Max].
func (s Scalar) Contains(v float64) bool {
	return v >= s.Min && v <= s.Max
}

// DefaultList returns the default list annotation for a structure.
func DefaultList(structure Structure) List {
	return List{
		Structure:  structure,
		MinLen:     1,
		MaxLen:     10,
		AddProb:    0.1,
		RemoveProb: 0.05,
	}
}

// NewList returns a validated list annotation.
func NewList(structure Structure, minLen, maxLen int, addProb, removeProb float64) (List, error) {
	l := List{
		Structure:  structure,
		MinLen:     minLen,
		MaxLen:     maxLen,
		AddProb:    addProb,
		RemoveProb: removeProb,
	}
	return l, l.Validate()
}

// MustList is NewList for package-level schema tables.
func MustList(structure Structure, minLen, maxLen int, addProb, removeProb float64) List {
	l, err := NewList(structure, minLen, maxLen, addProb, removeProb)
	if err != nil {
		panic(err)
	}
	return l
}

func (l List) Validate() error {
	if err := validate.Struct(l); err != nil {
		return fmt.Errorf("%w: list gene: %v", ErrInvariant, err)
	}
	return nil
}

// Allows reports whether n is an admissible sequence length.
func (l List) Allows(n int) bool {
	return n >= l.MinLen && n <= l.MaxLen
}
