package evo

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"evodex/internal/gene"
)

var (
	ErrOperatorExists       = errors.New("operator already registered")
	ErrOperatorNotFound     = errors.New("operator not found")
	ErrOperatorIncompatible = errors.New("operator incompatible with parents")
)

// Factory builds an operator around a random source. Operators are cheap to
// build, so every caller, worker or batch item gets its own.
type Factory func(rng *rand.Rand) Operator

type CompatibilityFn func(parents []gene.Record) error

type OperatorSpec struct {
	Name       string
	New        Factory
	Compatible CompatibilityFn
}

var operatorRegistry = struct {
	mu sync.RWMutex
	m  map[string]OperatorSpec
}{
	m: make(map[string]OperatorSpec),
}

func init() {
	registerBuiltins()
}

func registerBuiltins() {
	for _, spec := range []OperatorSpec{
		{
			Name: "mutate",
			New:  func(rng *rand.Rand) Operator { return &Mutator{Rand: rng} },
		},
		{
			Name:       "crossover",
			New:        func(rng *rand.Rand) Operator { return &Crossover{Rand: rng} },
			Compatible: SameKind,
		},
		{
			Name: "subtree_crossover",
			New:  func(rng *rand.Rand) Operator { return &SubtreeCrossover{Rand: rng} },
		},
	} {
		if err := RegisterOperator(spec); err != nil {
			panic(err)
		}
	}
}

// RegisterOperator registers a named operator factory.
func RegisterOperator(spec OperatorSpec) error {
	if spec.Name == "" {
		return errors.New("operator name is required")
	}
	if spec.New == nil {
		return errors.New("operator factory is required")
	}

	operatorRegistry.mu.Lock()
	defer operatorRegistry.mu.Unlock()

	if _, exists := operatorRegistry.m[spec.Name]; exists {
		return fmt.Errorf("%w: %s", ErrOperatorExists, spec.Name)
	}
	operatorRegistry.m[spec.Name] = spec
	return nil
}

// ResolveOperator builds the named operator on rng after checking that it
// accepts the given parents.
func ResolveOperator(name string, rng *rand.Rand, parents ...gene.Record) (Operator, error) {
	operatorRegistry.mu.RLock()
	spec, ok := operatorRegistry.m[name]
	operatorRegistry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOperatorNotFound, name)
	}
	if rng == nil {
		return nil, ErrRandomSource
	}
	op := spec.New(rng)
	if err := checkArity(op, parents); err != nil {
		return nil, err
	}
	if spec.Compatible != nil {
		if err := spec.Compatible(parents); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrOperatorIncompatible, name, err)
		}
	}
	return op, nil
}

func ListOperators() []string {
	operatorRegistry.mu.RLock()
	defer operatorRegistry.mu.RUnlock()

	names := make([]string, 0, len(operatorRegistry.m))
	for name := range operatorRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetOperatorRegistryForTests() {
	operatorRegistry.mu.Lock()
	operatorRegistry.m = make(map[string]OperatorSpec)
	operatorRegistry.mu.Unlock()
	registerBuiltins()
}
