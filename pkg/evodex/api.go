// Package evodex is the public entry point of the variation engine: seeded
// mutation and crossover of annotated genotypes, and their fixed-width
// vector encoding.
package evodex

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/go-playground/validator/v10"

	"evodex/internal/codec"
	"evodex/internal/evo"
	"evodex/internal/gene"
)

// Genotype is any annotated record tree.
type Genotype = gene.Record

var validate = validator.New()

type Options struct {
	Seed int64
	// Role restricts subtree crossover to nodes with this role. Empty means
	// any node.
	Role string `validate:"max=64"`
	// Workers bounds the goroutines used by batch calls. Zero means no
	// limit.
	Workers int `validate:"gte=0"`
	Logger  *slog.Logger
}

func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

// Engine serializes access to one seeded random stream, so a sequence of
// calls on an engine is reproducible from its seed.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand

	role    string
	workers int
	logger  *slog.Logger
}

func New(opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		rng:     rand.New(rand.NewSource(opts.Seed)),
		role:    opts.Role,
		workers: opts.Workers,
		logger:  logger,
	}, nil
}

func (e *Engine) Mutate(ctx context.Context, g Genotype) (Genotype, error) {
	return e.apply(ctx, func(rng *rand.Rand) evo.Operator {
		return &evo.Mutator{Rand: rng, Logger: e.logger}
	}, g)
}

// Crossover recombines two parents of the same kind field by field.
func (e *Engine) Crossover(ctx context.Context, a, b Genotype) (Genotype, error) {
	return e.apply(ctx, func(rng *rand.Rand) evo.Operator {
		return &evo.Crossover{Rand: rng}
	}, a, b)
}

// CrossoverTree swaps a compatible subtree of b into a. Parents may differ
// in shape.
func (e *Engine) CrossoverTree(ctx context.Context, a, b Genotype) (Genotype, error) {
	return e.apply(ctx, e.subtree, a, b)
}

// Apply runs a registered operator by name.
func (e *Engine) Apply(ctx context.Context, name string, parents ...Genotype) (Genotype, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	op, err := evo.ResolveOperator(name, e.rng, parents...)
	if err != nil {
		return nil, err
	}
	return op.Apply(ctx, parents...)
}

// Mutants returns n mutants of parent, generated in parallel. The batch
// seed is drawn from the engine's stream.
func (e *Engine) Mutants(ctx context.Context, parent Genotype, n int) ([]Genotype, error) {
	return evo.Batch(ctx, func(rng *rand.Rand) evo.Operator {
		return &evo.Mutator{Rand: rng, Logger: e.logger}
	}, []gene.Record{parent}, n, e.batchSeed(), e.workers)
}

// Children returns n children of a and b, generated in parallel.
func (e *Engine) Children(ctx context.Context, a, b Genotype, n int, subtree bool) ([]Genotype, error) {
	factory := func(rng *rand.Rand) evo.Operator { return &evo.Crossover{Rand: rng} }
	if subtree {
		factory = e.subtree
	}
	return evo.Batch(ctx, factory, []gene.Record{a, b}, n, e.batchSeed(), e.workers)
}

func (e *Engine) subtree(rng *rand.Rand) evo.Operator {
	return &evo.SubtreeCrossover{Rand: rng, Role: e.role, Logger: e.logger}
}

func (e *Engine) apply(ctx context.Context, factory evo.Factory, parents ...Genotype) (Genotype, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return factory(e.rng).Apply(ctx, parents...)
}

func (e *Engine) batchSeed() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Int63()
}

// Operators lists the registered operator names.
func Operators() []string {
	return evo.ListOperators()
}

// Flatten encodes g as a fixed-width vector. Unused list slots are NaN.
func Flatten(g Genotype) ([]float64, error) {
	return codec.Flatten(g)
}

// Unflatten decodes vec using template for record kinds and for every
// value the vector does not carry.
func Unflatten(vec []float64, template Genotype) (Genotype, error) {
	return codec.Unflatten(vec, template)
}

// Width is the vector length Flatten produces for genotypes shaped like g.
func Width(g Genotype) (int, error) {
	return codec.Width(g)
}

// Check reports annotation misuse and bound violations in g.
func Check(g Genotype) error {
	return gene.Check(g)
}
