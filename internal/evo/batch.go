package evo

import (
	"context"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"evodex/internal/gene"
)

// Batch applies n independent operator calls to the same parents. Call i
// draws from its own stream seeded with seed+i, so results are identical for
// any worker count. workers <= 0 means no limit.
func Batch(ctx context.Context, factory Factory, parents []gene.Record, n int, seed int64, workers int) ([]gene.Record, error) {
	out := make([]gene.Record, n)
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			op := factory(rand.New(rand.NewSource(seed + int64(i))))
			child, err := op.Apply(ctx, parents...)
			if err != nil {
				return err
			}
			out[i] = child
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// MutateN returns n mutants of parent.
func MutateN(ctx context.Context, parent gene.Record, n int, seed int64, workers int) ([]gene.Record, error) {
	return Batch(ctx, func(rng *rand.Rand) Operator {
		return &Mutator{Rand: rng}
	}, []gene.Record{parent}, n, seed, workers)
}

// CrossN returns n children of a and b. Subtree crossover is used when
// subtree is set, record-aligned crossover otherwise.
func CrossN(ctx context.Context, a, b gene.Record, n int, seed int64, workers int, subtree bool) ([]gene.Record, error) {
	factory := func(rng *rand.Rand) Operator { return &Crossover{Rand: rng} }
	if subtree {
		factory = func(rng *rand.Rand) Operator { return &SubtreeCrossover{Rand: rng} }
	}
	return Batch(ctx, factory, []gene.Record{a, b}, n, seed, workers)
}
