package evo

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evodex/internal/gene"
	"evodex/internal/gene/genetest"
)

type identityOperator struct{}

func (identityOperator) Name() string { return "identity" }
func (identityOperator) Arity() int   { return 1 }

func (identityOperator) Apply(_ context.Context, parents ...gene.Record) (gene.Record, error) {
	return parents[0], nil
}

func TestRegisterAndResolveOperator(t *testing.T) {
	resetOperatorRegistryForTests()
	t.Cleanup(resetOperatorRegistryForTests)

	err := RegisterOperator(OperatorSpec{
		Name: "identity",
		New:  func(*rand.Rand) Operator { return identityOperator{} },
	})
	require.NoError(t, err)

	op, err := ResolveOperator("identity", rand.New(rand.NewSource(1)), genetest.Sample())
	require.NoError(t, err)
	assert.Equal(t, "identity", op.Name())
}

func TestRegisterOperatorDuplicate(t *testing.T) {
	resetOperatorRegistryForTests()
	t.Cleanup(resetOperatorRegistryForTests)

	err := RegisterOperator(OperatorSpec{Name: "mutate", New: func(*rand.Rand) Operator { return identityOperator{} }})
	require.ErrorIs(t, err, ErrOperatorExists)
}

func TestRegisterOperatorValidation(t *testing.T) {
	resetOperatorRegistryForTests()
	t.Cleanup(resetOperatorRegistryForTests)

	require.Error(t, RegisterOperator(OperatorSpec{New: func(*rand.Rand) Operator { return identityOperator{} }}))
	require.Error(t, RegisterOperator(OperatorSpec{Name: "nil"}))
}

func TestResolveOperatorNotFound(t *testing.T) {
	_, err := ResolveOperator("missing", rand.New(rand.NewSource(1)), genetest.Sample())
	require.ErrorIs(t, err, ErrOperatorNotFound)
}

func TestResolveOperatorChecks(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, err := ResolveOperator("mutate", nil, genetest.Sample())
	require.ErrorIs(t, err, ErrRandomSource)

	_, err = ResolveOperator("crossover", rng, genetest.Sample())
	require.ErrorIs(t, err, ErrArity)

	_, err = ResolveOperator("crossover", rng, genetest.Sample(), genetest.Other{})
	require.ErrorIs(t, err, ErrOperatorIncompatible)

	op, err := ResolveOperator("subtree_crossover", rng, genetest.Sample(), genetest.Other{})
	require.NoError(t, err)
	out, err := op.Apply(context.Background(), genetest.Sample(), genetest.Other{})
	require.NoError(t, err)
	assert.Equal(t, genetest.Sample(), out)
}

func TestListOperators(t *testing.T) {
	resetOperatorRegistryForTests()
	t.Cleanup(resetOperatorRegistryForTests)

	assert.Equal(t, []string{"crossover", "mutate", "subtree_crossover"}, ListOperators())
}

func TestResolvedOperatorsAreUsable(t *testing.T) {
	a, b := genetest.Sample(), genetest.Alternate()
	for _, tc := range []struct {
		name    string
		parents []gene.Record
	}{
		{name: "mutate", parents: []gene.Record{a}},
		{name: "crossover", parents: []gene.Record{a, b}},
		{name: "subtree_crossover", parents: []gene.Record{a, b}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			op, err := ResolveOperator(tc.name, rand.New(rand.NewSource(2)), tc.parents...)
			require.NoError(t, err)
			out, err := op.Apply(context.Background(), tc.parents...)
			require.NoError(t, err)
			require.NoError(t, gene.Check(out))
		})
	}
}
