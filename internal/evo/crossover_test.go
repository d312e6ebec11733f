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

func names(t *testing.T, items []gene.Record) []string {
	t.Helper()
	out := make([]string, 0, len(items))
	for _, item := range items {
		leaf, ok := item.(genetest.Leaf)
		require.True(t, ok, "unexpected element %T", item)
		out = append(out, leaf.Name)
	}
	return out
}

func TestOnePoint(t *testing.T) {
	a := leaves("a", "b", "c")
	b := leaves("x", "y")

	out, err := onePoint(a, b, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "y"}, names(t, out))

	out, err = onePoint(a, b, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, names(t, out))

	out, err = onePoint(a, b, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names(t, out))
}

func TestOnePointTruncatesToMaxLen(t *testing.T) {
	out, err := onePoint(leaves("a"), leaves("x", "y", "z"), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "y"}, names(t, out))
}

func TestOnePointRejectsCutOutsideShorterParent(t *testing.T) {
	_, err := onePoint(leaves("a", "b", "c"), leaves("x"), 2, 10)
	require.ErrorIs(t, err, gene.ErrInvariant)
	_, err = onePoint(leaves("a"), leaves("x"), -1, 10)
	require.ErrorIs(t, err, gene.ErrInvariant)
}

func TestBlend(t *testing.T) {
	weight := gene.Field{Value: gene.Number{V: 2}}
	other := gene.Field{Value: gene.Number{V: 6}}

	v, err := blend(genetest.LeafWeight, weight, other, 0.25)
	require.NoError(t, err)
	assert.Equal(t, gene.Number{V: 5}, v)

	v, err = blend(gene.MustScalar(1, 0, 3), weight, other, 0)
	require.NoError(t, err)
	assert.Equal(t, gene.Number{V: 3}, v)

	count := gene.Field{Value: gene.Number{V: 1, Integral: true}}
	countB := gene.Field{Value: gene.Number{V: 2, Integral: true}}
	v, err = blend(genetest.LeafCount, count, countB, 0.5)
	require.NoError(t, err)
	assert.Equal(t, gene.Number{V: 2, Integral: true}, v)

	_, err = blend(genetest.LeafWeight, weight, gene.Field{Value: gene.Seq{}}, 0.5)
	require.ErrorIs(t, err, gene.ErrSchemaMismatch)
}

func TestCrossoverRejectsDifferentKinds(t *testing.T) {
	c := &Crossover{Rand: rand.New(rand.NewSource(1))}
	_, err := c.Cross(genetest.Sample(), genetest.Other{Gain: 0.1})
	require.ErrorIs(t, err, gene.ErrSchemaMismatch)
}

func TestCrossoverRequiresRandomSource(t *testing.T) {
	_, err := (&Crossover{}).Cross(genetest.Sample(), genetest.Alternate())
	require.ErrorIs(t, err, ErrRandomSource)
}

func TestCrossoverMixesParents(t *testing.T) {
	a, b := genetest.Sample(), genetest.Alternate()
	for seed := int64(0); seed < 50; seed++ {
		c := &Crossover{Rand: rand.New(rand.NewSource(seed))}
		out, err := c.Cross(a, b)
		require.NoError(t, err)
		require.NoError(t, gene.Check(out))

		root := out.(genetest.Root)
		assert.Equal(t, "sample", root.Name)
		assert.GreaterOrEqual(t, root.Gain, -0.5)
		assert.LessOrEqual(t, root.Gain, 0.25)
		assert.GreaterOrEqual(t, root.Core.Weight, 1.5)
		assert.LessOrEqual(t, root.Core.Weight, 7.0)
		require.Len(t, root.Branches, 1)
		assert.Contains(t, []string{"b0", "z0"}, root.Branches[0].Label)
		require.Len(t, root.Extras, 1)
		assert.Equal(t, "x", root.Extras[0].Name)
		assert.Equal(t, 6.0, root.Extras[0].Weight)
	}
}

func TestCrossoverDoesNotAliasParents(t *testing.T) {
	a, b := genetest.Sample(), genetest.Sample()
	c := &Crossover{Rand: rand.New(rand.NewSource(4))}
	out, err := c.Cross(a, b)
	require.NoError(t, err)

	root := out.(genetest.Root)
	for i := range root.Branches {
		for j := range root.Branches[i].Leaves {
			root.Branches[i].Leaves[j].Weight = -1
		}
	}
	assert.Equal(t, genetest.Sample(), a)
	assert.Equal(t, genetest.Sample(), b)
}

func TestCrossoverKeepsInvariantsOnMutatedParents(t *testing.T) {
	m := &Mutator{Rand: rand.New(rand.NewSource(21))}
	c := &Crossover{Rand: rand.New(rand.NewSource(22))}
	var a, b gene.Record = genetest.Sample(), genetest.Alternate()
	for i := 0; i < 200; i++ {
		var err error
		if a, err = m.Mutate(a); err != nil {
			t.Fatal(err)
		}
		if b, err = m.Mutate(b); err != nil {
			t.Fatal(err)
		}
		child, err := c.Cross(a, b)
		require.NoError(t, err)
		require.NoError(t, gene.Check(child), "iteration %d", i)
		a = child
	}
}

func TestCrossoverIsDeterministic(t *testing.T) {
	a, b := genetest.Sample(), genetest.Alternate()
	first, err := (&Crossover{Rand: rand.New(rand.NewSource(7))}).Cross(a, b)
	require.NoError(t, err)
	second, err := (&Crossover{Rand: rand.New(rand.NewSource(7))}).Cross(a, b)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCrossoverApplyChecksArity(t *testing.T) {
	c := &Crossover{Rand: rand.New(rand.NewSource(1))}
	_, err := c.Apply(context.Background(), genetest.Sample())
	require.ErrorIs(t, err, ErrArity)
}

func TestSameKind(t *testing.T) {
	require.NoError(t, SameKind(nil))
	require.NoError(t, SameKind([]gene.Record{genetest.Sample(), genetest.Alternate()}))
	require.ErrorIs(t, SameKind([]gene.Record{genetest.Sample(), genetest.Other{}}), gene.ErrSchemaMismatch)
}
