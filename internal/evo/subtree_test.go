package evo

import (
	"math/rand"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evodex/internal/gene"
	"evodex/internal/gene/genetest"
)

func kinds(t *testing.T, r gene.Record) map[string]bool {
	t.Helper()
	out := map[string]bool{}
	require.NoError(t, gene.Walk(r, func(_ string, rec gene.Record) error {
		out[rec.Kind()] = true
		return nil
	}))
	return out
}

func TestSubtreeCrossoverFallsBackWithoutCompatibleNode(t *testing.T) {
	before := testutil.ToFloat64(subtreeFallbackTotal.WithLabelValues("incompatible"))

	s := &SubtreeCrossover{Rand: rand.New(rand.NewSource(1))}
	out, err := s.Cross(genetest.Sample(), genetest.Other{Gain: 0.3})
	require.NoError(t, err)
	assert.Equal(t, genetest.Sample(), out)
	assert.Equal(t, before+1, testutil.ToFloat64(subtreeFallbackTotal.WithLabelValues("incompatible")))
}

func TestSubtreeCrossoverFallsBackWithoutCandidate(t *testing.T) {
	s := &SubtreeCrossover{Rand: rand.New(rand.NewSource(1)), Role: "missing"}
	out, err := s.Cross(genetest.Sample(), genetest.Alternate())
	require.NoError(t, err)
	assert.Equal(t, genetest.Sample(), out)
}

func TestSubtreeCrossoverSwapsRoleRestrictedSubtree(t *testing.T) {
	for seed := int64(0); seed < 30; seed++ {
		s := &SubtreeCrossover{Rand: rand.New(rand.NewSource(seed)), Role: "limb"}
		out, err := s.Cross(genetest.Sample(), genetest.Alternate())
		require.NoError(t, err)

		root := out.(genetest.Root)
		require.Len(t, root.Branches, 2)
		labels := []string{root.Branches[0].Label, root.Branches[1].Label}
		if labels[0] == "z0" {
			assert.Equal(t, "b1", labels[1])
			assert.Len(t, root.Branches[0].Leaves, 1)
		} else {
			assert.Equal(t, []string{"b0", "z0"}, labels)
			assert.Len(t, root.Branches[1].Leaves, 1)
		}
		assert.Equal(t, genetest.Sample().Extras, root.Extras)
	}
}

func TestSubtreeCrossoverIsTypeSafe(t *testing.T) {
	a, b := genetest.Sample(), genetest.Alternate()
	allowed := kinds(t, a)
	for k := range kinds(t, b) {
		allowed[k] = true
	}
	for seed := int64(0); seed < 200; seed++ {
		s := &SubtreeCrossover{Rand: rand.New(rand.NewSource(seed))}
		out, err := s.Cross(a, b)
		require.NoError(t, err)
		require.NoError(t, gene.Check(out), "seed %d", seed)
		for k := range kinds(t, out) {
			assert.True(t, allowed[k], "seed %d produced kind %s", seed, k)
		}
	}
}

func TestSubtreeCrossoverKeepsInvariantsOnMutatedParents(t *testing.T) {
	m := &Mutator{Rand: rand.New(rand.NewSource(31))}
	s := &SubtreeCrossover{Rand: rand.New(rand.NewSource(32))}
	var a, b gene.Record = genetest.Sample(), genetest.Alternate()
	for i := 0; i < 200; i++ {
		var err error
		a, err = m.Mutate(a)
		require.NoError(t, err)
		b, err = m.Mutate(b)
		require.NoError(t, err)
		child, err := s.Cross(a, b)
		require.NoError(t, err)
		require.NoError(t, gene.Check(child), "iteration %d", i)
		a = child
	}
}

func TestSubtreeCrossoverIsDeterministic(t *testing.T) {
	a, b := genetest.Sample(), genetest.Alternate()
	first, err := (&SubtreeCrossover{Rand: rand.New(rand.NewSource(5))}).Cross(a, b)
	require.NoError(t, err)
	second, err := (&SubtreeCrossover{Rand: rand.New(rand.NewSource(5))}).Cross(a, b)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSubtreeCrossoverDoesNotModifyParents(t *testing.T) {
	a, b := genetest.Sample(), genetest.Alternate()
	for seed := int64(0); seed < 20; seed++ {
		_, err := (&SubtreeCrossover{Rand: rand.New(rand.NewSource(seed))}).Cross(a, b)
		require.NoError(t, err)
	}
	assert.Equal(t, genetest.Sample(), a)
	assert.Equal(t, genetest.Alternate(), b)
}

func TestFitLengths(t *testing.T) {
	long := genetest.Branch{Label: "long", Scale: 1, Leaves: []genetest.Leaf{
		{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}, {Name: "e"},
	}}
	out, ok, err := fitLengths(long)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, out.(genetest.Branch).Leaves, genetest.BranchLeaves.MaxLen)

	root := genetest.Sample()
	root.Branches[1] = long
	out, ok, err = fitLengths(root)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, out.(genetest.Root).Branches[1].Leaves, genetest.BranchLeaves.MaxLen)

	_, ok, err = fitLengths(genetest.Branch{Label: "bare"})
	require.NoError(t, err)
	assert.False(t, ok)
}
