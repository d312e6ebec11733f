package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evodex/internal/gene"
	"evodex/internal/gene/genetest"
)

func findLeaf(t *testing.T, tr *Tree, name string) int {
	t.Helper()
	for i := 0; i < tr.Len(); i++ {
		if leaf, ok := tr.Node(i).Record.(genetest.Leaf); ok && leaf.Name == name {
			return i
		}
	}
	t.Fatalf("leaf %q not in tree", name)
	return -1
}

func TestBuildProjectsParallelAndChainLists(t *testing.T) {
	tr, err := Build(genetest.Sample())
	require.NoError(t, err)

	root := tr.Node(0)
	assert.Equal(t, "root", root.Record.Kind())
	assert.Equal(t, -1, tr.Parent(0))

	var labels []string
	for _, c := range root.Children {
		labels = append(labels, tr.Node(c).Label)
		assert.Equal(t, 0, tr.Parent(c))
	}
	assert.Equal(t, []string{"core", "branches", "branches", "extras"}, labels)

	b0 := tr.Node(root.Children[1])
	require.Len(t, b0.Children, 1, "a chain starts with a single child")
	a := tr.Node(b0.Children[0])
	assert.Equal(t, "a", a.Record.(genetest.Leaf).Name)
	assert.False(t, a.Link)
	require.Len(t, a.Children, 1)
	b := tr.Node(a.Children[0])
	assert.Equal(t, "b", b.Record.(genetest.Leaf).Name)
	assert.True(t, b.Link)
	assert.Empty(t, b.Children)

	e := findLeaf(t, tr, "e")
	assert.Equal(t, 4, tr.Depth(e))
	assert.Equal(t, findLeaf(t, tr, "d"), tr.Parent(e))
}

func TestRoundTrip(t *testing.T) {
	for _, g := range []genetest.Root{genetest.Sample(), genetest.Alternate()} {
		tr, err := Build(g)
		require.NoError(t, err)
		got, err := tr.Record()
		require.NoError(t, err)
		assert.Equal(t, g, got)
	}
}

func TestBuildDoesNotAliasInput(t *testing.T) {
	g := genetest.Sample()
	tr, err := Build(g)
	require.NoError(t, err)
	g.Branches[0].Leaves[0].Weight = 99

	got, err := tr.Record()
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.(genetest.Root).Branches[0].Leaves[0].Weight)
}

func TestNodesFiltersByRole(t *testing.T) {
	tr, err := Build(genetest.Sample())
	require.NoError(t, err)

	assert.Len(t, tr.Nodes(""), 10)
	limbs := tr.Nodes("limb")
	require.Len(t, limbs, 2)
	for _, i := range limbs {
		assert.Equal(t, "branch", tr.Node(i).Record.Kind())
	}
	assert.Len(t, tr.Nodes("tip"), 7)
	assert.Empty(t, tr.Nodes("missing"))
}

func TestSpliceChainHeadDropsTail(t *testing.T) {
	a, err := Build(genetest.Sample())
	require.NoError(t, err)
	b, err := Build(genetest.Alternate())
	require.NoError(t, err)

	child, err := a.Splice(findLeaf(t, a, "a"), b, findLeaf(t, b, "q"))
	require.NoError(t, err)
	got, err := child.Record()
	require.NoError(t, err)

	root := got.(genetest.Root)
	require.Len(t, root.Branches[0].Leaves, 1)
	assert.Equal(t, "q", root.Branches[0].Leaves[0].Name)
	assert.Len(t, root.Branches[1].Leaves, 3)

	orig, err := a.Record()
	require.NoError(t, err)
	assert.Equal(t, genetest.Sample(), orig, "splice must leave the target tree intact")
}

func TestSpliceChainMiddleAdoptsDonorTail(t *testing.T) {
	a, err := Build(genetest.Sample())
	require.NoError(t, err)
	donor, err := Build(genetest.Sample())
	require.NoError(t, err)

	child, err := a.Splice(findLeaf(t, a, "d"), donor, findLeaf(t, donor, "a"))
	require.NoError(t, err)
	got, err := child.Record()
	require.NoError(t, err)

	var names []string
	for _, l := range got.(genetest.Root).Branches[1].Leaves {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
}

func TestSpliceParallelSibling(t *testing.T) {
	a, err := Build(genetest.Sample())
	require.NoError(t, err)
	b, err := Build(genetest.Alternate())
	require.NoError(t, err)

	limbs := a.Nodes("limb")
	child, err := a.Splice(limbs[1], b, b.Nodes("limb")[0])
	require.NoError(t, err)
	got, err := child.Record()
	require.NoError(t, err)

	root := got.(genetest.Root)
	require.Len(t, root.Branches, 2)
	assert.Equal(t, "b0", root.Branches[0].Label)
	assert.Equal(t, "z0", root.Branches[1].Label)
	assert.Equal(t, genetest.Sample().Extras, root.Extras)
}

func TestSpliceAtRootReturnsDonor(t *testing.T) {
	a, err := Build(genetest.Sample())
	require.NoError(t, err)
	b, err := Build(genetest.Alternate())
	require.NoError(t, err)

	child, err := a.Splice(0, b, 0)
	require.NoError(t, err)
	got, err := child.Record()
	require.NoError(t, err)
	assert.Equal(t, genetest.Alternate(), got)
}

func TestSpliceRejectsOutOfRangeIndexes(t *testing.T) {
	a, err := Build(genetest.Sample())
	require.NoError(t, err)

	_, err = a.Splice(a.Len(), a, 0)
	require.ErrorIs(t, err, ErrNodeRange)
	_, err = a.Splice(0, a, -1)
	require.ErrorIs(t, err, ErrNodeRange)
	require.ErrorIs(t, a.SetRecord(99, genetest.Leaf{}), ErrNodeRange)
}

func TestBuildRejectsNilRecord(t *testing.T) {
	_, err := Build(nil)
	require.ErrorIs(t, err, gene.ErrSchemaMismatch)
}
