package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testGraph builds a small graph shared by the store tests.
func testGraph() *Graph {
	isMethod := false
	return &Graph{
		Nodes: []Node{
			{ID: "helper", Label: "helper", FullName: "helper", Type: "function", Group: GroupFunction, Line: 1, IsMethod: &isMethod},
			{ID: "Base", Label: "Base", FullName: "Base", Type: "class", Group: GroupClass, Line: 4},
			{ID: "count", Label: "count", FullName: "count", Type: "variable", Group: GroupVariable, Line: 9},
		},
		Links: []Edge{
			{Source: "helper", Target: "len", Type: EdgeCalls, Label: "calls", Line: 2},
			{Source: "Base", Target: "Base.m", Type: EdgeContains, Label: "contains"},
			{Source: "helper", Target: "print", Type: EdgeCalls, Label: "calls", Line: 3},
		},
		Imports: []Import{
			{Module: "os", Alias: "os", Type: "import", Line: 1},
		},
	}
}

func TestMemStore_LoadAndRead(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	defer store.Close()

	require.NoError(t, store.InitSchema(ctx))
	require.NoError(t, store.LoadGraph(ctx, testGraph()))

	nodes, err := store.Nodes(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, "helper", nodes[0].ID, "load order preserved")
	assert.Equal(t, "Base", nodes[1].ID)

	edges, err := store.Edges(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 3)
	assert.Equal(t, EdgeCalls, edges[0].Type)
}

func TestMemStore_Neighbors(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	require.NoError(t, store.LoadGraph(ctx, testGraph()))

	t.Run("kind filter", func(t *testing.T) {
		targets, err := store.Neighbors(ctx, "helper", EdgeCalls)
		require.NoError(t, err)
		assert.Equal(t, []string{"len", "print"}, targets)
	})

	t.Run("empty kind matches all", func(t *testing.T) {
		targets, err := store.Neighbors(ctx, "helper", "")
		require.NoError(t, err)
		assert.Len(t, targets, 2)
	})

	t.Run("unknown id yields none", func(t *testing.T) {
		targets, err := store.Neighbors(ctx, "ghost", "")
		require.NoError(t, err)
		assert.Empty(t, targets)
	})
}

func TestMemStore_Stats(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	require.NoError(t, store.LoadGraph(ctx, testGraph()))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Stats{NodeCount: 3, EdgeCount: 3, ImportCount: 1}, stats)
}

func TestMemStore_ReloadReplaces(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	require.NoError(t, store.LoadGraph(ctx, testGraph()))
	require.NoError(t, store.LoadGraph(ctx, &Graph{}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.NodeCount)
	assert.Zero(t, stats.EdgeCount)
}

func TestMemStore_ReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	require.NoError(t, store.LoadGraph(ctx, testGraph()))

	nodes, err := store.Nodes(ctx)
	require.NoError(t, err)
	nodes[0].ID = "mutated"

	again, err := store.Nodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, "helper", again[0].ID)
}
