//go:build cgo

package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore creates an in-memory KuzuStore with the schema applied and
// wires cleanup.
func newTestStore(t *testing.T) *KuzuStore {
	t.Helper()
	store, err := NewKuzuStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.InitSchema(context.Background()))
	return store
}

func TestKuzuStore_LoadAndRead(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.LoadGraph(ctx, testGraph()))

	nodes, err := store.Nodes(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 3, "placeholder scopes are filtered out")
	assert.Equal(t, "helper", nodes[0].ID, "load order preserved")
	assert.Equal(t, "Base", nodes[1].ID)
	assert.Equal(t, "count", nodes[2].ID)

	require.NotNil(t, nodes[0].IsMethod)
	assert.False(t, *nodes[0].IsMethod)
	assert.Nil(t, nodes[1].IsMethod, "is_method only on functions")

	edges, err := store.Edges(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 3)
	assert.Equal(t, "len", edges[0].Target)
	assert.Equal(t, EdgeCalls, edges[0].Type)
	assert.Equal(t, 2, edges[0].Line)
}

func TestKuzuStore_Neighbors(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
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
}

func TestKuzuStore_Stats(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.LoadGraph(ctx, testGraph()))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Stats{NodeCount: 3, EdgeCount: 3, ImportCount: 1}, stats)
}

func TestKuzuStore_ReloadReplaces(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.LoadGraph(ctx, testGraph()))
	require.NoError(t, store.LoadGraph(ctx, &Graph{}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.NodeCount)
	assert.Zero(t, stats.EdgeCount)
	assert.Zero(t, stats.ImportCount)
}

func TestKuzuStore_InitSchemaIdempotent(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.InitSchema(context.Background()))
}
