package graph

import (
	"context"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store with in-process slices. Thread-safe via
// sync.RWMutex.
type MemStore struct {
	mu      sync.RWMutex
	nodes   []Node
	edges   []Edge
	imports []Import
}

// NewMemStore returns an empty MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// LoadGraph replaces the store contents with copies of the graph slices.
func (m *MemStore) LoadGraph(_ context.Context, g *Graph) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes = append([]Node(nil), g.Nodes...)
	m.edges = append([]Edge(nil), g.Links...)
	m.imports = append([]Import(nil), g.Imports...)
	return nil
}

// Nodes returns a copy of all nodes in load order.
func (m *MemStore) Nodes(_ context.Context) ([]Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Node(nil), m.nodes...), nil
}

// Edges returns a copy of all edges in load order.
func (m *MemStore) Edges(_ context.Context) ([]Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Edge(nil), m.edges...), nil
}

// Neighbors returns target IDs reachable from id along edges of the given
// kind; an empty kind matches every kind.
func (m *MemStore) Neighbors(_ context.Context, id string, kind EdgeKind) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for _, e := range m.edges {
		if e.Source != id {
			continue
		}
		if kind != "" && e.Type != kind {
			continue
		}
		out = append(out, e.Target)
	}
	return out, nil
}

// Stats returns counts for the loaded graph.
func (m *MemStore) Stats(_ context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &Stats{
		NodeCount:   len(m.nodes),
		EdgeCount:   len(m.edges),
		ImportCount: len(m.imports),
	}, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}
