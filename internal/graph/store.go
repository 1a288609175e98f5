package graph

import "context"

// Store holds one loaded relationship graph for querying by visualization
// consumers. The graph itself stays ephemeral: a store is populated per
// analysis and discarded or reloaded at will.
// Implementations: MemStore (default), KuzuStore (CGO, embedded graph DB).
type Store interface {
	// InitSchema prepares backing tables. Safe to call more than once.
	InitSchema(ctx context.Context) error

	// LoadGraph replaces the store contents with the given graph.
	LoadGraph(ctx context.Context, g *Graph) error

	// Nodes returns all graph nodes in load order.
	Nodes(ctx context.Context) ([]Node, error)

	// Edges returns all graph edges in load order.
	Edges(ctx context.Context) ([]Edge, error)

	// Neighbors returns the target IDs reachable from id along edges of
	// the given kind. An empty kind matches all kinds.
	Neighbors(ctx context.Context, id string, kind EdgeKind) ([]string, error)

	// Stats returns node/edge/import counts for the loaded graph.
	Stats(ctx context.Context) (*Stats, error)

	// Close releases backing resources.
	Close() error
}
