//go:build cgo

package main

import "github.com/insightlab/codescope/internal/graph"

// openStore opens a file-backed KuzuDB store for graph persistence.
func openStore(path string) (graph.Store, error) {
	return graph.NewKuzuFileStore(path)
}
