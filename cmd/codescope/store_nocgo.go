//go:build !cgo

package main

import (
	"fmt"

	"github.com/insightlab/codescope/internal/graph"
)

// openStore reports that persistence needs the CGO build.
func openStore(path string) (graph.Store, error) {
	return nil, fmt.Errorf("kuzu persistence at %s requires a CGO-enabled build", path)
}
