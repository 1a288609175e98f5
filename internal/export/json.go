package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/insightlab/codescope/internal/graph"
	"github.com/insightlab/codescope/internal/lang"
)

// WriteTree writes a structural tree as indented JSON.
func WriteTree(w io.Writer, tree *lang.Node) error {
	return writeJSON(w, tree)
}

// WriteGraph writes a relationship graph as indented JSON.
func WriteGraph(w io.Writer, g *graph.Graph) error {
	return writeJSON(w, g)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("export: marshal: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("export: write: %w", err)
	}
	return nil
}
