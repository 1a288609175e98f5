package export

import (
	"fmt"
	"strings"

	"github.com/insightlab/codescope/internal/graph"
)

// GenerateMermaid produces a Mermaid graph TD diagram from a relationship
// graph. Nodes are grouped into subgraphs by group (functions, classes,
// variables); every edge becomes a labeled arrow.
func GenerateMermaid(g *graph.Graph) string {
	// Node → ID mapping for Mermaid (alphanumeric only).
	nodeIDs := make(map[string]string)
	nextID := 0
	getID := func(name string) string {
		if id, ok := nodeIDs[name]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", nextID)
		nextID++
		nodeIDs[name] = id
		return id
	}

	byGroup := make(map[graph.NodeGroup][]graph.Node)
	for _, n := range g.Nodes {
		byGroup[n.Group] = append(byGroup[n.Group], n)
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	groups := []struct {
		group graph.NodeGroup
		title string
	}{
		{graph.GroupClass, "Classes"},
		{graph.GroupFunction, "Functions"},
		{graph.GroupVariable, "Variables"},
	}
	for _, gr := range groups {
		nodes := byGroup[gr.group]
		if len(nodes) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("  subgraph %s[\"%s\"]\n", getID(gr.title+"_group"), gr.title))
		for _, n := range nodes {
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", getID(n.ID), escapeLabel(n.Label)))
		}
		sb.WriteString("  end\n")
	}

	for _, e := range g.Links {
		srcID := getID(e.Source)
		tgtID := getID(e.Target)
		label := e.Label
		if label == "" {
			label = string(e.Type)
		}
		sb.WriteString(fmt.Sprintf("  %s -->|%s| %s\n", srcID, escapeLabel(label), tgtID))
	}

	return sb.String()
}

// escapeLabel strips characters that break Mermaid node labels.
func escapeLabel(s string) string {
	r := strings.NewReplacer("\"", "'", "\n", " ", "|", "/", "[", "(", "]", ")")
	return r.Replace(s)
}
