package lang

import "strings"

// Shared helpers for the regex-driven extractors. These extractors are
// best-effort: flat top-level scans, no end lines, no nesting, and never a
// SyntaxError (absence of matches yields an empty children list).

// lineAt computes the 1-based line of a byte offset by counting preceding
// newlines.
func lineAt(source string, offset int) int {
	return strings.Count(source[:offset], "\n") + 1
}

// heuristicClass builds a flat class node at the given line.
func heuristicClass(name string, line int) *Node {
	return &Node{
		Type:       NodeClass,
		Name:       strPtr(name),
		Bases:      []string{},
		Decorators: []string{},
		Start:      line,
		Children:   []*Node{},
	}
}

// heuristicFunction builds a flat function node at the given line.
func heuristicFunction(name string, args []Arg, line int) *Node {
	return &Node{
		Type:       NodeFunction,
		Name:       strPtr(name),
		Args:       args,
		Decorators: []string{},
		Start:      line,
		Children:   []*Node{},
	}
}

// splitArgList splits a raw parameter list on commas and trims each entry.
// Empty entries are dropped.
func splitArgList(raw string) []string {
	var parts []string
	for _, p := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
