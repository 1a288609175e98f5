package graph

// --- Enums ---

// EdgeKind classifies relationships between graph nodes.
type EdgeKind string

const (
	EdgeCalls    EdgeKind = "calls"
	EdgeInherits EdgeKind = "inherits"
	EdgeContains EdgeKind = "contains"
)

// NodeGroup is the rendering group of a graph node.
type NodeGroup string

const (
	GroupFunction NodeGroup = "function"
	GroupClass    NodeGroup = "class"
	GroupVariable NodeGroup = "variable"
)

// --- Models ---

// Node is one vertex of the relationship graph. ID is the fully-qualified
// dotted path of the declaration and is unique within a graph.
type Node struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	FullName string    `json:"full_name"`
	Type     string    `json:"type"` // function | async_function | class | variable
	Group    NodeGroup `json:"group"`
	Line     int       `json:"line"`
	IsMethod *bool     `json:"is_method,omitempty"` // functions only
	Bases    *[]string `json:"bases,omitempty"`     // classes only
}

// Edge is one relationship. Identity is (Source, Target, Type); duplicates
// within a single analysis are suppressed, keeping the first occurrence's
// line for repeated calls.
type Edge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Type   EdgeKind `json:"type"`
	Label  string   `json:"label"`
	Line   int      `json:"line,omitempty"` // calls only
}

// Import records one imported binding for dependency display.
type Import struct {
	Module string `json:"module"`
	Name   string `json:"name,omitempty"` // import_from only
	Alias  string `json:"alias"`
	Type   string `json:"type"` // import | import_from
	Line   int    `json:"line"`
}

// Graph is the node/edge structure consumed by visualization renderers.
// The edge list serializes under "links" for force-graph compatibility.
type Graph struct {
	Nodes   []Node   `json:"nodes"`
	Links   []Edge   `json:"links"`
	Imports []Import `json:"imports"`
}

// Stats summarizes a stored graph.
type Stats struct {
	NodeCount   int `json:"nodeCount"`
	EdgeCount   int `json:"edgeCount"`
	ImportCount int `json:"importCount"`
}
