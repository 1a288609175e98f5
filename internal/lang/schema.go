package lang

import "encoding/json"

// --- Enums ---

// NodeType classifies nodes in the structural tree.
type NodeType string

const (
	NodeModule        NodeType = "module"
	NodeClass         NodeType = "class"
	NodeFunction      NodeType = "function"
	NodeAsyncFunction NodeType = "async_function"
	NodeVariable      NodeType = "variable"
	NodeImport        NodeType = "import"
	NodeImportFrom    NodeType = "import_from"
)

// AssignKind classifies variable nodes by their assignment form.
type AssignKind string

const (
	AssignPlain     AssignKind = "assign"
	AssignAnnotated AssignKind = "ann_assign"
	AssignAugmented AssignKind = "aug_assign"
)

// Language identifies a supported source language.
type Language string

const (
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangJava       Language = "java"
	LangCpp        Language = "cpp"
)

// SupportedLanguages lists every language the router can dispatch to.
var SupportedLanguages = []Language{LangPython, LangJavaScript, LangJava, LangCpp}

// --- Models ---

// Arg is one formal parameter of a function node. Variadic parameters carry
// their marker in the name ("*args", "**kwargs").
type Arg struct {
	Name       string  `json:"name"`
	Annotation *string `json:"annotation"`
	Default    *string `json:"default"`
}

// ImportedName is one imported binding, optionally renamed.
type ImportedName struct {
	Name   string  `json:"name"`
	Asname *string `json:"asname"`
}

// Node is the universal structural tree unit every extractor emits into.
// Only the fields matching Type are meaningful; MarshalJSON emits exactly
// the per-kind key set that downstream consumers pattern-match on.
type Node struct {
	Type     NodeType
	Name     *string // nil only for the root module node
	Start    int     // 1-based
	End      *int    // nil when the extractor cannot determine it
	Children []*Node // source order for the Python extractor, category order for heuristics

	// class
	Bases      []string
	Decorators []string

	// function / async_function (Decorators shared with class)
	Args    []Arg
	Returns *string

	// variable
	Assign  AssignKind
	Targets []string
	Value   *string

	// import / import_from
	Module *string
	Names  []ImportedName
	Level  int // relative-import depth, import_from only

	// Language is stamped on the root module node by the router, never by
	// an extractor.
	Language Language
}

// MarshalJSON emits the closed per-kind wire shape: the universal keys
// (type, name, start, end, children) plus the attributes owned by the node's
// kind. Slices render as [] rather than null so consumers can iterate
// unconditionally.
func (n *Node) MarshalJSON() ([]byte, error) {
	m := map[string]any{
		"type":     n.Type,
		"name":     n.Name,
		"start":    n.Start,
		"end":      n.End,
		"children": nonNilNodes(n.Children),
	}

	switch n.Type {
	case NodeClass:
		m["bases"] = nonNilStrings(n.Bases)
		m["decorators"] = nonNilStrings(n.Decorators)
	case NodeFunction, NodeAsyncFunction:
		m["args"] = nonNilArgs(n.Args)
		m["returns"] = n.Returns
		m["decorators"] = nonNilStrings(n.Decorators)
	case NodeVariable:
		m["kind"] = n.Assign
		m["targets"] = nonNilStrings(n.Targets)
		m["value"] = n.Value
	case NodeImport:
		m["module"] = nil
		m["names"] = nonNilNames(n.Names)
	case NodeImportFrom:
		m["module"] = n.Module
		m["level"] = n.Level
		m["names"] = nonNilNames(n.Names)
	}

	if n.Language != "" {
		m["language"] = n.Language
	}

	return json.Marshal(m)
}

func nonNilNodes(s []*Node) []*Node {
	if s == nil {
		return []*Node{}
	}
	return s
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilArgs(s []Arg) []Arg {
	if s == nil {
		return []Arg{}
	}
	return s
}

func nonNilNames(s []ImportedName) []ImportedName {
	if s == nil {
		return []ImportedName{}
	}
	return s
}

// strPtr returns a pointer to s, for optional string fields.
func strPtr(s string) *string {
	return &s
}

// intPtr returns a pointer to i, for optional line fields.
func intPtr(i int) *int {
	return &i
}
