package lang

import (
	"regexp"
	"strings"
)

// CppExtractor is the best-effort C++ extractor. Structs are reported as
// class nodes, and namespaces as class-like containers with a "namespace "
// name prefix.
type CppExtractor struct{}

var (
	cppClassRe  = regexp.MustCompile(`(?m)^\s*(?:public\s+|private\s+|protected\s+)?class\s+([A-Za-z_]\w*)`)
	cppStructRe = regexp.MustCompile(`(?m)^\s*(?:public\s+|private\s+|protected\s+)?struct\s+([A-Za-z_]\w*)`)
	// Return type, name, argument list, optionally const, then { or ;.
	cppFuncRe          = regexp.MustCompile(`(?m)^\s*(?:inline\s+|static\s+|virtual\s+|const\s+)*[\w<>\[\]\s&*]+\s+([A-Za-z_]\w*)\s*\(([^)]*)\)\s*(?:const\s*)?\{?`)
	cppNamespaceDeclRe = regexp.MustCompile(`(?m)^\s*namespace\s+([A-Za-z_]\w*)`)
)

// Parse scans source and returns a flat module tree: classes first, then
// structs, then functions, then namespaces.
func (e *CppExtractor) Parse(source string) (*Node, error) {
	if ie := checkText(source); ie != nil {
		return nil, ie
	}

	children := []*Node{}

	for _, m := range cppClassRe.FindAllStringSubmatchIndex(source, -1) {
		children = append(children, heuristicClass(source[m[2]:m[3]], lineAt(source, m[0])))
	}

	for _, m := range cppStructRe.FindAllStringSubmatchIndex(source, -1) {
		children = append(children, heuristicClass(source[m[2]:m[3]], lineAt(source, m[0])))
	}

	for _, m := range cppFuncRe.FindAllStringSubmatchIndex(source, -1) {
		name := source[m[2]:m[3]]
		args := cppArgs(source[m[4]:m[5]])
		children = append(children, heuristicFunction(name, args, lineAt(source, m[0])))
	}

	for _, m := range cppNamespaceDeclRe.FindAllStringSubmatchIndex(source, -1) {
		node := heuristicClass("namespace "+source[m[2]:m[3]], lineAt(source, m[0]))
		children = append(children, node)
	}

	return &Node{Type: NodeModule, Start: 1, Children: children}, nil
}

// cppArgs strips default values, leading type tokens, and trailing
// reference/pointer decorations from each parameter.
func cppArgs(raw string) []Arg {
	args := []Arg{}
	for _, part := range splitArgList(raw) {
		if idx := strings.Index(part, "="); idx >= 0 {
			part = strings.TrimSpace(part[:idx])
		}
		fields := strings.Fields(part)
		name := part
		if len(fields) > 0 {
			name = fields[len(fields)-1]
		}
		name = strings.TrimRight(name, "&*")
		args = append(args, Arg{Name: name})
	}
	return args
}
