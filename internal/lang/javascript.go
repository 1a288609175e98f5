package lang

import "regexp"

// JSExtractor is the best-effort JavaScript extractor. It scans for class
// declarations, function declarations, and functions assigned to const/let/
// var bindings (arrow or function expressions).
type JSExtractor struct{}

var (
	jsClassDeclRe = regexp.MustCompile(`(?m)^\s*class\s+([A-Za-z_$][\w$]*)`)
	jsFuncDeclRe  = regexp.MustCompile(`(?m)^\s*function\s+([A-Za-z_$][\w$]*)\s*\(([^)]*)\)`)
	// const foo = () => {}, const foo = function (...) {}
	jsAssignedFuncRe = regexp.MustCompile(`(?m)^\s*(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s+)?(?:\([^)]*\)\s*=>|function\s*\(([^)]*)\))`)
)

// Parse scans source and returns a flat module tree: classes first, then
// declared functions, then assigned functions.
func (e *JSExtractor) Parse(source string) (*Node, error) {
	if ie := checkText(source); ie != nil {
		return nil, ie
	}

	children := []*Node{}

	for _, m := range jsClassDeclRe.FindAllStringSubmatchIndex(source, -1) {
		name := source[m[2]:m[3]]
		children = append(children, heuristicClass(name, lineAt(source, m[0])))
	}

	for _, m := range jsFuncDeclRe.FindAllStringSubmatchIndex(source, -1) {
		name := source[m[2]:m[3]]
		args := jsArgs(source[m[4]:m[5]])
		children = append(children, heuristicFunction(name, args, lineAt(source, m[0])))
	}

	for _, m := range jsAssignedFuncRe.FindAllStringSubmatchIndex(source, -1) {
		name := source[m[2]:m[3]]
		var raw string
		if m[4] >= 0 {
			raw = source[m[4]:m[5]]
		}
		children = append(children, heuristicFunction(name, jsArgs(raw), lineAt(source, m[0])))
	}

	return &Node{Type: NodeModule, Start: 1, Children: children}, nil
}

// jsArgs keeps each comma-separated parameter verbatim.
func jsArgs(raw string) []Arg {
	args := []Arg{}
	for _, part := range splitArgList(raw) {
		args = append(args, Arg{Name: part})
	}
	return args
}
