package lang

import (
	"regexp"
	"strings"
)

// JavaExtractor is the best-effort Java extractor. Interfaces are reported
// as class nodes.
type JavaExtractor struct{}

var (
	javaClassRe     = regexp.MustCompile(`(?m)^\s*(?:public\s+|private\s+|protected\s+)?(?:final\s+|abstract\s+)?class\s+([A-Za-z_]\w*)`)
	javaInterfaceRe = regexp.MustCompile(`(?m)^\s*(?:public\s+|private\s+|protected\s+)?interface\s+([A-Za-z_]\w*)`)
	javaMethodRe    = regexp.MustCompile(`(?m)^\s*(?:public|private|protected)?\s*(?:static\s+)?[\w<>\[\]]+\s+([A-Za-z_]\w*)\s*\(([^)]*)\)\s*\{`)
)

// Parse scans source and returns a flat module tree: classes first, then
// interfaces, then methods.
func (e *JavaExtractor) Parse(source string) (*Node, error) {
	if ie := checkText(source); ie != nil {
		return nil, ie
	}

	children := []*Node{}

	for _, m := range javaClassRe.FindAllStringSubmatchIndex(source, -1) {
		children = append(children, heuristicClass(source[m[2]:m[3]], lineAt(source, m[0])))
	}

	for _, m := range javaInterfaceRe.FindAllStringSubmatchIndex(source, -1) {
		children = append(children, heuristicClass(source[m[2]:m[3]], lineAt(source, m[0])))
	}

	for _, m := range javaMethodRe.FindAllStringSubmatchIndex(source, -1) {
		name := source[m[2]:m[3]]
		args := javaArgs(source[m[4]:m[5]])
		children = append(children, heuristicFunction(name, args, lineAt(source, m[0])))
	}

	return &Node{Type: NodeModule, Start: 1, Children: children}, nil
}

// javaArgs keeps the last whitespace-separated token of each parameter
// ("int x, String y" -> x, y).
func javaArgs(raw string) []Arg {
	args := []Arg{}
	for _, part := range splitArgList(raw) {
		fields := strings.Fields(part)
		name := part
		if len(fields) > 0 {
			name = fields[len(fields)-1]
		}
		args = append(args, Arg{Name: name})
	}
	return args
}
