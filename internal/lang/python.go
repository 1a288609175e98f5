package lang

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// maxWalkDepth bounds the recursive descent so pathological nesting cannot
// exhaust the call stack. Exceeding it surfaces as a ParseFailure.
const maxWalkDepth = 200

// PythonExtractor is the full-grammar structural extractor. It walks the
// tree-sitter parse tree recursively, in source order, emitting one node per
// class, function, variable assignment, and import at every nesting level.
type PythonExtractor struct{}

// Parse extracts the structural tree from Python source. It returns
// *InvalidInputError for non-text input, *SyntaxError when the grammar
// rejects the source, and *ParseFailure for any other internal failure.
func (e *PythonExtractor) Parse(source string) (tree *Node, err error) {
	if ie := checkText(source); ie != nil {
		return nil, ie
	}

	// The caller must get a structured failure, never a panic.
	defer func() {
		if r := recover(); r != nil {
			tree, err = nil, &ParseFailure{Message: fmt.Sprint(r)}
		}
	}()

	src := []byte(source)
	root, closer, err := ParsePythonSource(src)
	if err != nil {
		return nil, err
	}
	defer closer()

	children, err := e.extractBody(root, src, 1)
	if err != nil {
		return nil, err
	}

	return &Node{
		Type:     NodeModule,
		Start:    1,
		End:      intPtr(endLine(root)),
		Children: children,
	}, nil
}

// ParsePythonSource runs the tree-sitter Python grammar over src and returns
// the root node plus a cleanup function releasing the C-side tree and parser.
// Grammar rejection surfaces as *SyntaxError. Both the structural extractor
// and the relationship analyzer build on this single grammar entry point.
func ParsePythonSource(src []byte) (*tree_sitter.Node, func(), error) {
	root, closer, err := parsePython(src)
	if err != nil {
		return nil, nil, err
	}
	if root.HasError() {
		serr := syntaxErrorAt(root, src)
		closer()
		return nil, nil, serr
	}
	return root, closer, nil
}

// parsePython creates the parser and tree without inspecting errors.
func parsePython(src []byte) (*tree_sitter.Node, func(), error) {
	parser := tree_sitter.NewParser()
	if err := parser.SetLanguage(tree_sitter.NewLanguage(tree_sitter_python.Language())); err != nil {
		parser.Close()
		return nil, nil, &ParseFailure{Message: "set language: " + err.Error()}
	}

	tree := parser.Parse(src, nil)
	if tree == nil {
		parser.Close()
		return nil, nil, &ParseFailure{Message: "tree-sitter returned nil tree"}
	}

	closer := func() {
		tree.Close()
		parser.Close()
	}
	return tree.RootNode(), closer, nil
}

// syntaxErrorAt locates the first ERROR or MISSING node and builds a
// SyntaxError carrying the offending source line.
func syntaxErrorAt(root *tree_sitter.Node, src []byte) *SyntaxError {
	bad := firstErrorNode(root)
	if bad == nil {
		bad = root
	}
	pos := bad.StartPosition()
	return &SyntaxError{
		Line:   int(pos.Row) + 1,
		Column: int(pos.Column) + 1,
		Text:   sourceLine(src, int(pos.Row)),
	}
}

// firstErrorNode returns the earliest ERROR or MISSING node in the tree.
func firstErrorNode(node *tree_sitter.Node) *tree_sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	if !node.HasError() {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if found := firstErrorNode(child); found != nil {
			return found
		}
	}
	return node
}

// sourceLine returns the literal source line at the 0-based row, or "".
func sourceLine(src []byte, row int) string {
	lines := strings.Split(string(src), "\n")
	if row < 0 || row >= len(lines) {
		return ""
	}
	return lines[row]
}

// endLine converts a node's exclusive end position to the last 1-based line
// it spans. A node ending at column 0 stops on the previous line.
func endLine(n *tree_sitter.Node) int {
	p := n.EndPosition()
	if p.Column == 0 && p.Row > 0 {
		return int(p.Row)
	}
	return int(p.Row) + 1
}

func startLine(n *tree_sitter.Node) int {
	return int(n.StartPosition().Row) + 1
}

// extractBody walks the named statements of a module or block node and emits
// structural nodes in source order.
func (e *PythonExtractor) extractBody(body *tree_sitter.Node, src []byte, depth int) ([]*Node, error) {
	if depth > maxWalkDepth {
		return nil, &ParseFailure{Message: "maximum nesting depth exceeded"}
	}

	items := []*Node{}
	for i := uint(0); i < body.NamedChildCount(); i++ {
		stmt := body.NamedChild(i)
		if stmt == nil {
			continue
		}
		node, err := e.extractStatement(stmt, src, depth)
		if err != nil {
			return nil, err
		}
		if node != nil {
			items = append(items, node)
		}
	}
	return items, nil
}

// extractStatement maps one statement node to a structural node, or nil for
// statement kinds outside the closed set.
func (e *PythonExtractor) extractStatement(stmt *tree_sitter.Node, src []byte, depth int) (*Node, error) {
	switch stmt.Kind() {
	case "class_definition":
		return e.extractClass(stmt, src, nil, depth)
	case "function_definition":
		return e.extractFunction(stmt, src, nil, depth)
	case "decorated_definition":
		decorators, def := splitDecorated(stmt, src)
		if def == nil {
			return nil, nil
		}
		if def.Kind() == "class_definition" {
			return e.extractClass(def, src, decorators, depth)
		}
		return e.extractFunction(def, src, decorators, depth)
	case "expression_statement":
		inner := stmt.NamedChild(0)
		if inner == nil {
			return nil, nil
		}
		switch inner.Kind() {
		case "assignment":
			return e.extractAssignment(inner, src), nil
		case "augmented_assignment":
			return e.extractAugmented(inner, src), nil
		}
		return nil, nil
	case "import_statement":
		return e.extractImport(stmt, src), nil
	case "import_from_statement":
		return e.extractImportFrom(stmt, src), nil
	case "future_import_statement":
		node := e.extractImportFrom(stmt, src)
		node.Module = strPtr("__future__")
		return node, nil
	}
	return nil, nil
}

// splitDecorated separates a decorated_definition into rendered decorator
// expressions (leading "@" stripped) and the wrapped definition.
func splitDecorated(node *tree_sitter.Node, src []byte) ([]string, *tree_sitter.Node) {
	var decorators []string
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child != nil && child.Kind() == "decorator" {
			text := strings.TrimSpace(strings.TrimPrefix(child.Utf8Text(src), "@"))
			decorators = append(decorators, text)
		}
	}
	return decorators, node.ChildByFieldName("definition")
}

func (e *PythonExtractor) extractClass(node *tree_sitter.Node, src []byte, decorators []string, depth int) (*Node, error) {
	name := fieldText(node, "name", src)

	var bases []string
	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for i := uint(0); i < supers.NamedChildCount(); i++ {
			arg := supers.NamedChild(i)
			// Keyword arguments (metaclass=...) are not bases.
			if arg == nil || arg.Kind() == "keyword_argument" {
				continue
			}
			bases = append(bases, exprText(arg, src))
		}
	}

	children := []*Node{}
	if body := node.ChildByFieldName("body"); body != nil {
		var err error
		children, err = e.extractBody(body, src, depth+1)
		if err != nil {
			return nil, err
		}
	}

	return &Node{
		Type:       NodeClass,
		Name:       strPtr(name),
		Bases:      bases,
		Decorators: decorators,
		Start:      startLine(node),
		End:        intPtr(endLine(node)),
		Children:   children,
	}, nil
}

func (e *PythonExtractor) extractFunction(node *tree_sitter.Node, src []byte, decorators []string, depth int) (*Node, error) {
	name := fieldText(node, "name", src)

	typ := NodeFunction
	if isAsync(node) {
		typ = NodeAsyncFunction
	}

	var returns *string
	if rt := node.ChildByFieldName("return_type"); rt != nil {
		returns = strPtr(exprText(rt, src))
	}

	children := []*Node{}
	if body := node.ChildByFieldName("body"); body != nil {
		var err error
		children, err = e.extractBody(body, src, depth+1)
		if err != nil {
			return nil, err
		}
	}

	return &Node{
		Type:       typ,
		Name:       strPtr(name),
		Args:       formatArgs(node.ChildByFieldName("parameters"), src),
		Returns:    returns,
		Decorators: decorators,
		Start:      startLine(node),
		End:        intPtr(endLine(node)),
		Children:   children,
	}, nil
}

// isAsync reports whether the function_definition carries the async keyword.
func isAsync(node *tree_sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if child.Kind() == "async" {
			return true
		}
		if child.Kind() == "def" {
			break
		}
	}
	return false
}

// formatArgs renders the parameter list. The grammar attaches each default
// to its own parameter node, so the right-alignment of positional defaults
// falls out directly: parameters appear positional-only first, then regular
// positional, then *args, then keyword-only (after the bare "*"), then
// **kwargs, matching source order.
func formatArgs(params *tree_sitter.Node, src []byte) []Arg {
	args := []Arg{}
	if params == nil {
		return args
	}

	for i := uint(0); i < params.NamedChildCount(); i++ {
		p := params.NamedChild(i)
		if p == nil {
			continue
		}
		switch p.Kind() {
		case "identifier":
			args = append(args, Arg{Name: p.Utf8Text(src)})
		case "typed_parameter":
			arg := Arg{Name: firstChildText(p, src)}
			if t := p.ChildByFieldName("type"); t != nil {
				arg.Annotation = strPtr(exprText(t, src))
			}
			args = append(args, arg)
		case "default_parameter":
			arg := Arg{Name: fieldText(p, "name", src)}
			if v := p.ChildByFieldName("value"); v != nil {
				arg.Default = strPtr(exprText(v, src))
			}
			args = append(args, arg)
		case "typed_default_parameter":
			arg := Arg{Name: fieldText(p, "name", src)}
			if t := p.ChildByFieldName("type"); t != nil {
				arg.Annotation = strPtr(exprText(t, src))
			}
			if v := p.ChildByFieldName("value"); v != nil {
				arg.Default = strPtr(exprText(v, src))
			}
			args = append(args, arg)
		case "list_splat_pattern", "dictionary_splat_pattern":
			// Text already carries the */** variadic marker.
			args = append(args, Arg{Name: p.Utf8Text(src)})
		}
		// positional_separator "/" and keyword_separator "*" are not
		// parameters themselves.
	}
	return args
}

// extractAssignment handles plain and annotated assignments. Chained
// assignments (a = b = 1) contribute one target per link.
func (e *PythonExtractor) extractAssignment(node *tree_sitter.Node, src []byte) *Node {
	out := &Node{
		Type:  NodeVariable,
		Start: startLine(node),
		End:   intPtr(endLine(node)),
	}

	if node.ChildByFieldName("type") != nil {
		out.Assign = AssignAnnotated
		if left := node.ChildByFieldName("left"); left != nil {
			out.Targets = []string{exprText(left, src)}
		}
		if right := node.ChildByFieldName("right"); right != nil {
			out.Value = strPtr(exprText(right, src))
		}
		return out
	}

	out.Assign = AssignPlain
	current := node
	for {
		if left := current.ChildByFieldName("left"); left != nil {
			out.Targets = append(out.Targets, exprText(left, src))
		}
		right := current.ChildByFieldName("right")
		if right == nil {
			break
		}
		if right.Kind() == "assignment" {
			current = right
			continue
		}
		out.Value = strPtr(exprText(right, src))
		break
	}
	return out
}

// extractAugmented renders the whole augmented statement as the value
// ("total += n"), matching how the original surfaced compound assignments.
func (e *PythonExtractor) extractAugmented(node *tree_sitter.Node, src []byte) *Node {
	left := fieldText(node, "left", src)
	op := fieldText(node, "operator", src)
	right := fieldText(node, "right", src)

	return &Node{
		Type:    NodeVariable,
		Assign:  AssignAugmented,
		Targets: []string{left},
		Value:   strPtr(left + " " + op + " " + right),
		Start:   startLine(node),
		End:     intPtr(endLine(node)),
	}
}

func (e *PythonExtractor) extractImport(node *tree_sitter.Node, src []byte) *Node {
	var names []ImportedName
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			names = append(names, ImportedName{Name: child.Utf8Text(src)})
		case "aliased_import":
			names = append(names, aliasedName(child, src))
		}
	}
	return &Node{
		Type:  NodeImport,
		Names: names,
		Start: startLine(node),
		End:   intPtr(endLine(node)),
	}
}

func (e *PythonExtractor) extractImportFrom(node *tree_sitter.Node, src []byte) *Node {
	out := &Node{
		Type:  NodeImportFrom,
		Start: startLine(node),
		End:   intPtr(endLine(node)),
	}

	if mod := node.ChildByFieldName("module_name"); mod != nil {
		switch mod.Kind() {
		case "relative_import":
			text := mod.Utf8Text(src)
			trimmed := strings.TrimLeft(text, ".")
			out.Level = len(text) - len(trimmed)
			if trimmed != "" {
				out.Module = strPtr(trimmed)
			}
		default:
			out.Module = strPtr(mod.Utf8Text(src))
		}
	}

	// Names follow the "import" keyword; before it, dotted_name children
	// belong to the module path.
	seenImport := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if !child.IsNamed() {
			if child.Kind() == "import" {
				seenImport = true
			}
			continue
		}
		if !seenImport {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			out.Names = append(out.Names, ImportedName{Name: child.Utf8Text(src)})
		case "aliased_import":
			out.Names = append(out.Names, aliasedName(child, src))
		case "wildcard_import":
			out.Names = append(out.Names, ImportedName{Name: "*"})
		}
	}
	return out
}

func aliasedName(node *tree_sitter.Node, src []byte) ImportedName {
	name := ImportedName{Name: fieldText(node, "name", src)}
	if alias := node.ChildByFieldName("alias"); alias != nil {
		name.Asname = strPtr(alias.Utf8Text(src))
	}
	return name
}

// fieldText returns the source text of a named field, or "".
func fieldText(node *tree_sitter.Node, field string, src []byte) string {
	child := node.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return child.Utf8Text(src)
}

// firstChildText returns the text of the first named child, or "".
func firstChildText(node *tree_sitter.Node, src []byte) string {
	child := node.NamedChild(0)
	if child == nil {
		return ""
	}
	return child.Utf8Text(src)
}

// exprText renders an expression as its literal source text. Multi-line
// expressions collapse to single-line form; nodes with no usable text fall
// back to the grammar kind as a stable token rather than failing the parse.
func exprText(node *tree_sitter.Node, src []byte) string {
	text := node.Utf8Text(src)
	if strings.TrimSpace(text) == "" {
		return node.Kind()
	}
	if strings.ContainsRune(text, '\n') {
		return strings.Join(strings.Fields(text), " ")
	}
	return text
}
