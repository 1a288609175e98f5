package graph

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/insightlab/codescope/internal/lang"
)

// AnalysisError reports an unexpected internal failure during relationship
// extraction. Grammar rejections surface as *lang.SyntaxError instead.
type AnalysisError struct {
	Message string
}

func (e *AnalysisError) Error() string {
	return "analysis error: " + e.Message
}

// maxWalkDepth bounds the statement descent, mirroring the structural
// extractor's guard.
const maxWalkDepth = 200

// Analyzer extracts call, inheritance, containment, and variable-definition
// relationships from Python source for visualization. The zero value is
// ready to use and holds no state across Analyze calls.
type Analyzer struct{}

// Analyze is a convenience wrapper around a fresh Analyzer.
func Analyze(source string) (*Graph, error) {
	return (&Analyzer{}).Analyze(source)
}

// Analyze walks the full Python parse tree with a scope-path stack and
// assembles the deduplicated node/edge graph.
func (a *Analyzer) Analyze(source string) (g *Graph, err error) {
	defer func() {
		if r := recover(); r != nil {
			g, err = nil, &AnalysisError{Message: fmt.Sprint(r)}
		}
	}()

	src := []byte(source)
	root, closer, err := lang.ParsePythonSource(src)
	if err != nil {
		return nil, err
	}
	defer closer()

	an := newPyAnalysis(src)
	if err := an.visitModule(root); err != nil {
		return nil, err
	}
	return an.buildGraph(), nil
}

// --- Collected definitions ---

type funcInfo struct {
	Name     string
	FullName string
	Line     int
	Type     string // function | async_function
	IsMethod bool
}

type classInfo struct {
	Name     string
	FullName string
	Line     int
	Bases    []string
}

type varInfo struct {
	Name     string
	FullName string
	Context  string // "" at module level
	Line     int
}

type callSite struct {
	Caller string
	Callee string
	Line   int
}

// pyAnalysis accumulates definitions and relations during one walk.
// Ordered slices preserve first-seen order; the index maps deduplicate by
// fully-qualified path.
type pyAnalysis struct {
	src []byte

	funcs      []funcInfo
	funcIndex  map[string]bool
	classes    []classInfo
	classIndex map[string]bool
	vars       []varInfo
	varIndex   map[string]bool

	calls    []callSite
	inherits [][2]string
	imports  []Import
}

func newPyAnalysis(src []byte) *pyAnalysis {
	return &pyAnalysis{
		src:        src,
		funcIndex:  make(map[string]bool),
		classIndex: make(map[string]bool),
		varIndex:   make(map[string]bool),
	}
}

// --- Visitation ---

func (an *pyAnalysis) visitModule(root *tree_sitter.Node) error {
	for i := uint(0); i < root.NamedChildCount(); i++ {
		item := root.NamedChild(i)
		if item == nil {
			continue
		}
		switch item.Kind() {
		case "function_definition":
			if err := an.visitFunction(item, "", 1); err != nil {
				return err
			}
		case "class_definition":
			if err := an.visitClass(item, "", 1); err != nil {
				return err
			}
		case "decorated_definition":
			if err := an.visitDecorated(item, "", 1); err != nil {
				return err
			}
		case "import_statement":
			an.visitImport(item)
		case "import_from_statement":
			an.visitImportFrom(item, "")
		case "future_import_statement":
			an.visitImportFrom(item, "__future__")
		case "expression_statement":
			if inner := item.NamedChild(0); inner != nil && inner.Kind() == "assignment" {
				an.recordVariables(inner, "")
			}
		}
	}
	return nil
}

// visitDecorated unwraps a decorated_definition and dispatches to the
// class or function visitor.
func (an *pyAnalysis) visitDecorated(node *tree_sitter.Node, parent string, depth int) error {
	def := node.ChildByFieldName("definition")
	if def == nil {
		return nil
	}
	switch def.Kind() {
	case "class_definition":
		return an.visitClass(def, parent, depth)
	case "function_definition":
		return an.visitFunction(def, parent, depth)
	}
	return nil
}

func (an *pyAnalysis) visitClass(node *tree_sitter.Node, parent string, depth int) error {
	if depth > maxWalkDepth {
		return &AnalysisError{Message: "maximum nesting depth exceeded"}
	}

	name := an.fieldText(node, "name")
	fullName := qualify(parent, name)

	info := classInfo{
		Name:     name,
		FullName: fullName,
		Line:     an.line(node),
	}

	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for i := uint(0); i < supers.NamedChildCount(); i++ {
			base := supers.NamedChild(i)
			if base == nil || base.Kind() == "keyword_argument" {
				continue
			}
			rendered := an.exprText(base)
			info.Bases = append(info.Bases, rendered)
			// Only plain names and attribute chains become inheritance
			// edges; arbitrary base expressions are rendered but unlinked.
			if base.Kind() == "identifier" || base.Kind() == "attribute" {
				an.inherits = append(an.inherits, [2]string{fullName, rendered})
			}
		}
	}

	if !an.classIndex[fullName] {
		an.classIndex[fullName] = true
		an.classes = append(an.classes, info)
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	for i := uint(0); i < body.NamedChildCount(); i++ {
		item := body.NamedChild(i)
		if item == nil {
			continue
		}
		switch item.Kind() {
		case "function_definition":
			if err := an.visitFunction(item, fullName, depth+1); err != nil {
				return err
			}
		case "decorated_definition":
			if def := item.ChildByFieldName("definition"); def != nil && def.Kind() == "function_definition" {
				if err := an.visitFunction(def, fullName, depth+1); err != nil {
					return err
				}
			}
		case "expression_statement":
			if inner := item.NamedChild(0); inner != nil && inner.Kind() == "assignment" {
				an.recordVariables(inner, fullName)
			}
		}
	}
	return nil
}

func (an *pyAnalysis) visitFunction(node *tree_sitter.Node, parent string, depth int) error {
	if depth > maxWalkDepth {
		return &AnalysisError{Message: "maximum nesting depth exceeded"}
	}

	name := an.fieldText(node, "name")
	fullName := qualify(parent, name)

	typ := "function"
	if hasAsyncKeyword(node) {
		typ = "async_function"
	}

	if !an.funcIndex[fullName] {
		an.funcIndex[fullName] = true
		an.funcs = append(an.funcs, funcInfo{
			Name:     name,
			FullName: fullName,
			Line:     an.line(node),
			Type:     typ,
			IsMethod: parent != "" && an.classIndex[parent],
		})
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	return an.visitBlock(body, fullName, depth+1)
}

func (an *pyAnalysis) visitBlock(block *tree_sitter.Node, context string, depth int) error {
	for i := uint(0); i < block.NamedChildCount(); i++ {
		stmt := block.NamedChild(i)
		if stmt == nil {
			continue
		}
		if err := an.visitStatement(stmt, context, depth); err != nil {
			return err
		}
	}
	return nil
}

// visitStatement recognizes the statement shapes that contribute call edges
// and local definitions: bare calls, assignment right-hand sides, return
// values, loop and conditional bodies, and nested definitions.
func (an *pyAnalysis) visitStatement(stmt *tree_sitter.Node, context string, depth int) error {
	if depth > maxWalkDepth {
		return &AnalysisError{Message: "maximum nesting depth exceeded"}
	}

	switch stmt.Kind() {
	case "expression_statement":
		inner := stmt.NamedChild(0)
		if inner == nil {
			return nil
		}
		switch inner.Kind() {
		case "call":
			an.visitCall(inner, context)
		case "assignment":
			// Annotated assignments in function bodies stay local detail.
			if inner.ChildByFieldName("type") == nil {
				an.recordVariables(inner, context)
				if right := inner.ChildByFieldName("right"); right != nil && right.Kind() == "call" {
					an.visitCall(right, context)
				}
			}
		}

	case "return_statement":
		if value := stmt.NamedChild(0); value != nil && value.Kind() == "call" {
			an.visitCall(value, context)
		}

	case "for_statement", "while_statement":
		if body := stmt.ChildByFieldName("body"); body != nil {
			if err := an.visitBlock(body, context, depth+1); err != nil {
				return err
			}
		}
		return an.visitAlternatives(stmt, context, depth)

	case "if_statement":
		if cons := stmt.ChildByFieldName("consequence"); cons != nil {
			if err := an.visitBlock(cons, context, depth+1); err != nil {
				return err
			}
		}
		return an.visitAlternatives(stmt, context, depth)

	case "function_definition":
		return an.visitFunction(stmt, context, depth)

	case "decorated_definition":
		if def := stmt.ChildByFieldName("definition"); def != nil && def.Kind() == "function_definition" {
			return an.visitFunction(def, context, depth)
		}
	}
	return nil
}

// visitAlternatives descends into elif/else clauses of a compound statement.
func (an *pyAnalysis) visitAlternatives(stmt *tree_sitter.Node, context string, depth int) error {
	for i := uint(0); i < stmt.NamedChildCount(); i++ {
		clause := stmt.NamedChild(i)
		if clause == nil {
			continue
		}
		switch clause.Kind() {
		case "elif_clause":
			if cons := clause.ChildByFieldName("consequence"); cons != nil {
				if err := an.visitBlock(cons, context, depth+1); err != nil {
					return err
				}
			}
		case "else_clause":
			if body := clause.ChildByFieldName("body"); body != nil {
				if err := an.visitBlock(body, context, depth+1); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// visitCall records a call edge from the current scope to the callee. The
// callee is a plain identifier or a rendered attribute chain for method
// calls; anything else is ignored.
func (an *pyAnalysis) visitCall(call *tree_sitter.Node, caller string) {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return
	}
	switch fn.Kind() {
	case "identifier", "attribute":
		callee := an.exprText(fn)
		if callee != "" {
			an.calls = append(an.calls, callSite{Caller: caller, Callee: callee, Line: an.line(call)})
		}
	}
}

// recordVariables tracks every assignment target that is a plain name.
// Chained assignments contribute one definition per link. Function-local
// definitions are recorded but filtered out of node output later.
func (an *pyAnalysis) recordVariables(assign *tree_sitter.Node, context string) {
	current := assign
	for current != nil {
		if left := current.ChildByFieldName("left"); left != nil && left.Kind() == "identifier" {
			name := left.Utf8Text(an.src)
			fullName := qualify(context, name)
			if !an.varIndex[fullName] {
				an.varIndex[fullName] = true
				an.vars = append(an.vars, varInfo{
					Name:     name,
					FullName: fullName,
					Context:  context,
					Line:     an.line(assign),
				})
			}
		}
		right := current.ChildByFieldName("right")
		if right != nil && right.Kind() == "assignment" {
			current = right
			continue
		}
		return
	}
}

func (an *pyAnalysis) visitImport(node *tree_sitter.Node) {
	line := an.line(node)
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			module := child.Utf8Text(an.src)
			an.imports = append(an.imports, Import{Module: module, Alias: module, Type: "import", Line: line})
		case "aliased_import":
			module := an.fieldText(child, "name")
			alias := an.fieldText(child, "alias")
			if alias == "" {
				alias = module
			}
			an.imports = append(an.imports, Import{Module: module, Alias: alias, Type: "import", Line: line})
		}
	}
}

// visitImportFrom records from-imports. moduleOverride carries "__future__"
// for future_import_statement, whose grammar node lacks a module field.
func (an *pyAnalysis) visitImportFrom(node *tree_sitter.Node, moduleOverride string) {
	line := an.line(node)

	module := moduleOverride
	if module == "" {
		if mod := node.ChildByFieldName("module_name"); mod != nil {
			module = strings.TrimLeft(mod.Utf8Text(an.src), ".")
		}
	}

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
			name := child.Utf8Text(an.src)
			an.imports = append(an.imports, Import{Module: module, Name: name, Alias: name, Type: "import_from", Line: line})
		case "aliased_import":
			name := an.fieldText(child, "name")
			alias := an.fieldText(child, "alias")
			if alias == "" {
				alias = name
			}
			an.imports = append(an.imports, Import{Module: module, Name: name, Alias: alias, Type: "import_from", Line: line})
		case "wildcard_import":
			an.imports = append(an.imports, Import{Module: module, Name: "*", Alias: "*", Type: "import_from", Line: line})
		}
	}
}

// --- Graph assembly ---

// buildGraph assembles nodes and deduplicated edges. Variable definitions
// become nodes only at module and class level; function-local tracking is
// deliberately excluded to avoid graph clutter.
func (an *pyAnalysis) buildGraph() *Graph {
	g := &Graph{
		Nodes:   []Node{},
		Links:   []Edge{},
		Imports: an.imports,
	}
	if g.Imports == nil {
		g.Imports = []Import{}
	}

	nodeIDs := make(map[string]bool)

	for _, f := range an.funcs {
		if nodeIDs[f.FullName] {
			continue
		}
		nodeIDs[f.FullName] = true
		isMethod := f.IsMethod
		g.Nodes = append(g.Nodes, Node{
			ID:       f.FullName,
			Label:    f.Name,
			FullName: f.FullName,
			Type:     f.Type,
			Group:    GroupFunction,
			Line:     f.Line,
			IsMethod: &isMethod,
		})
	}

	for _, c := range an.classes {
		if nodeIDs[c.FullName] {
			continue
		}
		nodeIDs[c.FullName] = true
		bases := append([]string{}, c.Bases...)
		g.Nodes = append(g.Nodes, Node{
			ID:       c.FullName,
			Label:    c.Name,
			FullName: c.FullName,
			Type:     "class",
			Group:    GroupClass,
			Line:     c.Line,
			Bases:    &bases,
		})
	}

	for _, v := range an.vars {
		if v.Context != "" && !an.classIndex[v.Context] {
			continue // function-local
		}
		if nodeIDs[v.FullName] {
			continue
		}
		nodeIDs[v.FullName] = true
		g.Nodes = append(g.Nodes, Node{
			ID:       v.FullName,
			Label:    v.Name,
			FullName: v.FullName,
			Type:     "variable",
			Group:    GroupVariable,
			Line:     v.Line,
		})
	}

	type edgeKey struct {
		src, dst string
		kind     EdgeKind
	}
	seen := make(map[edgeKey]bool)
	add := func(e Edge) {
		k := edgeKey{e.Source, e.Target, e.Type}
		if seen[k] {
			return
		}
		seen[k] = true
		g.Links = append(g.Links, e)
	}

	for _, c := range an.calls {
		add(Edge{Source: c.Caller, Target: c.Callee, Type: EdgeCalls, Label: "calls", Line: c.Line})
	}

	for _, rel := range an.inherits {
		add(Edge{Source: rel[0], Target: rel[1], Type: EdgeInherits, Label: "inherits"})
	}

	// Containment: a class→method edge whenever a function's parent scope
	// segment is a known class.
	for _, f := range an.funcs {
		idx := strings.LastIndex(f.FullName, ".")
		if idx < 0 {
			continue
		}
		parent := f.FullName[:idx]
		if an.classIndex[parent] {
			add(Edge{Source: parent, Target: f.FullName, Type: EdgeContains, Label: "contains"})
		}
	}

	return g
}

// --- Small helpers ---

func qualify(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func hasAsyncKeyword(node *tree_sitter.Node) bool {
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

func (an *pyAnalysis) line(node *tree_sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

func (an *pyAnalysis) fieldText(node *tree_sitter.Node, field string) string {
	child := node.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return child.Utf8Text(an.src)
}

func (an *pyAnalysis) exprText(node *tree_sitter.Node) string {
	text := node.Utf8Text(an.src)
	if strings.TrimSpace(text) == "" {
		return node.Kind()
	}
	if strings.ContainsRune(text, '\n') {
		return strings.Join(strings.Fields(text), " ")
	}
	return text
}
