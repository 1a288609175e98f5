package mcptools

import "encoding/json"

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// ParseCodeInput is the input for the parse_code MCP tool.
type ParseCodeInput struct {
	Code     string `json:"code" jsonschema:"the source code to parse"`
	Language string `json:"language,omitempty" jsonschema:"language hint: python, javascript, java, cpp (aliases accepted). Auto-detected when omitted"`
	Filename string `json:"filename,omitempty" jsonschema:"original filename, used for extension-based language detection"`
}

// ParseCodeOutput is the result of the parse_code MCP tool. Tree is the
// structural tree JSON; Error is set instead when the input was rejected.
type ParseCodeOutput struct {
	Language string          `json:"language,omitempty"`
	Tree     json.RawMessage `json:"tree,omitempty"`
	Error    *ErrorInfo      `json:"error,omitempty"`
}

// AnalyzeInput is the input for the analyze_relationships MCP tool.
type AnalyzeInput struct {
	Code     string `json:"code" jsonschema:"the Python source code to analyze"`
	Filename string `json:"filename,omitempty" jsonschema:"original filename for reporting"`
}

// AnalyzeOutput is the result of the analyze_relationships MCP tool.
type AnalyzeOutput struct {
	Graph json.RawMessage `json:"graph,omitempty"`
	Stats *GraphStats     `json:"stats,omitempty"`
	Error *ErrorInfo      `json:"error,omitempty"`
}

// GraphStats summarizes an analyzed graph.
type GraphStats struct {
	NodeCount   int `json:"nodeCount"`
	EdgeCount   int `json:"edgeCount"`
	ImportCount int `json:"importCount"`
}

// ExplainCodeInput is the input for the explain_code MCP tool.
type ExplainCodeInput struct {
	Code     string `json:"code" jsonschema:"the source code to explain"`
	Language string `json:"language,omitempty" jsonschema:"language hint: python, javascript, java, cpp"`
	Detail   string `json:"detail,omitempty" jsonschema:"explanation detail: summary, brief, or detailed (default: brief)"`
}

// ExplainCodeOutput is the result of the explain_code MCP tool.
type ExplainCodeOutput struct {
	Explanation string     `json:"explanation,omitempty"`
	Detail      string     `json:"detail,omitempty"`
	Error       *ErrorInfo `json:"error,omitempty"`
}

// SuggestInput is the input for the suggest_improvements MCP tool.
type SuggestInput struct {
	Code       string   `json:"code" jsonschema:"the source code to review"`
	Language   string   `json:"language,omitempty" jsonschema:"language hint: python, javascript, java, cpp"`
	FocusAreas []string `json:"focusAreas,omitempty" jsonschema:"areas to focus on: refactoring, complexity, security, performance"`
}

// SuggestOutput is the result of the suggest_improvements MCP tool.
type SuggestOutput struct {
	Suggestions string     `json:"suggestions,omitempty"`
	Error       *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo reports a client-side problem (bad input, syntax error) in-band
// so tool callers can render it. Internal failures surface as tool errors
// instead.
type ErrorInfo struct {
	Kind    string `json:"kind"` // invalid_input | syntax_error | parse_failure | rate_limited | generation_failed
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Text    string `json:"text,omitempty"`
}
