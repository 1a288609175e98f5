package mcptools

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/insightlab/codescope/internal/explain"
	"github.com/insightlab/codescope/internal/graph"
	"github.com/insightlab/codescope/internal/lang"
)

// cacheSize bounds the number of parse/analysis results kept per service.
const cacheSize = 256

// AnalyzerService handles MCP tool calls. Parse and analysis results are
// cached by input hash so repeated tool calls over the same snippet skip
// re-parsing. Explanation tools go through the Generator and are not
// cached; the rate limiter lives behind the generator.
type AnalyzerService struct {
	cache *lru.Cache[string, []byte]
	gen   explain.Generator
}

// NewAnalyzerService creates an AnalyzerService. gen may be nil, in which
// case the explanation tools report that generation is unavailable.
func NewAnalyzerService(gen explain.Generator) (*AnalyzerService, error) {
	cache, err := lru.New[string, []byte](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("mcptools: create cache: %w", err)
	}
	return &AnalyzerService{cache: cache, gen: gen}, nil
}

func cacheKey(op string, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(op))
	for _, p := range parts {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ParseCode parses a source snippet into a structural tree.
func (s *AnalyzerService) ParseCode(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ParseCodeInput,
) (*mcp.CallToolResult, ParseCodeOutput, error) {
	if strings.TrimSpace(input.Code) == "" {
		return nil, ParseCodeOutput{Error: &ErrorInfo{
			Kind:    "invalid_input",
			Message: "code must not be empty",
		}}, nil
	}

	key := cacheKey("parse", input.Language, input.Filename, input.Code)
	if data, ok := s.cache.Get(key); ok {
		return nil, ParseCodeOutput{
			Language: string(lang.Detect(input.Code, input.Filename, input.Language)),
			Tree:     json.RawMessage(data),
		}, nil
	}

	tree, err := lang.ParseCode(input.Code, input.Filename, input.Language)
	if err != nil {
		if info := clientErrorInfo(err); info != nil {
			return nil, ParseCodeOutput{Error: info}, nil
		}
		return nil, ParseCodeOutput{}, err
	}

	data, err := json.Marshal(tree)
	if err != nil {
		return nil, ParseCodeOutput{}, fmt.Errorf("marshal tree: %w", err)
	}
	s.cache.Add(key, data)

	return nil, ParseCodeOutput{
		Language: string(tree.Language),
		Tree:     json.RawMessage(data),
	}, nil
}

// AnalyzeRelationships builds the relationship graph for Python source.
func (s *AnalyzerService) AnalyzeRelationships(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeInput,
) (*mcp.CallToolResult, AnalyzeOutput, error) {
	if strings.TrimSpace(input.Code) == "" {
		return nil, AnalyzeOutput{Error: &ErrorInfo{
			Kind:    "invalid_input",
			Message: "code must not be empty",
		}}, nil
	}

	key := cacheKey("analyze", input.Code)
	if data, ok := s.cache.Get(key); ok {
		var g graph.Graph
		if err := json.Unmarshal(data, &g); err == nil {
			return nil, AnalyzeOutput{
				Graph: json.RawMessage(data),
				Stats: graphStats(&g),
			}, nil
		}
	}

	g, err := graph.Analyze(input.Code)
	if err != nil {
		if info := clientErrorInfo(err); info != nil {
			return nil, AnalyzeOutput{Error: info}, nil
		}
		return nil, AnalyzeOutput{}, err
	}

	data, err := json.Marshal(g)
	if err != nil {
		return nil, AnalyzeOutput{}, fmt.Errorf("marshal graph: %w", err)
	}
	s.cache.Add(key, data)

	return nil, AnalyzeOutput{
		Graph: json.RawMessage(data),
		Stats: graphStats(g),
	}, nil
}

// ExplainCode generates a natural-language explanation of a snippet.
func (s *AnalyzerService) ExplainCode(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExplainCodeInput,
) (*mcp.CallToolResult, ExplainCodeOutput, error) {
	if s.gen == nil {
		return nil, ExplainCodeOutput{Error: &ErrorInfo{
			Kind:    "generation_failed",
			Message: "explanation generation is not configured",
		}}, nil
	}
	if strings.TrimSpace(input.Code) == "" {
		return nil, ExplainCodeOutput{Error: &ErrorInfo{
			Kind:    "invalid_input",
			Message: "code must not be empty",
		}}, nil
	}

	detail := explain.DetailBrief
	if input.Detail != "" {
		if !explain.ValidDetail(input.Detail) {
			return nil, ExplainCodeOutput{Error: &ErrorInfo{
				Kind:    "invalid_input",
				Message: fmt.Sprintf("unknown detail level %q", input.Detail),
			}}, nil
		}
		detail = explain.DetailLevel(input.Detail)
	}

	tree, info := s.parseForGeneration(input.Code, input.Language)
	if info != nil {
		return nil, ExplainCodeOutput{Error: info}, nil
	}

	text, err := s.gen.Explain(ctx, tree, input.Code, detail)
	if err != nil {
		if info := clientErrorInfo(err); info != nil {
			return nil, ExplainCodeOutput{Error: info}, nil
		}
		return nil, ExplainCodeOutput{}, err
	}
	return nil, ExplainCodeOutput{Explanation: text, Detail: string(detail)}, nil
}

// SuggestImprovements generates review suggestions for a snippet.
func (s *AnalyzerService) SuggestImprovements(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SuggestInput,
) (*mcp.CallToolResult, SuggestOutput, error) {
	if s.gen == nil {
		return nil, SuggestOutput{Error: &ErrorInfo{
			Kind:    "generation_failed",
			Message: "suggestion generation is not configured",
		}}, nil
	}
	if strings.TrimSpace(input.Code) == "" {
		return nil, SuggestOutput{Error: &ErrorInfo{
			Kind:    "invalid_input",
			Message: "code must not be empty",
		}}, nil
	}

	tree, info := s.parseForGeneration(input.Code, input.Language)
	if info != nil {
		return nil, SuggestOutput{Error: info}, nil
	}

	text, err := s.gen.Suggest(ctx, tree, input.Code, input.FocusAreas)
	if err != nil {
		if info := clientErrorInfo(err); info != nil {
			return nil, SuggestOutput{Error: info}, nil
		}
		return nil, SuggestOutput{}, err
	}
	return nil, SuggestOutput{Suggestions: text}, nil
}

// parseForGeneration parses input for prompt structure. Invalid input is a
// hard stop; a syntax error is not, since the model can still read the code.
func (s *AnalyzerService) parseForGeneration(code, hint string) (*lang.Node, *ErrorInfo) {
	tree, err := lang.ParseCode(code, "", hint)
	if err != nil {
		var invalid *lang.InvalidInputError
		if errors.As(err, &invalid) {
			return nil, clientErrorInfo(err)
		}
		return nil, nil
	}
	return tree, nil
}

func graphStats(g *graph.Graph) *GraphStats {
	return &GraphStats{
		NodeCount:   len(g.Nodes),
		EdgeCount:   len(g.Links),
		ImportCount: len(g.Imports),
	}
}

// clientErrorInfo maps known client-side failures to in-band ErrorInfo.
// Unknown errors return nil and propagate as tool errors.
func clientErrorInfo(err error) *ErrorInfo {
	var invalid *lang.InvalidInputError
	if errors.As(err, &invalid) {
		return &ErrorInfo{Kind: "invalid_input", Message: invalid.Error()}
	}
	var syntax *lang.SyntaxError
	if errors.As(err, &syntax) {
		return &ErrorInfo{
			Kind:    "syntax_error",
			Message: syntax.Error(),
			Line:    syntax.Line,
			Column:  syntax.Column,
			Text:    syntax.Text,
		}
	}
	var parseFail *lang.ParseFailure
	if errors.As(err, &parseFail) {
		return &ErrorInfo{Kind: "parse_failure", Message: parseFail.Error()}
	}
	var analysis *graph.AnalysisError
	if errors.As(err, &analysis) {
		return &ErrorInfo{Kind: "parse_failure", Message: analysis.Error()}
	}
	var rateLimited *explain.RateLimitError
	if errors.As(err, &rateLimited) {
		return &ErrorInfo{Kind: "rate_limited", Message: rateLimited.Error()}
	}
	var genFail *explain.GenerationError
	if errors.As(err, &genFail) {
		return &ErrorInfo{Kind: "generation_failed", Message: genFail.Error()}
	}
	return nil
}
