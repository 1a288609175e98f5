package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightlab/codescope/internal/explain"
	"github.com/insightlab/codescope/internal/lang"
)

// stubGenerator returns canned text or a fixed error.
type stubGenerator struct {
	text string
	err  error

	lastDetail explain.DetailLevel
	lastFocus  []string
}

func (s *stubGenerator) Explain(_ context.Context, _ *lang.Node, _ string, detail explain.DetailLevel) (string, error) {
	s.lastDetail = detail
	return s.text, s.err
}

func (s *stubGenerator) Suggest(_ context.Context, _ *lang.Node, _ string, focus []string) (string, error) {
	s.lastFocus = focus
	return s.text, s.err
}

func newTestService(t *testing.T, gen explain.Generator) *AnalyzerService {
	t.Helper()
	svc, err := NewAnalyzerService(gen)
	require.NoError(t, err)
	return svc
}

// ---------------------------------------------------------------------------
// TestParseCodeTool
// ---------------------------------------------------------------------------

func TestParseCodeTool(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	t.Run("happy path", func(t *testing.T) {
		_, out, err := svc.ParseCode(ctx, nil, ParseCodeInput{Code: "def f():\n    pass\n"})
		require.NoError(t, err)
		assert.Nil(t, out.Error)
		assert.Equal(t, "python", out.Language)

		var tree map[string]any
		require.NoError(t, json.Unmarshal(out.Tree, &tree))
		assert.Equal(t, "module", tree["type"])
		assert.Equal(t, "python", tree["language"])
	})

	t.Run("empty code is a client error", func(t *testing.T) {
		_, out, err := svc.ParseCode(ctx, nil, ParseCodeInput{Code: "   "})
		require.NoError(t, err)
		require.NotNil(t, out.Error)
		assert.Equal(t, "invalid_input", out.Error.Kind)
	})

	t.Run("syntax error reported in-band", func(t *testing.T) {
		_, out, err := svc.ParseCode(ctx, nil, ParseCodeInput{Code: "def f(:\n    pass\n", Language: "python"})
		require.NoError(t, err)
		require.NotNil(t, out.Error)
		assert.Equal(t, "syntax_error", out.Error.Kind)
		assert.Equal(t, 1, out.Error.Line)
		assert.NotEmpty(t, out.Error.Text)
	})

	t.Run("language hint routes extractor", func(t *testing.T) {
		_, out, err := svc.ParseCode(ctx, nil, ParseCodeInput{Code: "function add(a, b) { return a + b; }\n", Language: "js"})
		require.NoError(t, err)
		assert.Nil(t, out.Error)
		assert.Equal(t, "javascript", out.Language)
	})

	t.Run("repeated calls hit the cache", func(t *testing.T) {
		input := ParseCodeInput{Code: "x = 1\n"}
		_, first, err := svc.ParseCode(ctx, nil, input)
		require.NoError(t, err)
		_, second, err := svc.ParseCode(ctx, nil, input)
		require.NoError(t, err)
		assert.JSONEq(t, string(first.Tree), string(second.Tree))
	})
}

// ---------------------------------------------------------------------------
// TestAnalyzeTool
// ---------------------------------------------------------------------------

func TestAnalyzeTool(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	t.Run("happy path", func(t *testing.T) {
		src := "class Base:\n    def m(self):\n        pass\n"
		_, out, err := svc.AnalyzeRelationships(ctx, nil, AnalyzeInput{Code: src})
		require.NoError(t, err)
		assert.Nil(t, out.Error)
		require.NotNil(t, out.Stats)
		assert.Equal(t, 2, out.Stats.NodeCount)
		assert.Equal(t, 1, out.Stats.EdgeCount)

		var g map[string]any
		require.NoError(t, json.Unmarshal(out.Graph, &g))
		assert.Contains(t, g, "nodes")
		assert.Contains(t, g, "links")
		assert.Contains(t, g, "imports")
	})

	t.Run("syntax error reported in-band", func(t *testing.T) {
		_, out, err := svc.AnalyzeRelationships(ctx, nil, AnalyzeInput{Code: "class (:\n"})
		require.NoError(t, err)
		require.NotNil(t, out.Error)
		assert.Equal(t, "syntax_error", out.Error.Kind)
	})

	t.Run("empty code is a client error", func(t *testing.T) {
		_, out, err := svc.AnalyzeRelationships(ctx, nil, AnalyzeInput{Code: ""})
		require.NoError(t, err)
		require.NotNil(t, out.Error)
		assert.Equal(t, "invalid_input", out.Error.Kind)
	})
}

// ---------------------------------------------------------------------------
// TestExplainTool
// ---------------------------------------------------------------------------

func TestExplainTool(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		gen := &stubGenerator{text: "adds numbers"}
		svc := newTestService(t, gen)

		_, out, err := svc.ExplainCode(ctx, nil, ExplainCodeInput{Code: "def add(a, b):\n    return a + b\n", Detail: "summary"})
		require.NoError(t, err)
		assert.Nil(t, out.Error)
		assert.Equal(t, "adds numbers", out.Explanation)
		assert.Equal(t, "summary", out.Detail)
		assert.Equal(t, explain.DetailSummary, gen.lastDetail)
	})

	t.Run("default detail is brief", func(t *testing.T) {
		gen := &stubGenerator{text: "ok"}
		svc := newTestService(t, gen)

		_, out, err := svc.ExplainCode(ctx, nil, ExplainCodeInput{Code: "x = 1\n"})
		require.NoError(t, err)
		assert.Equal(t, "brief", out.Detail)
	})

	t.Run("unknown detail rejected", func(t *testing.T) {
		svc := newTestService(t, &stubGenerator{})
		_, out, err := svc.ExplainCode(ctx, nil, ExplainCodeInput{Code: "x = 1\n", Detail: "verbose"})
		require.NoError(t, err)
		require.NotNil(t, out.Error)
		assert.Equal(t, "invalid_input", out.Error.Kind)
	})

	t.Run("no generator configured", func(t *testing.T) {
		svc := newTestService(t, nil)
		_, out, err := svc.ExplainCode(ctx, nil, ExplainCodeInput{Code: "x = 1\n"})
		require.NoError(t, err)
		require.NotNil(t, out.Error)
		assert.Equal(t, "generation_failed", out.Error.Kind)
	})

	t.Run("rate limit surfaces in-band", func(t *testing.T) {
		gen := &stubGenerator{err: &explain.RateLimitError{RetryAfter: 5 * time.Second}}
		svc := newTestService(t, gen)

		_, out, err := svc.ExplainCode(ctx, nil, ExplainCodeInput{Code: "x = 1\n"})
		require.NoError(t, err)
		require.NotNil(t, out.Error)
		assert.Equal(t, "rate_limited", out.Error.Kind)
	})

	t.Run("unexpected errors propagate", func(t *testing.T) {
		gen := &stubGenerator{err: errors.New("boom")}
		svc := newTestService(t, gen)

		_, _, err := svc.ExplainCode(ctx, nil, ExplainCodeInput{Code: "x = 1\n"})
		require.Error(t, err)
	})

	t.Run("syntax errors do not block generation", func(t *testing.T) {
		gen := &stubGenerator{text: "still explained"}
		svc := newTestService(t, gen)

		_, out, err := svc.ExplainCode(ctx, nil, ExplainCodeInput{Code: "def broken(:\n", Language: "python"})
		require.NoError(t, err)
		assert.Nil(t, out.Error)
		assert.Equal(t, "still explained", out.Explanation)
	})
}

// ---------------------------------------------------------------------------
// TestSuggestTool
// ---------------------------------------------------------------------------

func TestSuggestTool(t *testing.T) {
	ctx := context.Background()

	t.Run("focus areas forwarded", func(t *testing.T) {
		gen := &stubGenerator{text: "use a context manager"}
		svc := newTestService(t, gen)

		_, out, err := svc.SuggestImprovements(ctx, nil, SuggestInput{
			Code:       "f = open('x')\n",
			FocusAreas: []string{"security", "performance"},
		})
		require.NoError(t, err)
		assert.Nil(t, out.Error)
		assert.Equal(t, "use a context manager", out.Suggestions)
		assert.Equal(t, []string{"security", "performance"}, gen.lastFocus)
	})

	t.Run("no generator configured", func(t *testing.T) {
		svc := newTestService(t, nil)
		_, out, err := svc.SuggestImprovements(ctx, nil, SuggestInput{Code: "x = 1\n"})
		require.NoError(t, err)
		require.NotNil(t, out.Error)
		assert.Equal(t, "generation_failed", out.Error.Kind)
	})
}

// ---------------------------------------------------------------------------
// TestNewServer
// ---------------------------------------------------------------------------

func TestNewServer(t *testing.T) {
	svc := newTestService(t, nil)
	server := NewServer(svc)
	require.NotNil(t, server)
}
