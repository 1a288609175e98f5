package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewServer creates an MCP server with all 4 code insight tools registered.
func NewServer(svc *AnalyzerService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "codescope",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "parse_code",
		Description: "Parse a source code snippet into a structural tree of classes, functions, variables, and imports. Python gets full syntax-tree fidelity; JavaScript, Java, and C++ get a best-effort declaration outline. Language is auto-detected from a hint, the filename extension, or the code itself.",
	}, svc.ParseCode)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_relationships",
		Description: "Analyze Python source code and build a relationship graph: call edges between functions and methods, inheritance edges between classes, and containment edges from classes to their members, plus an import inventory.",
	}, svc.AnalyzeRelationships)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "explain_code",
		Description: "Generate a natural-language explanation of a code snippet at a chosen detail level (summary, brief, or detailed). Large inputs are split along top-level declarations and the partial explanations combined.",
	}, svc.ExplainCode)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "suggest_improvements",
		Description: "Review a code snippet and suggest improvements, optionally focused on specific areas: refactoring, complexity, security, or performance.",
	}, svc.SuggestImprovements)

	return server
}

// RunMCPServer starts an HTTP server exposing the code insight MCP tools.
func RunMCPServer(ctx context.Context, svc *AnalyzerService, addr string) error {
	server := NewServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
