package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/insightlab/codescope/internal/config"
	"github.com/insightlab/codescope/internal/explain"
	"github.com/insightlab/codescope/internal/export"
	"github.com/insightlab/codescope/internal/graph"
	"github.com/insightlab/codescope/internal/lang"
	"github.com/insightlab/codescope/internal/mcptools"
)

// CLI flags parsed from command line.
type cliFlags struct {
	Language string
	Graph    bool
	Diagram  bool
	Explain  bool
	Suggest  bool
	Detail   string
	Focus    string
	ServeMCP bool
	Addr     string
	KuzuPath string
	Verbose  bool
	Version  bool
}

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("codescope", flag.ContinueOnError)
	fs.StringVar(&flags.Language, "lang", "", "language hint: python, javascript, java, cpp")
	fs.BoolVar(&flags.Graph, "graph", false, "output the relationship graph instead of the structural tree (Python only)")
	fs.BoolVar(&flags.Diagram, "diagram", false, "output the relationship graph as a Mermaid diagram (Python only)")
	fs.BoolVar(&flags.Explain, "explain", false, "generate a natural-language explanation of the input")
	fs.BoolVar(&flags.Suggest, "suggest", false, "generate improvement suggestions for the input")
	fs.StringVar(&flags.Detail, "detail", "brief", "explanation detail: summary, brief, detailed")
	fs.StringVar(&flags.Focus, "focus", "", "comma-separated suggestion focus areas: refactoring, complexity, security, performance")
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "run as an MCP tool server")
	fs.StringVar(&flags.Addr, "addr", ":8712", "listen address for -serve-mcp")
	fs.StringVar(&flags.KuzuPath, "kuzu", "", "persist the relationship graph to a KuzuDB database at this path")
	fs.BoolVar(&flags.Verbose, "verbose", false, "enable verbose output")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	// .env is optional; environment variables win over file values.
	_ = godotenv.Load()

	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyConfig(&flags, cfg)

	if !flags.Verbose {
		log.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flags.ServeMCP {
		return serveMCP(ctx, flags, cfg)
	}

	files := fs.Args()
	switch {
	case flags.Explain || flags.Suggest:
		return runGenerate(ctx, flags, cfg, files)
	case flags.Graph || flags.Diagram:
		return runGraph(ctx, flags, files)
	default:
		return runParse(ctx, flags, files)
	}
}

// applyConfig fills flag defaults from the project config file. Explicit
// flags keep their values.
func applyConfig(flags *cliFlags, cfg *config.ProjectConfig) {
	if flags.Language == "" {
		flags.Language = cfg.Language
	}
	if flags.KuzuPath == "" {
		flags.KuzuPath = cfg.KuzuPath
	}
	if cfg.ServeAddr != "" && flags.Addr == ":8712" {
		flags.Addr = cfg.ServeAddr
	}
	if cfg.Verbose {
		flags.Verbose = true
	}
}

// runParse parses each input into a structural tree and writes the JSON to
// stdout. Multiple files parse concurrently but print in argument order.
func runParse(ctx context.Context, flags cliFlags, files []string) error {
	if len(files) == 0 {
		source, err := readStdin()
		if err != nil {
			return err
		}
		tree, err := lang.ParseCode(source, "", flags.Language)
		if err != nil {
			return err
		}
		return export.WriteTree(os.Stdout, tree)
	}

	trees := make([]*lang.Node, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			tree, err := lang.ParseCode(string(data), path, flags.Language)
			if err != nil {
				return fmt.Errorf("parse %s: %w", path, err)
			}
			trees[i] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, tree := range trees {
		if len(files) > 1 {
			fmt.Printf("// %s\n", files[i])
		}
		if err := export.WriteTree(os.Stdout, tree); err != nil {
			return err
		}
	}
	return nil
}

// runGraph analyzes a single Python input and writes the relationship graph
// as JSON or a Mermaid diagram. With -kuzu the graph is also persisted.
func runGraph(ctx context.Context, flags cliFlags, files []string) error {
	source, name, err := readOneInput(files)
	if err != nil {
		return err
	}

	result, err := graph.Analyze(source)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", name, err)
	}
	log.Printf("analyzed %s: %d nodes, %d edges, %d imports",
		name, len(result.Nodes), len(result.Links), len(result.Imports))

	if flags.KuzuPath != "" {
		store, err := openStore(flags.KuzuPath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.InitSchema(ctx); err != nil {
			return err
		}
		if err := store.LoadGraph(ctx, result); err != nil {
			return err
		}
		log.Printf("graph persisted to %s", flags.KuzuPath)
	}

	if flags.Diagram {
		fmt.Print(export.GenerateMermaid(result))
		return nil
	}
	return export.WriteGraph(os.Stdout, result)
}

// runGenerate explains or reviews a single input via the OpenAI backend.
func runGenerate(ctx context.Context, flags cliFlags, cfg *config.ProjectConfig, files []string) error {
	source, _, err := readOneInput(files)
	if err != nil {
		return err
	}

	gen, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	tree, err := lang.ParseCode(source, inputName(files), flags.Language)
	if err != nil {
		// A syntax error does not block generation; the model can
		// still read the code.
		var invalid *lang.InvalidInputError
		if errors.As(err, &invalid) {
			return err
		}
		tree = nil
	}

	if flags.Suggest {
		var focus []string
		if flags.Focus != "" {
			for _, f := range strings.Split(flags.Focus, ",") {
				focus = append(focus, strings.TrimSpace(f))
			}
		}
		text, err := gen.Suggest(ctx, tree, source, focus)
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	}

	if !explain.ValidDetail(flags.Detail) {
		return fmt.Errorf("unknown detail level %q", flags.Detail)
	}
	text, err := gen.Explain(ctx, tree, source, explain.DetailLevel(flags.Detail))
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func serveMCP(ctx context.Context, flags cliFlags, cfg *config.ProjectConfig) error {
	var gen explain.Generator
	if os.Getenv("OPENAI_API_KEY") != "" {
		g, err := newGenerator(cfg)
		if err != nil {
			return err
		}
		gen = g
	}

	svc, err := mcptools.NewAnalyzerService(gen)
	if err != nil {
		return err
	}
	log.Printf("mcp server listening on %s", flags.Addr)
	return mcptools.RunMCPServer(ctx, svc, flags.Addr)
}

func newGenerator(cfg *config.ProjectConfig) (explain.Generator, error) {
	return explain.NewOpenAIGenerator(explain.Config{
		APIKey:            os.Getenv("OPENAI_API_KEY"),
		BaseURL:           cfg.OpenAIBase,
		Model:             cfg.OpenAIModel,
		MaxCallsPerMinute: cfg.MaxCalls,
	})
}

func readOneInput(files []string) (source, name string, err error) {
	switch len(files) {
	case 0:
		source, err = readStdin()
		return source, "stdin", err
	case 1:
		data, err := os.ReadFile(files[0])
		if err != nil {
			return "", "", fmt.Errorf("read %s: %w", files[0], err)
		}
		return string(data), files[0], nil
	default:
		return "", "", fmt.Errorf("expected one input file, got %d", len(files))
	}
}

func inputName(files []string) string {
	if len(files) == 1 {
		return files[0]
	}
	return ""
}

func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("no input: pass a file or pipe source on stdin")
	}
	return string(data), nil
}
