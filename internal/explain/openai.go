package explain

import (
	"context"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"

	"github.com/insightlab/codescope/internal/lang"
)

// Config holds the OpenAI generator settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string

	// MaxCallsPerMinute caps outbound requests; 0 uses the default.
	MaxCallsPerMinute int

	// MaxContextTokens is the estimated input budget before chunking
	// kicks in; 0 uses the default.
	MaxContextTokens int
}

const (
	defaultModel            = "gpt-4o-mini"
	defaultCallsPerMinute   = 60
	defaultContextTokens    = 16000
	summaryOutputTokens     = 1000
	explanationOutputTokens = 2000
	maxOutputTokens         = 8000
	generationTemperature   = 0.3
)

// OpenAIGenerator implements Generator against the OpenAI Responses API.
type OpenAIGenerator struct {
	client  openai.Client
	model   string
	limiter *RateLimiter
	maxCtx  int
}

var _ Generator = (*OpenAIGenerator)(nil)

// NewOpenAIGenerator builds a generator from cfg. The API key is required.
func NewOpenAIGenerator(cfg Config) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, &GenerationError{Message: "missing API key"}
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxCallsPerMinute <= 0 {
		cfg.MaxCallsPerMinute = defaultCallsPerMinute
	}
	if cfg.MaxContextTokens <= 0 {
		cfg.MaxContextTokens = defaultContextTokens
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIGenerator{
		client:  openai.NewClient(opts...),
		model:   cfg.Model,
		limiter: NewRateLimiter(cfg.MaxCallsPerMinute, time.Minute),
		maxCtx:  cfg.MaxContextTokens,
	}, nil
}

// Explain generates an explanation of source at the given detail level.
// Oversized inputs are split along top-level declarations, each section
// explained, and the partial explanations combined in a final call.
func (g *OpenAIGenerator) Explain(ctx context.Context, tree *lang.Node, source string, detail DetailLevel) (string, error) {
	language := lang.LangPython
	if tree != nil && tree.Language != "" {
		language = tree.Language
	}
	system := explainSystemPrompt(language)
	structural := outline(tree)

	chunks := chunkSource(tree, source, g.maxCtx)
	if len(chunks) == 1 {
		return g.complete(ctx, system, explainUserPrompt(chunks[0].text, structural, detail), outputBudget(detail))
	}

	partials := make([]string, 0, len(chunks))
	for _, c := range chunks {
		section := structural
		if len(c.names) > 0 {
			section = "Declarations in this section: " + strings.Join(c.names, ", ")
		}
		part, err := g.complete(ctx, system, explainUserPrompt(c.text, section, detail), outputBudget(detail))
		if err != nil {
			return "", err
		}
		partials = append(partials, part)
	}
	return g.complete(ctx, system, combinePrompt(detail, partials), outputBudget(detail))
}

// Suggest generates improvement suggestions for source, optionally scoped
// to the given focus areas.
func (g *OpenAIGenerator) Suggest(ctx context.Context, tree *lang.Node, source string, focusAreas []string) (string, error) {
	language := lang.LangPython
	if tree != nil && tree.Language != "" {
		language = tree.Language
	}
	if estimateTokens(source) > g.maxCtx {
		return "", &GenerationError{Message: "source too large for suggestion generation"}
	}
	prompt := suggestUserPrompt(source, outline(tree), focusAreas)
	return g.complete(ctx, suggestSystemPrompt(language), prompt, explanationOutputTokens)
}

func outputBudget(detail DetailLevel) int {
	budget := explanationOutputTokens
	if detail == DetailSummary {
		budget = summaryOutputTokens
	}
	if budget > maxOutputTokens {
		budget = maxOutputTokens
	}
	return budget
}

func (g *OpenAIGenerator) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	if !g.limiter.Acquire() {
		return "", &RateLimitError{RetryAfter: g.limiter.WaitTime()}
	}

	result, err := g.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: shared.ResponsesModel(g.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(system, responses.EasyInputMessageRoleSystem),
				responses.ResponseInputItemParamOfMessage(user, responses.EasyInputMessageRoleUser),
			},
		},
		MaxOutputTokens: openai.Int(int64(maxTokens)),
		Temperature:     openai.Float(generationTemperature),
	})
	if err != nil {
		return "", &GenerationError{Message: "completion request failed", Err: err}
	}

	text := strings.TrimSpace(result.OutputText())
	if text == "" {
		return "", &GenerationError{Message: "empty completion"}
	}
	return text, nil
}
