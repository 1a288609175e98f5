// Package explain generates natural-language explanations and improvement
// suggestions for parsed source code via an LLM backend.
package explain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/insightlab/codescope/internal/lang"
)

// DetailLevel selects how thorough a generated explanation should be.
type DetailLevel string

const (
	DetailSummary  DetailLevel = "summary"
	DetailBrief    DetailLevel = "brief"
	DetailDetailed DetailLevel = "detailed"
)

// ValidDetail reports whether s names a known detail level.
func ValidDetail(s string) bool {
	switch DetailLevel(s) {
	case DetailSummary, DetailBrief, DetailDetailed:
		return true
	}
	return false
}

// Known focus areas for Suggest. Unknown areas are passed through to the
// prompt untouched so callers can experiment.
var knownFocusAreas = map[string]string{
	"refactoring": "structural refactoring opportunities",
	"complexity":  "reducing cyclomatic and cognitive complexity",
	"security":    "potential security issues",
	"performance": "performance improvements",
}

// Generator produces explanations and suggestions for source code. The
// structural tree gives the generator an outline of the code so prompts can
// be scoped and large inputs chunked along declaration boundaries.
type Generator interface {
	Explain(ctx context.Context, tree *lang.Node, source string, detail DetailLevel) (string, error)
	Suggest(ctx context.Context, tree *lang.Node, source string, focusAreas []string) (string, error)
}

// RateLimitError is returned when the sliding-window call budget is
// exhausted. RetryAfter is how long until capacity frees up.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("explain: rate limit exceeded, retry after %s", e.RetryAfter.Round(time.Second))
}

// GenerationError wraps a backend failure.
type GenerationError struct {
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("explain: %s: %v", e.Message, e.Err)
	}
	return "explain: " + e.Message
}

func (e *GenerationError) Unwrap() error { return e.Err }

// estimateTokens approximates token count at four characters per token,
// which is close enough for chunking decisions.
func estimateTokens(text string) int {
	return len(text) / 4
}

// chunk is a contiguous slice of the source covering one or more top-level
// declarations.
type chunk struct {
	text  string
	names []string
}

// chunkSource splits source along top-level tree children so that each
// chunk stays under maxTokens. Declarations larger than the budget become
// chunks of their own rather than being split mid-declaration.
func chunkSource(tree *lang.Node, source string, maxTokens int) []chunk {
	if tree == nil || len(tree.Children) == 0 || estimateTokens(source) <= maxTokens {
		return []chunk{{text: source}}
	}

	lines := strings.Split(source, "\n")
	var chunks []chunk
	var cur strings.Builder
	var curNames []string

	flush := func() {
		if cur.Len() == 0 {
			return
		}
		chunks = append(chunks, chunk{text: cur.String(), names: curNames})
		cur.Reset()
		curNames = nil
	}

	for _, child := range tree.Children {
		text := sliceLines(lines, child.Start, child.End)
		if cur.Len() > 0 && estimateTokens(cur.String())+estimateTokens(text) > maxTokens {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n")
		}
		cur.WriteString(text)
		if child.Name != nil {
			curNames = append(curNames, *child.Name)
		}
		if estimateTokens(cur.String()) > maxTokens {
			flush()
		}
	}
	flush()

	if len(chunks) == 0 {
		return []chunk{{text: source}}
	}
	return chunks
}

// sliceLines extracts 1-based line range [start, end] from lines. A nil end
// means the single start line.
func sliceLines(lines []string, start int, end *int) string {
	last := start
	if end != nil {
		last = *end
	}
	if start < 1 {
		start = 1
	}
	if last > len(lines) {
		last = len(lines)
	}
	if start > last {
		return ""
	}
	return strings.Join(lines[start-1:last], "\n")
}

// outline renders a short structural summary of the tree for prompts, one
// declaration per line.
func outline(tree *lang.Node) string {
	if tree == nil {
		return ""
	}
	var b strings.Builder
	var walk func(n *lang.Node, depth int)
	walk = func(n *lang.Node, depth int) {
		if n.Type != lang.NodeModule {
			name := ""
			if n.Name != nil {
				name = *n.Name
			}
			fmt.Fprintf(&b, "%s%s %s (line %d)\n", strings.Repeat("  ", depth-1), n.Type, name, n.Start)
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(tree, 0)
	return strings.TrimRight(b.String(), "\n")
}

func explainSystemPrompt(language lang.Language) string {
	return fmt.Sprintf(
		"You are an expert %s developer. Explain code clearly and accurately for another engineer. Refer to declarations by name and line number.",
		language,
	)
}

func explainUserPrompt(source, structural string, detail DetailLevel) string {
	var b strings.Builder
	switch detail {
	case DetailSummary:
		b.WriteString("Give a two or three sentence summary of what this code does.\n\n")
	case DetailBrief:
		b.WriteString("Explain what this code does in a few short paragraphs, covering the main declarations.\n\n")
	default:
		b.WriteString("Explain this code in detail: purpose, how the declarations interact, notable patterns, and any edge cases handled.\n\n")
	}
	if structural != "" {
		b.WriteString("Structure:\n")
		b.WriteString(structural)
		b.WriteString("\n\n")
	}
	b.WriteString("Code:\n```\n")
	b.WriteString(source)
	b.WriteString("\n```")
	return b.String()
}

func suggestSystemPrompt(language lang.Language) string {
	return fmt.Sprintf(
		"You are an expert %s developer performing a code review. Give concrete, actionable suggestions with line references. Do not restate the code.",
		language,
	)
}

func suggestUserPrompt(source, structural string, focusAreas []string) string {
	var b strings.Builder
	b.WriteString("Review this code and suggest improvements.")
	if len(focusAreas) > 0 {
		var parts []string
		for _, area := range focusAreas {
			if desc, ok := knownFocusAreas[area]; ok {
				parts = append(parts, desc)
			} else {
				parts = append(parts, area)
			}
		}
		b.WriteString(" Focus on: ")
		b.WriteString(strings.Join(parts, "; "))
		b.WriteString(".")
	}
	b.WriteString("\n\n")
	if structural != "" {
		b.WriteString("Structure:\n")
		b.WriteString(structural)
		b.WriteString("\n\n")
	}
	b.WriteString("Code:\n```\n")
	b.WriteString(source)
	b.WriteString("\n```")
	return b.String()
}

func combinePrompt(detail DetailLevel, partials []string) string {
	var b strings.Builder
	b.WriteString("The following are explanations of consecutive sections of one file. ")
	if detail == DetailSummary {
		b.WriteString("Combine them into a two or three sentence summary of the whole file.\n\n")
	} else {
		b.WriteString("Combine them into one coherent explanation of the whole file, removing repetition.\n\n")
	}
	for i, p := range partials {
		fmt.Fprintf(&b, "Section %d:\n%s\n\n", i+1, p)
	}
	return strings.TrimRight(b.String(), "\n")
}
