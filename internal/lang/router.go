package lang

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Extractor produces a structural tree from raw source text. Implementations
// hold no state between calls and are safe to construct per request.
type Extractor interface {
	Parse(source string) (*Node, error)
}

// hintAliases normalizes explicit language hints, case-insensitively.
var hintAliases = map[string]Language{
	"py":         LangPython,
	"python":     LangPython,
	"js":         LangJavaScript,
	"javascript": LangJavaScript,
	"node":       LangJavaScript,
	"java":       LangJava,
	"cpp":        LangCpp,
	"c++":        LangCpp,
	"cxx":        LangCpp,
	"cc":         LangCpp,
}

// extLanguages maps filename extensions to languages.
var extLanguages = map[string]Language{
	".py":   LangPython,
	".js":   LangJavaScript,
	".mjs":  LangJavaScript,
	".cjs":  LangJavaScript,
	".ts":   LangJavaScript,
	".java": LangJava,
	".cpp":  LangCpp,
	".cxx":  LangCpp,
	".cc":   LangCpp,
	".hpp":  LangCpp,
	".h":    LangCpp,
}

// Token signatures tested in fixed priority order over the head of the
// source when neither hint nor filename settles the language.
var (
	pyDefRe   = regexp.MustCompile(`\bdef\s+\w+\s*\(`)
	pyClassRe = regexp.MustCompile(`\bclass\s+\w+\s*:`)

	jsFuncRe  = regexp.MustCompile(`\bfunction\s+\w+\s*\(`)
	jsArrowRe = regexp.MustCompile(`=>\s*\{?`)
	jsClassRe = regexp.MustCompile(`\bclass\s+\w+\s*\{`)

	javaDeclRe = regexp.MustCompile(`\bpublic\s+(class|interface)\b`)
	javaMainRe = regexp.MustCompile(`\bstatic\s+void\s+main\b`)

	cppIncludeRe   = regexp.MustCompile(`(?m)^\s*#\s*include\b`)
	cppNamespaceRe = regexp.MustCompile(`\bnamespace\s+\w+`)
	cppScopeRe     = regexp.MustCompile(`\w::\w`)
)

// detectHeadBytes bounds how much source the token heuristics look at.
const detectHeadBytes = 1000

// Detect determines the language of a snippet. Resolution order: explicit
// hint, filename extension, token heuristics, then Python as the default.
// Detect is a pure function with no side effects.
func Detect(source, filename, hint string) Language {
	if hint != "" {
		if l, ok := hintAliases[strings.ToLower(strings.TrimSpace(hint))]; ok {
			return l
		}
	}

	if filename != "" {
		if l, ok := extLanguages[strings.ToLower(filepath.Ext(filename))]; ok {
			return l
		}
	}

	head := source
	if len(head) > detectHeadBytes {
		head = head[:detectHeadBytes]
	}

	switch {
	case pyDefRe.MatchString(head) || pyClassRe.MatchString(head):
		return LangPython
	case jsFuncRe.MatchString(head) || jsArrowRe.MatchString(head) || jsClassRe.MatchString(head):
		return LangJavaScript
	case javaDeclRe.MatchString(head) || javaMainRe.MatchString(head):
		return LangJava
	case cppIncludeRe.MatchString(head) || cppNamespaceRe.MatchString(head) || cppScopeRe.MatchString(head):
		return LangCpp
	}

	return LangPython
}

// extractorFor returns a fresh extractor for the language. Unknown languages
// fall back to Python, mirroring the detection default.
func extractorFor(lang Language) Extractor {
	switch lang {
	case LangJavaScript:
		return &JSExtractor{}
	case LangJava:
		return &JavaExtractor{}
	case LangCpp:
		return &CppExtractor{}
	default:
		return &PythonExtractor{}
	}
}

// ParseCode detects the language of source, dispatches to the matching
// extractor, and stamps the detected language on the root module node.
// filename and hint may be empty.
func ParseCode(source, filename, hint string) (*Node, error) {
	lang := Detect(source, filename, hint)
	tree, err := extractorFor(lang).Parse(source)
	if err != nil {
		return nil, err
	}
	tree.Language = lang
	return tree, nil
}
