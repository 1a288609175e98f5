package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// TestDetect
// ---------------------------------------------------------------------------

func TestDetect_HintWinsOverFilename(t *testing.T) {
	// An explicit hint beats a contradictory extension.
	lang := Detect("anything", "script.py", "js")
	assert.Equal(t, LangJavaScript, lang)
}

func TestDetect_HintAliases(t *testing.T) {
	cases := map[string]Language{
		"py":         LangPython,
		"Python":     LangPython,
		"js":         LangJavaScript,
		"node":       LangJavaScript,
		"JAVA":       LangJava,
		"c++":        LangCpp,
		"cxx":        LangCpp,
		"cc":         LangCpp,
		" cpp ":      LangCpp,
		"javascript": LangJavaScript,
	}
	for hint, want := range cases {
		assert.Equal(t, want, Detect("", "", hint), "hint %q", hint)
	}
}

func TestDetect_UnknownHintFallsThrough(t *testing.T) {
	// An unrecognized hint defers to the filename.
	assert.Equal(t, LangJava, Detect("", "Main.java", "cobol"))
}

func TestDetect_FilenameExtension(t *testing.T) {
	cases := map[string]Language{
		"a.py":   LangPython,
		"a.js":   LangJavaScript,
		"a.mjs":  LangJavaScript,
		"a.ts":   LangJavaScript,
		"A.java": LangJava,
		"a.cpp":  LangCpp,
		"a.cc":   LangCpp,
		"a.hpp":  LangCpp,
		"a.h":    LangCpp,
	}
	for name, want := range cases {
		assert.Equal(t, want, Detect("", name, ""), "filename %q", name)
	}
}

func TestDetect_TokenHeuristics(t *testing.T) {
	t.Run("python def", func(t *testing.T) {
		assert.Equal(t, LangPython, Detect("def foo():\n    pass\n", "", ""))
	})

	t.Run("javascript function", func(t *testing.T) {
		assert.Equal(t, LangJavaScript, Detect("function foo() { return 1; }\n", "", ""))
	})

	t.Run("javascript arrow", func(t *testing.T) {
		assert.Equal(t, LangJavaScript, Detect("const f = (x) => x + 1;\n", "", ""))
	})

	t.Run("java main", func(t *testing.T) {
		assert.Equal(t, LangJava, Detect("static void main(String[] args) {}\n", "", ""))
	})

	t.Run("cpp include", func(t *testing.T) {
		assert.Equal(t, LangCpp, Detect("#include <vector>\nint x;\n", "", ""))
	})

	t.Run("cpp scope operator", func(t *testing.T) {
		assert.Equal(t, LangCpp, Detect("int x = std::max(1, 2);\n", "", ""))
	})

	t.Run("python wins ties", func(t *testing.T) {
		// Contains both a def and an arrow; Python is checked first.
		src := "def foo():\n    pass\nconst f = () => 1\n"
		assert.Equal(t, LangPython, Detect(src, "", ""))
	})

	t.Run("default is python", func(t *testing.T) {
		assert.Equal(t, LangPython, Detect("just some words\n", "", ""))
	})
}

func TestDetect_Deterministic(t *testing.T) {
	src := "function foo() {}\n"
	first := Detect(src, "", "")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Detect(src, "", ""))
	}
}

// ---------------------------------------------------------------------------
// TestParseCode
// ---------------------------------------------------------------------------

func TestParseCode_StampsLanguageOnRoot(t *testing.T) {
	tree, err := ParseCode("def f():\n    pass\n", "", "")
	require.NoError(t, err)
	assert.Equal(t, LangPython, tree.Language)

	// Only the root carries the language.
	require.NotEmpty(t, tree.Children)
	assert.Equal(t, Language(""), tree.Children[0].Language)
}

func TestParseCode_DispatchesByHint(t *testing.T) {
	tree, err := ParseCode("class Cart {}\nfunction add() {}\n", "", "js")
	require.NoError(t, err)
	assert.Equal(t, LangJavaScript, tree.Language)
	require.Len(t, tree.Children, 2)
	assert.Equal(t, NodeClass, tree.Children[0].Type)
	assert.Equal(t, NodeFunction, tree.Children[1].Type)
}

func TestParseCode_SupportedLanguages(t *testing.T) {
	assert.Len(t, SupportedLanguages, 4)
}
