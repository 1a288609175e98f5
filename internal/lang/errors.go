package lang

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// InvalidInputError reports input that is not parseable text at all.
// Surfaced as a client error and never retried.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

// SyntaxError reports a native-grammar rejection with positional detail.
// Only the Python extractor and the relationship analyzer can produce it;
// regex scanning cannot reject input.
type SyntaxError struct {
	Line   int    // 1-based
	Column int    // 1-based, 0 when unknown
	Text   string // literal source line at the failure point, "" when unrecoverable
}

func (e *SyntaxError) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("syntax error at line %d, column %d", e.Line, e.Column)
	}
	return fmt.Sprintf("syntax error at line %d", e.Line)
}

// ParseFailure reports an unexpected internal failure during extraction.
// Surfaced as a server error; the caller must never see a panic instead.
type ParseFailure struct {
	Message string
}

func (e *ParseFailure) Error() string {
	return "parse failure: " + e.Message
}

// checkText rejects input that is not text: invalid UTF-8 or embedded NUL
// bytes. This is the Go rendering of "source must be a string".
func checkText(source string) *InvalidInputError {
	if !utf8.ValidString(source) {
		return &InvalidInputError{Reason: "source is not valid UTF-8 text"}
	}
	if strings.ContainsRune(source, 0) {
		return &InvalidInputError{Reason: "source contains NUL bytes"}
	}
	return nil
}
