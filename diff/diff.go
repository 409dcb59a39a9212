// Package diff renders line-level unified diffs between an original snippet
// and its suggested rewrite.
package diff

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	FromLabel = "Original Code"
	ToLabel   = "Improved Code"

	// DefaultContext is the number of unchanged lines shown around a change
	DefaultContext = 3

	noNewlineMarker = "\\ No newline at end of file\n"
)

// Unified returns the unified diff turning original into revised, or "" when
// the texts are identical. It never fails and has no side effects.
func Unified(original, revised string) string {
	return UnifiedWithLabels(original, revised, FromLabel, ToLabel)
}

// UnifiedWithLabels is Unified with custom ---/+++ labels
func UnifiedWithLabels(original, revised, fromLabel, toLabel string) string {
	if original == revised {
		return ""
	}

	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        SplitLines(original),
		B:        SplitLines(revised),
		FromFile: fromLabel,
		ToFile:   toLabel,
		Context:  DefaultContext,
		Eol:      "\n",
	})
	if err != nil {
		// writes go to an in-memory buffer
		return ""
	}
	return out
}

// SplitLines splits s after every "\n", keeping line endings ("\r\n" stays
// intact). An unterminated last line carries the "\ No newline at end of
// file" marker so texts differing only in the final newline still differ.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}

	lines := strings.SplitAfter(s, "\n")
	last := len(lines) - 1
	if lines[last] == "" {
		return lines[:last]
	}
	lines[last] += "\n" + noNewlineMarker
	return lines
}
