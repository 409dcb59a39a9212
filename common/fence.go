package common

import "regexp"

// fencePattern matches a markdown code fence wrapping the whole text
var fencePattern = regexp.MustCompile("(?s)^\\s*```[\\w+#.-]*[ \\t]*\\r?\\n(.*?)\\r?\\n?```\\s*$")

// StripCodeFence returns the code inside a markdown fence that wraps all of
// s. Text that is not a single fenced block is returned unchanged.
func StripCodeFence(s string) string {
	submatches := fencePattern.FindStringSubmatch(s)
	if len(submatches) < 2 {
		return s
	}
	return submatches[1]
}
