package common

import "strings"

// WrapString breaks s into lines of at most width bytes, splitting at the
// last space before the limit when there is one.
func WrapString(s string, width int) string {
	if width <= 0 {
		return s
	}

	var lines []string
	for len(s) > width {
		splitAt := width
		// Try to split at the last space before the specified width
		for i := width; i > 0; i-- {
			if s[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, s[:splitAt])
		s = strings.TrimLeft(s[splitAt:], " ")
	}
	if len(s) > 0 {
		lines = append(lines, s)
	}
	return strings.Join(lines, "\n")
}

// WrapText wraps every line of a multi-line text on its own, keeping
// existing line breaks and blank lines.
func WrapText(s string, width int) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = WrapString(line, width)
	}
	return strings.Join(lines, "\n")
}

// IsBlank reports whether s is empty after trimming whitespace
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
