package copilot

import (
	"fmt"
	"strings"
)

// Markdown renders the round as a markdown document with the improved code,
// the explanation and the diff. language tags the code block.
func (r Round) Markdown(language string) string {
	var b strings.Builder

	b.WriteString("## Instruction\n")
	b.WriteString(strings.TrimSpace(r.Instruction))
	b.WriteString("\n\n## Improved code\n")
	b.WriteString(fence(r.Result.ImprovedCode, language))
	b.WriteString("\n## Explanation\n")
	b.WriteString(strings.TrimSpace(r.Result.Explanation))
	b.WriteString("\n\n## Diff\n")
	if r.Diff == "" {
		b.WriteString("No changes.\n")
	} else {
		b.WriteString(fence(string(r.Diff), "diff"))
	}

	return b.String()
}

// fence wraps code in a code block whose fence is longer than any backtick
// run inside it.
func fence(code, language string) string {
	longest, run := 0, 0
	for _, c := range code {
		if c == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	marker := strings.Repeat("`", max(3, longest+1))

	if !strings.HasSuffix(code, "\n") {
		code += "\n"
	}
	return fmt.Sprintf("%s%s\n%s%s\n", marker, language, code, marker)
}
