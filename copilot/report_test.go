package copilot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundMarkdown(t *testing.T) {
	round := Round{
		Original:    "print(1)",
		Instruction: " print 2 ",
		Result:      SuggestionResult{ImprovedCode: "print(2)", Explanation: "Changed the constant."},
		Diff:        "--- Original Code\n+++ Improved Code\n@@ -1 +1 @@\n-print(1)\n+print(2)\n",
	}

	want := "## Instruction\nprint 2\n\n" +
		"## Improved code\n```lua\nprint(2)\n```\n\n" +
		"## Explanation\nChanged the constant.\n\n" +
		"## Diff\n```diff\n--- Original Code\n+++ Improved Code\n@@ -1 +1 @@\n-print(1)\n+print(2)\n```\n"
	assert.Equal(t, want, round.Markdown("lua"))
}

func TestRoundMarkdownWithoutChanges(t *testing.T) {
	round := Round{Result: SuggestionResult{ImprovedCode: "x = 1\n"}}

	assert.Contains(t, round.Markdown("lua"), "## Diff\nNo changes.\n")
}

func TestFenceOutgrowsBackticks(t *testing.T) {
	code := "// ```js\n// example()\n// ```\n"

	assert.Equal(t, "````js\n"+code+"````\n", fence(code, "js"))
}
