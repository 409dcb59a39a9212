package prompt

// GetSuggestionPrompt embeds the snippet and the instruction verbatim
func GetSuggestionPrompt(codeSnippet, userInstruction string) string {
	return `Here is the original code snippet:
` + codeSnippet + `
Instruction:
` + userInstruction + `
Give the improved code and explanation
`
}
