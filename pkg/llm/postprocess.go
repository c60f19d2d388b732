package llm

import (
	"regexp"
	"strings"
)

var (
	thinkBlockRegex    = regexp.MustCompile(`<think>[\s\S]*?</think>`)
	toolCallBlockRegex = regexp.MustCompile(`<tool_call>[\s\S]*?</tool_call>`)
	jsonEnvelopeRegex  = regexp.MustCompile("(?m)^```(?:json)?\\s*\\{\\s*\"(?:data|error)\"[\\s\\S]*?\\}\\s*```\\s*$")
	multiNewlineRegex  = regexp.MustCompile(`\n{3,}`)
)

// Postprocess strips tool-call markup, thinking blocks, and echoed raw
// result envelopes from model output before it reaches the user.
func Postprocess(content string) string {
	content = thinkBlockRegex.ReplaceAllString(content, "")
	content = toolCallBlockRegex.ReplaceAllString(content, "")
	content = jsonEnvelopeRegex.ReplaceAllString(content, "")
	content = multiNewlineRegex.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
