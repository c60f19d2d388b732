// Package llm provides the chat-model clients and the tool-call loop
// that drives the table-access core from natural language.
package llm

import "context"

// ToolExecutor executes one named tool call and returns its serialized
// result. Implementations must not panic; errors are rendered back to
// the model as tool output.
type ToolExecutor interface {
	ExecuteTool(ctx context.Context, name string, arguments string) (string, error)
}

// Client is the provider-agnostic chat interface. Implementations run
// the bounded tool-iteration loop internally and return the final
// assistant text.
type Client interface {
	// ChatWithTools runs a conversation turn, dispatching any tool
	// calls through executor until the model produces plain text.
	ChatWithTools(ctx context.Context, systemPrompt string, userMessage string, tools []ToolDefinition, executor ToolExecutor) (string, error)

	// GetModel returns the configured model name.
	GetModel() string
}
