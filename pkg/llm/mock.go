package llm

import "context"

// MockClient is a configurable mock for testing chat functionality.
// Set the function fields to control behavior in tests.
type MockClient struct {
	// ChatWithToolsFunc is called when ChatWithTools is invoked.
	// If nil, returns empty string and nil error.
	ChatWithToolsFunc func(ctx context.Context, systemPrompt string, userMessage string, tools []ToolDefinition, executor ToolExecutor) (string, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// Call tracking for verification
	ChatWithToolsCalls int
}

// NewMockClient creates a new mock with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{Model: "mock-model"}
}

// ChatWithTools implements Client.
func (m *MockClient) ChatWithTools(ctx context.Context, systemPrompt string, userMessage string, tools []ToolDefinition, executor ToolExecutor) (string, error) {
	m.ChatWithToolsCalls++
	if m.ChatWithToolsFunc != nil {
		return m.ChatWithToolsFunc(ctx, systemPrompt, userMessage, tools, executor)
	}
	return "", nil
}

// GetModel implements Client.
func (m *MockClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// Reset clears call tracking counters.
func (m *MockClient) Reset() {
	m.ChatWithToolsCalls = 0
}

var _ Client = (*MockClient)(nil)

// MockToolExecutor is a configurable mock for testing the tool loop.
type MockToolExecutor struct {
	// ExecuteToolFunc is called when ExecuteTool is invoked.
	// If nil, returns an empty success envelope.
	ExecuteToolFunc func(ctx context.Context, name string, arguments string) (string, error)

	// Call tracking
	ExecuteToolCalls []MockToolCall
}

// MockToolCall records a call to ExecuteTool.
type MockToolCall struct {
	Name      string
	Arguments string
}

// NewMockToolExecutor creates a new mock tool executor.
func NewMockToolExecutor() *MockToolExecutor {
	return &MockToolExecutor{ExecuteToolCalls: []MockToolCall{}}
}

// ExecuteTool implements ToolExecutor.
func (m *MockToolExecutor) ExecuteTool(ctx context.Context, name string, arguments string) (string, error) {
	m.ExecuteToolCalls = append(m.ExecuteToolCalls, MockToolCall{Name: name, Arguments: arguments})
	if m.ExecuteToolFunc != nil {
		return m.ExecuteToolFunc(ctx, name, arguments)
	}
	return `{"data": null, "error": null}`, nil
}

// Reset clears call tracking.
func (m *MockToolExecutor) Reset() {
	m.ExecuteToolCalls = []MockToolCall{}
}

var _ ToolExecutor = (*MockToolExecutor)(nil)
