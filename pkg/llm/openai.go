package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient talks to OpenAI-compatible chat endpoints, including
// local vLLM/Ollama deployments that expose the same API.
type OpenAIClient struct {
	client            *openai.Client
	model             string
	temperature       float32
	maxToolIterations int
	logger            *zap.Logger
}

// OpenAIConfig holds configuration for creating an OpenAI client.
type OpenAIConfig struct {
	BaseURL           string // e.g. "https://api.openai.com/v1"
	Model             string
	APIKey            string // optional for local endpoints
	Temperature       float64
	MaxToolIterations int
}

// NewOpenAIClient creates a client for an OpenAI-compatible endpoint.
func NewOpenAIClient(cfg *OpenAIConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	maxIterations := cfg.MaxToolIterations
	if maxIterations <= 0 {
		maxIterations = 10
	}

	return &OpenAIClient{
		client:            openai.NewClientWithConfig(clientConfig),
		model:             cfg.Model,
		temperature:       float32(cfg.Temperature),
		maxToolIterations: maxIterations,
		logger:            logger.Named("llm.openai"),
	}, nil
}

// GetModel returns the configured model name.
func (c *OpenAIClient) GetModel() string {
	return c.model
}

// ChatWithTools runs the tool-iteration loop until the model answers
// without tool calls or the iteration cap is reached.
func (c *OpenAIClient) ChatWithTools(
	ctx context.Context,
	systemPrompt string,
	userMessage string,
	tools []ToolDefinition,
	executor ToolExecutor,
) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: userMessage},
	}
	oaiTools := buildOpenAITools(tools)

	temperature := c.temperature
	if temperature == 0 {
		temperature = 0.3 // lower temp for deterministic tool use
	}

	start := time.Now()

	for iteration := 0; iteration < c.maxToolIterations; iteration++ {
		c.logger.Debug("chat iteration",
			zap.Int("iteration", iteration),
			zap.Int("message_count", len(messages)))

		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			Messages:    messages,
			Tools:       oaiTools,
			Temperature: temperature,
		})
		if err != nil {
			c.logger.Error("chat request failed",
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
			return "", fmt.Errorf("chat completion: %w", err)
		}

		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("no choices in response")
		}

		choice := resp.Choices[0]
		content := choice.Message.Content

		if len(choice.Message.ToolCalls) == 0 {
			c.logger.Info("chat completed",
				zap.Int("iterations", iteration+1),
				zap.Int("prompt_tokens", resp.Usage.PromptTokens),
				zap.Int("completion_tokens", resp.Usage.CompletionTokens),
				zap.Duration("elapsed", time.Since(start)))
			return Postprocess(content), nil
		}

		messages = append(messages, choice.Message)

		for _, tc := range choice.Message.ToolCalls {
			result, execErr := executor.ExecuteTool(ctx, tc.Function.Name, tc.Function.Arguments)
			if execErr != nil {
				result = fmt.Sprintf("Error executing tool: %s", execErr.Error())
			}

			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    result,
				ToolCallID: tc.ID,
			})
		}
	}

	return "", fmt.Errorf("exceeded maximum tool iterations (%d)", c.maxToolIterations)
}

func buildOpenAITools(tools []ToolDefinition) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}

	result := make([]openai.Tool, len(tools))
	for i, def := range tools {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		}
	}
	return result
}

var _ Client = (*OpenAIClient)(nil)
