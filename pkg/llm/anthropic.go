package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

// AnthropicClient talks to the Anthropic Messages API.
type AnthropicClient struct {
	client            *anthropic.Client
	model             string
	temperature       float32
	maxToolIterations int
	logger            *zap.Logger
}

// AnthropicConfig holds configuration for creating an Anthropic client.
type AnthropicConfig struct {
	BaseURL           string // optional override
	Model             string
	APIKey            string
	Temperature       float64
	MaxToolIterations int
}

// NewAnthropicClient creates a client for the Anthropic Messages API.
func NewAnthropicClient(cfg *AnthropicConfig, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	var opts []anthropic.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")))
	}

	maxIterations := cfg.MaxToolIterations
	if maxIterations <= 0 {
		maxIterations = 10
	}

	return &AnthropicClient{
		client:            anthropic.NewClient(cfg.APIKey, opts...),
		model:             cfg.Model,
		temperature:       float32(cfg.Temperature),
		maxToolIterations: maxIterations,
		logger:            logger.Named("llm.anthropic"),
	}, nil
}

// GetModel returns the configured model name.
func (c *AnthropicClient) GetModel() string {
	return c.model
}

// ChatWithTools runs the tool-iteration loop until the model answers
// without tool use or the iteration cap is reached.
func (c *AnthropicClient) ChatWithTools(
	ctx context.Context,
	systemPrompt string,
	userMessage string,
	tools []ToolDefinition,
	executor ToolExecutor,
) (string, error) {
	messages := []anthropic.Message{
		anthropic.NewUserTextMessage(userMessage),
	}
	antTools := buildAnthropicTools(tools)

	temperature := c.temperature
	if temperature == 0 {
		temperature = 0.3
	}

	start := time.Now()

	for iteration := 0; iteration < c.maxToolIterations; iteration++ {
		c.logger.Debug("chat iteration",
			zap.Int("iteration", iteration),
			zap.Int("message_count", len(messages)))

		resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
			Model:       anthropic.Model(c.model),
			System:      systemPrompt,
			Messages:    messages,
			MaxTokens:   4096,
			Temperature: &temperature,
			Tools:       antTools,
		})
		if err != nil {
			c.logger.Error("chat request failed",
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
			return "", fmt.Errorf("create messages: %w", err)
		}

		if resp.StopReason != anthropic.MessagesStopReasonToolUse {
			var text strings.Builder
			for _, block := range resp.Content {
				if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
					text.WriteString(*block.Text)
				}
			}
			c.logger.Info("chat completed",
				zap.Int("iterations", iteration+1),
				zap.Duration("elapsed", time.Since(start)))
			return Postprocess(text.String()), nil
		}

		messages = append(messages, anthropic.Message{
			Role:    anthropic.RoleAssistant,
			Content: resp.Content,
		})

		for _, block := range resp.Content {
			if block.Type != anthropic.MessagesContentTypeToolUse || block.MessageContentToolUse == nil {
				continue
			}
			use := block.MessageContentToolUse

			result, execErr := executor.ExecuteTool(ctx, use.Name, string(use.Input))
			isError := execErr != nil
			if isError {
				result = fmt.Sprintf("Error executing tool: %s", execErr.Error())
			}

			messages = append(messages, anthropic.NewToolResultsMessage(use.ID, result, isError))
		}
	}

	return "", fmt.Errorf("exceeded maximum tool iterations (%d)", c.maxToolIterations)
}

func buildAnthropicTools(tools []ToolDefinition) []anthropic.ToolDefinition {
	if len(tools) == 0 {
		return nil
	}

	result := make([]anthropic.ToolDefinition, len(tools))
	for i, def := range tools {
		result[i] = anthropic.ToolDefinition{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.Parameters,
		}
	}
	return result
}

var _ Client = (*AnthropicClient)(nil)
