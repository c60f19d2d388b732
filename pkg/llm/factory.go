package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/config"
)

// NewClientFromConfig creates the chat client named by the provider
// setting. Supported providers are "openai" (covers any
// OpenAI-compatible endpoint) and "anthropic".
func NewClientFromConfig(cfg *config.LLMConfig, logger *zap.Logger) (Client, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAIClient(&OpenAIConfig{
			BaseURL:           cfg.BaseURL,
			Model:             cfg.Model,
			APIKey:            cfg.APIKey,
			Temperature:       cfg.Temperature,
			MaxToolIterations: cfg.MaxToolIterations,
		}, logger)
	case "anthropic":
		return NewAnthropicClient(&AnthropicConfig{
			BaseURL:           cfg.BaseURL,
			Model:             cfg.Model,
			APIKey:            cfg.APIKey,
			Temperature:       cfg.Temperature,
			MaxToolIterations: cfg.MaxToolIterations,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", cfg.Provider)
	}
}
