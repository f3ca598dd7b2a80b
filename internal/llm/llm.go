package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/dyike/TradeCortex/config"
)

const defaultTimeout = 5 * time.Minute

var ErrMissingAPIKey = errors.New("llm api key is not configured")

// Models holds the two model tiers used by the agents.
type Models struct {
	Deep  model.ToolCallingChatModel
	Quick model.ToolCallingChatModel
}

// NewModels builds the deep-think and quick-think models from cfg.
func NewModels(ctx context.Context, cfg *config.Config) (*Models, error) {
	deep, err := NewChatModel(ctx, cfg, cfg.DeepThinkLLM)
	if err != nil {
		return nil, fmt.Errorf("deep think model: %w", err)
	}
	quick, err := NewChatModel(ctx, cfg, cfg.QuickThinkLLM)
	if err != nil {
		return nil, fmt.Errorf("quick think model: %w", err)
	}
	return &Models{Deep: deep, Quick: quick}, nil
}

// NewChatModel creates a chat model named name for the configured provider.
func NewChatModel(ctx context.Context, cfg *config.Config, name string) (model.ToolCallingChatModel, error) {
	apiKey := cfg.APIKey()
	if apiKey == "" {
		return nil, fmt.Errorf("%s: %w", cfg.LLMProvider, ErrMissingAPIKey)
	}

	switch cfg.LLMProvider {
	case "deepseek":
		// deepseek-reasoner 不支持 tool call，分析师只用 quick 模型
		cm, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:    apiKey,
			BaseURL:   cfg.BackendURL,
			Model:     name,
			MaxTokens: cfg.MaxTokens,
			Timeout:   defaultTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("create deepseek model %s: %w", name, err)
		}
		return cm, nil
	case "openai", "ollama", "openrouter":
		maxTokens := cfg.MaxTokens
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:    apiKey,
			BaseURL:   cfg.BackendURL,
			Model:     name,
			MaxTokens: &maxTokens,
			Timeout:   defaultTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai model %s: %w", name, err)
		}
		return cm, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLMProvider)
	}
}
