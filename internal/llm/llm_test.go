package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/TradeCortex/config"
)

func TestNewChatModelRequiresKey(t *testing.T) {
	cfg := config.DefaultConfigWithRoot(t.TempDir())
	cfg.DeepSeekAPIKey = ""

	_, err := NewChatModel(context.Background(), cfg, cfg.QuickThinkLLM)
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNewChatModelUnknownProvider(t *testing.T) {
	cfg := config.DefaultConfigWithRoot(t.TempDir())
	cfg.LLMProvider = "anthropic"
	cfg.DeepSeekAPIKey = "k"

	_, err := NewChatModel(context.Background(), cfg, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported llm provider")
}

func TestNewModelsOpenAICompatible(t *testing.T) {
	cfg := config.DefaultConfigWithRoot(t.TempDir())
	cfg.LLMProvider = "openai"
	cfg.OpenAIAPIKey = "sk-test"
	cfg.BackendURL = "http://127.0.0.1:1/v1"
	cfg.DeepThinkLLM = "gpt-4o"
	cfg.QuickThinkLLM = "gpt-4o-mini"

	m, err := NewModels(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, m.Deep)
	assert.NotNil(t, m.Quick)
}
