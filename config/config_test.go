package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigWithRootIsValid(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfigWithRoot(dir)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, filepath.Join(dir, "results"), cfg.ResultsDir)
	assert.Equal(t, AllAnalysts, cfg.Analysts())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"provider", func(c *Config) { c.LLMProvider = "bard" }},
		{"debate rounds", func(c *Config) { c.MaxDebateRounds = 0 }},
		{"risk rounds", func(c *Config) { c.MaxRiskDiscussRounds = -1 }},
		{"analyst", func(c *Config) { c.SelectedAnalysts = []string{"macro"} }},
		{"embedding", func(c *Config) { c.EmbeddingProvider = "cohere" }},
		{"results dir", func(c *Config) { c.ResultsDir = " " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfigWithRoot(t.TempDir())
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestAnalystsKeepsPipelineOrder(t *testing.T) {
	cfg := DefaultConfigWithRoot(t.TempDir())
	cfg.SelectedAnalysts = []string{"fundamentals", " Market "}
	assert.Equal(t, []string{AnalystMarket, AnalystFundamentals}, cfg.Analysts())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TRADECORTEX_MAX_DEBATE_ROUNDS", "3")
	t.Setenv("TRADECORTEX_ONLINE_TOOLS", "false")
	t.Setenv("TRADECORTEX_ANALYSTS", "news, market")
	t.Setenv("FINNHUB_API_KEY", "fh-key")
	t.Setenv("TRADECORTEX_MAX_RISK_ROUNDS", "not-a-number")

	cfg := DefaultConfigWithRoot(t.TempDir())
	cfg.loadFromEnv()

	assert.Equal(t, 3, cfg.MaxDebateRounds)
	assert.False(t, cfg.OnlineTools)
	assert.Equal(t, []string{"news", "market"}, cfg.SelectedAnalysts)
	assert.Equal(t, "fh-key", cfg.FinnhubAPIKey)
	assert.Equal(t, 1, cfg.MaxRiskDiscussRounds)
}

func TestLoadFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	body := "llm_provider: openai\ndeep_think_llm: o4-mini\nquick_think_llm: gpt-4o-mini\nmax_debate_rounds: 2\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, 2, cfg.MaxDebateRounds)
	assert.Equal(t, filepath.Join(dir, "results"), cfg.ResultsDir)
}

func TestAPIKeyByProvider(t *testing.T) {
	cfg := DefaultConfigWithRoot(t.TempDir())
	cfg.DeepSeekAPIKey = "ds"
	cfg.OpenAIAPIKey = "oa"
	assert.Equal(t, "ds", cfg.APIKey())
	cfg.LLMProvider = "openai"
	assert.Equal(t, "oa", cfg.APIKey())
}

func TestEnsureDirectories(t *testing.T) {
	cfg := DefaultConfigWithRoot(t.TempDir())
	require.NoError(t, cfg.EnsureDirectories())
	for _, dir := range []string{cfg.ResultsDir, cfg.DataCacheDir, filepath.Dir(cfg.DatabasePath)} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
