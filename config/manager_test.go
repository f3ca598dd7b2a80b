package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestManagerCreatesAndUpdates(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir))
	require.NoError(t, err)

	path := filepath.Join(dir, "config.json")
	_, err = os.Stat(path)
	require.NoError(t, err, "config file not created")

	cfg := mgr.Get()
	cfg.ProjectDir = filepath.Join(dir, "project")
	cfg.ResultsDir = filepath.Join(dir, "results")
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.DataCacheDir = filepath.Join(dir, "cache")
	cfg.MaxDebateRounds = 2

	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, mgr.UpdateFromJSON(string(data)))

	updated := mgr.Get()
	assert.Equal(t, cfg.ProjectDir, updated.ProjectDir)
	assert.Equal(t, 2, updated.MaxDebateRounds)

	onDisk, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.ResultsDir, onDisk.ResultsDir)
}

func TestManagerRejectsInvalidUpdate(t *testing.T) {
	mgr, err := NewManager(WithConfigDir(t.TempDir()))
	require.NoError(t, err)

	cfg := mgr.Get()
	cfg.MaxDebateRounds = 0
	assert.Error(t, mgr.Update(cfg))
	assert.Equal(t, 1, mgr.Get().MaxDebateRounds)
}

func TestManagerWritesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tradecortex.yaml")
	initial := DefaultConfigWithRoot(dir)
	initial.QuickThinkLLM = "gpt-4o-mini"

	mgr, err := NewManager(WithConfigPath(path), WithInitialConfig(initial))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", mgr.Get().QuickThinkLLM)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "quick_think_llm: gpt-4o-mini")
}

func TestManagerWatchReloads(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir), WithDebounce(50*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	reloaded := make(chan Config, 1)
	require.NoError(t, mgr.Watch(ctx, func(cfg Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	}))

	cfg := mgr.Get()
	cfg.ProjectDir = filepath.Join(dir, "changed")
	cfg.ResultsDir = filepath.Join(dir, "results")
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.DataCacheDir = filepath.Join(dir, "cache")

	require.NoError(t, writeConfigFile(mgr.Path(), cfg))

	select {
	case got := <-reloaded:
		assert.Equal(t, cfg.ProjectDir, got.ProjectDir)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not fire on config change")
	}

	cancel()
	mgr.Wait()
}

func TestManagerKeepsEnvSecretsOutOfFile(t *testing.T) {
	t.Setenv("FINNHUB_API_KEY", "env-finnhub")
	dir := t.TempDir()
	initial := DefaultConfigWithRoot(dir)
	initial.FinnhubAPIKey = "env-finnhub"
	initial.OpenAIAPIKey = "file-openai"

	mgr, err := NewManager(WithConfigDir(dir), WithInitialConfig(initial))
	require.NoError(t, err)

	raw, err := os.ReadFile(mgr.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "env-finnhub")
	assert.Contains(t, string(raw), "file-openai")

	reopened, err := NewManager(WithConfigDir(dir))
	require.NoError(t, err)
	assert.Equal(t, "env-finnhub", reopened.Get().FinnhubAPIKey)
}

func TestManagerIgnoresOwnWrites(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir), WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	calls := make(chan Config, 4)
	require.NoError(t, mgr.Watch(ctx, func(cfg Config) { calls <- cfg }))

	cfg := mgr.Get()
	cfg.MaxDebateRounds = 3
	require.NoError(t, mgr.Update(cfg))
	assert.Equal(t, 3, (<-calls).MaxDebateRounds)

	select {
	case got := <-calls:
		t.Fatalf("unexpected reload after own write: %+v", got.MaxDebateRounds)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	mgr.Wait()
}
