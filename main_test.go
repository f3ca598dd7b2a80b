package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/TradeCortex/config"
)

func TestRunReturnsConfigError(t *testing.T) {
	root := t.TempDir()
	cfg := config.DefaultConfigWithRoot(root)
	cfg.LLMProvider = "nope"

	err := run(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported llm_provider "nope"`)

	// nothing is created before validation passes
	_, err = os.Stat(filepath.Join(root, "results"))
	assert.True(t, os.IsNotExist(err))
}
