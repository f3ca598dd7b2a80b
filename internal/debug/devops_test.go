package debug

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dyike/TradeCortex/config"
)

func TestDisabledDebuggerDoesNothing(t *testing.T) {
	cfg := config.DefaultConfigWithRoot(t.TempDir())
	d := NewEinoDebugger(cfg)
	d.init = func(context.Context) error {
		t.Fatal("devops started while disabled")
		return nil
	}

	assert.NoError(t, d.Initialize(context.Background()))
	assert.False(t, d.IsEnabled())
	assert.Empty(t, d.GetDebugURL())
}

func TestDebugURL(t *testing.T) {
	cfg := config.DefaultConfigWithRoot(t.TempDir())
	cfg.EinoDebugEnabled = true
	cfg.EinoDebugPort = 52538
	assert.Equal(t, "http://localhost:52538", NewEinoDebugger(cfg).GetDebugURL())
}
