package debug

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino-ext/devops"
	"go.uber.org/zap"

	"github.com/dyike/TradeCortex/config"
	"github.com/dyike/TradeCortex/internal/logger"
)

var initOnce sync.Once

// EinoDebugger starts the eino devops server so compiled graphs can be
// inspected and replayed from the Eino Dev IDE plugin.
type EinoDebugger struct {
	config *config.Config
	init   func(ctx context.Context) error
}

func NewEinoDebugger(cfg *config.Config) *EinoDebugger {
	return &EinoDebugger{
		config: cfg,
		init:   func(ctx context.Context) error { return devops.Init(ctx) },
	}
}

// Initialize is a no-op unless eino debugging is enabled. The devops server
// is process wide and only started once.
func (d *EinoDebugger) Initialize(ctx context.Context) error {
	if !d.IsEnabled() {
		return nil
	}
	log := logger.Named("debug")

	var err error
	initOnce.Do(func() {
		log.Info("initializing eino visual debug plugin", zap.Int("port", d.config.EinoDebugPort))
		err = d.init(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Eino debug plugin: %w", err)
	}
	log.Info("eino debug server ready", zap.String("url", d.GetDebugURL()))
	return nil
}

func (d *EinoDebugger) IsEnabled() bool {
	return d.config != nil && d.config.EinoDebugEnabled
}

func (d *EinoDebugger) GetDebugURL() string {
	if !d.IsEnabled() {
		return ""
	}
	return fmt.Sprintf("http://localhost:%d", d.config.EinoDebugPort)
}
