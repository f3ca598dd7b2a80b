package app

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/dyike/TradeCortex/config"
	"github.com/dyike/TradeCortex/internal/graph"
	"github.com/dyike/TradeCortex/internal/logger"
	"github.com/dyike/TradeCortex/internal/storage"
	"github.com/dyike/TradeCortex/models"
)

// Propagator is the part of graph.TradingAgentsGraph the runtime drives.
type Propagator interface {
	Propagate(ctx context.Context, ticker, tradeDate string) (*models.TradingState, string, error)
	Close() error
}

// Engine is one immutable build of the trading graph for one config.
type Engine struct {
	Config  config.Config
	Graph   Propagator
	BuiltAt time.Time
	Version uint64
}

type EngineBuilder func(ctx context.Context, cfg config.Config) (*Engine, error)

var engineSeq atomic.Uint64

func NewEngine(cfg config.Config, g Propagator) *Engine {
	return &Engine{
		Config:  cfg,
		Graph:   g,
		BuiltAt: time.Now(),
		Version: engineSeq.Add(1),
	}
}

// BuildEngine builds a TradingAgentsGraph for cfg, recording runs in the
// shared session store when one can be opened.
func BuildEngine(ctx context.Context, cfg config.Config) (*Engine, error) {
	c := cfg.Clone()
	if err := c.EnsureDirectories(); err != nil {
		return nil, err
	}

	var opts []graph.Option
	if store, err := storage.Shared(c); err == nil {
		opts = append(opts, graph.WithSessionStore(store))
	} else if !errors.Is(err, storage.ErrDatabaseNotConfigured) {
		logger.Named("app").Warn("session history disabled", zap.Error(err))
	}

	g, err := graph.New(ctx, c, opts...)
	if err != nil {
		return nil, err
	}
	return NewEngine(cfg, g), nil
}

func (e *Engine) Close() error {
	if e == nil || e.Graph == nil {
		return nil
	}
	return e.Graph.Close()
}
