package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/dyike/TradeCortex/config"
	"github.com/dyike/TradeCortex/internal/agents"
	"github.com/dyike/TradeCortex/internal/dataflows"
	"github.com/dyike/TradeCortex/internal/llm"
	"github.com/dyike/TradeCortex/internal/logger"
	"github.com/dyike/TradeCortex/internal/memory"
	"github.com/dyike/TradeCortex/internal/processing"
	"github.com/dyike/TradeCortex/internal/storage"
	"github.com/dyike/TradeCortex/internal/tools"
	"github.com/dyike/TradeCortex/internal/trace"
	"github.com/dyike/TradeCortex/models"
)

// ErrNoState is returned by ReflectAndRemember before any run.
var ErrNoState = errors.New("no trading state to reflect on")

// TradingAgentsGraph runs the agent team for one ticker and date at a time
// and keeps the last state for reflection.
type TradingAgentsGraph struct {
	config   *config.Config
	deep     model.ToolCallingChatModel
	quick    model.ToolCallingChatModel
	memories *memory.Set
	source   tools.DataSource
	store    *storage.Store
	reports  *agents.ReportWriter
	logic    *agents.ConditionalLogic
	signals  *processing.SignalProcessor
	handlers []callbacks.Handler
	closers  []func() error
	log      *zap.Logger

	mu        sync.Mutex
	lastState *models.TradingState
}

type options struct {
	deep, quick model.ToolCallingChatModel
	memories    *memory.Set
	source      tools.DataSource
	store       *storage.Store
	handlers    []callbacks.Handler
	onEvent     func(NodeEvent)
}

type Option func(*options)

// WithModels skips provider setup and uses the given models.
func WithModels(deep, quick model.ToolCallingChatModel) Option {
	return func(o *options) {
		o.deep = deep
		o.quick = quick
	}
}

// WithDataSource replaces the market-data toolkit.
func WithDataSource(ds tools.DataSource) Option {
	return func(o *options) { o.source = ds }
}

func WithMemories(m *memory.Set) Option {
	return func(o *options) { o.memories = m }
}

// WithSessionStore records every run and agent output in store.
func WithSessionStore(store *storage.Store) Option {
	return func(o *options) { o.store = store }
}

func WithCallbacks(h ...callbacks.Handler) Option {
	return func(o *options) { o.handlers = append(o.handlers, h...) }
}

// WithProgress reports every agent node start and finish to fn.
func WithProgress(fn func(NodeEvent)) Option {
	return func(o *options) { o.onEvent = fn }
}

func New(ctx context.Context, cfg *config.Config, opts ...Option) (*TradingAgentsGraph, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	g := &TradingAgentsGraph{
		config:   cfg,
		store:    o.store,
		reports:  agents.NewReportWriter(cfg.ResultsDir),
		logic:    agents.NewConditionalLogic(cfg.MaxDebateRounds, cfg.MaxRiskDiscussRounds),
		signals:  processing.NewSignalProcessor(),
		handlers: append([]callbacks.Handler{NewNodeHandler(o.onEvent)}, o.handlers...),
		log:      logger.Named("graph"),
	}

	g.deep, g.quick = o.deep, o.quick
	if g.deep == nil || g.quick == nil {
		m, err := llm.NewModels(ctx, cfg)
		if err != nil {
			return nil, err
		}
		g.deep, g.quick = m.Deep, m.Quick
	}

	g.memories = o.memories
	if g.memories == nil {
		embedder, err := memory.NewEmbedder(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("memory embedder: %w", err)
		}
		var store memory.Store = memory.NewMemStore()
		if cfg.DatabasePath != "" {
			s, err := memory.NewSQLiteStore(cfg.DatabasePath)
			if err != nil {
				return nil, fmt.Errorf("memory store: %w", err)
			}
			store = s
		}
		g.closers = append(g.closers, store.Close)
		g.memories = memory.NewSet(embedder, store)
	}

	g.source = o.source
	if g.source == nil {
		g.source = dataflows.NewToolkit(cfg)
	}
	return g, nil
}

// Close releases the stores New opened.
func (g *TradingAgentsGraph) Close() error {
	var errs []error
	for _, c := range g.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func (g *TradingAgentsGraph) Config() *config.Config {
	return g.config
}

// Propagate runs the whole team for ticker on tradeDate and returns the
// final state and the extracted BUY/SELL/HOLD signal.
func (g *TradingAgentsGraph) Propagate(ctx context.Context, ticker, tradeDate string) (*models.TradingState, string, error) {
	ticker = dataflows.NormalizeSymbol(ticker)
	if err := dataflows.ValidateSymbol(ticker); err != nil {
		return nil, "", err
	}
	if _, err := time.Parse("2006-01-02", tradeDate); err != nil {
		return nil, "", fmt.Errorf("%w: %q", dataflows.ErrInvalidDate, tradeDate)
	}

	ctx, span := trace.StartSpan(ctx, "propagate", "ticker", ticker, "trade_date", tradeDate)
	defer span.End()

	deps := &agents.Deps{
		Config:     g.config,
		QuickModel: g.quick,
		DeepModel:  g.deep,
		Memories:   g.memories,
		Tools:      g.source,
		Logic:      g.logic,
		Reports:    g.reports,
	}
	var rec *storage.SessionRecorder
	if g.store != nil {
		r, err := storage.NewSessionRecorder(ctx, g.store, ticker, tradeDate)
		if err != nil {
			g.log.Warn("session recording disabled", zap.Error(err))
		} else {
			rec = r
			deps.Recorder = r
		}
	}

	state := models.NewTradingState(ticker, tradeDate)
	decision, err := g.run(ctx, deps, state)
	if rec != nil {
		rec.Finish(decision, err)
	}
	if err != nil {
		trace.RecordError(span, err)
		return nil, "", err
	}
	return state.Snapshot(), decision, nil
}

func (g *TradingAgentsGraph) run(ctx context.Context, deps *agents.Deps, state *models.TradingState) (string, error) {
	runner, err := NewTradingOrchestrator(ctx, deps, func(context.Context) *models.TradingState { return state })
	if err != nil {
		return "", fmt.Errorf("build trading graph: %w", err)
	}

	g.log.Info("propagate",
		zap.String("ticker", state.CompanyOfInterest),
		zap.String("trade_date", state.TradeDate),
		zap.Strings("analysts", g.config.Analysts()))

	if _, err := runner.Invoke(ctx, state.CompanyOfInterest, compose.WithCallbacks(g.handlers...)); err != nil {
		return "", fmt.Errorf("run trading graph: %w", err)
	}

	final := state.Snapshot()
	g.mu.Lock()
	g.lastState = final
	g.mu.Unlock()

	if err := WriteStateLog(g.config.ResultsDir, final); err != nil {
		g.log.Warn("write state log failed", zap.Error(err))
	}
	return g.ProcessSignal(ctx, final.FinalTradeDecision)
}

// ProcessSignal reduces a decision text to BUY, SELL or HOLD. The quick
// model is asked first; when it fails or answers anything else the text is
// scored by keyword.
func (g *TradingAgentsGraph) ProcessSignal(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	msgs, err := agents.SystemPrompt(ctx, "graph/signal_extractor", nil, schema.UserMessage(text))
	if err != nil {
		return "", err
	}
	resp, err := g.quick.Generate(ctx, msgs)
	if err == nil {
		if sig, ok := models.ParseSignal(strings.Trim(resp.Content, "*. \n")); ok {
			return string(sig), nil
		}
		g.log.Debug("signal extractor answered off-format", zap.String("answer", resp.Content))
	} else {
		g.log.Warn("signal extraction failed, scoring text", zap.Error(err))
	}
	return string(g.signals.ExtractAction(text)), nil
}

// LastState returns the state of the most recent Propagate, or nil.
func (g *TradingAgentsGraph) LastState() *models.TradingState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastState
}

// SetState replaces the state reflections are based on, e.g. one read back
// with LoadStateLog.
func (g *TradingAgentsGraph) SetState(state *models.TradingState) {
	g.mu.Lock()
	g.lastState = state
	g.mu.Unlock()
}
