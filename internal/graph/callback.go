package graph

import (
	"context"
	"time"

	"github.com/cloudwego/eino/callbacks"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dyike/TradeCortex/consts"
	"github.com/dyike/TradeCortex/internal/logger"
	"github.com/dyike/TradeCortex/internal/trace"
)

// NodeEvent reports an agent node starting or finishing.
type NodeEvent struct {
	Node     string
	Done     bool
	Err      error
	Duration time.Duration
}

var agentNodes = map[string]bool{
	consts.MarketAnalyst:       true,
	consts.SocialMediaAnalyst:  true,
	consts.NewsAnalyst:         true,
	consts.FundamentalsAnalyst: true,
	consts.BullResearcher:      true,
	consts.BearResearcher:      true,
	consts.ResearchManager:     true,
	consts.Trader:              true,
	consts.RiskyAnalyst:        true,
	consts.SafeAnalyst:         true,
	consts.NeutralAnalyst:      true,
	consts.RiskJudge:           true,
}

type startKey struct{}

// NewNodeHandler returns a callback handler that opens a span and logs at
// debug level for every agent node. onEvent may be nil.
func NewNodeHandler(onEvent func(NodeEvent)) callbacks.Handler {
	log := logger.Named("graph")
	emit := func(ev NodeEvent) {
		if onEvent != nil {
			onEvent(ev)
		}
	}

	return callbacks.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *callbacks.RunInfo, _ callbacks.CallbackInput) context.Context {
			if info == nil || !agentNodes[info.Name] {
				return ctx
			}
			ctx, _ = trace.StartSpan(ctx, "agent."+info.Name, "agent", info.Name)
			ctx = context.WithValue(ctx, startKey{}, time.Now())
			log.Debug("node start", zap.String("agent", info.Name))
			emit(NodeEvent{Node: info.Name})
			return ctx
		}).
		OnEndFn(func(ctx context.Context, info *callbacks.RunInfo, _ callbacks.CallbackOutput) context.Context {
			if info == nil || !agentNodes[info.Name] {
				return ctx
			}
			d := elapsed(ctx)
			oteltrace.SpanFromContext(ctx).End()
			log.Debug("node end", zap.String("agent", info.Name), zap.Duration("elapsed", d))
			emit(NodeEvent{Node: info.Name, Done: true, Duration: d})
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
			if info == nil || !agentNodes[info.Name] {
				return ctx
			}
			d := elapsed(ctx)
			span := oteltrace.SpanFromContext(ctx)
			trace.RecordError(span, err)
			span.End()
			log.Warn("node failed", zap.String("agent", info.Name), zap.Error(err))
			emit(NodeEvent{Node: info.Name, Done: true, Err: err, Duration: d})
			return ctx
		}).
		Build()
}

func elapsed(ctx context.Context) time.Duration {
	if t, ok := ctx.Value(startKey{}).(time.Time); ok {
		return time.Since(t)
	}
	return 0
}
