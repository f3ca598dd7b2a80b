package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dyike/TradeCortex/models"
)

// Result is the outcome of one symbol in a batch.
type Result struct {
	Symbol   string
	Decision string
	State    *models.TradingState
	Err      error
	Elapsed  time.Duration
}

var errNotReady = errors.New("engine not ready")

// RunBatch propagates every symbol for tradeDate with at most concurrency
// runs in flight. A failed symbol does not stop the others; results keep
// the order of symbols. onResult, when set, is called from the worker
// goroutines as each result lands. Each symbol runs on the engine current
// when it starts, so a config reload mid-batch applies to the symbols after it.
func (r *Runtime) RunBatch(ctx context.Context, symbols []string, tradeDate string, concurrency int, onResult func(Result)) ([]Result, error) {
	if r.Engine() == nil {
		return nil, errNotReady
	}
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]Result, len(symbols))
	var eg errgroup.Group
	eg.SetLimit(concurrency)
	for i, symbol := range symbols {
		eg.Go(func() error {
			start := time.Now()
			state, decision, err := r.propagate(ctx, symbol, tradeDate)
			res := Result{Symbol: symbol, Decision: decision, State: state, Err: err, Elapsed: time.Since(start)}
			if err != nil {
				r.log.Warn("batch symbol failed", zap.String("symbol", symbol), zap.Error(err))
			}
			results[i] = res
			if onResult != nil {
				onResult(res)
			}
			return nil
		})
	}
	_ = eg.Wait()
	return results, ctx.Err()
}

func (r *Runtime) propagate(ctx context.Context, symbol, tradeDate string) (*models.TradingState, string, error) {
	engine := r.acquire()
	if engine == nil {
		return nil, "", errNotReady
	}
	defer r.release(engine)
	return engine.Graph.Propagate(ctx, symbol, tradeDate)
}
