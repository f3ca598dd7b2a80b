package agents

import (
	"context"

	"github.com/cloudwego/eino/compose"

	"github.com/dyike/TradeCortex/models"
)

// ReadState returns a copy of the run state so callers can do slow work
// (memory lookups, model calls) outside the state lock.
func ReadState(ctx context.Context) (*models.TradingState, error) {
	var snap *models.TradingState
	err := compose.ProcessState[*models.TradingState](ctx, func(_ context.Context, state *models.TradingState) error {
		snap = state.Snapshot()
		return nil
	})
	return snap, err
}

// UpdateState applies fn under the state lock and returns state.Goto.
func UpdateState(ctx context.Context, fn func(state *models.TradingState)) (next string, err error) {
	err = compose.ProcessState[*models.TradingState](ctx, func(_ context.Context, state *models.TradingState) error {
		fn(state)
		next = state.Goto
		return nil
	})
	return next, err
}
