package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dyike/TradeCortex/config"
	"github.com/dyike/TradeCortex/models"
)

// started from an init in the genai dependency tree
var ignoreCensus = goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start")

type fakeGraph struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	closed   atomic.Bool
}

func (f *fakeGraph) Propagate(_ context.Context, ticker, tradeDate string) (*models.TradingState, string, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	if strings.HasPrefix(ticker, "BAD") {
		return nil, "", fmt.Errorf("no data for %s", ticker)
	}
	return models.NewTradingState(ticker, tradeDate), "HOLD", nil
}

func (f *fakeGraph) Close() error {
	f.closed.Store(true)
	return nil
}

func newTestRuntime(t *testing.T, builder EngineBuilder, opts ...Option) (*Runtime, *config.Manager) {
	t.Helper()
	mgr, err := config.NewManager(config.WithConfigDir(t.TempDir()), config.WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	rt, err := NewRuntime(context.Background(), mgr, append([]Option{WithBuilder(builder)}, opts...)...)
	require.NoError(t, err)
	return rt, mgr
}

func TestRunBatch(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreCensus)

	fg := &fakeGraph{}
	rt, _ := newTestRuntime(t, func(_ context.Context, cfg config.Config) (*Engine, error) {
		return NewEngine(cfg, fg), nil
	})

	var mu sync.Mutex
	var seen []string
	results, err := rt.RunBatch(context.Background(), []string{"MSFT", "BADX", "AAPL", "NVDA"}, "2025-07-04", 2,
		func(r Result) {
			mu.Lock()
			seen = append(seen, r.Symbol)
			mu.Unlock()
		})
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, "MSFT", results[0].Symbol)
	assert.Equal(t, "HOLD", results[0].Decision)
	assert.Error(t, results[1].Err)
	assert.Equal(t, "NVDA", results[3].State.CompanyOfInterest)
	assert.Len(t, seen, 4)
	assert.LessOrEqual(t, fg.peak.Load(), int32(2))

	require.NoError(t, rt.Close())
	assert.True(t, fg.closed.Load())
}

func TestRuntimeReloadsOnConfigChange(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreCensus)

	var builds atomic.Int32
	events := make(chan string, 4)
	rt, _ := newTestRuntime(t,
		func(_ context.Context, cfg config.Config) (*Engine, error) {
			builds.Add(1)
			return NewEngine(cfg, &fakeGraph{}), nil
		},
		WithNotifier(func(topic, _ string) {
			select {
			case events <- topic:
			default:
			}
		}))
	first := rt.Engine()
	require.NotNil(t, first)
	assert.Equal(t, "engine.reloaded", <-events)

	cfg := rt.Engine().Config
	cfg.MaxDebateRounds = 3
	require.NoError(t, rt.UpdateConfigJSON(mustJSON(t, cfg)))

	require.Eventually(t, func() bool {
		return rt.Engine().Config.MaxDebateRounds == 3
	}, 2*time.Second, 10*time.Millisecond)
	assert.Greater(t, rt.Engine().Version, first.Version)
	assert.GreaterOrEqual(t, builds.Load(), int32(2))

	require.NoError(t, rt.Close())
	time.Sleep(50 * time.Millisecond)
}

func TestRuntimeClosesRetiredEngines(t *testing.T) {
	var (
		mu     sync.Mutex
		graphs []*fakeGraph
	)
	rt, mgr := newTestRuntime(t, func(_ context.Context, cfg config.Config) (*Engine, error) {
		fg := &fakeGraph{}
		mu.Lock()
		graphs = append(graphs, fg)
		mu.Unlock()
		return NewEngine(cfg, fg), nil
	})
	ctx := context.Background()
	cfg := mgr.Get()

	// idle engines close as soon as they are replaced
	require.NoError(t, rt.reload(ctx, cfg))
	require.NoError(t, rt.reload(ctx, cfg))
	assert.True(t, graphs[0].closed.Load())
	assert.True(t, graphs[1].closed.Load())
	assert.False(t, graphs[2].closed.Load())

	// a busy engine stays open until its last run is released
	busy := rt.acquire()
	again := rt.acquire()
	require.NoError(t, rt.reload(ctx, cfg))
	assert.False(t, graphs[2].closed.Load())
	rt.release(busy)
	assert.False(t, graphs[2].closed.Load())
	rt.release(again)
	assert.True(t, graphs[2].closed.Load())

	rt.mu.Lock()
	assert.Empty(t, rt.retired)
	assert.Empty(t, rt.inUse)
	rt.mu.Unlock()

	require.NoError(t, rt.Close())
	assert.True(t, graphs[3].closed.Load())
}

func TestRuntimeBuildFailure(t *testing.T) {
	mgr, err := config.NewManager(config.WithConfigDir(t.TempDir()))
	require.NoError(t, err)
	boom := errors.New("boom")
	_, err = NewRuntime(context.Background(), mgr, WithBuilder(func(context.Context, config.Config) (*Engine, error) {
		return nil, boom
	}))
	assert.ErrorIs(t, err, boom)
}

func TestRunBatchCanceled(t *testing.T) {
	rt, _ := newTestRuntime(t, func(_ context.Context, cfg config.Config) (*Engine, error) {
		return NewEngine(cfg, &fakeGraph{}), nil
	})
	defer rt.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := rt.RunBatch(ctx, []string{"MSFT"}, "2025-07-04", 1, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
func mustJSON(t *testing.T, cfg config.Config) string {
	t.Helper()
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	return string(data)
}
