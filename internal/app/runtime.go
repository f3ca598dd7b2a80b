package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/dyike/TradeCortex/config"
	"github.com/dyike/TradeCortex/internal/logger"
)

type Option func(*Runtime)

func WithBuilder(builder EngineBuilder) Option {
	return func(r *Runtime) {
		if builder != nil {
			r.builder = builder
		}
	}
}

// WithNotifier receives engine.reloaded and engine.reload_failed events
// with a JSON payload.
func WithNotifier(fn func(topic, payload string)) Option {
	return func(r *Runtime) {
		r.notify = fn
	}
}

// Runtime keeps the current engine and rebuilds it whenever the config
// file changes. Runs already in flight finish on the engine they started
// with, which is closed once the last of them returns.
type Runtime struct {
	cfgMgr *config.Manager
	engine atomic.Pointer[Engine]

	builder EngineBuilder
	notify  func(string, string)
	cancel  context.CancelFunc
	log     *zap.Logger

	// inUse counts runs per engine; retired engines close when it drops to zero.
	mu      sync.Mutex
	inUse   map[*Engine]int
	retired map[*Engine]struct{}
}

func NewRuntime(ctx context.Context, cfgMgr *config.Manager, opts ...Option) (*Runtime, error) {
	if cfgMgr == nil {
		return nil, fmt.Errorf("config manager is required")
	}

	rt := &Runtime{
		cfgMgr:  cfgMgr,
		builder: BuildEngine,
		log:     logger.Named("runtime"),
		inUse:   make(map[*Engine]int),
		retired: make(map[*Engine]struct{}),
	}
	for _, opt := range opts {
		opt(rt)
	}

	if err := rt.reload(ctx, cfgMgr.Get()); err != nil {
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	rt.cancel = cancel
	if err := cfgMgr.Watch(watchCtx, func(cfg config.Config) {
		if err := rt.reload(watchCtx, cfg); err != nil {
			rt.log.Warn("engine reload failed", zap.Error(err))
		}
	}); err != nil {
		cancel()
		return nil, err
	}
	return rt, nil
}

func (r *Runtime) Engine() *Engine {
	return r.engine.Load()
}

// Close stops watching and closes every engine this runtime built.
func (r *Runtime) Close() error {
	if r.cancel != nil {
		r.cancel()
		r.cfgMgr.Wait()
	}
	r.mu.Lock()
	engines := []*Engine{r.engine.Swap(nil)}
	for e := range r.retired {
		engines = append(engines, e)
	}
	clear(r.retired)
	r.mu.Unlock()

	var errs []error
	for _, e := range engines {
		errs = append(errs, e.Close())
	}
	return errors.Join(errs...)
}

// acquire returns the current engine and keeps it open until release.
func (r *Runtime) acquire() *Engine {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.engine.Load()
	if e != nil {
		r.inUse[e]++
	}
	return e
}

func (r *Runtime) release(e *Engine) {
	r.mu.Lock()
	r.inUse[e]--
	n := r.inUse[e]
	if n <= 0 {
		delete(r.inUse, e)
	}
	_, retired := r.retired[e]
	done := n <= 0 && retired
	if done {
		delete(r.retired, e)
	}
	r.mu.Unlock()
	if done {
		r.closeEngine(e)
	}
}

func (r *Runtime) closeEngine(e *Engine) {
	if err := e.Close(); err != nil {
		r.log.Warn("close retired engine", zap.Uint64("version", e.Version), zap.Error(err))
		return
	}
	r.log.Debug("retired engine closed", zap.Uint64("version", e.Version))
}

func (r *Runtime) UpdateConfigJSON(jsonStr string) error {
	return r.cfgMgr.UpdateFromJSON(jsonStr)
}

func (r *Runtime) reload(ctx context.Context, cfg config.Config) error {
	engine, err := r.builder(ctx, cfg)
	if err != nil {
		r.notifyFailure(err)
		return err
	}
	r.mu.Lock()
	old := r.engine.Swap(engine)
	idle := old != nil && r.inUse[old] == 0
	if old != nil && !idle {
		r.retired[old] = struct{}{}
	}
	r.mu.Unlock()
	if idle {
		r.closeEngine(old)
	}
	r.log.Info("engine ready", zap.Uint64("version", engine.Version))
	r.notifySuccess(engine)
	return nil
}

func (r *Runtime) notifySuccess(engine *Engine) {
	if r.notify == nil {
		return
	}
	payload, _ := json.Marshal(map[string]any{
		"version":  engine.Version,
		"built_at": engine.BuiltAt.UTC().Format(time.RFC3339),
	})
	r.notify("engine.reloaded", string(payload))
}

func (r *Runtime) notifyFailure(err error) {
	if r.notify == nil {
		return
	}
	payload, _ := json.Marshal(map[string]string{
		"error": err.Error(),
	})
	r.notify("engine.reload_failed", string(payload))
}
