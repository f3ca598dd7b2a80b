package storage

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/dyike/TradeCortex/consts"
	"github.com/dyike/TradeCortex/internal/logger"
	"github.com/dyike/TradeCortex/models"
)

type recordKind int

const (
	recordMessage recordKind = iota + 1
	recordFinish
)

type recordEvent struct {
	kind     recordKind
	agent    string
	content  string
	decision string
	err      error
}

// SessionRecorder writes agent output for one session from a single
// goroutine so graph nodes never block on the database.
type SessionRecorder struct {
	store   *Store
	session models.SessionRecord
	log     *zap.Logger

	events chan recordEvent
	mu     sync.RWMutex
	closed bool
	once   sync.Once
	wg     sync.WaitGroup

	seq int
}

// NewSessionRecorder creates the session row (status running) and starts the writer.
func NewSessionRecorder(ctx context.Context, store *Store, symbol, tradeDate string) (*SessionRecorder, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	session := models.SessionRecord{
		Symbol:    strings.ToUpper(symbol),
		TradeDate: tradeDate,
		Status:    consts.State_Running,
	}
	if err := store.CreateSession(ctx, &session); err != nil {
		return nil, err
	}

	r := &SessionRecorder{
		store:   store,
		session: session,
		log:     logger.Named("recorder").With(zap.String("session", session.Id)),
		events:  make(chan recordEvent, 256),
	}
	r.wg.Add(1)
	go r.loop()
	return r, nil
}

func (r *SessionRecorder) SessionID() string {
	return r.session.Id
}

func (r *SessionRecorder) loop() {
	defer r.wg.Done()
	ctx := context.Background()
	for ev := range r.events {
		switch ev.kind {
		case recordMessage:
			r.handleMessage(ctx, ev.agent, ev.content)
		case recordFinish:
			r.handleFinish(ctx, ev.decision, ev.err)
		}
	}
}

func (r *SessionRecorder) enqueue(ev recordEvent) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	r.events <- ev
}

// RecordMessage queues one agent output. Calls after Finish are dropped.
func (r *SessionRecorder) RecordMessage(_ context.Context, agent, content string) {
	if strings.TrimSpace(content) == "" {
		return
	}
	r.enqueue(recordEvent{kind: recordMessage, agent: agent, content: content})
}

// Finish marks the session completed (or failed when err is set), flushes
// pending messages and stops the writer.
func (r *SessionRecorder) Finish(decision string, err error) {
	r.enqueue(recordEvent{kind: recordFinish, decision: decision, err: err})
	r.Close()
}

func (r *SessionRecorder) Close() {
	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.events)
		r.mu.Unlock()
		r.wg.Wait()
	})
}

func (r *SessionRecorder) handleMessage(ctx context.Context, agent, content string) {
	r.seq++
	msg := &models.MessageRecord{
		SessionId: r.session.Id,
		Agent:     agent,
		Content:   content,
		Seq:       r.seq,
	}
	if err := r.store.InsertMessage(ctx, msg); err != nil {
		r.log.Warn("record message", zap.String("agent", agent), zap.Error(err))
	}
}

func (r *SessionRecorder) handleFinish(ctx context.Context, decision string, err error) {
	status, errMsg := consts.State_Completed, ""
	if err != nil {
		status, errMsg = consts.State_Failed, err.Error()
	}
	if uerr := r.store.UpdateSessionStatus(ctx, r.session.Id, status, decision, errMsg); uerr != nil {
		r.log.Warn("finish session", zap.Error(uerr))
	}
}
