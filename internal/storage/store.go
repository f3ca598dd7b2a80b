package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dyike/TradeCortex/consts"
	"github.com/dyike/TradeCortex/internal/storage/sqlite"
	"github.com/dyike/TradeCortex/models"
)

// ErrSessionNotFound is returned by GetSession for unknown ids.
var ErrSessionNotFound = errors.New("session not found")

// Store persists analysis sessions and the agent messages produced in them.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    symbol TEXT NOT NULL,
    trade_date TEXT NOT NULL,
    status TEXT NOT NULL,
    decision TEXT NOT NULL DEFAULT '',
    error TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    agent TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,
    UNIQUE(session_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_sessions_symbol ON sessions(symbol, trade_date);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// CreateSession inserts rec, assigning an id and timestamps when missing.
func (s *Store) CreateSession(ctx context.Context, rec *models.SessionRecord) error {
	if strings.TrimSpace(rec.Symbol) == "" || strings.TrimSpace(rec.TradeDate) == "" {
		return fmt.Errorf("session symbol and trade date are required")
	}
	if rec.Id == "" {
		rec.Id = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = consts.State_Pending
	}
	now := s.now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx, `
INSERT INTO sessions (id, symbol, trade_date, status, decision, error, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, rec.Id, rec.Symbol, rec.TradeDate, rec.Status, rec.Decision, rec.Error, now, now)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// InsertMessage appends msg; Seq must be positive and unique within the session.
func (s *Store) InsertMessage(ctx context.Context, msg *models.MessageRecord) error {
	if msg.Seq <= 0 {
		return fmt.Errorf("message seq must be positive")
	}
	if strings.TrimSpace(msg.Agent) == "" {
		return fmt.Errorf("message agent is required")
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO messages (session_id, seq, agent, content, created_at)
VALUES (?, ?, ?, ?, ?)
`, msg.SessionId, msg.Seq, msg.Agent, msg.Content, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	msg.Id, _ = res.LastInsertId()
	return nil
}

// UpdateSessionStatus records the outcome of a run. Empty decision and
// errMsg leave the stored values untouched.
func (s *Store) UpdateSessionStatus(ctx context.Context, sessionID, status, decision, errMsg string) error {
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(status) == "" {
		return fmt.Errorf("session id and status are required")
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE sessions
SET status = ?,
    decision = CASE WHEN ? <> '' THEN ? ELSE decision END,
    error = CASE WHEN ? <> '' THEN ? ELSE error END,
    updated_at = ?
WHERE id = ?
`, status, decision, decision, errMsg, errMsg, s.now().UTC(), sessionID)
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("update session %s: %w", sessionID, ErrSessionNotFound)
	}
	return nil
}

const sessionColumns = `id, symbol, trade_date, status, decision, error, created_at, updated_at`

func scanSession(sc interface{ Scan(...any) error }) (*models.SessionRecord, error) {
	var rec models.SessionRecord
	if err := sc.Scan(&rec.Id, &rec.Symbol, &rec.TradeDate, &rec.Status, &rec.Decision, &rec.Error, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListSessions 按创建时间倒序列出会话，symbol 为空时不过滤
func (s *Store) ListSessions(ctx context.Context, symbol string, limit int) ([]*models.SessionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	rows, err := s.db.QueryContext(ctx, `
SELECT `+sessionColumns+`
FROM sessions
WHERE (? = '' OR symbol = ?)
ORDER BY created_at DESC, rowid DESC
LIMIT ?
`, symbol, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions rows: %w", err)
	}
	return sessions, nil
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ? LIMIT 1`, sessionID)
	rec, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", sessionID, ErrSessionNotFound)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return rec, nil
}

func (s *Store) ListMessages(ctx context.Context, sessionID string) ([]*models.MessageRecord, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, session_id, seq, agent, content, created_at
FROM messages
WHERE session_id = ?
ORDER BY seq ASC
`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []*models.MessageRecord
	for rows.Next() {
		var rec models.MessageRecord
		if err := rows.Scan(&rec.Id, &rec.SessionId, &rec.Seq, &rec.Agent, &rec.Content, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages rows: %w", err)
	}
	return msgs, nil
}
