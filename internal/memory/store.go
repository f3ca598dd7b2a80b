package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dyike/TradeCortex/internal/storage/sqlite"
)

// Record is one remembered situation and the advice learned from it.
type Record struct {
	ID             string
	Name           string
	Situation      string
	Recommendation string
	Embedding      []float64
	CreatedAt      time.Time
}

// Store persists records grouped by memory name.
type Store interface {
	Add(ctx context.Context, records []Record) error
	List(ctx context.Context, name string) ([]Record, error)
	Close() error
}

// SQLiteStore keeps memories in the memories table; embeddings are JSON arrays.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS memories (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    situation TEXT NOT NULL,
    recommendation TEXT NOT NULL,
    embedding TEXT NOT NULL,
    created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_memories_name ON memories(name, created_at);
`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init memories schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Add(ctx context.Context, records []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin memories tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO memories (id, name, situation, recommendation, embedding, created_at)
VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare memory insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		r := &records[i]
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now().UTC()
		}
		vec, err := json.Marshal(r.Embedding)
		if err != nil {
			return fmt.Errorf("encode embedding: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.Name, r.Situation, r.Recommendation, string(vec), r.CreatedAt); err != nil {
			return fmt.Errorf("insert memory: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit memories: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, name string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, situation, recommendation, embedding, created_at
FROM memories
WHERE name = ?
ORDER BY created_at ASC, rowid ASC`, name)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r   Record
			vec string
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Situation, &r.Recommendation, &vec, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		if err := json.Unmarshal([]byte(vec), &r.Embedding); err != nil {
			return nil, fmt.Errorf("decode embedding %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// MemStore is a process-local Store.
type MemStore struct {
	mu      sync.RWMutex
	records map[string][]Record
}

func NewMemStore() *MemStore {
	return &MemStore{records: map[string][]Record{}}
}

func (m *MemStore) Add(_ context.Context, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now().UTC()
		}
		m.records[r.Name] = append(m.records[r.Name], r)
	}
	return nil
}

func (m *MemStore) List(_ context.Context, name string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Record(nil), m.records[name]...), nil
}

func (m *MemStore) Close() error { return nil }
