package storage

import (
	"errors"
	"strings"
	"sync"

	"github.com/dyike/TradeCortex/config"
)

var (
	sqliteStoreOnce sync.Once
	sqliteStoreInst *Store
	sqliteStoreErr  error
	// ErrDatabaseNotConfigured indicates config.DatabasePath is empty.
	ErrDatabaseNotConfigured = errors.New("database_path is not configured")
)

// Shared returns one store per process for the configured database path.
// Later calls ignore cfg.
func Shared(cfg *config.Config) (*Store, error) {
	sqliteStoreOnce.Do(func() {
		path := strings.TrimSpace(cfg.DatabasePath)
		if path == "" {
			sqliteStoreErr = ErrDatabaseNotConfigured
			return
		}
		sqliteStoreInst, sqliteStoreErr = NewStore(path)
	})
	return sqliteStoreInst, sqliteStoreErr
}
