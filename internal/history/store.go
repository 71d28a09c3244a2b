// Package history records frame executions and system failures to SQLite,
// for post-run inspection of a scheduler's behavior. Recording is wired in
// as an ordinary plugin; schedulers without it carry no persistence.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Frame is one recorded pass over the default trigger group.
type Frame struct {
	Seq        int64
	Delta      time.Duration
	Elapsed    time.Duration
	RecordedAt time.Time
}

// Failure is one recorded runtime failure.
type Failure struct {
	Frame      int64
	System     string
	Phase      string
	Stage      string
	Error      string
	RecordedAt time.Time
}

// Store is a SQLite-backed history store.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the history database at the given path.
// Creates parent directories if needed. Enables WAL mode and busy timeout.
func NewStore(ctx context.Context, dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create parent directories: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// NewMemoryStore creates an in-memory store for testing.
// Uses a shared cache so multiple connections see the same database.
func NewMemoryStore(ctx context.Context) (*Store, error) {
	db, err := sql.Open("sqlite", "file::memory:?mode=memory&cache=shared")
	if err != nil {
		return nil, fmt.Errorf("failed to open memory database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
