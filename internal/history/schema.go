package history

import (
	"context"
)

// initSchema creates all required tables if they don't exist.
func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS frames (
		seq INTEGER PRIMARY KEY,
		delta_ns INTEGER NOT NULL,
		elapsed_ns INTEGER NOT NULL,
		recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS failures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		frame INTEGER NOT NULL,
		system TEXT NOT NULL,
		phase TEXT NOT NULL,
		stage TEXT NOT NULL,
		error TEXT NOT NULL,
		recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_failures_frame ON failures(frame);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}
