package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SaveFrame stores one completed frame. Frames are append-only; a repeated
// sequence number is a caller bug and surfaces as a constraint error.
func (s *Store) SaveFrame(ctx context.Context, frame Frame) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO frames (seq, delta_ns, elapsed_ns)
		VALUES (?, ?, ?)
	`, frame.Seq, frame.Delta.Nanoseconds(), frame.Elapsed.Nanoseconds())
	if err != nil {
		return fmt.Errorf("failed to save frame: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SaveFailure stores one runtime failure.
func (s *Store) SaveFailure(ctx context.Context, failure Failure) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO failures (frame, system, phase, stage, error)
		VALUES (?, ?, ?, ?, ?)
	`, failure.Frame, failure.System, failure.Phase, failure.Stage, failure.Error)
	if err != nil {
		return fmt.Errorf("failed to save failure: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RecentFrames retrieves the newest frames, most recent first.
// Returns empty slice (not nil) if nothing was recorded.
func (s *Store) RecentFrames(ctx context.Context, limit int) ([]Frame, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, delta_ns, elapsed_ns, recorded_at
		FROM frames
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query frames: %w", err)
	}
	defer rows.Close()

	frames := []Frame{}
	for rows.Next() {
		var f Frame
		var deltaNS, elapsedNS int64
		if err := rows.Scan(&f.Seq, &deltaNS, &elapsedNS, &f.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan frame: %w", err)
		}
		f.Delta = time.Duration(deltaNS)
		f.Elapsed = time.Duration(elapsedNS)
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating frames: %w", err)
	}
	return frames, nil
}

// Failures retrieves every failure recorded during the given frame, in
// insertion order. Returns empty slice (not nil) if the frame was clean.
func (s *Store) Failures(ctx context.Context, frame int64) ([]Failure, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT frame, system, phase, stage, error, recorded_at
		FROM failures
		WHERE frame = ?
		ORDER BY id ASC
	`, frame)
	if err != nil {
		return nil, fmt.Errorf("failed to query failures: %w", err)
	}
	defer rows.Close()

	failures := []Failure{}
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.Frame, &f.System, &f.Phase, &f.Stage, &f.Error, &f.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating failures: %w", err)
	}
	return failures, nil
}
