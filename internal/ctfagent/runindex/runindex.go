// Package runindex tracks which challenges already have a written run log,
// backing the CLI's --skip-existing/--overwrite-existing flags (spec §6).
// Grounded on internal/channels/imessage/adapter.go's sql.Open("sqlite", ...)
// usage of the pure-Go modernc.org/sqlite driver.
package runindex

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Index records, per experiment, which canonical challenge names have a
// completed run and whether that run solved the challenge.
type Index struct {
	db *sql.DB
}

// Open creates or attaches to the sqlite database at path. ":memory:" is
// valid for tests.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening run index %s: %w", path, err)
	}
	idx := &Index{db: db}
	if err := idx.init(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (idx *Index) init(ctx context.Context) error {
	_, err := idx.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			experiment TEXT NOT NULL,
			challenge TEXT NOT NULL,
			solved INTEGER NOT NULL,
			exit_reason TEXT NOT NULL,
			recorded_at DATETIME NOT NULL,
			PRIMARY KEY (experiment, challenge)
		)
	`)
	if err != nil {
		return fmt.Errorf("creating runs table: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (idx *Index) Close() error { return idx.db.Close() }

// Record upserts the outcome of one run, so a later --skip-existing pass
// can see it.
func (idx *Index) Record(ctx context.Context, experiment, challenge string, solved bool, exitReason string) error {
	_, err := idx.db.ExecContext(ctx, `
		INSERT INTO runs (experiment, challenge, solved, exit_reason, recorded_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(experiment, challenge) DO UPDATE SET
			solved = excluded.solved,
			exit_reason = excluded.exit_reason,
			recorded_at = excluded.recorded_at
	`, experiment, challenge, boolToInt(solved), exitReason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("recording run %s/%s: %w", experiment, challenge, err)
	}
	return nil
}

// Exists reports whether experiment/challenge already has a recorded run,
// for --skip-existing.
func (idx *Index) Exists(ctx context.Context, experiment, challenge string) (bool, error) {
	var n int
	err := idx.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM runs WHERE experiment = ? AND challenge = ?`,
		experiment, challenge,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking run index for %s/%s: %w", experiment, challenge, err)
	}
	return n > 0, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
