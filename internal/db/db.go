// Package db is the sqlite persistence layer: health snapshots, risk
// assessments, stream predictions, and emergency alerts. The same DB
// value backs the engine store, the gait monitor recorder, and the
// history-driven health provider.
package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// New opens (creating if needed) the sqlite database at path. Run
// MigrateUp before first use.
func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &DB{db}, nil
}

// Timestamps are stored as unix microseconds so they survive the sqlite
// round trip without driver-dependent string formats.

func toMicros(t time.Time) int64 {
	return t.UnixMicro()
}

func fromMicros(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}
