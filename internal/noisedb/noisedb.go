// Package noisedb persists filter run summaries to SQLite so tuning
// sessions can compare configurations after the fact. Point data itself
// is never stored here; that belongs to the host pipeline.
package noisedb

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the run database handle.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the run database at path. Run MigrateUp before
// first use.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open run database: %w", err)
	}

	// SQLite handles one writer at a time; a single connection avoids
	// spurious SQLITE_BUSY between pool connections.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	return &DB{db}, nil
}
