// Package history is the append-only version store for note content, backed by SQLite.
package history

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS versions (
	note_key   TEXT     NOT NULL,
	seq        INTEGER  NOT NULL,
	created_at DATETIME NOT NULL,
	message    TEXT     NOT NULL DEFAULT '',
	encrypted  INTEGER  NOT NULL DEFAULT 0,
	checksum   TEXT     NOT NULL,
	content    BLOB     NOT NULL,
	archived   INTEGER  NOT NULL DEFAULT 0,
	PRIMARY KEY (note_key, seq)
);

CREATE INDEX IF NOT EXISTS idx_versions_live ON versions(note_key, archived);
`

// Store wraps a sql.DB holding every note's version rows.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=FULL")
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	// One writer at a time; the vault serializes mutations anyway.
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}
