package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/checksum"
	"github.com/starford/inkwell/internal/models"
)

// Record appends a new version for key and returns it. The sequence number is
// one past the highest ever recorded for key.
func (s *Store) Record(key string, content []byte, encrypted bool, message string) (models.Version, error) {
	if content == nil {
		content = []byte{}
	}
	tx, err := s.conn.Begin()
	if err != nil {
		return models.Version{}, apperr.IO("history: begin tx", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	var last int64
	if err := tx.QueryRow(`SELECT COALESCE(MAX(seq), 0) FROM versions WHERE note_key = ?`, key).Scan(&last); err != nil {
		return models.Version{}, apperr.IO("history: next seq", err)
	}

	v := models.Version{
		Seq:       last + 1,
		Created:   time.Now().UTC(),
		Message:   message,
		Encrypted: encrypted,
		Checksum:  checksum.Sum(content),
		Size:      len(content),
	}
	_, err = tx.Exec(`
		INSERT INTO versions (note_key, seq, created_at, message, encrypted, checksum, content)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, key, v.Seq, v.Created, v.Message, v.Encrypted, v.Checksum, content)
	if err != nil {
		return models.Version{}, apperr.IO("history: insert version", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Version{}, apperr.IO("history: commit", err)
	}
	return v, nil
}

// List returns the live versions of key, oldest first.
func (s *Store) List(key string) ([]models.Version, error) {
	rows, err := s.conn.Query(`
		SELECT seq, created_at, message, encrypted, checksum, length(content)
		FROM versions
		WHERE note_key = ? AND archived = 0
		ORDER BY seq ASC
	`, key)
	if err != nil {
		return nil, apperr.IO("history: list", err)
	}
	defer rows.Close()

	var out []models.Version
	for rows.Next() {
		var v models.Version
		if err := rows.Scan(&v.Seq, &v.Created, &v.Message, &v.Encrypted, &v.Checksum, &v.Size); err != nil {
			return nil, apperr.IO("history: scan", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.IO("history: list", err)
	}
	return out, nil
}

// Restore returns the stored bytes of one version verbatim.
func (s *Store) Restore(key string, seq int64) ([]byte, models.Version, error) {
	var (
		v       models.Version
		content []byte
	)
	err := s.conn.QueryRow(`
		SELECT seq, created_at, message, encrypted, checksum, content
		FROM versions
		WHERE note_key = ? AND seq = ? AND archived = 0
	`, key, seq).Scan(&v.Seq, &v.Created, &v.Message, &v.Encrypted, &v.Checksum, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.Version{}, fmt.Errorf("history: version %d of %s: %w", seq, key, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, models.Version{}, apperr.IO("history: restore", err)
	}
	if content == nil {
		content = []byte{}
	}
	v.Size = len(content)
	return content, v, nil
}

// Discard deletes every version of key.
func (s *Store) Discard(key string) error {
	if _, err := s.conn.Exec(`DELETE FROM versions WHERE note_key = ?`, key); err != nil {
		return apperr.IO("history: discard", err)
	}
	return nil
}

// Archive hides every version of key from List and Restore but keeps the rows.
func (s *Store) Archive(key string) error {
	if _, err := s.conn.Exec(`UPDATE versions SET archived = 1 WHERE note_key = ?`, key); err != nil {
		return apperr.IO("history: archive", err)
	}
	return nil
}

// Keys returns every note key that still has live versions.
func (s *Store) Keys() (map[string]struct{}, error) {
	rows, err := s.conn.Query(`SELECT DISTINCT note_key FROM versions WHERE archived = 0`)
	if err != nil {
		return nil, apperr.IO("history: keys", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, apperr.IO("history: scan", err)
		}
		out[k] = struct{}{}
	}
	return out, rows.Err()
}
