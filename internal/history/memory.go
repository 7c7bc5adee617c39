package history

import (
	"fmt"
	"sync"
	"time"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/checksum"
	"github.com/starford/inkwell/internal/models"
)

type memVersion struct {
	models.Version
	content  []byte
	archived bool
}

// Memory is a process-local version store with the same semantics as Store.
// It backs vaults opened without a history database, mostly in tests.
type Memory struct {
	mu   sync.Mutex
	rows map[string][]memVersion
}

// NewMemory returns an empty in-memory version store.
func NewMemory() *Memory {
	return &Memory{rows: make(map[string][]memVersion)}
}

func (m *Memory) Record(key string, content []byte, encrypted bool, message string) (models.Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.rows[key]
	v := models.Version{
		Seq:       int64(len(rows)) + 1,
		Created:   time.Now().UTC(),
		Message:   message,
		Encrypted: encrypted,
		Checksum:  checksum.Sum(content),
		Size:      len(content),
	}
	buf := make([]byte, len(content))
	copy(buf, content)
	m.rows[key] = append(rows, memVersion{Version: v, content: buf})
	return v, nil
}

func (m *Memory) List(key string) ([]models.Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Version
	for _, r := range m.rows[key] {
		if !r.archived {
			out = append(out, r.Version)
		}
	}
	return out, nil
}

func (m *Memory) Restore(key string, seq int64) ([]byte, models.Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.rows[key]
	if seq < 1 || seq > int64(len(rows)) || rows[seq-1].archived {
		return nil, models.Version{}, fmt.Errorf("history: version %d of %s: %w", seq, key, apperr.ErrNotFound)
	}
	r := rows[seq-1]
	buf := make([]byte, len(r.content))
	copy(buf, r.content)
	return buf, r.Version, nil
}

func (m *Memory) Discard(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, key)
	return nil
}

func (m *Memory) Archive(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.rows[key]
	for i := range rows {
		rows[i].archived = true
	}
	return nil
}

func (m *Memory) Keys() (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]struct{})
	for k, rows := range m.rows {
		for _, r := range rows {
			if !r.archived {
				out[k] = struct{}{}
				break
			}
		}
	}
	return out, nil
}
