// Package vault is the repository index: the in-memory model of folders,
// notes and tags, kept consistent with the files under the vault root.
//
// Every mutation writes through to disk before returning, then updates the
// link graph and the version store. One mutex serializes the whole aggregate.
package vault

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/inkwell/internal/history"
	"github.com/starford/inkwell/internal/links"
	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/storage"
)

// VersionStore is the history backend. *history.Store and *history.Memory implement it.
type VersionStore interface {
	Record(key string, content []byte, encrypted bool, message string) (models.Version, error)
	List(key string) ([]models.Version, error)
	Restore(key string, seq int64) ([]byte, models.Version, error)
	Discard(key string) error
	Archive(key string) error
}

// Option configures a Vault.
type Option func(*Vault)

// WithHistory sets the version store. Without it history lives in memory.
func WithHistory(h VersionStore) Option {
	return func(v *Vault) { v.history = h }
}

// WithLogger sets the logger used for repairs and watcher activity.
func WithLogger(l *slog.Logger) Option {
	return func(v *Vault) { v.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(v *Vault) { v.now = now }
}

// WithArchiveOnDelete archives a deleted note's history instead of discarding it.
func WithArchiveOnDelete(archive bool) Option {
	return func(v *Vault) { v.archive = archive }
}

// WithEventHook registers fn to be called after each successful mutation.
// fn runs after the vault lock is released and may call back into the vault.
func WithEventHook(fn func(Event)) Option {
	return func(v *Vault) { v.hooks = append(v.hooks, fn) }
}

// WithStorage replaces the file-system provider rooted at the vault path.
func WithStorage(p storage.Provider) Option {
	return func(v *Vault) { v.store = p }
}

type folder struct {
	id       int
	name     string
	nextSlot int
	notes    map[int]*note
}

type note struct {
	id      models.NoteID
	key     string
	title   string
	stem    string
	body    string // plaintext, or EncryptedPlaceholder
	blob    []byte // content file bytes as last written
	created time.Time
	updated time.Time
	tags    []int
	fav     bool
	enc     bool
	damaged bool
}

// Vault is the repository aggregate. It is safe for concurrent use; calls are serialized.
type Vault struct {
	mu sync.Mutex

	store   storage.Provider
	history VersionStore
	logger  *slog.Logger
	now     func() time.Time
	archive bool
	hooks   []func(Event)

	folders    map[int]*folder
	nextFolder int
	tags       map[int]*models.Tag
	nextTag    int
	graph      *links.Graph
	diags      []Diagnostic

	// Checksums of files the vault wrote itself, and paths it removed.
	// The watcher uses them to skip its own changes.
	written map[string]string
	gone    map[string]bool

	pending []Event
}

// Open loads the vault rooted at root, repairing what it can. root must exist.
func Open(root string, opts ...Option) (*Vault, error) {
	v := &Vault{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.store == nil {
		fs, err := storage.NewFS(root)
		if err != nil {
			return nil, fmt.Errorf("vault: %w", err)
		}
		v.store = fs
	}
	if v.history == nil {
		v.history = history.NewMemory()
	}
	if err := v.load(); err != nil {
		return nil, err
	}
	v.logger.Info("vault: loaded",
		slog.String("root", v.store.Root()),
		slog.Int("folders", len(v.folders)),
		slog.Int("notes", v.countNotes()),
		slog.Int("diagnostics", len(v.diags)))
	return v, nil
}

// Root returns the absolute vault root.
func (v *Vault) Root() string {
	return v.store.Root()
}

func (v *Vault) lock() {
	v.mu.Lock()
}

// unlock releases the lock and then delivers events queued by the mutation.
func (v *Vault) unlock() {
	evs := v.pending
	v.pending = nil
	v.mu.Unlock()
	for _, ev := range evs {
		for _, fn := range v.hooks {
			fn(ev)
		}
	}
}

func (v *Vault) emit(ev Event) {
	if len(v.hooks) == 0 {
		return
	}
	v.pending = append(v.pending, ev)
}

func (v *Vault) stamp() time.Time {
	return v.now().UTC().Truncate(time.Millisecond)
}

func (v *Vault) countNotes() int {
	n := 0
	for _, f := range v.folders {
		n += len(f.notes)
	}
	return n
}
