// Package testutil provides shared test helpers for setting up vaults and version stores.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/starford/inkwell/internal/history"
	"github.com/starford/inkwell/internal/storage"
)

// TestHistory opens a SQLite version store in a temp dir that is closed on cleanup.
func TestHistory(t *testing.T) *history.Store {
	t.Helper()
	h, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}
