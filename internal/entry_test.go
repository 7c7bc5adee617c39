package internal

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/inkwell/internal/history"
	"github.com/starford/inkwell/internal/vault"
)

func checkConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Vault.Path = filepath.Join(dir, "vault")
	cfg.History.Path = filepath.Join(dir, "history.db")
	return cfg
}

func TestCheck_EmptyVault(t *testing.T) {
	cfg := checkConfig(t)
	cfg.History.Path = ""
	var out bytes.Buffer

	n, err := Check(context.Background(), WithConfig(cfg), WithOutput(&out))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if n != 0 {
		t.Errorf("problems = %d, want 0", n)
	}
	if !strings.Contains(out.String(), "0 folders, 0 notes, 0 problems") {
		t.Errorf("report = %q", out.String())
	}
	if _, err := os.Stat(filepath.Join(cfg.Vault.Path, ".history.db")); err != nil {
		t.Errorf("history not created inside the vault: %v", err)
	}
}

func TestCheck_RepairsPersist(t *testing.T) {
	cfg := checkConfig(t)
	if err := os.MkdirAll(filepath.Join(cfg.Vault.Path, "Inbox"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfg.Vault.Path, "Inbox", "stray.md"), []byte("found [[it]]"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	n, err := Check(context.Background(), WithConfig(cfg), WithOutput(&out))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if n != 2 {
		t.Errorf("problems = %d, want 2 (folder and note adopted):\n%s", n, out.String())
	}
	if !strings.Contains(out.String(), "1 folders, 1 notes") {
		t.Errorf("report = %q", out.String())
	}

	out.Reset()
	n, err = Check(context.Background(), WithConfig(cfg), WithOutput(&out))
	if err != nil {
		t.Fatalf("second Check: %v", err)
	}
	if n != 0 {
		t.Errorf("second run problems = %d, want 0:\n%s", n, out.String())
	}
}

func TestCheck_RequiresConfig(t *testing.T) {
	if _, err := Check(context.Background()); err == nil {
		t.Fatal("Check without config should fail")
	}
}

func TestCheck_ReportsOrphanedHistory(t *testing.T) {
	cfg := checkConfig(t)
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		t.Fatal(err)
	}

	h, err := history.Open(cfg.HistoryPath())
	if err != nil {
		t.Fatal(err)
	}
	v, err := vault.Open(cfg.Vault.Path, vault.WithHistory(h))
	if err != nil {
		t.Fatal(err)
	}
	folder, err := v.CreateFolder("Work")
	if err != nil {
		t.Fatal(err)
	}
	id, err := v.CreateNote(folder, "Plan")
	if err != nil {
		t.Fatal(err)
	}
	if err := v.SaveNote(id, "body", ""); err != nil {
		t.Fatal(err)
	}
	n, err := v.Note(id)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Close(); err != nil {
		t.Fatal(err)
	}

	// Remove the note behind the vault's back.
	for _, name := range []string{"Plan.md", "Plan.meta.yaml"} {
		if err := os.Remove(filepath.Join(cfg.Vault.Path, "Work", name)); err != nil {
			t.Fatal(err)
		}
	}

	var out bytes.Buffer
	problems, err := Check(context.Background(), WithConfig(cfg), WithOutput(&out))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if problems != 1 {
		t.Errorf("problems = %d, want 1:\n%s", problems, out.String())
	}
	if !strings.Contains(out.String(), "history "+n.Key) {
		t.Errorf("orphan not reported: %s", out.String())
	}
}
