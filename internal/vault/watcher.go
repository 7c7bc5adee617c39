package vault

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/inkwell/internal/checksum"
)

const reloadDebounce = 200 * time.Millisecond

// Watch observes the vault directories until ctx is cancelled. Changes the
// vault made itself are ignored; anything else schedules a debounced Reload.
func (v *Vault) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := v.Root()
	if err := addDirs(w, root); err != nil {
		return err
	}
	v.logger.Info("watcher: started", slog.String("root", root))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time
	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(reloadDebounce)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(reloadDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			v.logger.Info("watcher: stopped")
			return nil

		case <-reloadCh:
			if err := v.Reload(); err != nil {
				v.logger.Error("watcher: reload failed", slog.String("error", err.Error()))
			}
			if err := addDirs(w, root); err != nil {
				v.logger.Warn("watcher: rescan dirs failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			rel, err := filepath.Rel(root, ev.Name)
			if err != nil || hiddenPath(rel) {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := w.Add(ev.Name); addErr != nil {
						v.logger.Warn("watcher: add new dir failed",
							slog.String("path", rel),
							slog.String("error", addErr.Error()))
					}
				}
			}
			if ev.Op == fsnotify.Chmod || v.ownChange(rel) {
				continue
			}
			v.logger.Debug("watcher: external change", slog.String("path", rel), slog.String("op", ev.Op.String()))
			scheduleReload()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			v.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// ownChange reports whether the current state of rel is what the vault last
// wrote there (or removed).
func (v *Vault) ownChange(rel string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	ok, err := v.store.Exists(rel)
	if err != nil {
		return false
	}
	if !ok {
		return v.gone[rel]
	}
	sum, tracked := v.written[rel]
	if !tracked {
		return false
	}
	if sum == dirMarker {
		return true
	}
	data, err := v.store.Read(rel)
	if err != nil {
		return false
	}
	return checksum.Matches(data, sum)
}

func hiddenPath(rel string) bool {
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if isHidden(part) {
			return true
		}
	}
	return false
}

// addDirs watches root and its visible subdirectories.
func addDirs(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
