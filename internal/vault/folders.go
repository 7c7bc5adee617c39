package vault

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/starford/inkwell/internal/apperr"
)

func (v *Vault) folderByName(name string) *folder {
	for _, f := range v.folders {
		if f.name == name {
			return f
		}
	}
	return nil
}

// CreateFolder creates an empty folder and returns its slot.
func (v *Vault) CreateFolder(name string) (int, error) {
	if err := validateFolderName(name); err != nil {
		return 0, err
	}
	v.lock()
	defer v.unlock()

	if v.folderByName(name) != nil {
		return 0, fmt.Errorf("folder %q: %w", name, apperr.ErrDuplicateName)
	}
	if ok, _ := v.store.Exists(name); ok {
		return 0, fmt.Errorf("folder %q: %w: path exists", name, apperr.ErrDuplicateName)
	}

	// The slot is spent once the counter is on disk, even if the rest fails.
	f := &folder{id: v.nextFolder, name: name, notes: make(map[int]*note)}
	v.nextFolder++
	if err := v.writeVaultMarker(); err != nil {
		v.nextFolder--
		return 0, err
	}
	if err := v.store.Mkdir(name); err != nil {
		return 0, apperr.IO("vault: create folder", err)
	}
	v.written[name] = dirMarker
	delete(v.gone, name)
	if err := v.writeFolderMarker(f); err != nil {
		_ = v.store.RemoveAll(name)
		return 0, err
	}
	v.folders[f.id] = f

	v.logger.Info("vault: folder created", slog.Int("folder", f.id), slog.String("name", name))
	v.emit(Event{Kind: EventFolderCreated, Folder: f.id})
	return f.id, nil
}

// RenameFolder renames a folder and its directory. Note identities are unchanged.
func (v *Vault) RenameFolder(id int, name string) error {
	if err := validateFolderName(name); err != nil {
		return err
	}
	v.lock()
	defer v.unlock()

	f, err := v.folder(id)
	if err != nil {
		return err
	}
	if f.name == name {
		return nil
	}
	if other := v.folderByName(name); other != nil {
		return fmt.Errorf("folder %q: %w", name, apperr.ErrDuplicateName)
	}
	if ok, _ := v.store.Exists(name); ok {
		return fmt.Errorf("folder %q: %w: path exists", name, apperr.ErrDuplicateName)
	}

	old := f.name
	if err := v.moveFile(old, name); err != nil {
		return err
	}
	v.retrack(old, name)
	f.name = name

	v.logger.Info("vault: folder renamed", slog.Int("folder", id), slog.String("from", old), slog.String("to", name))
	v.emit(Event{Kind: EventFolderRenamed, Folder: id})
	return nil
}

// retrack moves self-write bookkeeping from one directory to another.
func (v *Vault) retrack(oldDir, newDir string) {
	prefix := oldDir + string(filepath.Separator)
	for path, sum := range v.written {
		if rel, ok := strings.CutPrefix(path, prefix); ok {
			delete(v.written, path)
			v.written[filepath.Join(newDir, rel)] = sum
			v.gone[path] = true
		}
	}
	v.written[newDir] = dirMarker
}

func (v *Vault) untrack(dir string) {
	prefix := dir + string(filepath.Separator)
	for path := range v.written {
		if strings.HasPrefix(path, prefix) {
			delete(v.written, path)
			v.gone[path] = true
		}
	}
	delete(v.written, dir)
	v.gone[dir] = true
}

// DeleteFolder deletes every note of the folder through the note delete
// path, then removes the directory.
func (v *Vault) DeleteFolder(id int) error {
	v.lock()
	defer v.unlock()

	f, err := v.folder(id)
	if err != nil {
		return err
	}
	for _, n := range f.sortedNotes() {
		if err := v.deleteNote(f, n); err != nil {
			return fmt.Errorf("delete folder %q: %w", f.name, err)
		}
	}
	if err := v.store.RemoveAll(f.name); err != nil {
		return apperr.IO("vault: delete folder", err)
	}
	v.untrack(f.name)
	delete(v.folders, id)

	v.logger.Info("vault: folder deleted", slog.Int("folder", id), slog.String("name", f.name))
	v.emit(Event{Kind: EventFolderDeleted, Folder: id, Links: true})
	return nil
}
