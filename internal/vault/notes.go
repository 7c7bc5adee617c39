package vault

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/codec"
	"github.com/starford/inkwell/internal/links"
	"github.com/starford/inkwell/internal/models"
)

const saveMessage = "save"

func (f *folder) hasTitle(title string, self *note) bool {
	for _, n := range f.notes {
		if n != self && n.title == title {
			return true
		}
	}
	return false
}

// CreateNote creates an empty note in folder.
func (v *Vault) CreateNote(folderID int, title string) (models.NoteID, error) {
	if err := validateTitle(title); err != nil {
		return models.NoteID{}, err
	}
	v.lock()
	defer v.unlock()

	f, err := v.folder(folderID)
	if err != nil {
		return models.NoteID{}, err
	}
	if f.hasTitle(title, nil) {
		return models.NoteID{}, fmt.Errorf("note %q: %w", title, apperr.ErrDuplicateName)
	}

	slot := f.nextSlot
	f.nextSlot++
	if err := v.writeFolderMarker(f); err != nil {
		f.nextSlot--
		return models.NoteID{}, err
	}

	now := v.stamp()
	n := &note{
		id:      models.NoteID{Folder: f.id, Slot: slot},
		key:     uuid.NewString(),
		title:   title,
		stem:    v.uniqueStem(f, title, nil),
		blob:    []byte{},
		created: now,
		updated: now,
	}
	if err := v.writeFile(contentPath(f, n.stem), n.blob); err != nil {
		return models.NoteID{}, err
	}
	if err := v.writeSidecar(f, n); err != nil {
		_ = v.deleteFile(contentPath(f, n.stem))
		return models.NoteID{}, err
	}
	f.notes[n.id.Slot] = n
	v.graph.Update(n.id, nil)
	v.graph.Invalidate()

	v.logger.Info("vault: note created", slog.String("note", n.id.String()), slog.String("title", title))
	v.emit(noteEvent(EventNoteCreated, n.id, true))
	return n.id, nil
}

// SaveNote replaces the body of a note and records a version. Encrypted
// notes need the password that opens their current content.
//
// On failure the note keeps its previous body, content and timestamp, and
// the previous content bytes are put back on disk where possible.
func (v *Vault) SaveNote(id models.NoteID, body, password string) error {
	v.lock()
	defer v.unlock()

	f, n, err := v.note(id)
	if err != nil {
		return err
	}
	if err := v.checkPassword(n, password); err != nil {
		return err
	}
	if err := v.commitBody(f, n, body, password, saveMessage); err != nil {
		return err
	}
	v.emit(noteEvent(EventNoteSaved, id, !n.enc))
	return nil
}

// checkPassword verifies that password opens the current content of an encrypted note.
func (v *Vault) checkPassword(n *note, password string) error {
	if !n.enc {
		return nil
	}
	if password == "" {
		return fmt.Errorf("note %s: %w", n.id, apperr.ErrEncryptionRequired)
	}
	if _, err := codec.Decode(n.blob, password); err != nil {
		return fmt.Errorf("note %s: %w", n.id, err)
	}
	return nil
}

// commitBody encodes body under the note's current encryption state, writes
// it and the sidecar, records a version, then updates links. The in-memory
// note only changes once every step succeeded.
func (v *Vault) commitBody(f *folder, n *note, body, password, message string) error {
	pw := ""
	if n.enc {
		pw = password
	}
	data, err := codec.Encode(body, pw)
	if err != nil {
		return err
	}
	path := contentPath(f, n.stem)
	if err := v.writeFile(path, data); err != nil {
		v.restoreContent(f, n)
		return err
	}
	next := *n
	next.updated = v.stamp()
	if err := v.writeSidecar(f, &next); err != nil {
		v.restoreContent(f, n)
		return err
	}
	// The version goes last so a failed save never leaves one behind.
	if _, err := v.history.Record(n.key, data, n.enc, message); err != nil {
		v.restoreContent(f, n)
		if serr := v.writeSidecar(f, n); serr != nil {
			v.logger.Error("vault: restore previous metadata failed",
				slog.String("note", n.id.String()), slog.String("error", serr.Error()))
		}
		return fmt.Errorf("note %s: record version: %w", n.id, err)
	}

	n.blob = data
	n.updated = next.updated
	n.damaged = false
	if n.enc {
		n.body = models.EncryptedPlaceholder
		v.graph.Remove(n.id)
	} else {
		n.body = body
		v.graph.Update(n.id, links.Extract(body))
	}
	return nil
}

// restoreContent puts the last committed bytes of n back on disk.
func (v *Vault) restoreContent(f *folder, n *note) {
	path := contentPath(f, n.stem)
	if n.blob == nil {
		return
	}
	if err := v.writeFile(path, n.blob); err != nil {
		v.logger.Error("vault: restore previous content failed",
			slog.String("path", path), slog.String("error", err.Error()))
	}
}

// RenameNote changes a note's title and moves its files to the matching
// stem. References to the old title in other notes are not rewritten.
func (v *Vault) RenameNote(id models.NoteID, title string) error {
	if err := validateTitle(title); err != nil {
		return err
	}
	v.lock()
	defer v.unlock()

	f, n, err := v.note(id)
	if err != nil {
		return err
	}
	if n.title == title {
		return nil
	}
	if f.hasTitle(title, n) {
		return fmt.Errorf("note %q: %w", title, apperr.ErrDuplicateName)
	}

	stem := v.uniqueStem(f, title, n)
	next := *n
	next.title = title
	next.stem = stem
	if stem != n.stem {
		if err := v.moveNoteFiles(f, n.stem, stem); err != nil {
			return err
		}
	}
	if err := v.writeSidecar(f, &next); err != nil {
		if stem != n.stem {
			if rbErr := v.moveNoteFiles(f, stem, n.stem); rbErr != nil {
				v.logger.Error("vault: rename rollback failed", slog.String("note", id.String()), slog.String("error", rbErr.Error()))
			}
		}
		return err
	}
	old := n.title
	n.title = title
	n.stem = stem
	v.graph.Invalidate()

	v.logger.Info("vault: note renamed", slog.String("note", id.String()), slog.String("from", old), slog.String("to", title))
	v.emit(noteEvent(EventNoteRenamed, id, true))
	return nil
}

func (v *Vault) moveNoteFiles(f *folder, from, to string) error {
	src := contentPath(f, from)
	if ok, _ := v.store.Exists(src); ok {
		if err := v.moveFile(src, contentPath(f, to)); err != nil {
			return err
		}
	}
	if err := v.moveFile(sidecarPath(f, from), sidecarPath(f, to)); err != nil {
		if ok, _ := v.store.Exists(contentPath(f, to)); ok {
			_ = v.moveFile(contentPath(f, to), src)
		}
		return err
	}
	return nil
}

// DeleteNote removes a note, its files and its history.
func (v *Vault) DeleteNote(id models.NoteID) error {
	v.lock()
	defer v.unlock()

	f, n, err := v.note(id)
	if err != nil {
		return err
	}
	return v.deleteNote(f, n)
}

func (v *Vault) deleteNote(f *folder, n *note) error {
	if err := v.deleteFile(contentPath(f, n.stem)); err != nil {
		return err
	}
	if err := v.deleteFile(sidecarPath(f, n.stem)); err != nil {
		// The content is gone; put it back so the note stays whole.
		v.restoreContent(f, n)
		return err
	}
	delete(f.notes, n.id.Slot)
	v.graph.Remove(n.id)
	v.graph.Invalidate()

	var herr error
	if v.archive {
		herr = v.history.Archive(n.key)
	} else {
		herr = v.history.Discard(n.key)
	}
	if herr != nil {
		v.logger.Warn("vault: drop history failed", slog.String("note", n.id.String()), slog.String("error", herr.Error()))
	}

	v.logger.Info("vault: note deleted", slog.String("note", n.id.String()), slog.String("title", n.title))
	v.emit(noteEvent(EventNoteDeleted, n.id, true))
	return nil
}

// SetTags replaces the tags of a note. Every id must name an existing tag.
func (v *Vault) SetTags(id models.NoteID, tags []int) error {
	v.lock()
	defer v.unlock()

	f, n, err := v.note(id)
	if err != nil {
		return err
	}
	for _, t := range tags {
		if _, ok := v.tags[t]; !ok {
			return fmt.Errorf("tag %d: %w", t, apperr.ErrNotFound)
		}
	}
	next := *n
	next.tags = normalizeTags(tags)
	if err := v.writeSidecar(f, &next); err != nil {
		return err
	}
	n.tags = next.tags
	v.emit(noteEvent(EventNoteUpdated, id, false))
	return nil
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (v *Vault) ToggleFavorite(id models.NoteID) (bool, error) {
	v.lock()
	defer v.unlock()

	f, n, err := v.note(id)
	if err != nil {
		return false, err
	}
	next := *n
	next.fav = !n.fav
	if err := v.writeSidecar(f, &next); err != nil {
		return n.fav, err
	}
	n.fav = next.fav
	v.emit(noteEvent(EventNoteUpdated, id, false))
	return n.fav, nil
}

// resolver exposes title lookup to the link graph. It runs under the vault lock.
type resolver struct{ v *Vault }

// Resolve returns the first note titled title in folder-slot, then
// note-slot order.
func (r resolver) Resolve(title string) (models.NoteID, bool) {
	for _, f := range r.v.sortedFolders() {
		for _, n := range f.sortedNotes() {
			if n.title == title {
				return n.id, true
			}
		}
	}
	return models.NoteID{}, false
}

func (r resolver) Title(id models.NoteID) (string, bool) {
	_, n, err := r.v.note(id)
	if err != nil {
		return "", false
	}
	return n.title, true
}
