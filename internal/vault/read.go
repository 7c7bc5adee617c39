package vault

import (
	"fmt"
	"sort"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/codec"
	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/search"
)

func (v *Vault) sortedFolders() []*folder {
	out := make([]*folder, 0, len(v.folders))
	for _, f := range v.folders {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func (f *folder) sortedNotes() []*note {
	out := make([]*note, 0, len(f.notes))
	for _, n := range f.notes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id.Slot < out[j].id.Slot })
	return out
}

func (v *Vault) folder(id int) (*folder, error) {
	f, ok := v.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder %d: %w", id, apperr.ErrNotFound)
	}
	return f, nil
}

func (v *Vault) note(id models.NoteID) (*folder, *note, error) {
	f, ok := v.folders[id.Folder]
	if !ok {
		return nil, nil, fmt.Errorf("note %s: %w", id, apperr.ErrNotFound)
	}
	n, ok := f.notes[id.Slot]
	if !ok {
		return nil, nil, fmt.Errorf("note %s: %w", id, apperr.ErrNotFound)
	}
	return f, n, nil
}

func (f *folder) snapshot() models.Folder {
	ids := make([]models.NoteID, 0, len(f.notes))
	for _, n := range f.sortedNotes() {
		ids = append(ids, n.id)
	}
	return models.Folder{ID: f.id, Name: f.name, Notes: ids}
}

func (n *note) snapshot() models.Note {
	var tags []int
	if len(n.tags) > 0 {
		tags = append([]int(nil), n.tags...)
	}
	return models.Note{
		ID:        n.id,
		Key:       n.key,
		Title:     n.title,
		Body:      n.body,
		Created:   n.created,
		Updated:   n.updated,
		Tags:      tags,
		Favorite:  n.fav,
		Encrypted: n.enc,
		Damaged:   n.damaged,
	}
}

// Folders returns every folder in slot order.
func (v *Vault) Folders() []models.Folder {
	v.lock()
	defer v.unlock()
	out := make([]models.Folder, 0, len(v.folders))
	for _, f := range v.sortedFolders() {
		out = append(out, f.snapshot())
	}
	return out
}

// Folder returns one folder.
func (v *Vault) Folder(id int) (models.Folder, error) {
	v.lock()
	defer v.unlock()
	f, err := v.folder(id)
	if err != nil {
		return models.Folder{}, err
	}
	return f.snapshot(), nil
}

// Notes returns every note in folder-then-slot order. Encrypted bodies are placeholders.
func (v *Vault) Notes() []models.Note {
	v.lock()
	defer v.unlock()
	return v.collect(func(*note) bool { return true })
}

func (v *Vault) collect(keep func(*note) bool) []models.Note {
	var out []models.Note
	for _, f := range v.sortedFolders() {
		for _, n := range f.sortedNotes() {
			if keep(n) {
				out = append(out, n.snapshot())
			}
		}
	}
	return out
}

// Note returns a snapshot of one note.
func (v *Vault) Note(id models.NoteID) (models.Note, error) {
	v.lock()
	defer v.unlock()
	_, n, err := v.note(id)
	if err != nil {
		return models.Note{}, err
	}
	return n.snapshot(), nil
}

// Body returns the plaintext body of a note, decrypting it with password
// when the note is encrypted.
func (v *Vault) Body(id models.NoteID, password string) (string, error) {
	v.lock()
	defer v.unlock()
	_, n, err := v.note(id)
	if err != nil {
		return "", err
	}
	if !n.enc {
		return n.body, nil
	}
	if password == "" {
		return "", fmt.Errorf("note %s: %w", id, apperr.ErrEncryptionRequired)
	}
	return codec.Decode(n.blob, password)
}

// Favorites returns the favorite notes in folder-then-slot order.
func (v *Vault) Favorites() []models.Note {
	v.lock()
	defer v.unlock()
	return v.collect(func(n *note) bool { return n.fav })
}

// Search ranks notes by fuzzy match of query against titles and plaintext bodies.
func (v *Vault) Search(query string) []search.Result {
	v.lock()
	defer v.unlock()
	var docs []search.Document
	for _, f := range v.sortedFolders() {
		for _, n := range f.sortedNotes() {
			docs = append(docs, search.Document{ID: n.id, Title: n.title, Body: n.body, Encrypted: n.enc})
		}
	}
	return search.Search(query, docs)
}
