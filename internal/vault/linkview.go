package vault

import "github.com/starford/inkwell/internal/models"

// Backlinks returns the notes that reference id, in folder-then-slot order.
func (v *Vault) Backlinks(id models.NoteID) ([]models.NoteID, error) {
	v.lock()
	defer v.unlock()
	if _, _, err := v.note(id); err != nil {
		return nil, err
	}
	return v.graph.Backlinks(id), nil
}

// UnresolvedLinks returns the titles id references that match no note.
func (v *Vault) UnresolvedLinks(id models.NoteID) ([]string, error) {
	v.lock()
	defer v.unlock()
	if _, _, err := v.note(id); err != nil {
		return nil, err
	}
	return v.graph.Unresolved(id), nil
}

// OutgoingLinks returns the notes id references, in reference order.
func (v *Vault) OutgoingLinks(id models.NoteID) ([]models.NoteID, error) {
	v.lock()
	defer v.unlock()
	if _, _, err := v.note(id); err != nil {
		return nil, err
	}
	return v.graph.Outgoing(id), nil
}

// Graph returns every resolved link in the vault.
func (v *Vault) Graph() []models.Link {
	v.lock()
	defer v.unlock()
	return v.graph.Edges()
}

// ResolveTitle returns the note a reference to title points at.
func (v *Vault) ResolveTitle(title string) (models.NoteID, bool) {
	v.lock()
	defer v.unlock()
	return resolver{v}.Resolve(title)
}
