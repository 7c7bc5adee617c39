package vault

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/models"
)

func (v *Vault) tagList() []models.Tag {
	out := make([]models.Tag, 0, len(v.tags))
	for _, t := range v.tags {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v *Vault) tagByName(name string) *models.Tag {
	for _, t := range v.tags {
		if t.Name == name {
			return t
		}
	}
	return nil
}

func randomColor() models.Color {
	channel := func() uint8 { return uint8(50 + rand.IntN(150)) }
	return models.Color{R: channel(), G: channel(), B: channel()}
}

// Tags returns the tag table in id order.
func (v *Vault) Tags() []models.Tag {
	v.lock()
	defer v.unlock()
	return v.tagList()
}

// CreateTag adds a tag. A zero color is replaced by a random one.
func (v *Vault) CreateTag(name string, color models.Color) (int, error) {
	if err := validateTagName(name); err != nil {
		return 0, err
	}
	v.lock()
	defer v.unlock()

	if v.tagByName(name) != nil {
		return 0, fmt.Errorf("tag %q: %w", name, apperr.ErrDuplicateName)
	}
	if color.IsZero() {
		color = randomColor()
	}
	t := &models.Tag{ID: v.nextTag, Name: name, Color: color}
	v.tags[t.ID] = t
	v.nextTag++
	if err := v.writeTagTable(); err != nil {
		delete(v.tags, t.ID)
		v.nextTag--
		return 0, err
	}
	v.emit(Event{Kind: EventTagChanged, Tag: t.ID})
	return t.ID, nil
}

// RenameTag renames a tag and, when color is not zero, recolors it.
func (v *Vault) RenameTag(id int, name string, color models.Color) error {
	if err := validateTagName(name); err != nil {
		return err
	}
	v.lock()
	defer v.unlock()

	t, ok := v.tags[id]
	if !ok {
		return fmt.Errorf("tag %d: %w", id, apperr.ErrNotFound)
	}
	if other := v.tagByName(name); other != nil && other.ID != id {
		return fmt.Errorf("tag %q: %w", name, apperr.ErrDuplicateName)
	}
	prev := *t
	t.Name = name
	if !color.IsZero() {
		t.Color = color
	}
	if err := v.writeTagTable(); err != nil {
		*t = prev
		return err
	}
	v.emit(Event{Kind: EventTagChanged, Tag: id})
	return nil
}

// RemoveTag deletes a tag and strips it from every note that carries it.
func (v *Vault) RemoveTag(id int) error {
	v.lock()
	defer v.unlock()

	t, ok := v.tags[id]
	if !ok {
		return fmt.Errorf("tag %d: %w", id, apperr.ErrNotFound)
	}
	for _, f := range v.sortedFolders() {
		for _, n := range f.sortedNotes() {
			kept := without(n.tags, id)
			if len(kept) == len(n.tags) {
				continue
			}
			next := *n
			next.tags = kept
			if err := v.writeSidecar(f, &next); err != nil {
				return fmt.Errorf("remove tag %q: %w", t.Name, err)
			}
			n.tags = kept
			v.emit(noteEvent(EventNoteUpdated, n.id, false))
		}
	}
	delete(v.tags, id)
	if err := v.writeTagTable(); err != nil {
		v.tags[id] = t
		return err
	}
	v.logger.Info("vault: tag removed", slog.Int("tag", id), slog.String("name", t.Name))
	v.emit(Event{Kind: EventTagChanged, Tag: id})
	return nil
}

func without(ids []int, id int) []int {
	var out []int
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

// NotesWithTag returns the notes carrying tag id.
func (v *Vault) NotesWithTag(id int) ([]models.Note, error) {
	v.lock()
	defer v.unlock()
	if _, ok := v.tags[id]; !ok {
		return nil, fmt.Errorf("tag %d: %w", id, apperr.ErrNotFound)
	}
	return v.collect(func(n *note) bool {
		for _, t := range n.tags {
			if t == id {
				return true
			}
		}
		return false
	}), nil
}
