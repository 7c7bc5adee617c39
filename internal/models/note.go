// Package models defines the domain types for Inkwell.
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EncryptedPlaceholder stands in for the body of an encrypted note. The ciphertext is authoritative.
const EncryptedPlaceholder = "«encrypted»"

// NoteID identifies a note by its folder slot and its slot inside that folder.
// Slots are never reused or renumbered while the note lives.
type NoteID struct {
	Folder int `json:"folder" yaml:"folder"`
	Slot   int `json:"slot" yaml:"slot"`
}

func (id NoteID) String() string {
	return fmt.Sprintf("%d:%d", id.Folder, id.Slot)
}

// Less orders ids folder-first, then by slot (insertion order).
func (id NoteID) Less(other NoteID) bool {
	if id.Folder != other.Folder {
		return id.Folder < other.Folder
	}
	return id.Slot < other.Slot
}

// ParseNoteID parses the "folder:slot" form produced by String.
func ParseNoteID(s string) (NoteID, error) {
	f, n, ok := strings.Cut(s, ":")
	if !ok {
		return NoteID{}, fmt.Errorf("note id %q: missing ':'", s)
	}
	folder, err := strconv.Atoi(f)
	if err != nil || folder < 0 {
		return NoteID{}, fmt.Errorf("note id %q: bad folder slot", s)
	}
	slot, err := strconv.Atoi(n)
	if err != nil || slot < 0 {
		return NoteID{}, fmt.Errorf("note id %q: bad note slot", s)
	}
	return NoteID{Folder: folder, Slot: slot}, nil
}

// Note is a read-only snapshot of a note's state.
type Note struct {
	ID        NoteID    `json:"id"`
	Key       string    `json:"key"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Created   time.Time `json:"created"`
	Updated   time.Time `json:"updated"`
	Tags      []int     `json:"tags"`
	Favorite  bool      `json:"favorite"`
	Encrypted bool      `json:"encrypted"`
	Damaged   bool      `json:"damaged,omitempty"`
}

// Folder is a read-only snapshot of a folder.
type Folder struct {
	ID    int      `json:"id"`
	Name  string   `json:"name"`
	Notes []NoteID `json:"notes"`
}

// Color is an RGB display color.
type Color struct {
	R uint8 `json:"r" yaml:"r"`
	G uint8 `json:"g" yaml:"g"`
	B uint8 `json:"b" yaml:"b"`
}

// IsZero reports whether no color was chosen.
func (c Color) IsZero() bool {
	return c == Color{}
}

// Hex renders the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Tag is an entry in the global tag table.
type Tag struct {
	ID    int    `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Color Color  `json:"color" yaml:"color"`
}

// Version describes one recorded snapshot of a note's encoded content.
type Version struct {
	Seq       int64     `json:"seq"`
	Created   time.Time `json:"created"`
	Message   string    `json:"message"`
	Encrypted bool      `json:"encrypted"`
	Checksum  string    `json:"checksum"`
	Size      int       `json:"size"`
}

// Link is a resolved directed edge between two notes.
type Link struct {
	Source NoteID `json:"source"`
	Target NoteID `json:"target"`
}

// VersionDiff summarizes the line changes between two versions of a note.
type VersionDiff struct {
	From       int64  `json:"from"`
	To         int64  `json:"to"`
	Insertions int    `json:"insertions"`
	Deletions  int    `json:"deletions"`
	Patch      string `json:"patch"`
}
