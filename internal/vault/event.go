package vault

import "github.com/starford/inkwell/internal/models"

// EventKind names a vault change.
type EventKind string

const (
	EventNoteCreated   EventKind = "note.created"
	EventNoteSaved     EventKind = "note.saved"
	EventNoteRenamed   EventKind = "note.renamed"
	EventNoteDeleted   EventKind = "note.deleted"
	EventNoteUpdated   EventKind = "note.updated"
	EventFolderCreated EventKind = "folder.created"
	EventFolderRenamed EventKind = "folder.renamed"
	EventFolderDeleted EventKind = "folder.deleted"
	EventTagChanged    EventKind = "tag.changed"
	EventReloaded      EventKind = "vault.reloaded"
)

// Event describes a committed mutation.
type Event struct {
	Kind   EventKind     `json:"kind"`
	Note   models.NoteID `json:"note"`
	Folder int           `json:"folder"`
	Tag    int           `json:"tag,omitempty"`
	// Links is set when the change may alter backlinks or unresolved links.
	Links bool `json:"-"`
}

func noteEvent(kind EventKind, id models.NoteID, linksChanged bool) Event {
	return Event{Kind: kind, Note: id, Folder: id.Folder, Links: linksChanged}
}
