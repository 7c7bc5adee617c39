package api

import (
	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/search"
)

// passwordHeader carries the note password on requests without a JSON body.
const passwordHeader = "X-Note-Password"

// NameRequest is the body for creating or renaming a folder.
type NameRequest struct {
	Name string `json:"name" example:"Work" validate:"required"`
}

// CreateNoteRequest is the body for creating a note.
type CreateNoteRequest struct {
	Title string `json:"title" example:"Plan" validate:"required"`
}

// SaveNoteRequest is the body for replacing a note's content.
type SaveNoteRequest struct {
	Body     string `json:"body" example:"refers to [[Budget]]"`
	Password string `json:"password,omitempty"`
}

// RenameNoteRequest is the body for renaming a note.
type RenameNoteRequest struct {
	Title string `json:"title" example:"Plan 2026" validate:"required"`
}

// SetTagsRequest is the body for replacing a note's tags.
type SetTagsRequest struct {
	Tags []int `json:"tags"`
}

// EncryptionRequest toggles encryption on a note.
type EncryptionRequest struct {
	Enabled  bool   `json:"enabled"`
	Password string `json:"password" validate:"required"`
}

// PasswordRequest carries only a password.
type PasswordRequest struct {
	Password string `json:"password,omitempty"`
}

// TagRequest is the body for creating or changing a tag.
type TagRequest struct {
	Name  string       `json:"name" example:"urgent" validate:"required"`
	Color models.Color `json:"color"`
}

// NoteDetail is a note together with its link views.
type NoteDetail struct {
	models.Note
	Backlinks  []models.NoteID `json:"backlinks"`
	Unresolved []string        `json:"unresolved"`
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []search.Result `json:"results" validate:"required"`
}

// LinksResponse lists a note's links in both directions.
type LinksResponse struct {
	Backlinks  []models.NoteID `json:"backlinks"`
	Outgoing   []models.NoteID `json:"outgoing"`
	Unresolved []string        `json:"unresolved"`
}

// VersionResponse is one version with its decoded body.
type VersionResponse struct {
	Version models.Version `json:"version"`
	Body    string         `json:"body"`
}

// GraphNode is a node in the note graph.
type GraphNode struct {
	ID    string `json:"id" example:"0:1" validate:"required"`
	Title string `json:"title,omitempty" example:"Plan"`
}

// GraphLink is an edge in the note graph.
type GraphLink struct {
	Source string `json:"source" example:"0:1" validate:"required"`
	Target string `json:"target" example:"0:2" validate:"required"`
}

// GraphResponse wraps the note graph.
type GraphResponse struct {
	Nodes []GraphNode `json:"nodes" validate:"required"`
	Links []GraphLink `json:"links" validate:"required"`
}

// AttachmentUploadResponse is returned after a successful attachment upload.
type AttachmentUploadResponse struct {
	Filename string `json:"filename" example:"3f2c9a.png" validate:"required"`
	Size     int64  `json:"size" example:"12345" validate:"required"`
	URL      string `json:"url" example:"/attachments/3f2c9a.png" validate:"required"`
	Markdown string `json:"markdown" example:"![diagram](/attachments/3f2c9a.png)"`
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
