package api

import (
	"bytes"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/starford/inkwell/internal/links"
	"github.com/starford/inkwell/internal/models"
)

var mdRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

func noteID(w http.ResponseWriter, r *http.Request) (models.NoteID, bool) {
	folder, ok := intParam(w, r, "folder")
	if !ok {
		return models.NoteID{}, false
	}
	slot, ok := intParam(w, r, "slot")
	if !ok {
		return models.NoteID{}, false
	}
	return models.NoteID{Folder: folder, Slot: slot}, true
}

func (h *Handler) detail(id models.NoteID, password string) (NoteDetail, error) {
	n, err := h.v.Note(id)
	if err != nil {
		return NoteDetail{}, err
	}
	if n.Encrypted && password != "" {
		body, err := h.v.Body(id, password)
		if err != nil {
			return NoteDetail{}, err
		}
		n.Body = body
	}
	backlinks, err := h.v.Backlinks(id)
	if err != nil {
		return NoteDetail{}, err
	}
	unresolved, err := h.v.UnresolvedLinks(id)
	if err != nil {
		return NoteDetail{}, err
	}
	return NoteDetail{Note: n, Backlinks: emptyIfNil(backlinks), Unresolved: emptyIfNil(unresolved)}, nil
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes, optionally filtered by tag or favorite flag
//	@Tags			notes
//	@Produce		json
//	@Param			tag			query		int		false	"Filter by tag id"
//	@Param			favorite	query		bool	false	"Only favorites"
//	@Success		200			{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var notes []models.Note
	switch {
	case q.Get("tag") != "":
		tag, err := strconv.Atoi(q.Get("tag"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid tag"))
			return
		}
		notes, err = h.v.NotesWithTag(tag)
		if err != nil {
			writeError(w, "list notes", err)
			return
		}
	case q.Get("favorite") == "true":
		notes = h.v.Favorites()
	default:
		notes = h.v.Notes()
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: emptyIfNil(notes), Total: len(notes)})
}

// CreateNote handles POST /api/folders/{folder}/notes.
//
//	@Summary		Create an empty note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			folder	path		int					true	"Folder slot"
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/folders/{folder}/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	folder, ok := intParam(w, r, "folder")
	if !ok {
		return
	}
	var req CreateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := h.v.CreateNote(folder, req.Title)
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	d, err := h.detail(id, "")
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// GetNote handles GET /api/notes/{folder}/{slot}. Encrypted bodies are
// decrypted when the X-Note-Password header is set.
//
//	@Summary		Get a note with its backlinks
//	@Tags			notes
//	@Produce		json
//	@Param			folder				path		int		true	"Folder slot"
//	@Param			slot				path		int		true	"Note slot"
//	@Param			X-Note-Password		header		string	false	"Password of an encrypted note"
//	@Success		200					{object}	NoteDetail
//	@Failure		403					{object}	errResponse
//	@Failure		404					{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{folder}/{slot} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	d, err := h.detail(id, r.Header.Get(passwordHeader))
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// SaveNote handles PUT /api/notes/{folder}/{slot}.
//
//	@Summary		Replace a note's body and record a version
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			folder	path		int				true	"Folder slot"
//	@Param			slot	path		int				true	"Note slot"
//	@Param			body	body		SaveNoteRequest	true	"New content"
//	@Success		200		{object}	NoteDetail
//	@Failure		403		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		428		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{folder}/{slot} [put]
func (h *Handler) SaveNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	var req SaveNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Password == "" {
		req.Password = r.Header.Get(passwordHeader)
	}
	if err := h.v.SaveNote(id, req.Body, req.Password); err != nil {
		writeError(w, "save note", err)
		return
	}
	d, err := h.detail(id, req.Password)
	if err != nil {
		writeError(w, "save note", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// RenameNote handles PATCH /api/notes/{folder}/{slot}.
func (h *Handler) RenameNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	var req RenameNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.v.RenameNote(id, req.Title); err != nil {
		writeError(w, "rename note", err)
		return
	}
	d, err := h.detail(id, "")
	if err != nil {
		writeError(w, "rename note", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// DeleteNote handles DELETE /api/notes/{folder}/{slot}.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	if err := h.v.DeleteNote(id); err != nil {
		writeError(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetTags handles PUT /api/notes/{folder}/{slot}/tags.
func (h *Handler) SetTags(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	var req SetTagsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.v.SetTags(id, req.Tags); err != nil {
		writeError(w, "set tags", err)
		return
	}
	n, err := h.v.Note(id)
	if err != nil {
		writeError(w, "set tags", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// ToggleFavorite handles POST /api/notes/{folder}/{slot}/favorite.
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	fav, err := h.v.ToggleFavorite(id)
	if err != nil {
		writeError(w, "toggle favorite", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"favorite": fav})
}

// SetEncryption handles POST /api/notes/{folder}/{slot}/encryption.
func (h *Handler) SetEncryption(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	var req EncryptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.v.SetEncryption(id, req.Enabled, req.Password); err != nil {
		writeError(w, "set encryption", err)
		return
	}
	n, err := h.v.Note(id)
	if err != nil {
		writeError(w, "set encryption", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// ListVersions handles GET /api/notes/{folder}/{slot}/versions.
func (h *Handler) ListVersions(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	versions, err := h.v.Versions(id)
	if err != nil {
		writeError(w, "list versions", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"versions": emptyIfNil(versions)})
}

func seqParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	seq, err := strconv.ParseInt(chi.URLParam(r, "seq"), 10, 64)
	if err != nil || seq < 1 {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid seq"))
		return 0, false
	}
	return seq, true
}

// GetVersion handles GET /api/notes/{folder}/{slot}/versions/{seq}.
func (h *Handler) GetVersion(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	seq, ok := seqParam(w, r)
	if !ok {
		return
	}
	body, ver, err := h.v.VersionContent(id, seq, r.Header.Get(passwordHeader))
	if err != nil {
		writeError(w, "get version", err)
		return
	}
	writeJSON(w, http.StatusOK, VersionResponse{Version: ver, Body: body})
}

// DiffVersions handles GET /api/notes/{folder}/{slot}/versions/{seq}/diff/{to}.
func (h *Handler) DiffVersions(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	from, ok := seqParam(w, r)
	if !ok {
		return
	}
	to, err := strconv.ParseInt(chi.URLParam(r, "to"), 10, 64)
	if err != nil || to < 1 {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid seq"))
		return
	}
	d, err := h.v.DiffVersions(id, from, to, r.Header.Get(passwordHeader))
	if err != nil {
		writeError(w, "diff versions", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// RestoreVersion handles POST /api/notes/{folder}/{slot}/versions/{seq}/restore.
//
//	@Summary		Restore an old version as a new version
//	@Tags			versions
//	@Accept			json
//	@Produce		json
//	@Param			folder	path		int				true	"Folder slot"
//	@Param			slot	path		int				true	"Note slot"
//	@Param			seq		path		int				true	"Version sequence number"
//	@Param			body	body		PasswordRequest	false	"Password when encryption is involved"
//	@Success		200		{object}	NoteDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{folder}/{slot}/versions/{seq}/restore [post]
func (h *Handler) RestoreVersion(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	seq, ok := seqParam(w, r)
	if !ok {
		return
	}
	var req PasswordRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	if req.Password == "" {
		req.Password = r.Header.Get(passwordHeader)
	}
	if err := h.v.RestoreVersion(id, seq, req.Password); err != nil {
		writeError(w, "restore version", err)
		return
	}
	d, err := h.detail(id, req.Password)
	if err != nil {
		writeError(w, "restore version", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Links handles GET /api/notes/{folder}/{slot}/links.
func (h *Handler) Links(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	backlinks, err := h.v.Backlinks(id)
	if err != nil {
		writeError(w, "links", err)
		return
	}
	outgoing, err := h.v.OutgoingLinks(id)
	if err != nil {
		writeError(w, "links", err)
		return
	}
	unresolved, err := h.v.UnresolvedLinks(id)
	if err != nil {
		writeError(w, "links", err)
		return
	}
	writeJSON(w, http.StatusOK, LinksResponse{
		Backlinks:  emptyIfNil(backlinks),
		Outgoing:   emptyIfNil(outgoing),
		Unresolved: emptyIfNil(unresolved),
	})
}

// Preview handles GET /api/notes/{folder}/{slot}/html: the body rendered as
// HTML. Resolvable references become links, unresolved ones are emphasized.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	body, err := h.v.Body(id, r.Header.Get(passwordHeader))
	if err != nil {
		writeError(w, "preview", err)
		return
	}
	body = links.ReplaceMarkers(body, func(target, label string) string {
		dst, ok := h.v.ResolveTitle(target)
		if !ok {
			return "*" + label + "*"
		}
		href := "/api/notes/" + strconv.Itoa(dst.Folder) + "/" + strconv.Itoa(dst.Slot) + "/html"
		return "[" + label + "](" + (&url.URL{Path: href}).EscapedPath() + ")"
	})
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(body), &buf); err != nil {
		writeError(w, "preview", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
