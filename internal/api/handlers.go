package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/search"
	"github.com/starford/inkwell/internal/vault"
)

// Handler holds API route handlers.
type Handler struct {
	v *vault.Vault
}

// NewHandler creates a new Handler.
func NewHandler(v *vault.Vault) *Handler {
	return &Handler{v: v}
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || n < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid "+name))
		return 0, false
	}
	return n, true
}

// ListFolders handles GET /api/folders.
//
//	@Summary		List folders with their notes
//	@Tags			folders
//	@Produce		json
//	@Success		200	{array}	models.Folder
//	@Security		BearerAuth
//	@Router			/folders [get]
func (h *Handler) ListFolders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, emptyIfNil(h.v.Folders()))
}

// CreateFolder handles POST /api/folders.
//
//	@Summary		Create a folder
//	@Tags			folders
//	@Accept			json
//	@Produce		json
//	@Param			body	body		NameRequest	true	"Folder to create"
//	@Success		201		{object}	models.Folder
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/folders [post]
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := h.v.CreateFolder(req.Name)
	if err != nil {
		writeError(w, "create folder", err)
		return
	}
	f, err := h.v.Folder(id)
	if err != nil {
		writeError(w, "create folder", err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// RenameFolder handles PATCH /api/folders/{folder}.
func (h *Handler) RenameFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "folder")
	if !ok {
		return
	}
	var req NameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.v.RenameFolder(id, req.Name); err != nil {
		writeError(w, "rename folder", err)
		return
	}
	f, err := h.v.Folder(id)
	if err != nil {
		writeError(w, "rename folder", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// DeleteFolder handles DELETE /api/folders/{folder}. Notes inside are deleted too.
func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "folder")
	if !ok {
		return
	}
	if err := h.v.DeleteFolder(id); err != nil {
		writeError(w, "delete folder", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTags handles GET /api/tags.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.v.Tags())
}

// CreateTag handles POST /api/tags. A zero color is replaced by a random one.
//
//	@Summary		Create a tag
//	@Tags			tags
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TagRequest	true	"Tag to create"
//	@Success		201		{object}	models.Tag
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tags [post]
func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := h.v.CreateTag(req.Name, req.Color)
	if err != nil {
		writeError(w, "create tag", err)
		return
	}
	for _, t := range h.v.Tags() {
		if t.ID == id {
			writeJSON(w, http.StatusCreated, t)
			return
		}
	}
	writeJSON(w, http.StatusCreated, models.Tag{ID: id, Name: req.Name, Color: req.Color})
}

// UpdateTag handles PATCH /api/tags/{tag}.
func (h *Handler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "tag")
	if !ok {
		return
	}
	var req TagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.v.RenameTag(id, req.Name, req.Color); err != nil {
		writeError(w, "update tag", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTag handles DELETE /api/tags/{tag}. The tag is stripped from every note.
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "tag")
	if !ok {
		return
	}
	if err := h.v.RemoveTag(id); err != nil {
		writeError(w, "delete tag", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary		Fuzzy search over titles and bodies
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	results := h.v.Search(q)
	if limit, _ := strconv.Atoi(r.URL.Query().Get("limit")); limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: emptyIfNil[search.Result](results)})
}

// Graph handles GET /api/graph.
//
//	@Summary		Get the note graph
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	GraphResponse
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	notes := h.v.Notes()
	resp := GraphResponse{
		Nodes: make([]GraphNode, 0, len(notes)),
		Links: []GraphLink{},
	}
	for _, n := range notes {
		resp.Nodes = append(resp.Nodes, GraphNode{ID: n.ID.String(), Title: n.Title})
	}
	for _, l := range h.v.Graph() {
		resp.Links = append(resp.Links, GraphLink{Source: l.Source.String(), Target: l.Target.String()})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Diagnostics handles GET /api/diagnostics: problems found while loading the vault.
func (h *Handler) Diagnostics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, emptyIfNil(h.v.Diagnostics()))
}
