package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/starford/inkwell/internal/storage"
)

const (
	attachDir      = ".attachments"
	maxUploadBytes = 50 << 20 // 50 MB
)

// AttachmentHandler serves and accepts attachment files. Attachments live in
// a hidden directory so the vault scanner never treats them as notes.
type AttachmentHandler struct {
	store storage.Provider
}

// NewAttachmentHandler creates a handler writing through store.
func NewAttachmentHandler(store storage.Provider) *AttachmentHandler {
	return &AttachmentHandler{store: store}
}

// safeName accepts only plain file names and returns the vault-relative path.
func safeName(name string) (string, error) {
	if name == "" {
		return "", errors.New("filename is required")
	}
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return "", errors.New("invalid filename: " + name)
	}
	return filepath.Join(attachDir, name), nil
}

// ServeFile handles GET /attachments/{filename}.
func (h *AttachmentHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	rel, err := safeName(chi.URLParam(r, "filename"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ok, err := h.store.Exists(rel)
	if err != nil || !ok {
		http.NotFound(w, r)
		return
	}
	data, err := h.store.Read(rel)
	if err != nil {
		http.Error(w, "read failed", http.StatusInternalServerError)
		return
	}
	http.ServeContent(w, r, filepath.Base(rel), time.Time{}, bytes.NewReader(data))
}

// Upload handles POST /api/attachments (multipart/form-data, field "file").
// The stored name is a fresh uuid carrying the uploaded extension.
//
//	@Summary		Upload an attachment
//	@Tags			attachments
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"File to upload"
//	@Success		201		{object}	AttachmentUploadResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/attachments [post]
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read upload"))
		return
	}

	name := uuid.NewString() + strings.ToLower(path.Ext(header.Filename))
	if err := h.store.Write(filepath.Join(attachDir, name), data); err != nil {
		writeError(w, "upload attachment", err)
		return
	}

	url := "/attachments/" + name
	label := strings.TrimSuffix(filepath.Base(header.Filename), path.Ext(header.Filename))
	writeJSON(w, http.StatusCreated, AttachmentUploadResponse{
		Filename: name,
		Size:     int64(len(data)),
		URL:      url,
		Markdown: "![" + label + "](" + url + ")",
	})
}
