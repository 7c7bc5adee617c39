package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/inkwell/internal/storage"
	"github.com/starford/inkwell/internal/vault"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(v *vault.Vault, authEnabled bool, token string, sseHandler http.Handler, store storage.Provider) chi.Router {
	h := NewHandler(v)
	ah := NewAttachmentHandler(store)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/folders", func(r chi.Router) {
		r.Get("/", h.ListFolders)
		r.Post("/", h.CreateFolder)
		r.Patch("/{folder}", h.RenameFolder)
		r.Delete("/{folder}", h.DeleteFolder)
		r.Post("/{folder}/notes", h.CreateNote)
	})

	r.Get("/notes", h.ListNotes)
	r.Route("/notes/{folder}/{slot}", func(r chi.Router) {
		r.Get("/", h.GetNote)
		r.Put("/", h.SaveNote)
		r.Patch("/", h.RenameNote)
		r.Delete("/", h.DeleteNote)
		r.Get("/html", h.Preview)
		r.Get("/links", h.Links)
		r.Put("/tags", h.SetTags)
		r.Post("/favorite", h.ToggleFavorite)
		r.Post("/encryption", h.SetEncryption)
		r.Get("/versions", h.ListVersions)
		r.Get("/versions/{seq}", h.GetVersion)
		r.Get("/versions/{seq}/diff/{to}", h.DiffVersions)
		r.Post("/versions/{seq}/restore", h.RestoreVersion)
	})

	r.Route("/tags", func(r chi.Router) {
		r.Get("/", h.ListTags)
		r.Post("/", h.CreateTag)
		r.Patch("/{tag}", h.UpdateTag)
		r.Delete("/{tag}", h.DeleteTag)
	})

	r.Get("/search", h.Search)
	r.Get("/graph", h.Graph)
	r.Get("/diagnostics", h.Diagnostics)

	// Attachments upload (auth-protected).
	r.Post("/attachments", ah.Upload)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
