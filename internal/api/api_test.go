package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/storage"
	"github.com/starford/inkwell/internal/testutil"
	"github.com/starford/inkwell/internal/vault"
)

// testEnv sets up a temp vault and router for testing. An empty token
// disables auth.
func testEnv(t *testing.T, authToken string) (*vault.Vault, http.Handler) {
	t.Helper()
	v, router, _ := testEnvWithVault(t, authToken != "", authToken)
	return v, router
}

func testEnvWithVault(t *testing.T, authEnabled bool, authToken string) (*vault.Vault, http.Handler, string) {
	t.Helper()

	vaultDir, store := testutil.TestVault(t)
	v, err := vault.Open(vaultDir, vault.WithStorage(store), vault.WithHistory(testutil.TestHistory(t)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	router := NewRouter(v, authEnabled, authToken, nil, store)
	return v, router, vaultDir
}

// do sends a request with an optional JSON body and returns the recorder.
func do(router http.Handler, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, rd)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createFolder(t *testing.T, router http.Handler, name string) models.Folder {
	t.Helper()
	w := do(router, http.MethodPost, "/folders", NameRequest{Name: name})
	if w.Code != http.StatusCreated {
		t.Fatalf("create folder = %d, body = %s", w.Code, w.Body.String())
	}
	var f models.Folder
	_ = json.Unmarshal(w.Body.Bytes(), &f)
	return f
}

func createNote(t *testing.T, router http.Handler, folder int, title, body string) models.NoteID {
	t.Helper()
	w := do(router, http.MethodPost, "/folders/"+itoa(folder)+"/notes", CreateNoteRequest{Title: title})
	if w.Code != http.StatusCreated {
		t.Fatalf("create note = %d, body = %s", w.Code, w.Body.String())
	}
	var d NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &d)
	if body != "" {
		w = do(router, http.MethodPut, notePath(d.ID), SaveNoteRequest{Body: body})
		if w.Code != http.StatusOK {
			t.Fatalf("save note = %d, body = %s", w.Code, w.Body.String())
		}
	}
	return d.ID
}

func itoa(n int) string { return strconv.Itoa(n) }

func notePath(id models.NoteID) string {
	return "/notes/" + itoa(id.Folder) + "/" + itoa(id.Slot)
}

func TestCreateAndGetNote(t *testing.T) {
	_, router := testEnv(t, "")
	f := createFolder(t, router, "Work")
	id := createNote(t, router, f.ID, "Hello", "World")

	w := do(router, http.MethodGet, notePath(id), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var note NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &note)
	if note.Title != "Hello" {
		t.Errorf("title = %q, want Hello", note.Title)
	}
	if note.Body != "World" {
		t.Errorf("body = %q, want World", note.Body)
	}
	if note.Backlinks == nil || note.Unresolved == nil {
		t.Error("link views should be empty arrays, not null")
	}
}

func TestCreateDuplicateFolder(t *testing.T) {
	_, router := testEnv(t, "")
	createFolder(t, router, "dup")

	w := do(router, http.MethodPost, "/folders", NameRequest{Name: "dup"})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate create = %d, want 409", w.Code)
	}
}

func TestInvalidNames(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(router, http.MethodPost, "/folders", NameRequest{Name: "a/b"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("slash in folder = %d, want 400", w.Code)
	}
	f := createFolder(t, router, "ok")
	w = do(router, http.MethodPost, "/folders/"+itoa(f.ID)+"/notes", CreateNoteRequest{Title: "   "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank title = %d, want 400", w.Code)
	}
}

func TestRenameAndDeleteNote(t *testing.T) {
	_, router := testEnv(t, "")
	f := createFolder(t, router, "f")
	id := createNote(t, router, f.ID, "Old", "x")

	w := do(router, http.MethodPatch, notePath(id), RenameNoteRequest{Title: "New"})
	if w.Code != http.StatusOK {
		t.Fatalf("rename = %d, body = %s", w.Code, w.Body.String())
	}
	var d NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &d)
	if d.Title != "New" || d.ID != id {
		t.Errorf("renamed = %+v", d.Note)
	}

	w = do(router, http.MethodDelete, notePath(id), nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}
	w = do(router, http.MethodGet, notePath(id), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestListNotes(t *testing.T) {
	_, router := testEnv(t, "")
	f := createFolder(t, router, "f")
	a := createNote(t, router, f.ID, "a", "")
	createNote(t, router, f.ID, "b", "")

	w := do(router, http.MethodPost, notePath(a)+"/favorite", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("favorite = %d", w.Code)
	}

	w = do(router, http.MethodGet, "/notes", nil)
	var resp NoteListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 2 {
		t.Errorf("total = %d, want 2", resp.Total)
	}

	w = do(router, http.MethodGet, "/notes?favorite=true", nil)
	resp = NoteListResponse{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 || resp.Notes[0].ID != a {
		t.Errorf("favorites = %+v", resp.Notes)
	}
}

func TestTagsEndpoints(t *testing.T) {
	_, router := testEnv(t, "")
	f := createFolder(t, router, "f")
	id := createNote(t, router, f.ID, "n", "")

	w := do(router, http.MethodPost, "/tags", TagRequest{Name: "urgent"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create tag = %d", w.Code)
	}
	var tag models.Tag
	_ = json.Unmarshal(w.Body.Bytes(), &tag)
	if tag.Color.IsZero() {
		t.Error("tag should get a color")
	}

	w = do(router, http.MethodPut, notePath(id)+"/tags", SetTagsRequest{Tags: []int{tag.ID}})
	if w.Code != http.StatusOK {
		t.Fatalf("set tags = %d", w.Code)
	}
	w = do(router, http.MethodGet, "/notes?tag="+itoa(tag.ID), nil)
	var resp NoteListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 {
		t.Errorf("tagged notes = %d, want 1", resp.Total)
	}

	w = do(router, http.MethodPut, notePath(id)+"/tags", SetTagsRequest{Tags: []int{99}})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown tag = %d, want 404", w.Code)
	}

	w = do(router, http.MethodDelete, "/tags/"+itoa(tag.ID), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete tag = %d", w.Code)
	}
	w = do(router, http.MethodGet, notePath(id), nil)
	var d NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &d)
	if len(d.Tags) != 0 {
		t.Errorf("tags after delete = %v", d.Tags)
	}
}

func TestLinksAndBacklinks(t *testing.T) {
	_, router := testEnv(t, "")
	f := createFolder(t, router, "f")
	budget := createNote(t, router, f.ID, "Budget", "")
	plan := createNote(t, router, f.ID, "Plan", "see [[Budget]] and [[Missing]]")

	w := do(router, http.MethodGet, notePath(plan)+"/links", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("links = %d", w.Code)
	}
	var lr LinksResponse
	_ = json.Unmarshal(w.Body.Bytes(), &lr)
	if len(lr.Outgoing) != 1 || lr.Outgoing[0] != budget {
		t.Errorf("outgoing = %v", lr.Outgoing)
	}
	if len(lr.Unresolved) != 1 || lr.Unresolved[0] != "Missing" {
		t.Errorf("unresolved = %v", lr.Unresolved)
	}

	w = do(router, http.MethodGet, notePath(budget), nil)
	var d NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &d)
	if len(d.Backlinks) != 1 || d.Backlinks[0] != plan {
		t.Errorf("backlinks = %v", d.Backlinks)
	}
}

func TestPreview(t *testing.T) {
	_, router := testEnv(t, "")
	f := createFolder(t, router, "f")
	budget := createNote(t, router, f.ID, "Budget", "")
	plan := createNote(t, router, f.ID, "Plan", "# Plan\n\nsee [[Budget|the budget]] and [[Nowhere]]")

	w := do(router, http.MethodGet, notePath(plan)+"/html", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("preview = %d, body = %s", w.Code, w.Body.String())
	}
	out := w.Body.String()
	if !strings.Contains(out, "<h1>Plan</h1>") {
		t.Errorf("heading not rendered: %s", out)
	}
	if !strings.Contains(out, `href="/api`+notePath(budget)+`/html"`) {
		t.Errorf("resolved link missing: %s", out)
	}
	if !strings.Contains(out, "the budget") {
		t.Errorf("label missing: %s", out)
	}
	if !strings.Contains(out, "<em>Nowhere</em>") {
		t.Errorf("unresolved label missing: %s", out)
	}
}

func TestVersionsEndpoints(t *testing.T) {
	_, router := testEnv(t, "")
	f := createFolder(t, router, "f")
	id := createNote(t, router, f.ID, "n", "one")
	w := do(router, http.MethodPut, notePath(id), SaveNoteRequest{Body: "two"})
	if w.Code != http.StatusOK {
		t.Fatalf("save = %d", w.Code)
	}

	w = do(router, http.MethodGet, notePath(id)+"/versions", nil)
	var list struct {
		Versions []models.Version `json:"versions"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Versions) != 2 {
		t.Fatalf("versions = %d, want 2", len(list.Versions))
	}

	first := list.Versions[0].Seq
	for _, v := range list.Versions {
		if v.Seq < first {
			first = v.Seq
		}
	}
	w = do(router, http.MethodGet, notePath(id)+"/versions/"+itoa(int(first)), nil)
	var vr VersionResponse
	_ = json.Unmarshal(w.Body.Bytes(), &vr)
	if vr.Body != "one" {
		t.Errorf("version body = %q, want one", vr.Body)
	}

	w = do(router, http.MethodPost, notePath(id)+"/versions/"+itoa(int(first))+"/restore", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("restore = %d, body = %s", w.Code, w.Body.String())
	}
	var d NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &d)
	if d.Body != "one" {
		t.Errorf("restored body = %q", d.Body)
	}

	w = do(router, http.MethodGet, notePath(id)+"/versions/99", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing version = %d, want 404", w.Code)
	}
	w = do(router, http.MethodGet, notePath(id)+"/versions/zero", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad seq = %d, want 400", w.Code)
	}
}

func TestDiffVersionsEndpoint(t *testing.T) {
	_, router := testEnv(t, "")
	f := createFolder(t, router, "f")
	id := createNote(t, router, f.ID, "n", "alpha\nbeta\n")
	w := do(router, http.MethodPut, notePath(id), SaveNoteRequest{Body: "alpha\ngamma\ndelta\n"})
	if w.Code != http.StatusOK {
		t.Fatalf("save = %d", w.Code)
	}

	w = do(router, http.MethodGet, notePath(id)+"/versions/1/diff/2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("diff = %d, body = %s", w.Code, w.Body.String())
	}
	var d models.VersionDiff
	_ = json.Unmarshal(w.Body.Bytes(), &d)
	if d.Insertions != 2 || d.Deletions != 1 {
		t.Errorf("diff = +%d -%d, want +2 -1", d.Insertions, d.Deletions)
	}
	if !strings.Contains(d.Patch, "-beta") {
		t.Errorf("patch = %q", d.Patch)
	}

	w = do(router, http.MethodGet, notePath(id)+"/versions/1/diff/9", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing version = %d, want 404", w.Code)
	}
	w = do(router, http.MethodGet, notePath(id)+"/versions/1/diff/x", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad seq = %d, want 400", w.Code)
	}
}

func TestEncryptionEndpoints(t *testing.T) {
	_, router := testEnv(t, "")
	f := createFolder(t, router, "f")
	id := createNote(t, router, f.ID, "secret", "hidden text")

	w := do(router, http.MethodPost, notePath(id)+"/encryption", EncryptionRequest{Enabled: true, Password: "pw"})
	if w.Code != http.StatusOK {
		t.Fatalf("encrypt = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(router, http.MethodGet, notePath(id)+"/html", nil)
	if w.Code != http.StatusPreconditionRequired {
		t.Errorf("preview without password = %d, want 428", w.Code)
	}

	w = do(router, http.MethodGet, notePath(id), nil, passwordHeader, "wrong")
	if w.Code != http.StatusForbidden {
		t.Errorf("wrong password = %d, want 403", w.Code)
	}

	w = do(router, http.MethodGet, notePath(id), nil, passwordHeader, "pw")
	var d NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &d)
	if d.Body != "hidden text" || !d.Encrypted {
		t.Errorf("decrypted = %+v", d.Note)
	}

	w = do(router, http.MethodPut, notePath(id), SaveNoteRequest{Body: "x"})
	if w.Code != http.StatusPreconditionRequired {
		t.Errorf("save without password = %d, want 428", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	_, router := testEnv(t, "")
	f := createFolder(t, router, "f")
	createNote(t, router, f.ID, "find", "uniquetoken here")

	w := do(router, http.MethodGet, "/search?q=uniquetoken", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 {
		t.Errorf("search results = %d, want 1", len(resp.Results))
	}
}

func TestGraphEndpoint(t *testing.T) {
	_, router := testEnv(t, "")
	f := createFolder(t, router, "f")
	createNote(t, router, f.ID, "a", "links to [[b]]")
	createNote(t, router, f.ID, "b", "links to [[a]]")

	w := do(router, http.MethodGet, "/graph", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("graph = %d", w.Code)
	}
	var resp GraphResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Nodes) != 2 {
		t.Errorf("nodes = %d, want 2", len(resp.Nodes))
	}
	if len(resp.Links) != 2 {
		t.Errorf("links = %d, want 2", len(resp.Links))
	}
}

func TestDiagnosticsEndpoint(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(router, http.MethodGet, "/diagnostics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("diagnostics = %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("diagnostics = %s, want []", w.Body.String())
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	w := do(router, http.MethodPost, "/folders", NameRequest{Name: "auth"}, "Authorization", "Bearer secret123")
	if w.Code != http.StatusCreated {
		t.Errorf("authed create = %d, want 201", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	w := do(router, http.MethodGet, "/notes", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	w := do(router, http.MethodGet, "/notes", nil, "Authorization", "Bearer wrong")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(router, http.MethodGet, "/notes", nil)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

func TestNote_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	if w := do(router, http.MethodGet, "/notes/3/4", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing note = %d, want 404", w.Code)
	}
	if w := do(router, http.MethodPut, "/notes/3/4", SaveNoteRequest{Body: "x"}); w.Code != http.StatusNotFound {
		t.Errorf("update missing = %d, want 404", w.Code)
	}
	if w := do(router, http.MethodGet, "/notes/x/4", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad folder = %d, want 400", w.Code)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(router, http.MethodGet, "/search", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

// SSE endpoint auth tests.

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnvWithSSE(t, true, "secret")

	w := do(router, http.MethodGet, "/events", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := testEnvWithSSE(t, true, "tok")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

// testEnvWithSSE creates a router with a stub SSE handler to test auth on /events.
func testEnvWithSSE(t *testing.T, authEnabled bool, token string) http.Handler {
	t.Helper()

	vaultDir, store := testutil.TestVault(t)
	v, err := vault.Open(vaultDir, vault.WithStorage(store))
	if err != nil {
		t.Fatal(err)
	}

	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})

	return NewRouter(v, authEnabled, token, sseHandler, store)
}

// Attachment tests.

func uploadFile(t *testing.T, router http.Handler, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.Copy(part, bytes.NewReader(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadAndServeAttachment(t *testing.T) {
	v, router, vaultDir := testEnvWithVault(t, false, "")

	w := uploadFile(t, router, "Diagram.PNG", []byte("fake-png-data"))
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	var resp AttachmentUploadResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !strings.HasSuffix(resp.Filename, ".png") || len(resp.Filename) != 36+4 {
		t.Errorf("filename = %q", resp.Filename)
	}
	if resp.Markdown != "![Diagram](/attachments/"+resp.Filename+")" {
		t.Errorf("markdown = %q", resp.Markdown)
	}

	data, err := os.ReadFile(filepath.Join(vaultDir, ".attachments", resp.Filename))
	if err != nil {
		t.Fatalf("file not on disk: %v", err)
	}
	if string(data) != "fake-png-data" {
		t.Errorf("content mismatch")
	}

	store, _ := storage.NewFS(vaultDir)
	r := chi.NewRouter()
	r.Get("/attachments/{filename}", NewAttachmentHandler(store).ServeFile)
	w = do(r, http.MethodGet, resp.URL, nil)
	if w.Code != http.StatusOK || w.Body.String() != "fake-png-data" {
		t.Errorf("serve = %d %q", w.Code, w.Body.String())
	}

	// Attachments never show up as folders.
	if err := v.Reload(); err != nil {
		t.Fatal(err)
	}
	if len(v.Folders()) != 0 {
		t.Errorf("folders = %v", v.Folders())
	}
}

func TestServeAttachment_NotFound(t *testing.T) {
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := chi.NewRouter()
	r.Get("/attachments/{filename}", NewAttachmentHandler(store).ServeFile)

	w := do(r, http.MethodGet, "/attachments/nope.png", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing attachment = %d, want 404", w.Code)
	}
}

func TestServeAttachment_TraversalBlocked(t *testing.T) {
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := chi.NewRouter()
	r.Get("/attachments/{filename}", NewAttachmentHandler(store).ServeFile)

	for _, name := range []string{"../secret.md", "../../etc/passwd", ".hidden"} {
		w := do(r, http.MethodGet, "/attachments/"+name, nil)
		if w.Code == http.StatusOK {
			t.Errorf("traversal %q should not return 200", name)
		}
	}
}

func TestUploadAttachment_AuthProtected(t *testing.T) {
	_, router, _ := testEnvWithVault(t, true, "secret")

	w := uploadFile(t, router, "x.png", []byte("data"))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("upload no auth = %d, want 401", w.Code)
	}
}

func TestUploadAttachment_MissingFileField(t *testing.T) {
	_, router, _ := testEnvWithVault(t, false, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("wrong", "data")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing field = %d, want 400", w.Code)
	}
}

func TestAuthMiddleware_QueryToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	w := do(router, http.MethodGet, "/notes?access_token=secret123", nil)
	if w.Code != http.StatusOK {
		t.Errorf("query token = %d, want 200", w.Code)
	}
	w = do(router, http.MethodPost, "/folders?access_token=secret123", NameRequest{Name: "x"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("query token on POST = %d, want 401", w.Code)
	}
	if got := w.Header().Get("WWW-Authenticate"); got == "" {
		t.Error("missing WWW-Authenticate header")
	}
}
