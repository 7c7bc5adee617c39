package vault

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/checksum"
	"github.com/starford/inkwell/internal/codec"
	"github.com/starford/inkwell/internal/links"
	"github.com/starford/inkwell/internal/models"
)

// Diagnostic kinds reported by the loader.
const (
	DiagCorrupt    = "corrupt"
	DiagAdopted    = "adopted"
	DiagReassigned = "reassigned"
	DiagRepaired   = "repaired"
	DiagMissing    = "missing"
	DiagDuplicate  = "duplicate"
)

// Diagnostic records a problem found (and, where possible, repaired) while loading.
type Diagnostic struct {
	Path    string `json:"path"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

const (
	dirMarker       = "dir"
	externalMessage = "external change"
)

func (v *Vault) diagnose(path, kind, msg string) {
	v.diags = append(v.diags, Diagnostic{Path: path, Kind: kind, Message: msg})
	v.logger.Warn("vault: "+msg, slog.String("path", path), slog.String("kind", kind))
}

// load rebuilds every map from the files under the root.
func (v *Vault) load() error {
	v.folders = make(map[int]*folder)
	v.nextFolder = 0
	v.tags = make(map[int]*models.Tag)
	v.nextTag = 0
	v.diags = nil
	v.written = make(map[string]string)
	v.gone = make(map[string]bool)
	v.graph = links.NewGraph(resolver{v})

	v.loadTags()

	entries, err := v.store.ReadDir("")
	if err != nil {
		return apperr.IO("vault: scan root", err)
	}

	stored := v.loadVaultMarker()
	marked := make(map[*folder]int)
	var pending []*folder
	for _, e := range entries {
		if !e.IsDir || isHidden(e.Name) {
			continue
		}
		f := &folder{name: e.Name, notes: make(map[int]*note)}
		v.written[f.name] = dirMarker
		m, ok := v.readFolderMarker(f)
		if ok {
			if _, taken := v.folders[m.Slot]; !taken {
				f.id = m.Slot
				f.nextSlot = m.Next
				marked[f] = m.Next
				v.folders[m.Slot] = f
				if m.Slot >= v.nextFolder {
					v.nextFolder = m.Slot + 1
				}
				continue
			}
			v.diagnose(f.name, DiagReassigned, fmt.Sprintf("folder slot %d already in use", m.Slot))
		}
		pending = append(pending, f)
	}
	if stored > v.nextFolder {
		v.nextFolder = stored
	}
	for _, f := range pending {
		f.id = v.nextFolder
		v.nextFolder++
		v.folders[f.id] = f
		marked[f] = -1
	}
	if v.nextFolder != stored {
		if err := v.writeVaultMarker(); err != nil {
			v.logger.Warn("vault: write vault marker", slog.String("error", err.Error()))
		}
	}

	keys := make(map[string]bool)
	for _, f := range v.sortedFolders() {
		v.loadFolder(f, keys)
		if f.nextSlot == marked[f] {
			continue
		}
		if err := v.writeFolderMarker(f); err != nil {
			v.logger.Warn("vault: write folder marker", slog.String("folder", f.name), slog.String("error", err.Error()))
		}
	}
	for _, f := range v.sortedFolders() {
		for _, n := range f.sortedNotes() {
			if !n.enc {
				v.graph.Update(n.id, links.Extract(n.body))
			}
		}
	}
	return nil
}

func (v *Vault) loadTags() {
	data, err := v.store.Read(tagsFile)
	if err != nil {
		if ok, _ := v.store.Exists(tagsFile); ok {
			v.diagnose(tagsFile, DiagCorrupt, "tag table unreadable: "+err.Error())
		}
		return
	}
	v.written[tagsFile] = checksum.Sum(data)
	var table tagTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		v.diagnose(tagsFile, DiagCorrupt, "tag table unparsable: "+err.Error())
		return
	}
	names := make(map[string]bool)
	for _, t := range table.Tags {
		if _, dup := v.tags[t.ID]; dup || t.ID < 0 || names[t.Name] {
			v.diagnose(tagsFile, DiagDuplicate, fmt.Sprintf("dropping duplicate tag %d %q", t.ID, t.Name))
			continue
		}
		tag := t
		v.tags[t.ID] = &tag
		names[t.Name] = true
		if t.ID >= v.nextTag {
			v.nextTag = t.ID + 1
		}
	}
	if table.Next > v.nextTag {
		v.nextTag = table.Next
	}
}

// loadVaultMarker returns the persisted next folder slot, or 0 when the
// marker is missing or unreadable. The scan recomputes a lower bound anyway.
func (v *Vault) loadVaultMarker() int {
	data, err := v.store.Read(vaultFile)
	if err != nil {
		return 0
	}
	var m vaultMarker
	if err := yaml.Unmarshal(data, &m); err != nil || m.NextFolder < 0 {
		v.diagnose(vaultFile, DiagCorrupt, "vault marker unreadable, recomputing folder slots")
		return 0
	}
	v.written[vaultFile] = checksum.Sum(data)
	return m.NextFolder
}

func (v *Vault) readFolderMarker(f *folder) (folderMarker, bool) {
	path := folderMarkerPath(f)
	data, err := v.store.Read(path)
	if err != nil {
		v.diagnose(f.name, DiagAdopted, "folder has no marker, assigning a new slot")
		return folderMarker{}, false
	}
	var m folderMarker
	if err := yaml.Unmarshal(data, &m); err != nil || m.Slot < 0 {
		v.diagnose(path, DiagCorrupt, "folder marker unreadable, assigning a new slot")
		return folderMarker{}, false
	}
	if m.Next < 0 {
		m.Next = 0
	}
	v.written[path] = checksum.Sum(data)
	return m, true
}

// loadFolder pairs content files with sidecars and registers the notes of f.
// keys collects the note keys seen so far; a copied sidecar gets a fresh key
// so two notes never share a history.
func (v *Vault) loadFolder(f *folder, keys map[string]bool) {
	entries, err := v.store.ReadDir(f.name)
	if err != nil {
		v.diagnose(f.name, DiagCorrupt, "folder unreadable: "+err.Error())
		return
	}
	contents := make(map[string]bool)
	sidecars := make(map[string]bool)
	seen := make(map[string]bool)
	var stems []string
	for _, e := range entries {
		if e.IsDir || isHidden(e.Name) {
			continue
		}
		var stem string
		switch {
		case strings.HasSuffix(e.Name, sidecarExt):
			stem = strings.TrimSuffix(e.Name, sidecarExt)
			sidecars[stem] = true
		case strings.HasSuffix(e.Name, contentExt):
			stem = strings.TrimSuffix(e.Name, contentExt)
			contents[stem] = true
		default:
			continue
		}
		if !seen[stem] {
			seen[stem] = true
			stems = append(stems, stem)
		}
	}
	sort.Strings(stems)

	var pending []*note
	var rewrite []*note
	titles := make(map[string]bool)
	for _, stem := range stems {
		n := &note{stem: stem}
		adopted := !sidecars[stem]
		if sidecars[stem] {
			if err := v.readSidecar(f, n); err != nil {
				v.diagnose(sidecarPath(f, stem), DiagCorrupt, "metadata unreadable, adopting note: "+err.Error())
				adopted = true
			}
		}
		if adopted {
			n.key = uuid.NewString()
			n.title = stem
			n.created = v.stamp()
			n.updated = n.created
			n.id.Slot = -1
			if !sidecars[stem] {
				v.diagnose(contentPath(f, stem), DiagAdopted, "content file without metadata, adopting note")
			}
		}

		dirty := adopted
		if contents[stem] {
			dirty = v.decodeLoaded(f, n) || dirty
		} else {
			v.diagnose(contentPath(f, stem), DiagMissing, "content file missing, loading empty body")
			n.damaged = true
			n.enc = false
		}

		if n.key == "" {
			n.key = uuid.NewString()
			dirty = true
		} else if keys[n.key] {
			v.diagnose(sidecarPath(f, stem), DiagDuplicate, "note key already in use, assigning a new one")
			n.key = uuid.NewString()
			dirty = true
		}
		keys[n.key] = true
		if strings.TrimSpace(n.title) == "" {
			n.title = stem
			dirty = true
		}
		if kept := v.knownTags(n.tags); len(kept) != len(n.tags) {
			v.diagnose(sidecarPath(f, stem), DiagRepaired, "dropping references to unknown tags")
			n.tags = kept
			dirty = true
		}
		if titles[n.title] {
			v.diagnose(contentPath(f, stem), DiagDuplicate, fmt.Sprintf("title %q appears twice in folder", n.title))
		}
		titles[n.title] = true

		n.id.Folder = f.id
		if _, taken := f.notes[n.id.Slot]; n.id.Slot >= 0 && !taken {
			f.notes[n.id.Slot] = n
			if n.id.Slot >= f.nextSlot {
				f.nextSlot = n.id.Slot + 1
			}
		} else {
			if n.id.Slot >= 0 {
				v.diagnose(sidecarPath(f, stem), DiagReassigned, fmt.Sprintf("note slot %d already in use", n.id.Slot))
			}
			pending = append(pending, n)
		}
		if dirty {
			rewrite = append(rewrite, n)
		}
	}
	for _, n := range pending {
		n.id.Slot = f.nextSlot
		f.nextSlot++
		f.notes[n.id.Slot] = n
		if !containsNote(rewrite, n) {
			rewrite = append(rewrite, n)
		}
	}
	for _, n := range rewrite {
		if err := v.writeSidecar(f, n); err != nil {
			v.logger.Warn("vault: repair metadata", slog.String("path", sidecarPath(f, n.stem)), slog.String("error", err.Error()))
		}
	}
}

func containsNote(list []*note, n *note) bool {
	for _, x := range list {
		if x == n {
			return true
		}
	}
	return false
}

func (v *Vault) readSidecar(f *folder, n *note) error {
	path := sidecarPath(f, n.stem)
	data, err := v.store.Read(path)
	if err != nil {
		return err
	}
	var sc sidecar
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return err
	}
	if sc.Slot < 0 {
		return errors.New("negative slot")
	}
	v.written[path] = checksum.Sum(data)
	n.key = sc.Key
	n.id.Slot = sc.Slot
	n.title = sc.Title
	n.created = sc.Created
	n.updated = sc.Updated
	n.tags = normalizeTags(sc.Tags)
	n.fav = sc.Favorite
	n.enc = sc.Encrypted
	return nil
}

// decodeLoaded reads the content file of n. Undecodable content becomes an
// empty, damaged body; the bytes on disk are left alone. It reports whether
// the metadata of n changed and should be rewritten.
func (v *Vault) decodeLoaded(f *folder, n *note) bool {
	path := contentPath(f, n.stem)
	data, err := v.store.Read(path)
	if err != nil {
		v.diagnose(path, DiagCorrupt, "content unreadable: "+err.Error())
		n.damaged = true
		n.enc = false
		return false
	}
	v.written[path] = checksum.Sum(data)
	n.blob = data
	if n.enc {
		if codec.IsEncoded(data) {
			n.body = models.EncryptedPlaceholder
			return false
		}
		v.diagnose(path, DiagCorrupt, "encrypted content is malformed, loading empty body")
		n.enc = false
		n.damaged = true
		return false
	}
	body, err := codec.Decode(data, "")
	if err == nil {
		n.body = body
		return false
	}
	// An interrupted Encrypt can leave ciphertext behind plaintext metadata.
	if codec.IsEncoded(data) {
		v.diagnose(path, DiagRepaired, "content is encrypted, marking note encrypted")
		n.enc = true
		n.body = models.EncryptedPlaceholder
		return true
	}
	v.diagnose(path, DiagCorrupt, "content is not valid text, loading empty body")
	n.damaged = true
	return false
}

func (v *Vault) knownTags(ids []int) []int {
	var out []int
	for _, id := range ids {
		if _, ok := v.tags[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func normalizeTags(ids []int) []int {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

// Reload discards the in-memory state and rebuilds it from disk. On failure
// the previous state is kept.
func (v *Vault) Reload() error {
	v.lock()
	defer v.unlock()

	folders, nextFolder := v.folders, v.nextFolder
	tags, nextTag := v.tags, v.nextTag
	diags, written, gone, graph := v.diags, v.written, v.gone, v.graph
	if err := v.load(); err != nil {
		v.folders, v.nextFolder = folders, nextFolder
		v.tags, v.nextTag = tags, nextTag
		v.diags, v.written, v.gone, v.graph = diags, written, gone, graph
		return err
	}
	recorded := v.recordExternalEdits(folders)
	v.logger.Info("vault: reloaded",
		slog.Int("folders", len(v.folders)),
		slog.Int("notes", v.countNotes()),
		slog.Int("external_edits", recorded))
	v.emit(Event{Kind: EventReloaded})
	return nil
}

// recordExternalEdits records a version for every note whose content changed
// on disk since the previous state, matched by note key. Notes that are new or
// damaged are skipped.
func (v *Vault) recordExternalEdits(prev map[int]*folder) int {
	before := make(map[string][]byte)
	for _, f := range prev {
		for _, n := range f.notes {
			if !n.damaged {
				before[n.key] = n.blob
			}
		}
	}
	recorded := 0
	for _, f := range v.sortedFolders() {
		for _, n := range f.sortedNotes() {
			old, ok := before[n.key]
			if !ok || n.damaged || bytes.Equal(old, n.blob) {
				continue
			}
			if _, err := v.history.Record(n.key, n.blob, n.enc, externalMessage); err != nil {
				v.logger.Warn("vault: record external edit",
					slog.String("note", n.id.String()), slog.String("error", err.Error()))
				continue
			}
			recorded++
		}
	}
	return recorded
}

// Diagnostics returns the problems found by the last load.
func (v *Vault) Diagnostics() []Diagnostic {
	v.lock()
	defer v.unlock()
	out := make([]Diagnostic, len(v.diags))
	copy(out, v.diags)
	return out
}
