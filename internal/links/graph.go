package links

import (
	"sort"

	"github.com/starford/inkwell/internal/models"
)

// Resolver maps titles to notes and back. The vault implements it; Resolve
// must be deterministic when several notes share a title.
type Resolver interface {
	Resolve(title string) (models.NoteID, bool)
	Title(id models.NoteID) (string, bool)
}

type resolution struct {
	id models.NoteID
	ok bool
}

// Graph holds every note's outgoing references by title. Backlinks are never
// stored: they are derived from the forward edges at read time.
//
// Titles are resolved lazily. Invalidate only bumps an epoch; the resolution
// cache is dropped on the next read, so an edit costs O(edges of that note).
//
// Graph is not safe for concurrent use; the vault serializes access.
type Graph struct {
	r       Resolver
	forward map[models.NoteID][]string
	sources map[string]map[models.NoteID]int

	epoch      uint64
	cacheEpoch uint64
	cache      map[string]resolution
}

// NewGraph returns an empty graph resolving titles through r.
func NewGraph(r Resolver) *Graph {
	return &Graph{
		r:       r,
		forward: make(map[models.NoteID][]string),
		sources: make(map[string]map[models.NoteID]int),
		cache:   make(map[string]resolution),
	}
}

// Update replaces src's outgoing references with targets in one step.
// Calling it twice with the same targets is a no-op the second time.
func (g *Graph) Update(src models.NoteID, targets []string) {
	for _, t := range g.forward[src] {
		set := g.sources[t]
		set[src]--
		if set[src] <= 0 {
			delete(set, src)
		}
		if len(set) == 0 {
			delete(g.sources, t)
		}
	}
	if len(targets) == 0 {
		delete(g.forward, src)
		return
	}
	stored := make([]string, len(targets))
	copy(stored, targets)
	g.forward[src] = stored
	for _, t := range stored {
		set := g.sources[t]
		if set == nil {
			set = make(map[models.NoteID]int)
			g.sources[t] = set
		}
		set[src]++
	}
}

// Remove drops every outgoing reference of src. Because backlinks are
// derived, src also disappears from every other note's backlink view once
// the resolver stops knowing it.
func (g *Graph) Remove(src models.NoteID) {
	g.Update(src, nil)
}

// Reset drops all edges.
func (g *Graph) Reset() {
	g.forward = make(map[models.NoteID][]string)
	g.sources = make(map[string]map[models.NoteID]int)
	g.Invalidate()
}

// Invalidate marks cached title resolutions stale. Call it whenever the set
// of titles changes (create, rename, delete).
func (g *Graph) Invalidate() {
	g.epoch++
}

func (g *Graph) resolve(title string) (models.NoteID, bool) {
	if g.cacheEpoch != g.epoch {
		g.cache = make(map[string]resolution)
		g.cacheEpoch = g.epoch
	}
	if res, ok := g.cache[title]; ok {
		return res.id, res.ok
	}
	id, ok := g.r.Resolve(title)
	g.cache[title] = resolution{id: id, ok: ok}
	return id, ok
}

// Targets returns src's raw references, duplicates included.
func (g *Graph) Targets(src models.NoteID) []string {
	out := make([]string, len(g.forward[src]))
	copy(out, g.forward[src])
	return out
}

// Backlinks returns the notes whose bodies reference id, in folder/slot order.
func (g *Graph) Backlinks(id models.NoteID) []models.NoteID {
	title, ok := g.r.Title(id)
	if !ok {
		return nil
	}
	// A shadowed duplicate title receives no backlinks.
	if target, ok := g.resolve(title); !ok || target != id {
		return nil
	}
	set := g.sources[title]
	out := make([]models.NoteID, 0, len(set))
	for src := range set {
		out = append(out, src)
	}
	sortIDs(out)
	return out
}

// Outgoing returns the distinct notes src currently resolves to, in reference order.
func (g *Graph) Outgoing(src models.NoteID) []models.NoteID {
	seen := make(map[models.NoteID]bool)
	var out []models.NoteID
	for _, t := range g.forward[src] {
		id, ok := g.resolve(t)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Unresolved returns the distinct titles src references that match no note.
func (g *Graph) Unresolved(src models.NoteID) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range g.forward[src] {
		if seen[t] {
			continue
		}
		seen[t] = true
		if _, ok := g.resolve(t); !ok {
			out = append(out, t)
		}
	}
	return out
}

// Edges returns every resolved link, sorted by source then target.
func (g *Graph) Edges() []models.Link {
	var out []models.Link
	for src := range g.forward {
		for _, dst := range g.Outgoing(src) {
			out = append(out, models.Link{Source: src, Target: dst})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source.Less(out[j].Source)
		}
		return out[i].Target.Less(out[j].Target)
	})
	return out
}

func sortIDs(ids []models.NoteID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
}
