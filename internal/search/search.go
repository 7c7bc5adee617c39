// Package search ranks notes by fuzzy subsequence match. It is a linear scan
// with no persistent index; vaults are expected to hold hundreds of notes.
package search

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/starford/inkwell/internal/models"
)

// titleBoost lifts title matches above body matches of similar quality.
const titleBoost = 100

// Document is one searchable note.
type Document struct {
	ID        models.NoteID
	Title     string
	Body      string
	Encrypted bool
}

// Result is a ranked hit.
type Result struct {
	ID    models.NoteID `json:"id"`
	Title string        `json:"title"`
	Score int           `json:"score"`
}

// Search scores docs against query. Results are ordered by score descending;
// equal scores keep the order of docs. A blank query matches nothing.
// Encrypted documents are matched on their title only.
func Search(query string, docs []Document) []Result {
	query = strings.TrimSpace(query)
	if query == "" || len(docs) == 0 {
		return nil
	}

	best := make(map[int]int)
	titles := make([]string, len(docs))
	for i, d := range docs {
		titles[i] = d.Title
	}
	for _, m := range fuzzy.Find(query, titles) {
		best[m.Index] = m.Score + titleBoost
	}

	var bodies []string
	var owners []int
	for i, d := range docs {
		if d.Encrypted || d.Body == "" {
			continue
		}
		bodies = append(bodies, d.Body)
		owners = append(owners, i)
	}
	for _, m := range fuzzy.Find(query, bodies) {
		i := owners[m.Index]
		if s, ok := best[i]; !ok || m.Score > s {
			best[i] = m.Score
		}
	}

	if len(best) == 0 {
		return nil
	}
	out := make([]Result, 0, len(best))
	for i, d := range docs {
		if s, ok := best[i]; ok {
			out = append(out, Result{ID: d.ID, Title: d.Title, Score: s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
