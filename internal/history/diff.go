package history

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/starford/inkwell/internal/models"
)

// diffContext is the number of unchanged lines around each hunk of a patch.
const diffContext = 3

// Diff compares two decoded versions line by line. A missing final newline is
// not counted as a change.
func Diff(from, to int64, a, b string) (models.VersionDiff, error) {
	al, bl := splitLines(a), splitLines(b)
	d := models.VersionDiff{From: from, To: to}
	for _, op := range difflib.NewMatcher(al, bl).GetOpCodes() {
		switch op.Tag {
		case 'r':
			d.Deletions += op.I2 - op.I1
			d.Insertions += op.J2 - op.J1
		case 'd':
			d.Deletions += op.I2 - op.I1
		case 'i':
			d.Insertions += op.J2 - op.J1
		}
	}
	if d.Insertions == 0 && d.Deletions == 0 {
		return d, nil
	}
	patch, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        al,
		B:        bl,
		FromFile: fmt.Sprintf("v%d", from),
		ToFile:   fmt.Sprintf("v%d", to),
		Context:  diffContext,
	})
	if err != nil {
		return models.VersionDiff{}, fmt.Errorf("history: diff v%d..v%d: %w", from, to, err)
	}
	d.Patch = patch
	return d, nil
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	} else {
		lines[len(lines)-1] += "\n"
	}
	return lines
}
