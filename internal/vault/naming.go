package vault

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/inkwell/internal/apperr"
)

const (
	contentExt  = ".md"
	sidecarExt  = ".meta.yaml"
	folderFile  = ".folder.yaml"
	tagsFile    = ".tags.yaml"
	vaultFile   = ".vault.yaml"
	maxNameLen  = 200
	stemSepChar = "~"
)

var stemUnsafe = regexp.MustCompile(`[^\p{L}\p{N} _-]`)

var errControlChars = errors.New("must not contain control characters")

func noControlChars(value any) error {
	s, _ := value.(string)
	if strings.IndexFunc(s, unicode.IsControl) >= 0 {
		return errControlChars
	}
	return nil
}

// validateFolderName checks that name can be used verbatim as a directory name.
func validateFolderName(name string) error {
	err := validation.Validate(name,
		validation.Required,
		validation.RuneLength(1, maxNameLen),
		validation.By(noControlChars),
		validation.By(func(value any) error {
			s := value.(string)
			switch {
			case strings.TrimSpace(s) != s:
				return errors.New("must not start or end with spaces")
			case strings.HasPrefix(s, "."):
				return errors.New("must not start with a dot")
			case strings.ContainsAny(s, `/\:`):
				return errors.New("must not contain path separators")
			}
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("folder name %q: %w: %v", name, apperr.ErrInvalidName, err)
	}
	return nil
}

// validateTitle checks a note title. Titles are free text; only the stem
// derived from them has to be file-system safe.
func validateTitle(title string) error {
	err := validation.Validate(title,
		validation.Required,
		validation.RuneLength(1, maxNameLen),
		validation.By(noControlChars),
	)
	if err == nil && strings.TrimSpace(title) == "" {
		err = errors.New("cannot be blank")
	}
	if err != nil {
		return fmt.Errorf("title %q: %w: %v", title, apperr.ErrInvalidName, err)
	}
	return nil
}

func validateTagName(name string) error {
	err := validation.Validate(name,
		validation.Required,
		validation.RuneLength(1, maxNameLen),
		validation.By(noControlChars),
	)
	if err != nil {
		return fmt.Errorf("tag name %q: %w: %v", name, apperr.ErrInvalidName, err)
	}
	return nil
}

// sanitizeStem maps a title to a file-name stem.
func sanitizeStem(title string) string {
	s := stemUnsafe.ReplaceAllString(strings.TrimSpace(title), "_")
	if s == "" {
		s = "_"
	}
	return s
}

// uniqueStem returns a stem for title that no other live note in f uses.
func (v *Vault) uniqueStem(f *folder, title string, self *note) string {
	base := sanitizeStem(title)
	taken := make(map[string]bool, len(f.notes))
	for _, n := range f.notes {
		if n != self {
			taken[n.stem] = true
		}
	}
	stem := base
	for i := 2; taken[stem] || v.stemOnDisk(f, stem, self); i++ {
		stem = fmt.Sprintf("%s%s%d", base, stemSepChar, i)
	}
	return stem
}

func (v *Vault) stemOnDisk(f *folder, stem string, self *note) bool {
	if self != nil && self.stem == stem {
		return false
	}
	for _, p := range []string{contentPath(f, stem), sidecarPath(f, stem)} {
		if ok, _ := v.store.Exists(p); ok {
			return true
		}
	}
	return false
}

func contentPath(f *folder, stem string) string {
	return filepath.Join(f.name, stem+contentExt)
}

func sidecarPath(f *folder, stem string) string {
	return filepath.Join(f.name, stem+sidecarExt)
}

func folderMarkerPath(f *folder) string {
	return filepath.Join(f.name, folderFile)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
