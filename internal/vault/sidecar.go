package vault

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/checksum"
	"github.com/starford/inkwell/internal/models"
)

// sidecar is the on-disk metadata of one note. Unknown keys are ignored on read.
type sidecar struct {
	Key       string    `yaml:"key"`
	Slot      int       `yaml:"slot"`
	Title     string    `yaml:"title"`
	Created   time.Time `yaml:"created"`
	Updated   time.Time `yaml:"updated"`
	Tags      []int     `yaml:"tags,omitempty"`
	Favorite  bool      `yaml:"favorite,omitempty"`
	Encrypted bool      `yaml:"encrypted,omitempty"`
}

// folderMarker pins a folder's slot. Next is the first note slot never handed
// out, so deleted slots stay dead across reloads.
type folderMarker struct {
	Slot int `yaml:"slot"`
	Next int `yaml:"next"`
}

type vaultMarker struct {
	NextFolder int `yaml:"next_folder"`
}

type tagTable struct {
	Next int          `yaml:"next"`
	Tags []models.Tag `yaml:"tags"`
}

func (n *note) sidecar() sidecar {
	return sidecar{
		Key:       n.key,
		Slot:      n.id.Slot,
		Title:     n.title,
		Created:   n.created,
		Updated:   n.updated,
		Tags:      n.tags,
		Favorite:  n.fav,
		Encrypted: n.enc,
	}
}

// writeFile writes data through the provider and remembers its checksum.
func (v *Vault) writeFile(path string, data []byte) error {
	if err := v.store.Write(path, data); err != nil {
		return apperr.IO("vault: write "+path, err)
	}
	v.written[path] = checksum.Sum(data)
	delete(v.gone, path)
	return nil
}

func (v *Vault) writeYAML(path string, value any) error {
	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("vault: encode %s: %w", path, err)
	}
	return v.writeFile(path, data)
}

func (v *Vault) writeSidecar(f *folder, n *note) error {
	return v.writeYAML(sidecarPath(f, n.stem), n.sidecar())
}

func (v *Vault) writeFolderMarker(f *folder) error {
	return v.writeYAML(folderMarkerPath(f), folderMarker{Slot: f.id, Next: f.nextSlot})
}

func (v *Vault) writeVaultMarker() error {
	return v.writeYAML(vaultFile, vaultMarker{NextFolder: v.nextFolder})
}

func (v *Vault) writeTagTable() error {
	table := tagTable{Next: v.nextTag, Tags: v.tagList()}
	return v.writeYAML(tagsFile, table)
}

func (v *Vault) deleteFile(path string) error {
	ok, err := v.store.Exists(path)
	if err != nil {
		return apperr.IO("vault: stat "+path, err)
	}
	if !ok {
		return nil
	}
	if err := v.store.Delete(path); err != nil {
		return apperr.IO("vault: delete "+path, err)
	}
	delete(v.written, path)
	v.gone[path] = true
	return nil
}

func (v *Vault) moveFile(from, to string) error {
	if err := v.store.Move(from, to); err != nil {
		return apperr.IO("vault: move "+from, err)
	}
	if sum, ok := v.written[from]; ok {
		v.written[to] = sum
		delete(v.written, from)
	}
	delete(v.gone, to)
	v.gone[from] = true
	return nil
}
