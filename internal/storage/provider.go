// Package storage defines the vault file-system abstraction.
package storage

import "time"

// Entry describes one item of a directory listing.
type Entry struct {
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// Provider is the interface for vault file operations. All paths are
// relative to the vault root and use the host separator.
type Provider interface {
	// Root returns the absolute vault root.
	Root() string
	// ReadDir lists the direct children of dir, sorted by name.
	ReadDir(dir string) ([]Entry, error)
	// Exists reports whether path exists.
	Exists(path string) (bool, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path, creating parent directories.
	Write(path string, content []byte) error
	// Mkdir creates dir and any missing parents.
	Mkdir(dir string) error
	// Delete removes the file at path.
	Delete(path string) error
	// RemoveAll removes dir and everything below it.
	RemoveAll(dir string) error
	// Move renames oldPath to newPath. It fails if newPath already exists.
	Move(oldPath, newPath string) error
}
