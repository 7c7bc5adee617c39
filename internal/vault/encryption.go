package vault

import (
	"fmt"
	"log/slog"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/codec"
	"github.com/starford/inkwell/internal/links"
	"github.com/starford/inkwell/internal/models"
)

// SetEncryption encrypts (enable) or decrypts a note with password.
// Neither direction records a version.
func (v *Vault) SetEncryption(id models.NoteID, enable bool, password string) error {
	if enable {
		return v.Encrypt(id, password)
	}
	return v.Decrypt(id, password)
}

// Encrypt re-encodes the note's plaintext under password. An encrypted note
// is left as is when password opens it.
func (v *Vault) Encrypt(id models.NoteID, password string) error {
	v.lock()
	defer v.unlock()

	f, n, err := v.note(id)
	if err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("note %s: %w", id, apperr.ErrEncryptionRequired)
	}
	if n.enc {
		return v.checkPassword(n, password)
	}

	data, err := codec.Encode(n.body, password)
	if err != nil {
		return err
	}
	if err := v.switchEncoding(f, n, data, true); err != nil {
		return err
	}
	n.body = models.EncryptedPlaceholder
	v.graph.Remove(id)

	v.logger.Info("vault: note encrypted", slog.String("note", id.String()))
	v.emit(noteEvent(EventNoteUpdated, id, true))
	return nil
}

// Decrypt replaces the note's ciphertext with its plaintext. A plaintext
// note is left as is.
func (v *Vault) Decrypt(id models.NoteID, password string) error {
	v.lock()
	defer v.unlock()

	f, n, err := v.note(id)
	if err != nil {
		return err
	}
	if !n.enc {
		return nil
	}
	if password == "" {
		return fmt.Errorf("note %s: %w", id, apperr.ErrEncryptionRequired)
	}
	body, err := codec.Decode(n.blob, password)
	if err != nil {
		return fmt.Errorf("note %s: %w", id, err)
	}
	data, err := codec.Encode(body, "")
	if err != nil {
		return err
	}
	if err := v.switchEncoding(f, n, data, false); err != nil {
		return err
	}
	n.body = body
	v.graph.Update(id, links.Extract(body))

	v.logger.Info("vault: note decrypted", slog.String("note", id.String()))
	v.emit(noteEvent(EventNoteUpdated, id, true))
	return nil
}

// switchEncoding writes data as the note's content and flips the encrypted
// flag in its sidecar, restoring the previous content if the sidecar fails.
func (v *Vault) switchEncoding(f *folder, n *note, data []byte, enc bool) error {
	if err := v.writeFile(contentPath(f, n.stem), data); err != nil {
		v.restoreContent(f, n)
		return err
	}
	next := *n
	next.enc = enc
	if err := v.writeSidecar(f, &next); err != nil {
		v.restoreContent(f, n)
		return err
	}
	n.blob = data
	n.enc = enc
	n.damaged = false
	return nil
}
