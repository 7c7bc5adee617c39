package vault

import (
	"fmt"
	"log/slog"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/codec"
	"github.com/starford/inkwell/internal/history"
	"github.com/starford/inkwell/internal/models"
)

// Versions lists the recorded versions of a note, oldest first.
func (v *Vault) Versions(id models.NoteID) ([]models.Version, error) {
	v.lock()
	defer v.unlock()

	_, n, err := v.note(id)
	if err != nil {
		return nil, err
	}
	return v.history.List(n.key)
}

// VersionContent returns the decoded body of one version. Versions recorded
// while the note was encrypted need the password they were encrypted with.
func (v *Vault) VersionContent(id models.NoteID, seq int64, password string) (string, models.Version, error) {
	v.lock()
	defer v.unlock()

	_, n, err := v.note(id)
	if err != nil {
		return "", models.Version{}, err
	}
	return v.versionBody(n, seq, password)
}

func (v *Vault) versionBody(n *note, seq int64, password string) (string, models.Version, error) {
	data, ver, err := v.history.Restore(n.key, seq)
	if err != nil {
		return "", models.Version{}, err
	}
	pw := ""
	if ver.Encrypted {
		if password == "" {
			return "", ver, fmt.Errorf("note %s version %d: %w", n.id, seq, apperr.ErrEncryptionRequired)
		}
		pw = password
	}
	body, err := codec.Decode(data, pw)
	if err != nil {
		return "", ver, fmt.Errorf("note %s version %d: %w", n.id, seq, err)
	}
	return body, ver, nil
}

// RestoreVersion makes the body of version seq the note's current body and
// records it as a new version. The restored body is stored under the note's
// current encryption state, so an encrypted note stays encrypted with the
// password that opens it now. Later versions are kept.
func (v *Vault) RestoreVersion(id models.NoteID, seq int64, password string) error {
	v.lock()
	defer v.unlock()

	f, n, err := v.note(id)
	if err != nil {
		return err
	}
	if err := v.checkPassword(n, password); err != nil {
		return err
	}
	body, _, err := v.versionBody(n, seq, password)
	if err != nil {
		return err
	}
	if err := v.commitBody(f, n, body, password, fmt.Sprintf("restored from v%d", seq)); err != nil {
		return err
	}

	v.logger.Info("vault: version restored", slog.String("note", id.String()), slog.Int64("seq", seq))
	v.emit(noteEvent(EventNoteSaved, id, !n.enc))
	return nil
}

// DiffVersions compares the decoded bodies of versions a and b of a note.
// Encrypted versions need the password they were encrypted with.
func (v *Vault) DiffVersions(id models.NoteID, a, b int64, password string) (models.VersionDiff, error) {
	v.lock()
	defer v.unlock()

	_, n, err := v.note(id)
	if err != nil {
		return models.VersionDiff{}, err
	}
	from, _, err := v.versionBody(n, a, password)
	if err != nil {
		return models.VersionDiff{}, err
	}
	to, _, err := v.versionBody(n, b, password)
	if err != nil {
		return models.VersionDiff{}, err
	}
	return history.Diff(a, b, from, to)
}
