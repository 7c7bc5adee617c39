// Package apperr defines the error taxonomy shared by the vault core and its surfaces.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateName      = errors.New("duplicate name")
	ErrInvalidName        = errors.New("invalid name")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrCorrupt            = errors.New("corrupt content")
	ErrIO                 = errors.New("io failure")
	ErrEncryptionRequired = errors.New("encryption required")
)

// IO wraps a platform error so that it matches both ErrIO and the original error.
func IO(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrIO) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrIO, err)
}

// Corrupt annotates a decode failure with the offending location.
func Corrupt(what string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", what, ErrCorrupt)
	}
	return fmt.Errorf("%s: %w: %v", what, ErrCorrupt, err)
}
