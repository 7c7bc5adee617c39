// Package codec turns note bodies into stored bytes and back, optionally under
// password-derived authenticated encryption.
//
// Encrypted blob layout (format version 1):
//
//	version(1) ‖ salt(16) ‖ nonce(12) ‖ ciphertext ‖ tag(16)
//
// The key is argon2id(password, salt). There is no stored password verifier:
// a failed GCM tag check is the only wrong-password signal.
package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/argon2"

	"github.com/starford/inkwell/internal/apperr"
)

// FormatV1 is the first byte of every blob produced by Encode with a password.
const FormatV1 byte = 0x01

const (
	saltSize  = 16
	nonceSize = 12
	tagSize   = 16
	keySize   = 32

	headerSize = 1 + saltSize + nonceSize
)

// Argon2id cost for format v1. Changing these requires a new format version.
const (
	kdfTime    = 2
	kdfMemory  = 19 * 1024
	kdfThreads = 1
)

// Encode returns the storage form of body. An empty password yields the UTF-8
// bytes unmodified.
func Encode(body, password string) ([]byte, error) {
	if password == "" {
		return []byte(body), nil
	}

	header := make([]byte, headerSize)
	header[0] = FormatV1
	salt := header[1 : 1+saltSize]
	nonce := header[1+saltSize:]
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("codec: salt: %w", err)
	}
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("codec: nonce: %w", err)
	}

	aead, err := newAEAD(password, salt)
	if err != nil {
		return nil, err
	}
	// The header is bound as additional data so a flipped version byte fails the tag check.
	sealed := aead.Seal(nil, nonce, []byte(body), header)
	return append(header, sealed...), nil
}

// Decode mirrors Encode. With an empty password data must be valid UTF-8.
func Decode(data []byte, password string) (string, error) {
	if password == "" {
		if !utf8.Valid(data) {
			return "", apperr.Corrupt("codec: plaintext", fmt.Errorf("invalid utf-8"))
		}
		return string(data), nil
	}

	if err := checkHeader(data); err != nil {
		return "", err
	}
	salt := data[1 : 1+saltSize]
	nonce := data[1+saltSize : headerSize]

	aead, err := newAEAD(password, salt)
	if err != nil {
		return "", err
	}
	plain, err := aead.Open(nil, nonce, data[headerSize:], data[:headerSize])
	if err != nil {
		return "", apperr.ErrInvalidPassword
	}
	if !utf8.Valid(plain) {
		return "", apperr.Corrupt("codec: decrypted body", fmt.Errorf("invalid utf-8"))
	}
	return string(plain), nil
}

// IsEncoded reports whether data is structurally a blob this package can decrypt.
func IsEncoded(data []byte) bool {
	return checkHeader(data) == nil
}

func checkHeader(data []byte) error {
	if len(data) < headerSize+tagSize {
		return apperr.Corrupt("codec: blob", fmt.Errorf("%d bytes is shorter than the header", len(data)))
	}
	if data[0] != FormatV1 {
		return apperr.Corrupt("codec: blob", fmt.Errorf("unknown format version %d", data[0]))
	}
	return nil
}

func newAEAD(password string, salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(password), salt, kdfTime, kdfMemory, kdfThreads, keySize)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("codec: cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("codec: gcm: %w", err)
	}
	return aead, nil
}
