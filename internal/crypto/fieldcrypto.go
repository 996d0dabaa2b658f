// Package crypto provides authenticated field-level encryption and display
// masking for stored sensitive identifiers (passenger document numbers).
package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	pkgerrors "manifestgate/pkg/errors"
)

const (
	// KeyHexLength is the required length of the configured key string.
	KeyHexLength = 64

	maskRune      = '*'
	maskWidth     = 8
	visibleSuffix = 4
)

// Cipher wraps an AEAD with a fresh random nonce per call. Construct once at
// process start; a bad key is a startup failure, never a runtime one.
type Cipher struct {
	aead cipher.AEAD
}

// New builds a Cipher from a 64-hex-character (32-byte) key.
func New(hexKey string) (*Cipher, error) {
	if len(hexKey) != KeyHexLength {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "field encryption key must be 64 hex characters")
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "field encryption key is not valid hex")
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext under a random nonce and returns
// base64(nonce || ciphertext) suitable for a text column.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", pkgerrors.New(pkgerrors.CodeBadRequest, "plaintext must not be empty")
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Callers on read paths should prefer
// DecryptOrMask, which never fails.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeBadRequest, "ciphertext is not valid base64")
	}
	if len(raw) < c.aead.NonceSize() {
		return "", pkgerrors.New(pkgerrors.CodeBadRequest, "ciphertext shorter than nonce")
	}
	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeBadRequest, "ciphertext failed authentication")
	}
	return string(plaintext), nil
}

// DecryptOrMask decrypts for display and degrades to masking the raw stored
// value when the ciphertext is legacy or corrupted. Read paths must not fail
// because one row predates the current key.
func (c *Cipher) DecryptOrMask(encoded string) string {
	plaintext, err := c.Decrypt(encoded)
	if err != nil {
		return Mask(encoded)
	}
	return plaintext
}

// Mask redacts a value to a fixed-width string keeping only a short trailing
// suffix. It never errors, whatever the input.
func Mask(value string) string {
	if value == "" {
		return strings.Repeat(string(maskRune), maskWidth)
	}
	suffix := value
	if len(suffix) > visibleSuffix {
		suffix = suffix[len(suffix)-visibleSuffix:]
	}
	return strings.Repeat(string(maskRune), maskWidth) + suffix
}
