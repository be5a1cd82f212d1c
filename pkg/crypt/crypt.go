// Package crypt provides AES-GCM authenticated encryption for values nexus
// keeps at rest, such as the stored access and refresh tokens.
//
// All ciphertext is base64url-encoded and includes the random nonce prefix,
// so a sealed value can be stored by any state driver:
//
//	box, err := crypt.NewBox(config.AppKey(), "nexus/tokens")
//	enc, err := box.Seal([]byte(token))
//	plain, err := box.Open(enc)
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ErrDecrypt is returned when decryption or authentication fails.
var ErrDecrypt = errors.New("crypt: decryption failed")

// ErrNoKey is returned by NewBox when the secret is empty.
var ErrNoKey = errors.New("crypt: APP_KEY not configured")

// Box seals and opens values with one derived AES-256 key.
type Box struct {
	aead cipher.AEAD
}

// NewBox derives a 32-byte key from secret with HKDF-SHA256. purpose is
// the HKDF info string, so boxes for different purposes never share a key.
func NewBox(secret, purpose string) (*Box, error) {
	if secret == "" {
		return nil, ErrNoKey
	}
	k, err := deriveKey([]byte(secret), purpose)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("crypt: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypt: new GCM: %w", err)
	}
	return &Box{aead: gcm}, nil
}

func deriveKey(secret []byte, purpose string) ([]byte, error) {
	k := make([]byte, 32)
	r := hkdf.New(sha256.New, secret, nil, []byte(purpose))
	if _, err := io.ReadFull(r, k); err != nil {
		return nil, fmt.Errorf("crypt: derive key: %w", err)
	}
	return k, nil
}

// Seal encrypts data. The output format is base64url(nonce || ciphertext || tag).
func (b *Box) Seal(data []byte) ([]byte, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("crypt: nonce: %w", err)
	}

	sealed := b.aead.Seal(nonce, nonce, data, nil)
	out := make([]byte, base64.URLEncoding.EncodedLen(len(sealed)))
	base64.URLEncoding.Encode(out, sealed)
	return out, nil
}

// Open decrypts a value produced by Seal.
func (b *Box) Open(encoded []byte) ([]byte, error) {
	data := make([]byte, base64.URLEncoding.DecodedLen(len(encoded)))
	n, err := base64.URLEncoding.Decode(data, encoded)
	if err != nil {
		return nil, ErrDecrypt
	}
	data = data[:n]

	nonceSize := b.aead.NonceSize()
	if len(data) < nonceSize {
		return nil, ErrDecrypt
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plain, err := b.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plain, nil
}

// Hash returns a SHA-256 hex digest of the input.
func Hash(input string) string {
	h := sha256.Sum256([]byte(input))
	return fmt.Sprintf("%x", h)
}
