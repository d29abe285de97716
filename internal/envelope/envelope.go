// Package envelope seals single text fields with AES-256-GCM for storage at rest.
//
// Stored form: Cipher is base64(ciphertext || 16-byte tag) and Nonce is
// base64 of the 12-byte nonce, both standard encoding.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// KeySize is the required key length for AES-256-GCM.
	KeySize = 32
	// NonceSize is the GCM standard nonce size.
	NonceSize = 12
	// TagSize is the GCM authentication tag size.
	TagSize = 16
)

var (
	ErrInvalidKeySize = fmt.Errorf("key must be exactly %d bytes", KeySize)
	ErrEmptyKey       = errors.New("encryption key not configured")
)

// Sealed is the stored shape of an encrypted field.
type Sealed struct {
	Cipher string
	Nonce  string
}

// Envelope encrypts and decrypts text with a server-held key.
// The zero value and an Envelope built from a bad key are disabled:
// Seal reports ok=false and Open reports ok=false.
type Envelope struct {
	aead cipher.AEAD
}

// New builds an Envelope from a raw 32-byte key.
func New(key []byte) (*Envelope, error) {
	if len(key) != KeySize {
		return &Envelope{}, ErrInvalidKeySize
	}
	aead, err := newAEAD(key)
	if err != nil {
		return &Envelope{}, err
	}
	return &Envelope{aead: aead}, nil
}

// FromConfig builds an Envelope from a configured key string (base64 or hex).
// An empty string returns a disabled envelope and ErrEmptyKey.
func FromConfig(raw string) (*Envelope, error) {
	key, err := ParseKey(raw)
	if err != nil {
		return &Envelope{}, err
	}
	return New(key)
}

// ParseKey decodes a 32-byte key given as standard/URL base64 or hex.
func ParseKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrEmptyKey
	}
	decoders := []func(string) ([]byte, error){
		base64.StdEncoding.DecodeString,
		base64.RawStdEncoding.DecodeString,
		base64.URLEncoding.DecodeString,
		base64.RawURLEncoding.DecodeString,
		hex.DecodeString,
	}
	for _, decode := range decoders {
		if key, err := decode(raw); err == nil && len(key) == KeySize {
			return key, nil
		}
	}
	return nil, ErrInvalidKeySize
}

// Enabled reports whether a valid key is configured.
func (e *Envelope) Enabled() bool {
	return e != nil && e.aead != nil
}

// Seal encrypts plaintext under a fresh random nonce.
func (e *Envelope) Seal(plaintext string) (Sealed, bool) {
	if !e.Enabled() {
		return Sealed{}, false
	}
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return Sealed{}, false
	}
	// Seal appends the tag to the ciphertext.
	ct := e.aead.Seal(nil, nonce, []byte(plaintext), nil)
	return Sealed{
		Cipher: base64.StdEncoding.EncodeToString(ct),
		Nonce:  base64.StdEncoding.EncodeToString(nonce),
	}, true
}

// Open reverses Seal. Any malformed input or tag mismatch yields ok=false.
func (e *Envelope) Open(cipherText, nonce string) (string, bool) {
	if !e.Enabled() {
		return "", false
	}
	ct, err := base64.StdEncoding.DecodeString(cipherText)
	if err != nil || len(ct) < TagSize {
		return "", false
	}
	n, err := base64.StdEncoding.DecodeString(nonce)
	if err != nil || len(n) != NonceSize {
		return "", false
	}
	pt, err := e.aead.Open(nil, n, ct, nil)
	if err != nil {
		return "", false
	}
	return string(pt), true
}

// Encrypt seals plaintext with key. It returns nil when key is not a valid 32-byte key.
func Encrypt(plaintext string, key []byte) *Sealed {
	env, err := New(key)
	if err != nil {
		return nil
	}
	s, ok := env.Seal(plaintext)
	if !ok {
		return nil
	}
	return &s
}

// Decrypt opens a sealed field with key. It returns nil on any failure.
func Decrypt(cipherText, nonce string, key []byte) *string {
	env, err := New(key)
	if err != nil {
		return nil
	}
	pt, ok := env.Open(cipherText, nonce)
	if !ok {
		return nil
	}
	return &pt
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return gcm, nil
}
