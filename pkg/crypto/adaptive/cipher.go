package adaptive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/crypto/chacha20poly1305"
)

// CipherType identifies the cipher algorithm.
type CipherType string

const (
	CipherAESGCM   CipherType = "aes-gcm"
	CipherChaCha20 CipherType = "chacha20-poly1305"
)

// ErrCiphertextTooShort is returned when a ciphertext cannot hold a nonce.
var ErrCiphertextTooShort = errors.New("adaptive: ciphertext too short")

// Cipher provides authenticated encryption.
type Cipher interface {
	// Type returns the cipher type.
	Type() CipherType

	// Encrypt encrypts plaintext with additional data.
	// The random nonce is prepended to the result.
	Encrypt(plaintext, additionalData []byte) ([]byte, error)

	// Decrypt decrypts ciphertext with additional data.
	Decrypt(ciphertext, additionalData []byte) ([]byte, error)

	// NonceSize returns the nonce size in bytes.
	NonceSize() int

	// Overhead returns the authentication tag size in bytes.
	Overhead() int
}

// New creates a cipher using the algorithm preferred on this hardware.
func New(key []byte) (Cipher, error) {
	t, err := ParseCipherType("")
	if err != nil {
		return nil, err
	}
	return NewWithType(key, t)
}

// ParseCipherType validates a configured algorithm name.
// An empty name selects the hardware-preferred cipher.
func ParseCipherType(name string) (CipherType, error) {
	switch CipherType(name) {
	case "":
		if hasAESNI() {
			return CipherAESGCM, nil
		}
		return CipherChaCha20, nil
	case CipherAESGCM, CipherChaCha20:
		return CipherType(name), nil
	default:
		return "", errors.New("unknown cipher type: " + name)
	}
}

// NewWithType creates a cipher of the specified type.
func NewWithType(key []byte, cipherType CipherType) (Cipher, error) {
	switch cipherType {
	case CipherAESGCM:
		return NewAESGCM(key)
	case CipherChaCha20:
		return NewChaCha20(key)
	default:
		return nil, errors.New("unknown cipher type: " + string(cipherType))
	}
}

// NewAESGCM creates an AES-GCM cipher.
// Key must be 16, 24, or 32 bytes for AES-128, AES-192, or AES-256.
func NewAESGCM(key []byte) (Cipher, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("invalid key size for AES-GCM: %d bytes", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	a, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &sealer{typ: CipherAESGCM, aead: a}, nil
}

// NewChaCha20 creates a ChaCha20-Poly1305 cipher. Key must be exactly 32 bytes.
func NewChaCha20(key []byte) (Cipher, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("invalid key size for ChaCha20-Poly1305: %d bytes", len(key))
	}

	a, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	return &sealer{typ: CipherChaCha20, aead: a}, nil
}

// hasAESNI reports whether Go's AES implementation is hardware accelerated
// on this architecture (AES-NI on amd64, crypto extensions on arm64).
func hasAESNI() bool {
	switch runtime.GOARCH {
	case "amd64", "arm64":
		return true
	default:
		return false
	}
}

// sealer adapts a cipher.AEAD to Cipher with nonce-prefixed output.
type sealer struct {
	typ  CipherType
	aead cipher.AEAD
}

func (s *sealer) Type() CipherType { return s.typ }

func (s *sealer) NonceSize() int { return s.aead.NonceSize() }

func (s *sealer) Overhead() int { return s.aead.Overhead() }

func (s *sealer) Encrypt(plaintext, additionalData []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

func (s *sealer) Decrypt(ciphertext, additionalData []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(ciphertext) < n {
		return nil, ErrCiphertextTooShort
	}
	return s.aead.Open(nil, ciphertext[:n], ciphertext[n:], additionalData)
}
