package keygen

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// DefaultLength is the default key length in bytes.
const DefaultLength = 32

// ErrEntropy is returned when the random source cannot supply key material.
var ErrEntropy = errors.New("keygen: random source unavailable")

// Bytes reads length random bytes from r. A nil r means crypto/rand.
func Bytes(r io.Reader, length int) ([]byte, error) {
	if length <= 0 {
		return nil, fmt.Errorf("keygen: invalid length %d", length)
	}
	if r == nil {
		r = rand.Reader
	}

	b := make([]byte, length)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEntropy, err)
	}
	return b, nil
}

// Hex returns length random bytes from r as a lowercase hex string.
func Hex(r io.Reader, length int) (string, error) {
	b, err := Bytes(r, length)
	if err != nil {
		return "", err
	}
	defer Zero(b)
	return hex.EncodeToString(b), nil
}

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
