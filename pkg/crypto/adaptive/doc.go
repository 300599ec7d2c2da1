// Package adaptive provides authenticated encryption for authstore.
//
// This package implements a cipher abstraction that selects the best
// available AEAD for the host, or a fixed one when the algorithm was
// recorded alongside previously encrypted data.
//
// Supported Algorithms:
//
//   - AES-256-GCM: Preferred when hardware AES support is available
//   - ChaCha20-Poly1305: Fallback for systems without AES-NI
//
// Ciphertexts carry their random nonce as a prefix. Additional data binds
// a ciphertext to its context (entry id, access policy, device).
//
// Usage:
//
//	c, err := adaptive.NewWithType(key, adaptive.CipherChaCha20)
//	sealed, err := c.Encrypt(plaintext, aad)
//	plaintext, err := c.Decrypt(sealed, aad)
package adaptive
