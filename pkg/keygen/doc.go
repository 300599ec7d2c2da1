// Package keygen produces random key material.
//
// Keys are read from a caller-supplied entropy source (crypto/rand by
// default). A failing or short source is reported as ErrEntropy and never
// replaced with weaker randomness.
package keygen
