// Package service implements the session storage pipeline.
//
// This package contains:
//
//   - KeyProvider: lazily provisions the encryption key in the secure store
//   - Migrator: one-time move of legacy plain-store entries
//   - Coordinator: read coalescing, write dedup and per-key circuit breaking
//   - NewStorage: platform selection between WebStorage and the coordinator
//
// Every operation is safe for concurrent use. Persistence failures are
// absorbed, logged and counted; only a missing secure random source is
// reported to callers as fatal.
package service
