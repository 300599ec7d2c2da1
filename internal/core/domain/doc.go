// Package domain defines the core domain models for authstore.
//
// Domain models are pure value objects without any IO dependencies.
// This package contains:
//
//   - CompactedRecord: the minimized shape of a persisted auth session
//   - Key identifiers: fixed secure-store ids and migration-flag keys
//   - Errors: structured error codes shared by every storage layer
package domain
