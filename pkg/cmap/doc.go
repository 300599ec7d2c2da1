// Package cmap provides a concurrent map for per-key bookkeeping.
//
// Keys are strings; each key is routed to one of a fixed number of shards
// by its murmur3 hash, and every shard has its own RWMutex. Operations on
// different keys rarely contend, which matches the storage layer's rule
// that per-key state is independent.
//
// Usage:
//
//	m := cmap.New[string]()
//	m.Set("key", "value")
//	val, ok := m.Get("key")
//
// Read operations (Get, Has, Range) use RLock, write operations
// (Set, Delete, Pop, Update) use Lock.
package cmap
