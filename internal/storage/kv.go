package storage

import (
	"context"
	"time"
)

// Backend is the capability shared by all stores.
//
// Get reports found == false for missing keys; err is reserved for reads
// that could not be completed. Delete of a missing key is not an error.
type Backend interface {
	// Name identifies the backend in logs and metrics.
	Name() string

	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Backend names.
const (
	NameEncrypted = "encrypted"
	NameFallback  = "secure_fallback"
	NamePlain     = "plain"
)

// EncryptedConfig configures the Badger-backed EncryptedStore.
type EncryptedConfig struct {
	// Dir is the database directory, dedicated to this store.
	Dir string

	// Namespace prefixes every key so the database can be shared.
	// Default: "authstore"
	Namespace string

	// EncryptionKey is the 64-character hex key (AES-256).
	EncryptionKey string

	// BlockCacheSize is the block cache size in bytes.
	// Default: 8MB
	BlockCacheSize int64

	// IndexCacheSize is the index cache size in bytes. Badger requires a
	// non-zero index cache when encryption is enabled.
	// Default: 4MB
	IndexCacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 64MB
	ValueLogFileSize int64

	// GCInterval is the interval between value-log GC runs.
	// Default: 10m
	GCInterval time.Duration

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// SyncWrites fsyncs after each write.
	// Default: true
	SyncWrites bool
}

// DefaultEncryptedConfig returns the default EncryptedStore configuration.
func DefaultEncryptedConfig(dir string) EncryptedConfig {
	return EncryptedConfig{
		Dir:              dir,
		Namespace:        "authstore",
		BlockCacheSize:   8 << 20,
		IndexCacheSize:   4 << 20,
		ValueLogFileSize: 64 << 20,
		GCInterval:       10 * time.Minute,
		GCThreshold:      0.5,
		SyncWrites:       true,
	}
}

// PlainConfig configures a bolt-backed PlainStore.
type PlainConfig struct {
	// Path is the database file.
	Path string

	// Bucket scopes the store inside the file.
	Bucket string

	// OpenTimeout bounds waiting for the file lock.
	// Default: 1s
	OpenTimeout time.Duration
}
