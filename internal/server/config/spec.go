package config

import "time"

// AgentConfig is the root configuration for authstore-agent.
type AgentConfig struct {
	// Platform selects the pipeline: "native" or "web".
	Platform    string            `koanf:"platform"`
	Log         LogSection        `koanf:"log"`
	Storage     StorageSection    `koanf:"storage"`
	SecureStore SecureStoreConfig `koanf:"secure_store"`
	Agent       AgentSection      `koanf:"agent"`
	Metrics     MetricsSection    `koanf:"metrics"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// StorageSection configures the credential stores.
type StorageSection struct {
	DataDir   string `koanf:"data_dir"`
	Namespace string `koanf:"namespace"`

	// IOTimeout bounds each store operation.
	IOTimeout time.Duration `koanf:"io_timeout"`

	// KeyTimeout bounds key provisioning plus encrypted store startup.
	KeyTimeout time.Duration `koanf:"key_timeout"`

	Encrypted EncryptedConfig `koanf:"encrypted"`
	Legacy    PlainConfig     `koanf:"legacy"`
	Web       WebConfig       `koanf:"web"`
}

// EncryptedConfig configures the badger-backed primary store.
type EncryptedConfig struct {
	// Enabled=false runs the secure store fallback only.
	Enabled bool `koanf:"enabled"`

	// Dir defaults to <data_dir>/encrypted.
	Dir            string        `koanf:"dir"`
	BlockCacheSize int64         `koanf:"block_cache_size"`
	IndexCacheSize int64         `koanf:"index_cache_size"`
	GCInterval     time.Duration `koanf:"gc_interval"`
	GCThreshold    float64       `koanf:"gc_threshold"`
	SyncWrites     bool          `koanf:"sync_writes"`
}

// PlainConfig locates the unencrypted legacy store.
type PlainConfig struct {
	// Path defaults to <data_dir>/legacy.db.
	Path   string `koanf:"path"`
	Bucket string `koanf:"bucket"`
}

// WebConfig locates the origin-scoped store used on the web platform.
type WebConfig struct {
	Path   string `koanf:"path"`
	Origin string `koanf:"origin"`
}

// SecureStoreConfig configures the file-backed secure store.
type SecureStoreConfig struct {
	Dir          string    `koanf:"dir"`
	DeviceID     string    `koanf:"device_id"`
	Passphrase   string    `koanf:"passphrase"`
	MaxValueSize int       `koanf:"max_value_size"`
	Cipher       string    `koanf:"cipher"`
	KDF          KDFConfig `koanf:"kdf"`
}

// KDFConfig holds the Argon2id parameters for a new secure store.
type KDFConfig struct {
	Time      uint32 `koanf:"time"`
	MemoryKiB uint32 `koanf:"memory_kib"`
	Threads   uint8  `koanf:"threads"`
}

// AgentSection configures the local socket server.
type AgentSection struct {
	Socket string `koanf:"socket"`

	// RateLimit is the request budget per second. Zero disables limiting.
	RateLimit       int           `koanf:"rate_limit"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// MetricsSection toggles the /metrics endpoint.
type MetricsSection struct {
	Enabled bool `koanf:"enabled"`
}
