package config

import (
	"path/filepath"
	"time"
)

// Default configuration values.
const (
	DefaultPlatform = "native"

	DefaultDataDir    = "/var/lib/authstore"
	DefaultNamespace  = "authstore"
	DefaultIOTimeout  = 5 * time.Second
	DefaultKeyTimeout = 10 * time.Second

	DefaultBlockCacheSize = 8 << 20
	DefaultIndexCacheSize = 4 << 20
	DefaultGCInterval     = 10 * time.Minute
	DefaultGCThreshold    = 0.5

	DefaultLegacyBucket = "legacy"
	DefaultWebOrigin    = "default"

	DefaultMaxValueSize = 2048
	DefaultKDFTime      = 3
	DefaultKDFMemoryKiB = 64 * 1024
	DefaultKDFThreads   = 4

	DefaultSocket          = "/var/run/authstore/agent.sock"
	DefaultRateLimit       = 200
	DefaultShutdownTimeout = 10 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default agent configuration.
func Default() *AgentConfig {
	return &AgentConfig{
		Platform: DefaultPlatform,
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Storage: StorageSection{
			DataDir:    DefaultDataDir,
			Namespace:  DefaultNamespace,
			IOTimeout:  DefaultIOTimeout,
			KeyTimeout: DefaultKeyTimeout,
			Encrypted: EncryptedConfig{
				Enabled:        true,
				BlockCacheSize: DefaultBlockCacheSize,
				IndexCacheSize: DefaultIndexCacheSize,
				GCInterval:     DefaultGCInterval,
				GCThreshold:    DefaultGCThreshold,
				SyncWrites:     true,
			},
			Legacy: PlainConfig{
				Bucket: DefaultLegacyBucket,
			},
			Web: WebConfig{
				Origin: DefaultWebOrigin,
			},
		},
		SecureStore: SecureStoreConfig{
			MaxValueSize: DefaultMaxValueSize,
			KDF: KDFConfig{
				Time:      DefaultKDFTime,
				MemoryKiB: DefaultKDFMemoryKiB,
				Threads:   DefaultKDFThreads,
			},
		},
		Agent: AgentSection{
			Socket:          DefaultSocket,
			RateLimit:       DefaultRateLimit,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Metrics: MetricsSection{
			Enabled: true,
		},
	}
}

// ResolvePaths fills directory fields left empty from storage.data_dir.
func (c *AgentConfig) ResolvePaths() {
	dataDir := c.Storage.DataDir
	if c.Storage.Encrypted.Dir == "" {
		c.Storage.Encrypted.Dir = filepath.Join(dataDir, "encrypted")
	}
	if c.Storage.Legacy.Path == "" {
		c.Storage.Legacy.Path = filepath.Join(dataDir, "legacy.db")
	}
	if c.Storage.Web.Path == "" {
		c.Storage.Web.Path = filepath.Join(dataDir, "web.db")
	}
	if c.SecureStore.Dir == "" {
		c.SecureStore.Dir = filepath.Join(dataDir, "vault")
	}
}
