package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/yndnr/authstore/internal/core/service"
	"github.com/yndnr/authstore/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *AgentConfig) error {
	if _, err := service.ParsePlatform(cfg.Platform); err != nil {
		return fmt.Errorf("platform: %w", err)
	}
	if err := verifyLog(&cfg.Log); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifySecureStore(&cfg.SecureStore); err != nil {
		return err
	}
	return verifyAgent(&cfg.Agent)
}

func verifyLog(cfg *LogSection) error {
	if !logger.ValidLevel(cfg.Level) {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	switch cfg.Format {
	case "json", "text":
		return nil
	default:
		return fmt.Errorf("log.format %q is not one of json, text", cfg.Format)
	}
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return errors.New("cannot create data directory: " + err.Error())
	}
	if cfg.Namespace == "" {
		return errors.New("storage.namespace is required")
	}
	if cfg.IOTimeout < 0 || cfg.KeyTimeout < 0 {
		return errors.New("storage timeouts must not be negative")
	}
	if t := cfg.Encrypted.GCThreshold; t <= 0 || t >= 1 {
		return fmt.Errorf("storage.encrypted.gc_threshold %v must be in (0, 1)", t)
	}
	if cfg.Legacy.Path != "" && cfg.Legacy.Bucket == "" {
		return errors.New("storage.legacy.bucket is required when storage.legacy.path is set")
	}
	if cfg.Web.Origin == "" {
		return errors.New("storage.web.origin is required")
	}
	return nil
}

func verifySecureStore(cfg *SecureStoreConfig) error {
	if cfg.MaxValueSize <= 0 {
		return errors.New("secure_store.max_value_size must be positive")
	}
	if cfg.KDF.Time == 0 || cfg.KDF.MemoryKiB == 0 || cfg.KDF.Threads == 0 {
		return errors.New("secure_store.kdf parameters must be positive")
	}
	return nil
}

func verifyAgent(cfg *AgentSection) error {
	if cfg.Socket == "" {
		return errors.New("agent.socket is required")
	}
	if cfg.RateLimit < 0 {
		return errors.New("agent.rate_limit must not be negative")
	}
	return nil
}
