package main

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/yndnr/authstore/internal/core/service"
	"github.com/yndnr/authstore/internal/server/config"
	"github.com/yndnr/authstore/internal/storage"
	"github.com/yndnr/authstore/internal/storage/securestore"
	"github.com/yndnr/authstore/internal/telemetry/logger"
	"github.com/yndnr/authstore/internal/telemetry/metric"
)

// webBucketPrefix scopes web platform buckets by origin.
const webBucketPrefix = "origin:"

// pipeline is the storage selected for this process plus everything that
// must be released on shutdown.
type pipeline struct {
	storage service.Storage
	closers []io.Closer
	vault   *securestore.Vault
}

// Close releases the stores in reverse order of opening.
func (p *pipeline) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.vault != nil {
		p.vault.Lock()
	}
	return errors.Join(errs...)
}

func buildPipeline(cfg *config.AgentConfig, log logger.Logger, metrics *metric.Registry) (*pipeline, error) {
	platform, err := service.ParsePlatform(cfg.Platform)
	if err != nil {
		return nil, err
	}
	opts := service.Options{
		Platform:   platform,
		IOTimeout:  cfg.Storage.IOTimeout,
		KeyTimeout: cfg.Storage.KeyTimeout,
	}

	if platform == service.PlatformWeb {
		return buildWeb(cfg, log, opts)
	}
	return buildNative(cfg, log, metrics, opts)
}

func buildWeb(cfg *config.AgentConfig, log logger.Logger, opts service.Options) (*pipeline, error) {
	web, err := storage.OpenPlain(storage.PlainConfig{
		Path:   cfg.Storage.Web.Path,
		Bucket: webBucketPrefix + cfg.Storage.Web.Origin,
	})
	if err != nil {
		return nil, err
	}

	st, err := service.NewStorage(service.Dependencies{Web: web, Logger: log}, opts)
	if err != nil {
		web.Close()
		return nil, err
	}
	return &pipeline{storage: st, closers: []io.Closer{web}}, nil
}

func buildNative(cfg *config.AgentConfig, log logger.Logger, metrics *metric.Registry, opts service.Options) (*pipeline, error) {
	passphrase := strings.TrimSpace(cfg.SecureStore.Passphrase)
	if passphrase == "" {
		return nil, errPassphraseRequired
	}

	vault, err := securestore.OpenVault(securestore.VaultConfig{
		Dir:          cfg.SecureStore.Dir,
		DeviceID:     cfg.SecureStore.DeviceID,
		MaxValueSize: cfg.SecureStore.MaxValueSize,
		Cipher:       cfg.SecureStore.Cipher,
		KDF: securestore.KDFParams{
			Time:      cfg.SecureStore.KDF.Time,
			MemoryKiB: cfg.SecureStore.KDF.MemoryKiB,
			Threads:   cfg.SecureStore.KDF.Threads,
		},
		Logger: logger.Slog(log),
	})
	if err != nil {
		return nil, err
	}
	if err := vault.Unlock([]byte(passphrase)); err != nil {
		return nil, err
	}
	p := &pipeline{vault: vault}

	deps := service.Dependencies{
		SecureStore: vault,
		Logger:      log,
		Metrics:     metrics,
	}

	legacy, err := openLegacy(cfg.Storage.Legacy)
	if err != nil {
		p.Close()
		return nil, err
	}
	if legacy != nil {
		deps.Legacy = legacy
		p.closers = append(p.closers, legacy)
	}

	if cfg.Storage.Encrypted.Enabled {
		deps.OpenPrimary = primaryFactory(cfg, log, metrics)
	} else {
		log.Info("encrypted store disabled, using secure store fallback")
	}

	coord, err := service.NewCoordinator(deps, opts)
	if err != nil {
		p.Close()
		return nil, err
	}
	p.storage = coord
	p.closers = append(p.closers, coord)
	return p, nil
}

// openLegacy opens the legacy store only when its file exists, so a fresh
// install never creates one.
func openLegacy(cfg config.PlainConfig) (*storage.PlainStore, error) {
	if cfg.Path == "" {
		return nil, nil
	}
	if _, err := os.Stat(cfg.Path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return storage.OpenPlain(storage.PlainConfig{Path: cfg.Path, Bucket: cfg.Bucket})
}

func primaryFactory(cfg *config.AgentConfig, log logger.Logger, metrics *metric.Registry) service.PrimaryFactory {
	return func(ctx context.Context, key string) (storage.Backend, error) {
		ecfg := storage.DefaultEncryptedConfig(cfg.Storage.Encrypted.Dir)
		ecfg.Namespace = cfg.Storage.Namespace
		ecfg.EncryptionKey = key
		ecfg.BlockCacheSize = cfg.Storage.Encrypted.BlockCacheSize
		ecfg.IndexCacheSize = cfg.Storage.Encrypted.IndexCacheSize
		ecfg.GCInterval = cfg.Storage.Encrypted.GCInterval
		ecfg.GCThreshold = cfg.Storage.Encrypted.GCThreshold
		ecfg.SyncWrites = cfg.Storage.Encrypted.SyncWrites

		store, err := storage.OpenEncrypted(ecfg, logger.Slog(log))
		if err != nil {
			return nil, err
		}
		if metrics != nil {
			if err := store.RegisterMetrics(metrics.Registerer()); err != nil {
				log.Warn("encrypted store metrics not registered", "error", err)
			}
		}
		return store, nil
	}
}
