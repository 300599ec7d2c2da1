package service

import (
	"context"
	"fmt"

	"github.com/yndnr/authstore/internal/core/compactor"
	"github.com/yndnr/authstore/internal/core/domain"
	"github.com/yndnr/authstore/internal/storage"
	"github.com/yndnr/authstore/internal/telemetry/logger"
	"github.com/yndnr/authstore/internal/telemetry/metric"
)

// MigrationResult describes what MigrateIfNeeded did for one key.
type MigrationResult struct {
	// Value is the compacted legacy value when Found.
	Value string

	// Found reports that a legacy entry existed on this attempt.
	Found bool

	// Persisted reports that Value was written to the primary store and the
	// legacy entry was released for deletion.
	Persisted bool
}

// Migrator moves entries from the legacy plain store into the primary
// store, once per key.
type Migrator struct {
	legacy  storage.Backend
	logger  logger.Logger
	metrics *metric.Registry
}

// NewMigrator creates a migrator. A nil legacy store disables migration.
func NewMigrator(legacy storage.Backend, log logger.Logger, metrics *metric.Registry) *Migrator {
	if log == nil {
		log = logger.Nop()
	}
	return &Migrator{legacy: legacy, logger: log, metrics: metrics}
}

// MigrateIfNeeded runs after a primary miss for key.
//
// If the migration flag is already set it does nothing. Otherwise it reads
// the legacy entry, sets the flag, and when the entry exists writes its
// compacted form into primary, unless primary gained a value meanwhile. The legacy entry is deleted only after that
// write succeeds; on failure the compacted value is still returned with
// Persisted == false.
//
// A legacy read error is returned without setting the flag.
func (m *Migrator) MigrateIfNeeded(ctx context.Context, primary storage.Backend, key string) (MigrationResult, error) {
	if m.legacy == nil {
		return MigrationResult{}, nil
	}

	flagKey := domain.MigrationFlagKey(key)
	_, flagged, err := primary.Get(ctx, flagKey)
	if err != nil {
		return MigrationResult{}, fmt.Errorf("migration flag: %w", err)
	}
	if flagged {
		return MigrationResult{}, nil
	}

	log := m.logger.With("item", key, "backend", primary.Name())

	raw, found, err := m.legacy.Get(ctx, key)
	if err != nil {
		m.metrics.RecordMigration(metric.MigrationReadFailed)
		return MigrationResult{}, fmt.Errorf("legacy read: %w", err)
	}

	if err := primary.Set(ctx, flagKey, domain.MigrationFlagValue); err != nil {
		log.Warn("migration flag not persisted", "error", err)
	}

	if !found {
		m.metrics.RecordMigration(metric.MigrationAbsent)
		return MigrationResult{}, nil
	}

	// A value written since the caller's miss is newer than the legacy one.
	current, has, err := primary.Get(ctx, key)
	if err != nil {
		return MigrationResult{}, fmt.Errorf("primary recheck: %w", err)
	}
	if has {
		if err := m.legacy.Delete(ctx, key); err != nil {
			log.Warn("superseded legacy entry not deleted", "error", err)
		}
		m.metrics.RecordMigration(metric.MigrationSuperseded)
		log.Info("legacy entry superseded by a newer write")
		return MigrationResult{Value: current, Found: true, Persisted: true}, nil
	}

	value, didCompact := compactor.CompactString(raw)
	res := MigrationResult{Value: value, Found: true}

	if err := primary.Set(ctx, key, value); err != nil {
		m.metrics.RecordMigration(metric.MigrationWriteFailed)
		log.Warn("legacy migration write failed, legacy entry kept", "error", err)
		return res, nil
	}
	res.Persisted = true

	if err := m.legacy.Delete(ctx, key); err != nil {
		log.Warn("legacy entry not deleted after migration", "error", err)
	}

	m.metrics.RecordMigration(metric.MigrationMigrated)
	log.Info("legacy entry migrated", "did_compact", didCompact, "byte_length", len(value))
	return res, nil
}
