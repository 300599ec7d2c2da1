package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spaolacci/murmur3"
	"golang.org/x/sync/singleflight"

	"github.com/yndnr/authstore/internal/core/compactor"
	"github.com/yndnr/authstore/internal/core/domain"
	"github.com/yndnr/authstore/internal/storage"
	"github.com/yndnr/authstore/internal/telemetry/logger"
	"github.com/yndnr/authstore/internal/telemetry/metric"
	"github.com/yndnr/authstore/pkg/cmap"
)

const writeLockStripes = 64

// Coordinator is the native Storage implementation.
//
// Concurrent reads of one key share a single fetch (and migration).
// Writes are compacted, skipped when identical to the last persisted value
// and skipped for good once a write to the key has failed.
type Coordinator struct {
	resolver  *backendResolver
	migrator  *Migrator
	fallback  storage.Backend
	legacy    storage.Backend
	ioTimeout time.Duration
	logger    logger.Logger
	metrics   *metric.Registry

	inflight    singleflight.Group
	lastWritten *cmap.Map[string]
	disabled    *cmap.Map[struct{}]

	// Serializes compare-and-write and migration per key so LastWritten
	// matches the store.
	writeLocks [writeLockStripes]sync.Mutex
}

type readResult struct {
	value string
	found bool
}

// GetItem returns the value for key, migrating it from the legacy store
// on the first miss.
func (c *Coordinator) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := domain.ValidateStorageKey(key); err != nil {
		return "", false, err
	}
	backend, err := c.resolver.Resolve(ctx)
	if err != nil {
		return "", false, err
	}

	ch := c.inflight.DoChan(key, func() (any, error) {
		return c.read(context.WithoutCancel(ctx), backend, key)
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.metrics.IncCoalesced()
		}
		if res.Err != nil {
			return "", false, res.Err
		}
		r := res.Val.(readResult)
		return r.value, r.found, nil
	case <-ctx.Done():
		return "", false, fmt.Errorf("get %q: %w", key, ctx.Err())
	}
}

func (c *Coordinator) read(ctx context.Context, backend storage.Backend, key string) (readResult, error) {
	res, err := callWithTimeout(ctx, c.ioTimeout, func(ctx context.Context) (readResult, error) {
		v, found, err := backend.Get(ctx, key)
		if err != nil || found {
			return readResult{v, found}, err
		}
		return c.migrate(ctx, backend, key)
	})

	switch {
	case err != nil:
		c.metrics.RecordRead(backend.Name(), metric.ReadError)
		c.logger.Warn("read failed", "item", key, "backend", backend.Name(), "error", err)
		return readResult{}, fmt.Errorf("get %q: %w", key, err)
	case res.found:
		c.metrics.RecordRead(backend.Name(), metric.ReadHit)
	default:
		c.metrics.RecordRead(backend.Name(), metric.ReadMiss)
	}
	return res, nil
}

// migrate runs the legacy migration under the key's write lock, so a
// concurrent SetItem either lands before it (and wins) or after it. The lock
// outlives a timed out read: a later read waits for the pending migration
// instead of starting another one.
func (c *Coordinator) migrate(ctx context.Context, backend storage.Backend, key string) (readResult, error) {
	if c.legacy == nil {
		return readResult{}, nil
	}
	mu := c.writeLock(key)
	mu.Lock()
	defer mu.Unlock()

	v, found, err := backend.Get(ctx, key)
	if err != nil || found {
		return readResult{v, found}, err
	}

	m, err := c.migrator.MigrateIfNeeded(ctx, backend, key)
	if err != nil || !m.Found {
		return readResult{}, err
	}
	if m.Persisted {
		c.lastWritten.Set(key, m.Value)
	} else {
		c.disable(key)
	}
	return readResult{m.Value, true}, nil
}

// SetItem compacts value and persists it. Persistence failures are logged
// and disable further writes for key; they are never returned.
func (c *Coordinator) SetItem(ctx context.Context, key, value string) error {
	if err := domain.ValidateStorageKey(key); err != nil {
		return err
	}
	backend, err := c.resolver.Resolve(ctx)
	if err != nil {
		return err
	}

	result := compactor.Compact(value)
	compacted := result.Value

	mu := c.writeLock(key)
	mu.Lock()
	defer mu.Unlock()

	if c.disabled.Has(key) {
		c.metrics.RecordWrite(backend.Name(), metric.WriteDisabled)
		c.logger.Debug("write skipped, persistence disabled", "item", key)
		return nil
	}
	if c.lastWritten.Equal(key, func(last string) bool { return last == compacted }) {
		c.metrics.RecordWrite(backend.Name(), metric.WriteDuplicate)
		return nil
	}

	_, err = callWithTimeout(context.WithoutCancel(ctx), c.ioTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, backend.Set(ctx, key, compacted)
	})
	if err != nil {
		c.metrics.RecordWrite(backend.Name(), metric.WriteFailed)
		c.disable(key)
		c.logger.Warn("write failed, persistence disabled for item until restart",
			"item", key, "backend", backend.Name(), "byte_length", len(compacted), "error", err)
		return nil
	}

	c.lastWritten.Set(key, compacted)
	c.metrics.RecordWrite(backend.Name(), metric.WriteOK)
	c.metrics.ObserveValueSize(len(compacted))
	c.logSize(key, backend.Name(), compacted, result.DidCompact())
	return nil
}

// RemoveItem deletes key (and its migration flag) from the primary, the
// fallback and the legacy store. Each delete is attempted independently;
// failures are logged. The key's write state is reset afterwards.
func (c *Coordinator) RemoveItem(ctx context.Context, key string) error {
	if err := domain.ValidateStorageKey(key); err != nil {
		return err
	}
	backend, err := c.resolver.Resolve(ctx)
	if err != nil {
		return err
	}

	mu := c.writeLock(key)
	mu.Lock()
	defer mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	c.remove(ctx, "primary", backend, key)
	c.remove(ctx, "primary_flag", backend, domain.MigrationFlagKey(key))
	if c.fallback != nil && c.fallback != backend {
		c.remove(ctx, "fallback", c.fallback, key)
	}
	if c.legacy != nil {
		c.remove(ctx, "legacy", c.legacy, key)
	}

	if _, wasDisabled := c.disabled.Pop(key); wasDisabled {
		c.logger.Info("persistence re-enabled", "item", key)
	}
	c.lastWritten.Delete(key)
	c.metrics.SetDisabledKeys(c.disabled.Count())
	return nil
}

func (c *Coordinator) remove(ctx context.Context, store string, b storage.Backend, key string) {
	_, err := callWithTimeout(ctx, c.ioTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, b.Delete(ctx, key)
	})
	c.metrics.RecordRemove(store, err == nil)
	if err != nil {
		c.logger.Warn("delete failed", "item", key, "store", store, "error", err)
	}
}

// DisabledKeys returns the keys whose writes are currently skipped.
func (c *Coordinator) DisabledKeys() []string {
	return c.disabled.Keys()
}

// BackendName returns the selected backend, or "" before first use.
func (c *Coordinator) BackendName() string {
	if b := c.resolver.Current(); b != nil {
		return b.Name()
	}
	return ""
}

// Close closes the selected backend if it holds resources.
func (c *Coordinator) Close() error {
	if b := c.resolver.Current(); b != nil {
		return closeBackend(b)
	}
	return nil
}

func (c *Coordinator) disable(key string) {
	c.disabled.Set(key, struct{}{})
	c.metrics.SetDisabledKeys(c.disabled.Count())
}

func (c *Coordinator) writeLock(key string) *sync.Mutex {
	return &c.writeLocks[murmur3.Sum32([]byte(key))%writeLockStripes]
}

// logSize reports compacted or large values so oversized sessions are
// visible before they hit the secure store limit.
func (c *Coordinator) logSize(key, backend, value string, didCompact bool) {
	n := len(value)
	if !didCompact && n < 1024 {
		return
	}
	bucket := "<1k"
	switch {
	case n > 2048:
		bucket = ">2k"
	case n >= 1024:
		bucket = "1-2k"
	}
	c.logger.Debug("value persisted",
		"item", key,
		"backend", backend,
		"byte_length", n,
		"bucket", bucket,
		"did_compact", didCompact)
}
