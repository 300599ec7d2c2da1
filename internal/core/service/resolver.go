package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/yndnr/authstore/internal/core/domain"
	"github.com/yndnr/authstore/internal/storage"
	"github.com/yndnr/authstore/internal/telemetry/logger"
	"github.com/yndnr/authstore/internal/telemetry/metric"
)

// PrimaryFactory opens the encrypted primary store with the hex key.
type PrimaryFactory func(ctx context.Context, key string) (storage.Backend, error)

// backendResolver picks the backend on first use and keeps it for the
// life of the process. The primary is attempted once; any failure other
// than domain.ErrCryptoUnavailable selects the fallback permanently.
type backendResolver struct {
	keys        *KeyProvider
	openPrimary PrimaryFactory
	fallback    storage.Backend
	timeout     time.Duration
	logger      logger.Logger
	metrics     *metric.Registry

	mu      sync.Mutex
	backend storage.Backend
	fatal   error
}

func (r *backendResolver) Resolve(ctx context.Context) (storage.Backend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fatal != nil {
		return nil, r.fatal
	}
	if r.backend != nil {
		return r.backend, nil
	}

	// Initialization outlives the caller that triggered it.
	initCtx := context.WithoutCancel(ctx)

	if r.openPrimary == nil {
		r.useFallback(nil)
		return r.backend, nil
	}

	primary, err := callWithTimeout(initCtx, r.timeout, func(ctx context.Context) (storage.Backend, error) {
		key, err := r.keys.GetOrCreateKey(ctx)
		if err != nil {
			return nil, err
		}
		b, err := r.openPrimary(ctx, key)
		if err == nil && ctx.Err() != nil {
			// Too late: the caller already moved on to the fallback.
			closeBackend(b)
			return nil, ctx.Err()
		}
		return b, err
	})
	if errors.Is(err, domain.ErrCryptoUnavailable) {
		r.fatal = err
		r.logger.Error("secure random source unavailable", "error", err)
		return nil, err
	}
	if err != nil {
		r.useFallback(err)
		return r.backend, nil
	}

	r.backend = primary
	r.metrics.SetFallbackActive(false)
	r.logger.Debug("encrypted store selected")
	return r.backend, nil
}

func (r *backendResolver) useFallback(cause error) {
	r.backend = r.fallback
	r.metrics.SetFallbackActive(true)
	if cause != nil {
		r.logger.Warn("encrypted store unavailable, using secure store fallback",
			"error", domain.ErrPrimaryUnavailable.WithCause(cause))
	} else {
		r.logger.Info("encrypted store disabled, using secure store")
	}
}

// Current returns the resolved backend, or nil before first use.
func (r *backendResolver) Current() storage.Backend {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend
}

// callWithTimeout runs fn and stops waiting after d. fn keeps running in
// the background if it ignores ctx; its result is then discarded.
func callWithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if d <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		val T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		ch <- result{v, err}
	}()

	select {
	case res := <-ch:
		return res.val, res.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func closeBackend(b storage.Backend) error {
	if c, ok := b.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
