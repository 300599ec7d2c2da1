package storage

import (
	"context"
	"errors"

	"github.com/yndnr/authstore/internal/core/domain"
	"github.com/yndnr/authstore/internal/storage/securestore"
)

// SecureFallback stores values directly in the secure store. It is used
// for the rest of the process once the encrypted store has failed to
// initialize.
//
// Values larger than the secure store's per-entry limit fail with
// domain.ErrValueTooLarge; the caller absorbs that like any write failure.
type SecureFallback struct {
	store securestore.Store
}

// NewSecureFallback returns a Backend over store.
func NewSecureFallback(store securestore.Store) *SecureFallback {
	return &SecureFallback{store: store}
}

// Name implements Backend.
func (f *SecureFallback) Name() string { return NameFallback }

// Get implements Backend.
func (f *SecureFallback) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := f.store.Get(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set implements Backend.
func (f *SecureFallback) Set(ctx context.Context, key, value string) error {
	return f.store.Set(ctx, key, value, securestore.WhenUnlockedThisDeviceOnly)
}

// Delete implements Backend.
func (f *SecureFallback) Delete(ctx context.Context, key string) error {
	return f.store.Delete(ctx, key)
}
