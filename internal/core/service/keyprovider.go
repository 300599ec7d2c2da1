package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/yndnr/authstore/internal/core/domain"
	"github.com/yndnr/authstore/internal/storage/securestore"
	"github.com/yndnr/authstore/internal/telemetry/logger"
	"github.com/yndnr/authstore/pkg/keygen"
)

// KeyProvider returns the device encryption key, creating it on first use.
type KeyProvider struct {
	store  securestore.Store
	random io.Reader
	logger logger.Logger

	group singleflight.Group

	mu     sync.Mutex
	cached string
}

// NewKeyProvider creates a provider over store. A nil random uses crypto/rand.
func NewKeyProvider(store securestore.Store, random io.Reader, log logger.Logger) *KeyProvider {
	if log == nil {
		log = logger.Nop()
	}
	return &KeyProvider{store: store, random: random, logger: log}
}

// GetOrCreateKey returns the stored key verbatim, or generates, stores and
// returns a new one. Concurrent first callers share one generation.
//
// A failing random source yields domain.ErrCryptoUnavailable.
func (p *KeyProvider) GetOrCreateKey(ctx context.Context) (string, error) {
	p.mu.Lock()
	key := p.cached
	p.mu.Unlock()
	if key != "" {
		return key, nil
	}

	ch := p.group.DoChan(domain.EncryptionKeyID, func() (any, error) {
		return p.load(ctx)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", fmt.Errorf("encryption key: %w", ctx.Err())
	}
}

func (p *KeyProvider) load(ctx context.Context) (string, error) {
	key, err := p.store.Get(ctx, domain.EncryptionKeyID)
	switch {
	case err == nil:
		p.remember(key)
		return key, nil
	case !errors.Is(err, domain.ErrNotFound):
		return "", fmt.Errorf("encryption key: read: %w", err)
	}

	key, err = keygen.Hex(p.random, domain.EncryptionKeyBytes)
	if err != nil {
		return "", domain.ErrCryptoUnavailable.WithCause(err)
	}

	if err := p.store.Set(ctx, domain.EncryptionKeyID, key, securestore.WhenUnlockedThisDeviceOnly); err != nil {
		return "", fmt.Errorf("encryption key: write: %w", err)
	}

	p.logger.Info("encryption key provisioned", "fingerprint", keygen.Fingerprint(key))
	p.remember(key)
	return key, nil
}

func (p *KeyProvider) remember(key string) {
	p.mu.Lock()
	p.cached = key
	p.mu.Unlock()
}
