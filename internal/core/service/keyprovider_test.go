package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/yndnr/authstore/internal/core/domain"
	"github.com/yndnr/authstore/internal/storage/securestore"
)

func TestKeyProvider_CreatesOnce(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Store: securestore.NewMemory(0)}
	p := NewKeyProvider(store, nil, nil)

	key, err := p.GetOrCreateKey(ctx)
	if err != nil {
		t.Fatalf("GetOrCreateKey() error = %v", err)
	}
	if !domain.IsValidHexKey(key) {
		t.Fatalf("key %q is not 64 lowercase hex chars", key)
	}

	again, err := p.GetOrCreateKey(ctx)
	if err != nil || again != key {
		t.Fatalf("second GetOrCreateKey() = %q, %v; want %q", again, err, key)
	}

	if store.setCount() != 1 {
		t.Errorf("secure store writes = %d, want 1", store.setCount())
	}
	if store.access[0] != securestore.WhenUnlockedThisDeviceOnly {
		t.Errorf("key stored with %v", store.access[0])
	}

	// A fresh provider over the same store reuses the persisted key.
	fresh := NewKeyProvider(store, nil, nil)
	if got, _ := fresh.GetOrCreateKey(ctx); got != key {
		t.Errorf("fresh provider returned %q, want %q", got, key)
	}
	if store.setCount() != 1 {
		t.Errorf("fresh provider wrote the key again")
	}
}

func TestKeyProvider_ExistingKeyVerbatim(t *testing.T) {
	ctx := context.Background()
	mem := securestore.NewMemory(0)
	_ = mem.Set(ctx, domain.EncryptionKeyID, "legacy-key-value", securestore.WhenUnlocked)

	p := NewKeyProvider(mem, failingReader{}, nil)
	key, err := p.GetOrCreateKey(ctx)
	if err != nil {
		t.Fatalf("GetOrCreateKey() error = %v", err)
	}
	if key != "legacy-key-value" {
		t.Errorf("key = %q, want stored value unchanged", key)
	}
}

func TestKeyProvider_Concurrent(t *testing.T) {
	store := &countingStore{Store: securestore.NewMemory(0)}
	p := NewKeyProvider(store, nil, nil)

	const callers = 16
	keys := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k, err := p.GetOrCreateKey(context.Background())
			if err != nil {
				t.Errorf("GetOrCreateKey() error = %v", err)
			}
			keys[i] = k
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if keys[i] != keys[0] {
			t.Fatalf("caller %d got a different key", i)
		}
	}
	if store.setCount() != 1 {
		t.Errorf("secure store writes = %d, want 1", store.setCount())
	}
}

func TestKeyProvider_CryptoUnavailable(t *testing.T) {
	ctx := context.Background()
	mem := securestore.NewMemory(0)
	p := NewKeyProvider(mem, failingReader{}, nil)

	_, err := p.GetOrCreateKey(ctx)
	if !errors.Is(err, domain.ErrCryptoUnavailable) {
		t.Fatalf("error = %v, want ErrCryptoUnavailable", err)
	}
	if _, err := mem.Get(ctx, domain.EncryptionKeyID); !errors.Is(err, domain.ErrNotFound) {
		t.Error("a key was stored despite the entropy failure")
	}
}

func TestKeyProvider_StoreFailure(t *testing.T) {
	mem := securestore.NewMemory(0)
	mem.Lock()
	p := NewKeyProvider(mem, nil, nil)

	_, err := p.GetOrCreateKey(context.Background())
	if err == nil {
		t.Fatal("expected error from locked store")
	}
	if errors.Is(err, domain.ErrCryptoUnavailable) {
		t.Error("store failure must not be reported as crypto unavailable")
	}
	if !errors.Is(err, domain.ErrStoreLocked) {
		t.Errorf("error = %v, want ErrStoreLocked in chain", err)
	}
}
