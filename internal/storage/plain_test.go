package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/yndnr/authstore/internal/core/domain"
)

func openTestPlain(t *testing.T, path, bucket string) *PlainStore {
	t.Helper()
	p, err := OpenPlain(PlainConfig{Path: path, Bucket: bucket})
	if err != nil {
		t.Fatalf("OpenPlain() error = %v", err)
	}
	return p
}

func TestPlainStore_BasicOperations(t *testing.T) {
	p := openTestPlain(t, filepath.Join(t.TempDir(), "legacy.db"), "legacy")
	defer p.Close()
	ctx := context.Background()

	if _, found, err := p.Get(ctx, "k"); err != nil || found {
		t.Fatalf("Get(missing) = %v, %v", found, err)
	}
	if err := p.Set(ctx, "k", "v"); err != nil {
		t.Fatal(err)
	}
	if got, found, err := p.Get(ctx, "k"); err != nil || !found || got != "v" {
		t.Fatalf("Get() = %q, %v, %v", got, found, err)
	}
	if n, _ := p.Len(); n != 1 {
		t.Errorf("Len() = %d, want 1", n)
	}
	if err := p.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if err := p.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete(missing) error = %v", err)
	}
	if _, found, _ := p.Get(ctx, "k"); found {
		t.Error("expected key deleted")
	}
}

func TestPlainStore_BucketsAreIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "web.db")
	ctx := context.Background()

	a := openTestPlain(t, path, "https://a.example")
	_ = a.Set(ctx, "k", "a")
	_ = a.Close()

	b := openTestPlain(t, path, "https://b.example")
	defer b.Close()
	if _, found, _ := b.Get(ctx, "k"); found {
		t.Error("origins should not share keys")
	}
}

func TestPlainStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "legacy.db")
	ctx := context.Background()

	p := openTestPlain(t, path, "legacy")
	_ = p.Set(ctx, "k", "v")
	_ = p.Close()

	p = openTestPlain(t, path, "legacy")
	defer p.Close()
	if got, found, _ := p.Get(ctx, "k"); !found || got != "v" {
		t.Errorf("Get() after reopen = %q, %v", got, found)
	}
}

func TestPlainStore_Closed(t *testing.T) {
	p := openTestPlain(t, filepath.Join(t.TempDir(), "x.db"), "b")
	_ = p.Close()
	if err := p.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, _, err := p.Get(context.Background(), "k"); !errors.Is(err, domain.ErrStoreClosed) {
		t.Errorf("Get() after close error = %v", err)
	}
}

func TestOpenPlain_Validation(t *testing.T) {
	if _, err := OpenPlain(PlainConfig{Bucket: "b"}); err == nil {
		t.Error("expected error for empty path")
	}
	if _, err := OpenPlain(PlainConfig{Path: filepath.Join(t.TempDir(), "x.db")}); err == nil {
		t.Error("expected error for empty bucket")
	}
}
