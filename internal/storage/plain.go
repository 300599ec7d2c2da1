package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/boltdb/bolt"

	"github.com/yndnr/authstore/internal/core/domain"
)

// PlainStore is an unencrypted Backend over one bolt bucket.
//
// It backs the legacy store that pre-dates encryption and the web
// platform's origin-scoped storage.
type PlainStore struct {
	db     *bolt.DB
	bucket []byte
	closed atomic.Bool
}

// OpenPlain opens the bolt file at cfg.Path and ensures cfg.Bucket exists.
func OpenPlain(cfg PlainConfig) (*PlainStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("bolt: path is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bolt: bucket is required")
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = time.Second
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
		return nil, fmt.Errorf("bolt: create dir: %w", err)
	}

	db, err := bolt.Open(cfg.Path, 0o600, &bolt.Options{Timeout: cfg.OpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("bolt: open %s: %w", cfg.Path, err)
	}

	bucket := []byte(cfg.Bucket)
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bolt: create bucket: %w", err)
	}

	return &PlainStore{db: db, bucket: bucket}, nil
}

// Name implements Backend.
func (p *PlainStore) Name() string { return NamePlain }

// Get implements Backend.
func (p *PlainStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := p.check(ctx); err != nil {
		return "", false, err
	}

	var (
		value string
		found bool
	)
	err := p.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(p.bucket).Get([]byte(key))
		if v != nil {
			// v is only valid inside the transaction.
			value, found = string(v), true
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("bolt: get: %w", err)
	}
	return value, found, nil
}

// Set implements Backend.
func (p *PlainStore) Set(ctx context.Context, key, value string) error {
	if err := p.check(ctx); err != nil {
		return err
	}
	err := p.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(p.bucket).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("bolt: put: %w", err)
	}
	return nil
}

// Delete implements Backend.
func (p *PlainStore) Delete(ctx context.Context, key string) error {
	if err := p.check(ctx); err != nil {
		return err
	}
	err := p.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(p.bucket).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("bolt: delete: %w", err)
	}
	return nil
}

// Len returns the number of entries in the bucket.
func (p *PlainStore) Len() (int, error) {
	if p.closed.Load() {
		return 0, domain.ErrStoreClosed
	}
	n := 0
	err := p.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(p.bucket).Stats().KeyN
		return nil
	})
	return n, err
}

// Close closes the database file.
func (p *PlainStore) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.db.Close()
}

func (p *PlainStore) check(ctx context.Context) error {
	if p.closed.Load() {
		return domain.ErrStoreClosed
	}
	return ctx.Err()
}
