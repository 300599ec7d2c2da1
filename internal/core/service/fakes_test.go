package service

import (
	"context"
	"errors"
	"sync"

	"github.com/yndnr/authstore/internal/storage/securestore"
)

var errInjected = errors.New("injected failure")

// fakeBackend is an in-memory storage.Backend with per-key failure
// injection and call counting.
type fakeBackend struct {
	name string

	mu         sync.Mutex
	data       map[string]string
	gets       map[string]int
	sets       map[string]int
	deletes    map[string]int
	failGet    map[string]error
	failSet    map[string]error
	failDelete map[string]error

	// beforeGet runs outside the lock before each Get.
	beforeGet func(key string)
	// beforeSet runs outside the lock before each Set.
	beforeSet func(key string)
}

func newFakeBackend(name string) *fakeBackend {
	return &fakeBackend{
		name:       name,
		data:       make(map[string]string),
		gets:       make(map[string]int),
		sets:       make(map[string]int),
		deletes:    make(map[string]int),
		failGet:    make(map[string]error),
		failSet:    make(map[string]error),
		failDelete: make(map[string]error),
	}
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Get(ctx context.Context, key string) (string, bool, error) {
	if f.beforeGet != nil {
		f.beforeGet(key)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets[key]++
	if err := f.failGet[key]; err != nil {
		return "", false, err
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeBackend) Set(ctx context.Context, key, value string) error {
	if f.beforeSet != nil {
		f.beforeSet(key)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets[key]++
	if err := f.failSet[key]; err != nil {
		return err
	}
	f.data[key] = value
	return nil
}

func (f *fakeBackend) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes[key]++
	if err := f.failDelete[key]; err != nil {
		return err
	}
	delete(f.data, key)
	return nil
}

func (f *fakeBackend) put(key, value string) {
	f.mu.Lock()
	f.data[key] = value
	f.mu.Unlock()
}

func (f *fakeBackend) value(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok
}

func (f *fakeBackend) count(m map[string]int, key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return m[key]
}

func (f *fakeBackend) getCount(key string) int    { return f.count(f.gets, key) }
func (f *fakeBackend) setCount(key string) int    { return f.count(f.sets, key) }
func (f *fakeBackend) deleteCount(key string) int { return f.count(f.deletes, key) }

func (f *fakeBackend) failSetFor(key string, err error) {
	f.mu.Lock()
	f.failSet[key] = err
	f.mu.Unlock()
}

// countingStore wraps a secure store and counts writes.
type countingStore struct {
	securestore.Store

	mu     sync.Mutex
	sets   int
	access []securestore.Accessibility
}

func (c *countingStore) Set(ctx context.Context, id, value string, access securestore.Accessibility) error {
	c.mu.Lock()
	c.sets++
	c.access = append(c.access, access)
	c.mu.Unlock()
	return c.Store.Set(ctx, id, value, access)
}

func (c *countingStore) setCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets
}

// failingReader simulates a missing secure random source.
type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }
