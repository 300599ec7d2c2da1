package securestore

import (
	"context"
	"sync"

	"github.com/yndnr/authstore/internal/core/domain"
)

type memoryEntry struct {
	value  string
	access Accessibility
}

// Memory is an in-process Store. It starts unlocked.
type Memory struct {
	mu           sync.RWMutex
	entries      map[string]memoryEntry
	maxValueSize int
	locked       bool
}

// NewMemory creates an empty in-memory store.
// maxValueSize <= 0 selects DefaultMaxValueSize.
func NewMemory(maxValueSize int) *Memory {
	if maxValueSize <= 0 {
		maxValueSize = DefaultMaxValueSize
	}
	return &Memory{
		entries:      make(map[string]memoryEntry),
		maxValueSize: maxValueSize,
	}
}

// Get returns the value stored under id.
func (m *Memory) Get(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.locked {
		return "", domain.ErrStoreLocked
	}
	e, ok := m.entries[id]
	if !ok {
		return "", domain.ErrNotFound
	}
	return e.value, nil
}

// Set stores value under id.
func (m *Memory) Set(ctx context.Context, id, value string, access Accessibility) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(value) > m.maxValueSize {
		return domain.ErrValueTooLarge.WithDetails(sizeDetails(len(value), m.maxValueSize))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked {
		return domain.ErrStoreLocked
	}
	m.entries[id] = memoryEntry{value: value, access: access}
	return nil
}

// Delete removes id.
func (m *Memory) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked {
		return domain.ErrStoreLocked
	}
	delete(m.entries, id)
	return nil
}

// Access returns the policy recorded for id.
func (m *Memory) Access(id string) (Accessibility, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	return e.access, ok
}

// Lock makes the store refuse all access.
func (m *Memory) Lock() {
	m.mu.Lock()
	m.locked = true
	m.mu.Unlock()
}

// Unlock re-enables access. The passphrase is ignored.
func (m *Memory) Unlock([]byte) error {
	m.mu.Lock()
	m.locked = false
	m.mu.Unlock()
	return nil
}

// Unlocked reports whether the store is accessible.
func (m *Memory) Unlocked() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.locked
}
