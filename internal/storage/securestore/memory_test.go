package securestore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yndnr/authstore/internal/core/domain"
)

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)

	if _, err := m.Get(ctx, "a"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := m.Set(ctx, "a", "v1", WhenUnlockedThisDeviceOnly); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := m.Get(ctx, "a")
	if err != nil || got != "v1" {
		t.Fatalf("Get() = %q, %v; want v1", got, err)
	}
	if access, ok := m.Access("a"); !ok || access != WhenUnlockedThisDeviceOnly {
		t.Errorf("Access() = %v, %v", access, ok)
	}

	if err := m.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := m.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete(missing) error = %v", err)
	}
	if _, err := m.Get(ctx, "a"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get(after delete) error = %v", err)
	}
}

func TestMemory_SizeLimit(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(8)

	if err := m.Set(ctx, "a", "12345678", WhenUnlocked); err != nil {
		t.Fatalf("Set(at limit) error = %v", err)
	}
	err := m.Set(ctx, "a", "123456789", WhenUnlocked)
	if !errors.Is(err, domain.ErrValueTooLarge) {
		t.Fatalf("Set(over limit) error = %v, want ErrValueTooLarge", err)
	}
	if got, _ := m.Get(ctx, "a"); got != "12345678" {
		t.Errorf("oversized write replaced value: %q", got)
	}

	d := NewMemory(0)
	if err := d.Set(ctx, "b", strings.Repeat("x", DefaultMaxValueSize+1), WhenUnlocked); !errors.Is(err, domain.ErrValueTooLarge) {
		t.Errorf("default limit not enforced: %v", err)
	}
}

func TestMemory_Lock(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)
	_ = m.Set(ctx, "a", "v", WhenUnlocked)

	m.Lock()
	if m.Unlocked() {
		t.Fatal("Unlocked() = true after Lock")
	}
	if _, err := m.Get(ctx, "a"); !errors.Is(err, domain.ErrStoreLocked) {
		t.Errorf("Get(locked) error = %v", err)
	}
	if err := m.Set(ctx, "a", "w", WhenUnlocked); !errors.Is(err, domain.ErrStoreLocked) {
		t.Errorf("Set(locked) error = %v", err)
	}

	if err := m.Unlock(nil); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if got, err := m.Get(ctx, "a"); err != nil || got != "v" {
		t.Errorf("Get(after unlock) = %q, %v", got, err)
	}
}

func TestMemory_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMemory(0)
	if _, err := m.Get(ctx, "a"); !errors.Is(err, context.Canceled) {
		t.Errorf("Get() error = %v, want context.Canceled", err)
	}
	if err := m.Set(ctx, "a", "v", WhenUnlocked); !errors.Is(err, context.Canceled) {
		t.Errorf("Set() error = %v, want context.Canceled", err)
	}
}

func TestParseAccessibility(t *testing.T) {
	tests := []struct {
		in      string
		want    Accessibility
		wantErr bool
	}{
		{"", WhenUnlockedThisDeviceOnly, false},
		{"when_unlocked", WhenUnlocked, false},
		{"WHEN_UNLOCKED_THIS_DEVICE_ONLY", WhenUnlockedThisDeviceOnly, false},
		{"always", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAccessibility(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAccessibility(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseAccessibility(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
