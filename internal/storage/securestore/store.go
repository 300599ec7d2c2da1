package securestore

import (
	"context"
	"fmt"
	"strings"
)

// Accessibility is the access policy attached to an entry.
type Accessibility int

const (
	// WhenUnlocked entries are readable while the store is unlocked.
	WhenUnlocked Accessibility = iota + 1

	// WhenUnlockedThisDeviceOnly entries are additionally bound to this device
	// and are never readable from a copy of the store taken elsewhere.
	WhenUnlockedThisDeviceOnly
)

// String returns the policy name.
func (a Accessibility) String() string {
	switch a {
	case WhenUnlocked:
		return "when_unlocked"
	case WhenUnlockedThisDeviceOnly:
		return "when_unlocked_this_device_only"
	default:
		return fmt.Sprintf("accessibility(%d)", int(a))
	}
}

// ParseAccessibility parses a policy name.
func ParseAccessibility(s string) (Accessibility, error) {
	switch strings.ToLower(s) {
	case "when_unlocked":
		return WhenUnlocked, nil
	case "", "when_unlocked_this_device_only":
		return WhenUnlockedThisDeviceOnly, nil
	default:
		return 0, fmt.Errorf("securestore: unknown accessibility %q", s)
	}
}

// DefaultMaxValueSize is the default per-entry limit in bytes.
const DefaultMaxValueSize = 2048

// Store is a keychain-like secret store.
//
// Get returns domain.ErrNotFound for missing ids. Delete of a missing id
// is not an error.
type Store interface {
	Get(ctx context.Context, id string) (string, error)
	Set(ctx context.Context, id, value string, access Accessibility) error
	Delete(ctx context.Context, id string) error
}

// Locker is implemented by stores whose contents can be locked.
type Locker interface {
	Lock()
	Unlock(passphrase []byte) error
	Unlocked() bool
}
