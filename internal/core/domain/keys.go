package domain

import "strings"

// Fixed, versioned identifiers for persisted state.
const (
	// EncryptionKeyID is the secure-store id holding the hex encryption key.
	EncryptionKeyID = "authstore:enc_key:v1"

	// MigrationFlagPrefix prefixes the per-key legacy migration marker.
	MigrationFlagPrefix = "authstore:migrated:v1:"

	// MigrationFlagValue is stored once migration for a key has been attempted.
	MigrationFlagValue = "1"

	// EncryptionKeyBytes is the raw length of the encryption key.
	EncryptionKeyBytes = 32

	// EncryptionKeyHexLen is the length of the hex-encoded encryption key.
	EncryptionKeyHexLen = EncryptionKeyBytes * 2
)

// MigrationFlagKey returns the flag key recording that key was migrated.
func MigrationFlagKey(key string) string {
	return MigrationFlagPrefix + key
}

// IsReservedKey reports whether key collides with internal bookkeeping entries.
func IsReservedKey(key string) bool {
	return key == EncryptionKeyID || strings.HasPrefix(key, MigrationFlagPrefix)
}

// ValidateStorageKey checks a caller-supplied storage key.
func ValidateStorageKey(key string) error {
	if key == "" {
		return ErrMissingArgument.WithDetails("storage key is empty")
	}
	if IsReservedKey(key) {
		return ErrInvalidArgument.WithDetails("storage key uses a reserved prefix")
	}
	return nil
}

// IsValidHexKey reports whether s is a lowercase hex string of EncryptionKeyHexLen characters.
func IsValidHexKey(s string) bool {
	if len(s) != EncryptionKeyHexLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
