package benchmark

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/authstore/internal/core/service"
	"github.com/yndnr/authstore/internal/storage"
	"github.com/yndnr/authstore/internal/storage/securestore"
)

// PayloadSizes are the padded user-metadata sizes used by size sweeps.
var PayloadSizes = []int{0, 512, 2048, 8192}

// sessionPayload returns a session JSON document carrying extra bytes of
// metadata that compaction drops.
func sessionPayload(extra int) string {
	return fmt.Sprintf(`{"access_token":"eyJhbGciOiJIUzI1NiJ9.%s.sig","refresh_token":"%s",`+
		`"token_type":"bearer","expires_at":1767225600,"expires_in":3600,`+
		`"user":{"id":"%s","email":"bench@example.com","user_metadata":{"name":"Bench","bio":"%s"},"app_metadata":{"provider":"email"}}}`,
		ulid.Make().String(), ulid.Make().String(), ulid.Make().String(), strings.Repeat("x", extra))
}

// sizeLabel returns a human-readable size label.
func sizeLabel(size int) string {
	switch {
	case size >= 1024:
		return fmt.Sprintf("%dKB", size/1024)
	default:
		return fmt.Sprintf("%dB", size)
	}
}

// openEncrypted opens a throwaway encrypted store.
func openEncrypted(b *testing.B) *storage.EncryptedStore {
	b.Helper()
	cfg := storage.DefaultEncryptedConfig(filepath.Join(b.TempDir(), "encrypted"))
	cfg.EncryptionKey = strings.Repeat("ab", 32)
	cfg.SyncWrites = false
	s, err := storage.OpenEncrypted(cfg, nil)
	if err != nil {
		b.Fatalf("open encrypted store: %v", err)
	}
	b.Cleanup(func() { s.Close() })
	return s
}

// newPipeline builds the native pipeline over a throwaway encrypted store.
func newPipeline(b *testing.B) *service.Coordinator {
	b.Helper()
	dir := b.TempDir()
	deps := service.Dependencies{
		SecureStore: securestore.NewMemory(0),
		OpenPrimary: func(ctx context.Context, key string) (storage.Backend, error) {
			cfg := storage.DefaultEncryptedConfig(filepath.Join(dir, "encrypted"))
			cfg.EncryptionKey = key
			cfg.SyncWrites = false
			return storage.OpenEncrypted(cfg, nil)
		},
	}
	c, err := service.NewCoordinator(deps, service.DefaultOptions())
	if err != nil {
		b.Fatalf("new coordinator: %v", err)
	}
	b.Cleanup(func() { c.Close() })
	return c
}
