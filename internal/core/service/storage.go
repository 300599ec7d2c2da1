package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/yndnr/authstore/internal/core/domain"
	"github.com/yndnr/authstore/internal/storage"
	"github.com/yndnr/authstore/internal/storage/securestore"
	"github.com/yndnr/authstore/internal/telemetry/logger"
	"github.com/yndnr/authstore/internal/telemetry/metric"
	"github.com/yndnr/authstore/pkg/cmap"
)

// Storage is the contract consumed by the auth client.
//
// SetItem and RemoveItem never report persistence failures. GetItem
// reports found == false when nothing exists after migration, and an error
// only when the read could not be completed.
type Storage interface {
	GetItem(ctx context.Context, key string) (value string, found bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// Platform identifies the runtime target.
type Platform string

const (
	PlatformNative Platform = "native"
	PlatformWeb    Platform = "web"
)

// ParsePlatform parses a configured platform name. Empty means native.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToLower(s)) {
	case "", PlatformNative:
		return PlatformNative, nil
	case PlatformWeb:
		return PlatformWeb, nil
	default:
		return "", domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("unknown platform %q", s))
	}
}

// Dependencies are the stores and collaborators behind Storage.
type Dependencies struct {
	// SecureStore holds the encryption key and, in fallback mode, values.
	// Required on native platforms.
	SecureStore securestore.Store

	// OpenPrimary opens the encrypted store. Nil selects the secure store
	// fallback unconditionally.
	OpenPrimary PrimaryFactory

	// Legacy is the pre-encryption plain store. Optional.
	Legacy storage.Backend

	// Web is the origin-scoped plain store. Required on the web platform.
	Web storage.Backend

	// Random is the key entropy source. Nil means crypto/rand.
	Random io.Reader

	Logger  logger.Logger
	Metrics *metric.Registry
}

// Options tune the pipeline.
type Options struct {
	Platform Platform

	// IOTimeout bounds each store operation. Zero disables the bound.
	IOTimeout time.Duration

	// KeyTimeout bounds key provisioning plus primary initialization.
	KeyTimeout time.Duration
}

// DefaultOptions returns native-platform options with default timeouts.
func DefaultOptions() Options {
	return Options{
		Platform:   PlatformNative,
		IOTimeout:  5 * time.Second,
		KeyTimeout: 10 * time.Second,
	}
}

// NewStorage returns WebStorage on the web platform and a Coordinator
// everywhere else. No store is touched until the first call.
func NewStorage(deps Dependencies, opts Options) (Storage, error) {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}

	switch opts.Platform {
	case PlatformWeb:
		if deps.Web == nil {
			return nil, domain.ErrMissingArgument.WithDetails("web store is required on the web platform")
		}
		return NewWebStorage(deps.Web, deps.Logger), nil
	case PlatformNative, "":
		return NewCoordinator(deps, opts)
	default:
		return nil, domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("unknown platform %q", opts.Platform))
	}
}

// NewCoordinator builds the native pipeline.
func NewCoordinator(deps Dependencies, opts Options) (*Coordinator, error) {
	if deps.SecureStore == nil {
		return nil, domain.ErrMissingArgument.WithDetails("secure store is required on native platforms")
	}
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("component", "storage")

	fallback := storage.NewSecureFallback(deps.SecureStore)
	return &Coordinator{
		resolver: &backendResolver{
			keys:        NewKeyProvider(deps.SecureStore, deps.Random, log),
			openPrimary: deps.OpenPrimary,
			fallback:    fallback,
			timeout:     opts.KeyTimeout,
			logger:      log,
			metrics:     deps.Metrics,
		},
		migrator:    NewMigrator(deps.Legacy, log, deps.Metrics),
		fallback:    fallback,
		legacy:      deps.Legacy,
		ioTimeout:   opts.IOTimeout,
		logger:      log,
		metrics:     deps.Metrics,
		lastWritten: cmap.New[string](),
		disabled:    cmap.New[struct{}](),
	}, nil
}

// WebStorage reads and writes an origin-scoped plain store directly.
type WebStorage struct {
	store  storage.Backend
	logger logger.Logger
}

// NewWebStorage wraps store.
func NewWebStorage(store storage.Backend, log logger.Logger) *WebStorage {
	if log == nil {
		log = logger.Nop()
	}
	return &WebStorage{store: store, logger: log.With("component", "web_storage")}
}

// GetItem implements Storage.
func (w *WebStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, domain.ErrMissingArgument.WithDetails("storage key is empty")
	}
	return w.store.Get(ctx, key)
}

// SetItem implements Storage.
func (w *WebStorage) SetItem(ctx context.Context, key, value string) error {
	if key == "" {
		return domain.ErrMissingArgument.WithDetails("storage key is empty")
	}
	if err := w.store.Set(ctx, key, value); err != nil {
		w.logger.Warn("write failed", "item", key, "error", err)
	}
	return nil
}

// RemoveItem implements Storage.
func (w *WebStorage) RemoveItem(ctx context.Context, key string) error {
	if key == "" {
		return domain.ErrMissingArgument.WithDetails("storage key is empty")
	}
	if err := w.store.Delete(ctx, key); err != nil {
		w.logger.Warn("delete failed", "item", key, "error", err)
	}
	return nil
}
