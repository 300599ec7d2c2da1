package securestore

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"

	"github.com/yndnr/authstore/internal/core/domain"
	"github.com/yndnr/authstore/pkg/crypto/adaptive"
	"github.com/yndnr/authstore/pkg/keygen"
)

const (
	vaultVersion   = 1
	headerFile     = "vault.json"
	entriesDir     = "entries"
	entrySuffix    = ".entry"
	saltLength     = 16
	masterKeyLen   = 32
	entryKeyInfo   = "authstore/vault/entries/v1"
	checkPlaintext = "authstore-vault-check"
	checkAAD       = "authstore/vault/header"
)

// KDFParams are the Argon2id parameters used to derive the master key.
type KDFParams struct {
	Time      uint32 `json:"time"`
	MemoryKiB uint32 `json:"memory_kib"`
	Threads   uint8  `json:"threads"`
}

// DefaultKDF returns the production Argon2id parameters.
func DefaultKDF() KDFParams {
	return KDFParams{Time: 3, MemoryKiB: 64 * 1024, Threads: 4}
}

// VaultConfig configures a file-backed Vault.
type VaultConfig struct {
	// Dir holds the vault header and entries. Created with 0700 if missing.
	Dir string

	// DeviceID binds WhenUnlockedThisDeviceOnly entries to this machine.
	// Empty means ResolveDeviceID("").
	DeviceID string

	// MaxValueSize is the per-entry limit in bytes.
	// Default: DefaultMaxValueSize
	MaxValueSize int

	// Cipher is the AEAD algorithm for a new vault ("" = hardware preferred).
	// Existing vaults keep the algorithm recorded in their header.
	Cipher string

	// KDF parameters for a new vault. Zero value means DefaultKDF().
	KDF KDFParams

	Logger *slog.Logger
}

type vaultHeader struct {
	Version int                 `json:"version"`
	Cipher  adaptive.CipherType `json:"cipher"`
	Salt    []byte              `json:"salt"`
	KDF     KDFParams           `json:"kdf"`
	Check   []byte              `json:"check,omitempty"`
}

type entryFile struct {
	Version int           `json:"v"`
	Access  Accessibility `json:"access"`
	Sealed  []byte        `json:"sealed"`
}

// Vault is a file-backed Store. It is locked until Unlock succeeds.
type Vault struct {
	dir          string
	deviceID     string
	maxValueSize int
	logger       *slog.Logger

	mu     sync.RWMutex
	header vaultHeader
	cipher adaptive.Cipher
}

// OpenVault opens the vault in cfg.Dir, creating its header on first use.
func OpenVault(cfg VaultConfig) (*Vault, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("securestore: dir is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxValueSize <= 0 {
		cfg.MaxValueSize = DefaultMaxValueSize
	}
	if cfg.KDF == (KDFParams{}) {
		cfg.KDF = DefaultKDF()
	}

	if err := os.MkdirAll(filepath.Join(cfg.Dir, entriesDir), 0o700); err != nil {
		return nil, fmt.Errorf("securestore: create dir: %w", err)
	}

	v := &Vault{
		dir:          cfg.Dir,
		deviceID:     ResolveDeviceID(cfg.DeviceID),
		maxValueSize: cfg.MaxValueSize,
		logger:       cfg.Logger,
	}

	hdr, err := v.readHeader()
	switch {
	case err == nil:
		v.header = hdr
	case errors.Is(err, os.ErrNotExist):
		cipherType, perr := adaptive.ParseCipherType(cfg.Cipher)
		if perr != nil {
			return nil, fmt.Errorf("securestore: %w", perr)
		}
		salt, gerr := keygen.Bytes(nil, saltLength)
		if gerr != nil {
			return nil, domain.ErrCryptoUnavailable.WithCause(gerr)
		}
		v.header = vaultHeader{Version: vaultVersion, Cipher: cipherType, Salt: salt, KDF: cfg.KDF}
		if err := v.writeHeader(); err != nil {
			return nil, err
		}
		v.logger.Info("secure store vault created", "dir", cfg.Dir, "cipher", cipherType)
	default:
		return nil, err
	}

	return v, nil
}

// Unlock derives the master key from passphrase and verifies it against the
// header check value. The first successful Unlock of a new vault records it.
func (v *Vault) Unlock(passphrase []byte) error {
	if len(passphrase) == 0 {
		return domain.ErrMissingArgument.WithDetails("passphrase is empty")
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	master := argon2.IDKey(passphrase, v.header.Salt, v.header.KDF.Time, v.header.KDF.MemoryKiB, v.header.KDF.Threads, masterKeyLen)
	defer keygen.Zero(master)

	entryKey := make([]byte, masterKeyLen)
	defer keygen.Zero(entryKey)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, v.header.Salt, []byte(entryKeyInfo)), entryKey); err != nil {
		return fmt.Errorf("securestore: derive entry key: %w", err)
	}

	c, err := adaptive.NewWithType(entryKey, v.header.Cipher)
	if err != nil {
		return fmt.Errorf("securestore: %w", err)
	}

	if len(v.header.Check) == 0 {
		check, err := c.Encrypt([]byte(checkPlaintext), []byte(checkAAD))
		if err != nil {
			return fmt.Errorf("securestore: seal check: %w", err)
		}
		v.header.Check = check
		if err := v.writeHeader(); err != nil {
			v.header.Check = nil
			return err
		}
	} else if pt, err := c.Decrypt(v.header.Check, []byte(checkAAD)); err != nil || string(pt) != checkPlaintext {
		return domain.ErrDecryptFailed.WithDetails("wrong passphrase")
	}

	v.cipher = c
	return nil
}

// Lock discards the derived key.
func (v *Vault) Lock() {
	v.mu.Lock()
	v.cipher = nil
	v.mu.Unlock()
}

// Unlocked reports whether the vault can be read and written.
func (v *Vault) Unlocked() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.cipher != nil
}

// Get returns the value stored under id.
func (v *Vault) Get(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.cipher == nil {
		return "", domain.ErrStoreLocked
	}

	data, err := os.ReadFile(v.entryPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("securestore: read entry: %w", err)
	}

	var ef entryFile
	if err := json.Unmarshal(data, &ef); err != nil {
		return "", domain.ErrDecryptFailed.WithCause(err)
	}

	pt, err := v.cipher.Decrypt(ef.Sealed, v.additionalData(id, ef.Access))
	if err != nil {
		return "", domain.ErrDecryptFailed.WithCause(err)
	}
	return string(pt), nil
}

// Set seals value under id with the given policy.
func (v *Vault) Set(ctx context.Context, id, value string, access Accessibility) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(value) > v.maxValueSize {
		return domain.ErrValueTooLarge.WithDetails(sizeDetails(len(value), v.maxValueSize))
	}
	if access != WhenUnlocked && access != WhenUnlockedThisDeviceOnly {
		return domain.ErrInvalidArgument.WithDetails("unknown accessibility")
	}

	v.mu.RLock()
	c := v.cipher
	v.mu.RUnlock()
	if c == nil {
		return domain.ErrStoreLocked
	}

	sealed, err := c.Encrypt([]byte(value), v.additionalData(id, access))
	if err != nil {
		return fmt.Errorf("securestore: seal entry: %w", err)
	}

	data, err := json.Marshal(entryFile{Version: vaultVersion, Access: access, Sealed: sealed})
	if err != nil {
		return fmt.Errorf("securestore: encode entry: %w", err)
	}
	return writeFileAtomic(v.entryPath(id), data)
}

// Delete removes id. Missing entries are ignored.
func (v *Vault) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !v.Unlocked() {
		return domain.ErrStoreLocked
	}
	if err := os.Remove(v.entryPath(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("securestore: delete entry: %w", err)
	}
	return nil
}

// DeviceID returns the device identity entries are bound to.
func (v *Vault) DeviceID() string {
	return v.deviceID
}

func (v *Vault) entryPath(id string) string {
	return filepath.Join(v.dir, entriesDir, keygen.Digest(id)+entrySuffix)
}

func (v *Vault) additionalData(id string, access Accessibility) []byte {
	aad := "authstore/vault/v1|" + access.String() + "|" + id
	if access == WhenUnlockedThisDeviceOnly {
		aad += "|" + v.deviceID
	}
	return []byte(aad)
}

func (v *Vault) readHeader() (vaultHeader, error) {
	var hdr vaultHeader
	data, err := os.ReadFile(filepath.Join(v.dir, headerFile))
	if err != nil {
		return hdr, err
	}
	if err := json.Unmarshal(data, &hdr); err != nil {
		return hdr, fmt.Errorf("securestore: decode header: %w", err)
	}
	if hdr.Version != vaultVersion {
		return hdr, fmt.Errorf("securestore: unsupported vault version %d", hdr.Version)
	}
	return hdr, nil
}

func (v *Vault) writeHeader() error {
	data, err := json.MarshalIndent(v.header, "", "  ")
	if err != nil {
		return fmt.Errorf("securestore: encode header: %w", err)
	}
	return writeFileAtomic(filepath.Join(v.dir, headerFile), data)
}

// writeFileAtomic writes data to a temp file in the same directory and
// renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("securestore: create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("securestore: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("securestore: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("securestore: close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("securestore: rename: %w", err)
	}
	return nil
}

// ResolveDeviceID returns configured if set, else the machine id, else the hostname.
func ResolveDeviceID(configured string) string {
	if configured != "" {
		return configured
	}
	for _, p := range []string{"/etc/machine-id", "/var/lib/dbus/machine-id"} {
		if data, err := os.ReadFile(p); err == nil {
			if id := strings.TrimSpace(string(data)); id != "" {
				return id
			}
		}
	}
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "unknown-device"
}

func sizeDetails(size, limit int) string {
	return fmt.Sprintf("%d bytes > %d", size, limit)
}
