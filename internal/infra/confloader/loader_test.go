package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Platform string `koanf:"platform"`
	Storage  struct {
		IOTimeout time.Duration `koanf:"io_timeout"`
		Encrypted struct {
			Enabled bool   `koanf:"enabled"`
			Dir     string `koanf:"dir"`
		} `koanf:"encrypted"`
	} `koanf:"storage"`
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "authstore.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}

	l = NewLoader(WithEnvPrefix("TEST_"), WithConfigFile("/etc/x.yaml"))
	if l.envPrefix != "TEST_" || l.filePath != "/etc/x.yaml" {
		t.Errorf("options not applied: %+v", l)
	}
}

func TestLoader_DefaultsSurvive(t *testing.T) {
	var cfg testConfig
	cfg.Platform = "native"
	cfg.Storage.IOTimeout = 5 * time.Second
	cfg.Storage.Encrypted.Enabled = true

	path := writeFile(t, "storage:\n  encrypted:\n    dir: /var/lib/authstore\n")
	if err := NewLoader(WithConfigFile(path), WithEnvPrefix("CONFLOADER_NONE_")).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Platform != "native" || cfg.Storage.IOTimeout != 5*time.Second || !cfg.Storage.Encrypted.Enabled {
		t.Errorf("defaults overwritten: %+v", cfg)
	}
	if cfg.Storage.Encrypted.Dir != "/var/lib/authstore" {
		t.Errorf("file value not applied: %q", cfg.Storage.Encrypted.Dir)
	}
}

func TestLoader_Priority(t *testing.T) {
	path := writeFile(t, "platform: web\nstorage:\n  io_timeout: 1s\n  encrypted:\n    enabled: true\n")

	t.Setenv("CLTEST_STORAGE__IO_TIMEOUT", "3s")
	t.Setenv("CLTEST_STORAGE__ENCRYPTED__ENABLED", "false")

	var cfg testConfig
	l := NewLoader(
		WithConfigFile(path),
		WithEnvPrefix("CLTEST_"),
		WithOverrides(map[string]any{"platform": "native"}),
	)
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Platform != "native" {
		t.Errorf("Platform = %q, overrides should win", cfg.Platform)
	}
	if cfg.Storage.IOTimeout != 3*time.Second {
		t.Errorf("IOTimeout = %v, env should beat file", cfg.Storage.IOTimeout)
	}
	if cfg.Storage.Encrypted.Enabled {
		t.Error("Encrypted.Enabled should be false from env")
	}
	if l.String("storage.io_timeout") != "3s" {
		t.Errorf("String() = %q", l.String("storage.io_timeout"))
	}
}

func TestLoader_MissingFile(t *testing.T) {
	var cfg testConfig
	err := NewLoader(WithConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))).Load(&cfg)
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoader_InvalidYAML(t *testing.T) {
	path := writeFile(t, "storage: [unclosed\n")
	var cfg testConfig
	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{"storage.encrypted.dir": "/tmp/x"}); err != nil {
		t.Fatal(err)
	}
	if got := l.String("storage.encrypted.dir"); got != "/tmp/x" {
		t.Errorf("String() = %q", got)
	}
	if len(l.Keys()) != 1 {
		t.Errorf("Keys() = %v", l.Keys())
	}
}
