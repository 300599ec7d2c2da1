package config

import (
	"fmt"

	"github.com/yndnr/authstore/internal/infra/confloader"
)

// Load builds the agent configuration from defaults, the optional YAML
// file, AUTHSTORE_* environment variables and overrides, in that order.
// Derived paths are filled in and the result is verified.
func Load(path string, overrides map[string]any) (*AgentConfig, error) {
	cfg := Default()
	loader := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithOverrides(overrides),
	)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	cfg.ResolvePaths()
	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
