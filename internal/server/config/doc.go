// Package config provides the authstore-agent configuration.
//
// This package defines the configuration structure and validation:
//
//   - spec.go: AgentConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Business validation (enum values, ranges, path creation)
//   - sanitize.go: Log sanitization (hide sensitive values)
//
// Configuration is loaded via internal/infra/confloader and supports
// multiple sources: files, environment variables, and flags.
package config
