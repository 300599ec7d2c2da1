// Package logger provides structured logging for authstore.
//
// It wraps log/slog behind a small Logger interface:
//
//   - logger.go: handler construction, dynamic level, package-level default
//   - context.go: logger and request ID propagation through context
//   - redact.go: credential redaction applied to every attribute
//
// Storage keys are logged under the "item" attribute. Attributes whose
// names suggest credentials are redacted, and JWT-shaped values are
// masked wherever they appear.
package logger
