// Package confloader loads layered configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Maps loaded with LoadMap (command-line flags, tests)
//  2. Environment variables (AUTHSTORE_ prefix)
//  3. YAML configuration file
//  4. Values already present in the target struct (defaults)
//
// Environment variables separate sections with a double underscore so
// that keys may contain single underscores:
//
//	AUTHSTORE_STORAGE__IO_TIMEOUT=2s  ->  storage.io_timeout
//
// Watcher reports changes to configuration files via fsnotify.
package confloader
