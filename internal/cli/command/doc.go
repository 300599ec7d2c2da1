// Package command provides the authstore-cli commands.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: App, global flags, output helpers
//   - item.go: get, set and rm against the agent socket
//   - system.go: health and version
package command
