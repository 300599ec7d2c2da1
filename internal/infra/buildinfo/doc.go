// Package buildinfo exposes version information injected at build time:
//
//	go build -ldflags "-X github.com/yndnr/authstore/internal/infra/buildinfo.Version=v1.0.0 \
//	  -X github.com/yndnr/authstore/internal/infra/buildinfo.Commit=abc123"
//
// Without ldflags, Get falls back to the module build info embedded by the
// Go toolchain.
package buildinfo
