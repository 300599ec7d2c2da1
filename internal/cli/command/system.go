package command

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/authstore/internal/infra/buildinfo"
	"github.com/yndnr/authstore/internal/server/localserver"
)

// HealthCommand returns the health command.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:   "health",
		Usage:  "Show agent status and the selected backend",
		Action: systemHealth,
	}
}

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show CLI version information",
		Action: systemVersion,
	}
}

// healthView adds text rendering to the agent health response.
type healthView struct {
	localserver.HealthResponse `yaml:",inline"`
}

func (h healthView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "status:   %s\n", h.Status)
	backend := h.Backend
	if backend == "" {
		backend = "(not selected yet)"
	}
	fmt.Fprintf(&sb, "backend:  %s\n", backend)
	fmt.Fprintf(&sb, "version:  %s\n", h.Version)
	if len(h.DisabledKeys) > 0 {
		fmt.Fprintf(&sb, "disabled: %s\n", strings.Join(h.DisabledKeys, ", "))
	}
	return sb.String()
}

// versionView adds text rendering to build information.
type versionView struct {
	buildinfo.Info `yaml:",inline"`
}

func (v versionView) String() string {
	return "authstore-cli " + buildinfo.String()
}

func systemHealth(c *cli.Context) error {
	client, ctx, cancel, err := newClient(c)
	if err != nil {
		return err
	}
	defer cancel()

	health, err := client.Health(ctx)
	if err != nil {
		return fmt.Errorf("health: %w", err)
	}
	return printResult(c, healthView{*health})
}

func systemVersion(c *cli.Context) error {
	return printResult(c, versionView{buildinfo.Get()})
}
