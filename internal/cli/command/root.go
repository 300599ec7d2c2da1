package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/authstore/internal/cli/connection"
	"github.com/yndnr/authstore/internal/cli/output"
	"github.com/yndnr/authstore/internal/infra/buildinfo"
	"github.com/yndnr/authstore/internal/server/config"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "authstore-cli",
		Usage:   "Read and write session credentials through authstore-agent",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			GetCommand(),
			SetCommand(),
			RemoveCommand(),
			HealthCommand(),
			VersionCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "socket",
			Aliases: []string{"s"},
			Usage:   "Agent socket path",
			EnvVars: []string{"AUTHSTORE_SOCKET"},
			Value:   config.DefaultSocket,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: text, json, yaml",
			Value:   string(output.FormatText),
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Request timeout",
			Value: connection.DefaultTimeout,
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Socket string
	Output output.Format
}

// ParseGlobalFlags extracts and validates global flags.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return nil, err
	}
	return &GlobalFlags{
		Socket: c.String("socket"),
		Output: format,
	}, nil
}

// newClient builds an agent client and a request context from the flags.
func newClient(c *cli.Context) (*connection.Client, context.Context, context.CancelFunc, error) {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return nil, nil, nil, err
	}
	timeout := c.Duration("timeout")
	ctx, cancel := context.WithTimeout(c.Context, timeout)
	return connection.NewClient(flags.Socket, timeout), ctx, cancel, nil
}

// printResult writes data to the app writer in the selected format.
func printResult(c *cli.Context, data any) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	return output.NewFormatter(flags.Output).Format(c.App.Writer, data)
}

// requireKey returns the single KEY argument.
func requireKey(c *cli.Context) (string, error) {
	key := c.Args().First()
	if key == "" {
		return "", cli.Exit(fmt.Sprintf("%s: KEY is required", c.Command.Name), 2)
	}
	return key, nil
}
