package command

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
)

// ItemView is the printed form of an item.
type ItemView struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// String returns the raw value for text output.
func (v ItemView) String() string { return v.Value }

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Print a stored item",
		ArgsUsage: "KEY",
		Action:    itemGet,
	}
}

// SetCommand returns the set command.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Store an item (value from argument, --file, or stdin with '-')",
		ArgsUsage: "KEY [VALUE|-]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Read the value from a file",
			},
		},
		Action: itemSet,
	}
}

// RemoveCommand returns the rm command.
func RemoveCommand() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Aliases:   []string{"remove", "delete"},
		Usage:     "Remove an item from every store",
		ArgsUsage: "KEY",
		Action:    itemRemove,
	}
}

func itemGet(c *cli.Context) error {
	key, err := requireKey(c)
	if err != nil {
		return err
	}
	client, ctx, cancel, err := newClient(c)
	if err != nil {
		return err
	}
	defer cancel()

	value, found, err := client.GetItem(ctx, key)
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	if !found {
		return cli.Exit(fmt.Sprintf("item %q not found", key), 1)
	}
	return printResult(c, ItemView{Key: key, Value: value})
}

func itemSet(c *cli.Context) error {
	key, err := requireKey(c)
	if err != nil {
		return err
	}
	value, err := readValue(c)
	if err != nil {
		return err
	}
	client, ctx, cancel, err := newClient(c)
	if err != nil {
		return err
	}
	defer cancel()

	if err := client.SetItem(ctx, key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func itemRemove(c *cli.Context) error {
	key, err := requireKey(c)
	if err != nil {
		return err
	}
	client, ctx, cancel, err := newClient(c)
	if err != nil {
		return err
	}
	defer cancel()

	if err := client.RemoveItem(ctx, key); err != nil {
		return fmt.Errorf("rm %s: %w", key, err)
	}
	return nil
}

// readValue takes the value from --file, the second argument, or stdin
// when the second argument is "-".
func readValue(c *cli.Context) (string, error) {
	if path := c.String("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read value: %w", err)
		}
		return strings.TrimSuffix(string(data), "\n"), nil
	}

	switch arg := c.Args().Get(1); arg {
	case "":
		return "", cli.Exit("set: VALUE, '-' or --file is required", 2)
	case "-":
		reader := c.App.Reader
		if reader == nil {
			reader = os.Stdin
		}
		data, err := io.ReadAll(reader)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return strings.TrimSuffix(string(data), "\n"), nil
	default:
		return arg, nil
	}
}
