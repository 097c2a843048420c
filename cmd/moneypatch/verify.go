package main

import (
	"fmt"
	"os"

	"github.com/containerd/errdefs"
	"github.com/urfave/cli/v2"

	"github.com/mnyfix/moneypatch/internal/locate"
	"github.com/mnyfix/moneypatch/internal/patch"
)

var verifyCommand = &cli.Command{
	Name:      "verify",
	Usage:     "Check the module's patch state without writing anything",
	ArgsUsage: "[path_to_dll]",
	Action: func(cliContext *cli.Context) error {
		target, err := locate.Locate(cliContext.Context, cliContext.Args().First())
		if err != nil {
			return err
		}

		buf, err := os.ReadFile(target)
		if err != nil {
			return fmt.Errorf("read target: %w", err)
		}
		result, err := patch.Verify(buf)
		if err != nil {
			return err
		}

		fmt.Printf("%s: %s\n", target, result)
		if result == patch.UnknownVersion {
			for _, line := range patch.Describe(buf) {
				fmt.Fprintln(os.Stderr, line)
			}
			return fmt.Errorf("unrecognized module version: %w", errdefs.ErrFailedPrecondition)
		}
		return nil
	},
}

var locateCommand = &cli.Command{
	Name:  "locate",
	Usage: "Print the module path that would be patched",
	Action: func(cliContext *cli.Context) error {
		target, err := locate.Locate(cliContext.Context, cliContext.Args().First())
		if err != nil {
			return err
		}
		fmt.Println(target)
		return nil
	},
}
