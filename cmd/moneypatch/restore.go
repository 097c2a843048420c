package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mnyfix/moneypatch/internal/backup"
	"github.com/mnyfix/moneypatch/internal/fsutil"
	"github.com/mnyfix/moneypatch/internal/locate"
)

var restoreCommand = &cli.Command{
	Name:      "restore",
	Usage:     "Copy the backup back over the module",
	ArgsUsage: "[path_to_dll]",
	Action: func(cliContext *cli.Context) error {
		target, err := locate.Locate(cliContext.Context, cliContext.Args().First())
		if err != nil {
			return err
		}

		lock, err := fsutil.AcquireLock(target)
		if err != nil {
			return err
		}
		defer lock.Release()

		if err := backup.Restore(target); err != nil {
			return err
		}
		fmt.Printf("Restored %s from %s\n", target, backup.PathFor(target))
		return nil
	},
}
