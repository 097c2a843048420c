// moneypatch fixes the crash in Microsoft Money that occurs when
// importing account transactions or changing the payee of a downloaded
// transaction, by applying Raymond Chen's four-byte fix to mnyob99.dll.
package main

import (
	"fmt"
	"os"

	"github.com/containerd/errdefs"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// Version will be set at build time via -ldflags
var Version = "v1.0.0"

// Exit codes, one per failure class, so scripts can tell a missing
// file from an unrecognized one.
const (
	exitInternal       = 1
	exitNotFound       = 2
	exitTruncated      = 3
	exitUnknownVersion = 4
	exitBackupConflict = 5
	exitWriteFailed    = 6
	exitTargetBusy     = 7
)

func main() {
	if err := app().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func app() *cli.App {
	return &cli.App{
		Name:    "moneypatch",
		Usage:   "patch mnyob99.dll to fix the Microsoft Money import/payee crash",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Apply without asking for confirmation",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "Verify only, report what would change",
			},
		},
		Before: func(cliContext *cli.Context) error {
			if cliContext.Bool("debug") {
				logrus.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			applyCommand,
			verifyCommand,
			restoreCommand,
			locateCommand,
		},
		// Bare "moneypatch [path]" applies the patch, matching the
		// original one-shot script.
		Action:    runApply,
		ArgsUsage: "[path_to_dll]",
	}
}

// exitCode maps an error to its exit code via its errdefs class.
func exitCode(err error) int {
	switch {
	case errdefs.IsNotFound(err):
		return exitNotFound
	case errdefs.IsOutOfRange(err):
		return exitTruncated
	case errdefs.IsFailedPrecondition(err):
		return exitUnknownVersion
	case errdefs.IsConflict(err):
		return exitBackupConflict
	case errdefs.IsAborted(err):
		return exitWriteFailed
	case errdefs.IsUnavailable(err):
		return exitTargetBusy
	default:
		return exitInternal
	}
}
