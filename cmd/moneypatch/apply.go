package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/mnyfix/moneypatch/internal/backup"
	"github.com/mnyfix/moneypatch/internal/fsutil"
	"github.com/mnyfix/moneypatch/internal/locate"
	"github.com/mnyfix/moneypatch/internal/patch"
)

var applyCommand = &cli.Command{
	Name:      "apply",
	Usage:     "Verify, back up, and patch the module (default command)",
	ArgsUsage: "[path_to_dll]",
	Flags: []cli.Flag{
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
	Action: runApply,
}

// runApply is the whole program: locate, verify, back up, patch,
// re-verify, report. Every step before the final atomic write is
// read-only, so a failure anywhere leaves the module untouched.
func runApply(cliContext *cli.Context) error {
	ctx := cliContext.Context

	target, err := locate.Locate(ctx, cliContext.Args().First())
	if err != nil {
		return err
	}
	fmt.Printf("Target: %s\n", target)

	buf, err := os.ReadFile(target)
	if err != nil {
		return fmt.Errorf("read target: %w", err)
	}
	result, err := patch.Verify(buf)
	if err != nil {
		return err
	}

	switch result {
	case patch.AlreadyPatched:
		fmt.Println("All patches already applied. No changes needed.")
		return nil
	case patch.UnknownVersion:
		for _, line := range patch.Describe(buf) {
			fmt.Fprintln(os.Stderr, line)
		}
		return fmt.Errorf("%s does not match the known original or patched bytes: %w",
			target, errdefs.ErrFailedPrecondition)
	}

	fmt.Printf("%d patches need to be applied.\n", len(patch.Entries))
	if cliContext.Bool("dry-run") {
		for i, e := range patch.Entries {
			fmt.Printf("  patch %d: offset 0x%08X: 0x%02X -> 0x%02X\n", i+1, e.Offset, e.Expected, e.Replacement)
		}
		fmt.Println("Dry run, nothing written.")
		return nil
	}

	if !cliContext.Bool("yes") && !confirm() {
		fmt.Println("Aborted.")
		return nil
	}

	if holders := fsutil.InUseBy(ctx, target); len(holders) > 0 {
		names := make([]string, len(holders))
		for i, h := range holders {
			names[i] = fmt.Sprintf("%s (pid %d)", h.Name, h.PID)
		}
		return fmt.Errorf("close Microsoft Money first, module is in use by %s: %w",
			strings.Join(names, ", "), errdefs.ErrUnavailable)
	}

	lock, err := fsutil.AcquireLock(target)
	if err != nil {
		return err
	}
	defer lock.Release()

	backupPath, err := backup.Create(target)
	if err != nil {
		return err
	}
	fmt.Printf("Backup created: %s\n", backupPath)
	logrus.WithField("backup", backupPath).Debug("backup complete, patching")

	report, err := patch.ApplyFile(target)
	if err != nil {
		return err
	}

	fmt.Print(report.Format())
	fmt.Println("Patching completed successfully.")
	return nil
}

// confirm asks the user before the file is modified, as the original
// one-shot script did.
func confirm() bool {
	fmt.Print("This will modify the module on disk. Continue? (y/N): ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
