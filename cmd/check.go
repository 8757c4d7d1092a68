package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/pkgshape/internal/errors"
	"github.com/conneroisu/pkgshape/internal/orchestrator"
)

var checkCmd = &cobra.Command{
	Use:   "check [package-dir...]",
	Short: "Verify the manifest matches the source tree",
	Long: `Compute the development manifest without writing anything and compare
it to what is on disk. Exits non-zero with a unified diff when they differ,
for use as a CI gate or pre-commit hook.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	log := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	o := orchestrator.New(cfg, log)

	stale := 0
	err = forEachPackage(log, targetPaths(cfg, args), func(pkgDir string) error {
		changed, diff, err := o.Check(pkgDir)
		if err != nil {
			return err
		}
		if changed {
			stale++
			fmt.Fprintf(os.Stderr, "%s: manifest out of date\n%s", pkgDir, diff)
		}

		return nil
	})
	if err != nil {
		return err
	}

	if stale > 0 {
		return errors.NewPackageError("", fmt.Sprintf("%d package(s) out of date; run pkgshape dev", stale), nil)
	}

	return nil
}
