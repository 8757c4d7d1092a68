package cmd

import (
	"github.com/spf13/cobra"

	"github.com/conneroisu/pkgshape/internal/orchestrator"
)

var devCmd = &cobra.Command{
	Use:     "dev [package-dir...]",
	Aliases: []string{"d"},
	Short:   "Point the manifest at the source tree",
	Long: `Synthesize the development manifest: main, module, types, bin, and
exports all point directly at source files, submodule manifests are
regenerated, and the managed .gitignore block is refreshed. No external
tools run.`,
	RunE: runDev,
}

func init() {
	rootCmd.AddCommand(devCmd)
}

func runDev(cmd *cobra.Command, args []string) error {
	log := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	o := orchestrator.New(cfg, log)

	return forEachPackage(log, targetPaths(cfg, args), o.Develop)
}
