package cmd

import (
	"github.com/spf13/cobra"

	"github.com/conneroisu/pkgshape/internal/orchestrator"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [package-dir...]",
	Short: "Remove everything the pipeline generates",
	Long: `Delete build output, the type compiler's cache file, generated
submodule manifests, and the managed .gitignore block, then reset the
manifest to development mode.`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	log := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	o := orchestrator.New(cfg, log)

	return forEachPackage(log, targetPaths(cfg, args), o.Clean)
}
