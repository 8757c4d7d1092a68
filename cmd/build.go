package cmd

import (
	"github.com/spf13/cobra"

	"github.com/conneroisu/pkgshape/internal/orchestrator"
)

var buildTypesOnly bool

var buildCmd = &cobra.Command{
	Use:     "build [package-dir...]",
	Aliases: []string{"b"},
	Short:   "Compile the package and point the manifest at the output",
	Long: `Run the production pipeline: clean previous output, compile type
declarations, bundle each enabled format, then synthesize the production
manifest against what actually landed on disk.

With --types-only, runtime output is left in place, stale declarations are
purged, only the type compiler runs, and the manifest ends up in
production-types mode: runtime fields at source, types at compiled output.

If any step fails the manifest is reverted to development mode, so it never
points at files the failed build did not produce.`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().BoolVar(&buildTypesOnly, "types-only", false, "compile type declarations only, keep runtime fields at source")
}

func runBuild(cmd *cobra.Command, args []string) error {
	log := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	o := orchestrator.New(cfg, log)

	return forEachPackage(log, targetPaths(cfg, args), func(pkgDir string) error {
		return o.Build(cmd.Context(), pkgDir, buildTypesOnly)
	})
}
