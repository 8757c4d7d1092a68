// Package cmd provides the pkgshape command-line interface.
//
// Configuration sources, highest priority first:
//  1. Command-line flags (--config, --log-level)
//  2. PKGSHAPE_CONFIG_FILE environment variable
//  3. Individual PKGSHAPE_<SECTION>_<OPTION> environment variables
//  4. .pkgshape.yml in the current directory
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/pkgshape/internal/config"
	"github.com/conneroisu/pkgshape/internal/errors"
	"github.com/conneroisu/pkgshape/internal/logging"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "pkgshape",
	Short: "Derive mode-specific package.json manifests from a source tree",
	Long: `pkgshape keeps a package's manifest in sync with its source tree.

It scans the configured source directory, derives the export map, entry
points, and type declarations for the selected mode, and rewrites
package.json only when the content actually changes. Deep imports get
per-directory submodule manifests, and generated paths are kept out of
version control through a managed .gitignore block.

Modes:
  development       every field points at the source tree
  production        every field points at compiled output
  production-types  runtime at source, type declarations compiled

Quick start:
  pkgshape dev              Point the manifest at source
  pkgshape build            Compile and point the manifest at output
  pkgshape check            Verify the manifest matches the source tree
  pkgshape watch            Resynthesize on every source change`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command, rendering structured errors with their
// remediation suggestions on failure.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Format(err))
	}

	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .pkgshape.yml, can also use PKGSHAPE_CONFIG_FILE)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")

	// Accept underscore spellings of flag names.
	rootCmd.PersistentFlags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
}

func initConfig() {
	switch {
	case cfgFile != "":
		viper.SetConfigFile(cfgFile)
	case os.Getenv("PKGSHAPE_CONFIG_FILE") != "":
		viper.SetConfigFile(os.Getenv("PKGSHAPE_CONFIG_FILE"))
	default:
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".pkgshape")
	}

	viper.SetEnvPrefix("PKGSHAPE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing config file is fine; defaults cover everything.
	_ = viper.ReadInConfig()
}

func newLogger() logging.Logger {
	return logging.NewLogger(&logging.Config{
		Level:  logLevel,
		Format: "text",
		Output: os.Stderr,
	})
}

func loadConfig() (*config.Config, error) {
	return config.Load()
}

// targetPaths resolves the package directories a command operates on: the
// positional arguments, the configured target paths, or the current
// directory.
func targetPaths(cfg *config.Config, args []string) []string {
	if len(args) > 0 {
		return args
	}
	if len(cfg.TargetPaths) > 0 {
		return cfg.TargetPaths
	}

	return []string{"."}
}

// forEachPackage runs fn over the target packages in order. A failure on the
// first package aborts; failures on later packages are logged and skipped so
// one broken package does not block the rest of a multi-package run.
func forEachPackage(log logging.Logger, paths []string, fn func(pkgDir string) error) error {
	for i, pkgDir := range paths {
		if err := fn(pkgDir); err != nil {
			if i == 0 {
				return err
			}
			log.Warn("skipping package", "path", pkgDir, "error", err.Error())
		}
	}

	return nil
}
