// Package orchestrator drives a package through the full manifest pipeline:
// cleaning, scanning, external tool invocation, and manifest finalization,
// with a best-effort revert to the development manifest when a step fails.
package orchestrator

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/conneroisu/pkgshape/internal/config"
	"github.com/conneroisu/pkgshape/internal/errors"
	"github.com/conneroisu/pkgshape/internal/ignorefile"
	"github.com/conneroisu/pkgshape/internal/logging"
	"github.com/conneroisu/pkgshape/internal/manifest"
	"github.com/conneroisu/pkgshape/internal/paths"
	"github.com/conneroisu/pkgshape/internal/scanner"
	"github.com/conneroisu/pkgshape/internal/synth"
)

// State names one pipeline phase, for logs and failure reports.
type State string

const (
	StateCleaning       State = "cleaning"
	StateScanning       State = "scanning"
	StateCompilingTypes State = "compiling-types"
	StateBundling       State = "bundling"
	StateFinalizing     State = "finalizing"
	StateDone           State = "done"
	StateReverting      State = "reverting"
)

// Runner executes an external tool command inside a package directory and
// returns its combined output.
type Runner interface {
	Run(ctx context.Context, dir, command string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, dir, command string) ([]byte, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.NewConfigurationError("empty tool command")
	}

	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	cmd.Dir = dir

	return cmd.CombinedOutput()
}

// Orchestrator runs the pipeline for one configuration.
type Orchestrator struct {
	cfg    *config.Config
	log    logging.Logger
	runner Runner
}

// New creates an orchestrator that invokes real external tools.
func New(cfg *config.Config, log logging.Logger) *Orchestrator {
	return NewWithRunner(cfg, log, execRunner{})
}

// NewWithRunner creates an orchestrator with a custom tool runner.
func NewWithRunner(cfg *config.Config, log logging.Logger, runner Runner) *Orchestrator {
	return &Orchestrator{
		cfg:    cfg,
		log:    log.WithComponent("orchestrator"),
		runner: runner,
	}
}

// Develop synthesizes the development manifest for pkgDir: every field at
// source, submodules regenerated, the ignore block refreshed. No external
// tools run.
func (o *Orchestrator) Develop(pkgDir string) error {
	m, err := manifest.Load(pkgDir)
	if err != nil {
		return err
	}

	o.transition(StateScanning, pkgDir)
	tree, err := scanner.New(o.cfg, o.log).Scan(pkgDir, m)
	if err != nil {
		return err
	}

	o.transition(StateFinalizing, pkgDir)
	if err := o.finalize(pkgDir, m, tree, synth.ModeDevelopment); err != nil {
		return err
	}
	o.transition(StateDone, pkgDir)

	return nil
}

// Build runs the production pipeline: clean output, compile types, bundle,
// then synthesize the production manifest. With typesOnly, runtime output is
// left alone, stale declarations are purged, only the type compiler runs,
// and the manifest lands in production-types mode.
//
// Any failure after the initial load triggers a best-effort revert to the
// development manifest, so a broken build never leaves production paths
// pointing at missing files.
func (o *Orchestrator) Build(ctx context.Context, pkgDir string, typesOnly bool) error {
	m, err := manifest.Load(pkgDir)
	if err != nil {
		return err
	}

	if err := o.build(ctx, pkgDir, m, typesOnly); err != nil {
		o.revert(pkgDir, err)

		return err
	}
	o.transition(StateDone, pkgDir)

	return nil
}

func (o *Orchestrator) build(ctx context.Context, pkgDir string, m *manifest.Manifest, typesOnly bool) error {
	if typesOnly {
		if err := o.purgeDeclarations(pkgDir); err != nil {
			return err
		}
	} else {
		o.transition(StateCleaning, pkgDir)
		if err := o.cleanOutput(pkgDir); err != nil {
			return err
		}
	}

	o.transition(StateScanning, pkgDir)
	tree, err := scanner.New(o.cfg, o.log).Scan(pkgDir, m)
	if err != nil {
		return err
	}

	if o.cfg.TypesEnabled() && m.TypesKey() != "" {
		o.transition(StateCompilingTypes, pkgDir)
		if err := o.compileTypes(ctx, pkgDir); err != nil {
			return err
		}
	}

	if !typesOnly {
		o.transition(StateBundling, pkgDir)
		if err := o.bundle(ctx, pkgDir); err != nil {
			return err
		}
	}

	mode := synth.ModeProduction
	if typesOnly {
		mode = synth.ModeProductionTypes
	}

	o.transition(StateFinalizing, pkgDir)

	return o.finalize(pkgDir, m, tree, mode)
}

// Check reports whether pkgDir's manifest matches the development synthesis,
// without writing anything. When it does not, changed is true and diff holds
// a unified diff from the on-disk manifest to the expected one.
func (o *Orchestrator) Check(pkgDir string) (changed bool, diff string, err error) {
	m, err := manifest.Load(pkgDir)
	if err != nil {
		return false, "", err
	}

	tree, err := scanner.New(o.cfg, o.log).Scan(pkgDir, m)
	if err != nil {
		return false, "", err
	}

	if err := synth.New(o.cfg, pkgDir, o.log).Apply(m, tree, synth.ModeDevelopment); err != nil {
		return false, "", err
	}

	return m.Check()
}

// Clean removes everything the pipeline generates: build output, the type
// compiler's cache file, submodule manifests, and the ignore block. The
// manifest itself is reset to development mode.
func (o *Orchestrator) Clean(pkgDir string) error {
	o.transition(StateCleaning, pkgDir)
	if err := o.cleanOutput(pkgDir); err != nil {
		return err
	}
	if err := o.removeCacheFile(pkgDir); err != nil {
		return err
	}

	m, err := manifest.Load(pkgDir)
	if err != nil {
		return err
	}

	tree, err := scanner.New(o.cfg, o.log).Scan(pkgDir, m)
	if err != nil {
		return err
	}

	syn := synth.New(o.cfg, pkgDir, o.log)
	if _, err := syn.GenerateSubmodules(m, &scanner.Tree{}, synth.ModeDevelopment); err != nil {
		return err
	}
	if o.cfg.GitIgnore.Managed {
		if err := ignorefile.Remove(pkgDir); err != nil {
			return err
		}
	}

	if err := syn.Apply(m, tree, synth.ModeDevelopment); err != nil {
		return err
	}
	_, err = m.Write()

	return err
}

// finalize applies the mode to the manifest, regenerates submodules, updates
// the ignore block, and writes the manifest if it changed.
func (o *Orchestrator) finalize(pkgDir string, m *manifest.Manifest, tree *scanner.Tree, mode synth.Mode) error {
	syn := synth.New(o.cfg, pkgDir, o.log)

	if err := syn.Apply(m, tree, mode); err != nil {
		return err
	}

	subDirs, err := syn.GenerateSubmodules(m, tree, mode)
	if err != nil {
		return err
	}

	if o.cfg.GitIgnore.Managed {
		if err := ignorefile.Update(pkgDir, o.ignoreEntries(subDirs)); err != nil {
			return err
		}
	}

	written, err := m.Write()
	if err != nil {
		return err
	}
	if written {
		o.log.Info("manifest updated", "mode", string(mode), "package", m.Name())
	}

	return nil
}

// ignoreEntries lists what the pipeline generates inside the package.
func (o *Orchestrator) ignoreEntries(subDirs []string) []string {
	var entries []string
	if o.cfg.CJSEnabled() {
		entries = append(entries, "/"+o.cfg.Build.CJSDir+"/")
	}
	if o.cfg.ESMEnabled() {
		entries = append(entries, "/"+o.cfg.Build.ESMDir+"/")
	}
	if o.cfg.Tools.CacheFile != "" {
		entries = append(entries, "/"+o.cfg.Tools.CacheFile)
	}
	for _, dir := range subDirs {
		entries = append(entries, "/"+dir+"/")
	}

	return entries
}

func (o *Orchestrator) cleanOutput(pkgDir string) error {
	for _, dir := range []string{o.cfg.Build.CJSDir, o.cfg.Build.ESMDir} {
		if dir == "" {
			continue
		}
		if err := os.RemoveAll(filepath.Join(pkgDir, dir)); err != nil {
			return errors.NewPackageError(pkgDir, "removing build output "+dir, err)
		}
	}

	return nil
}

// purgeDeclarations deletes compiled declaration files from the build output
// while leaving runtime files in place, so a types-only rebuild cannot serve
// declarations for entries that no longer exist.
func (o *Orchestrator) purgeDeclarations(pkgDir string) error {
	for _, dir := range []string{o.cfg.Build.CJSDir, o.cfg.Build.ESMDir} {
		if dir == "" {
			continue
		}
		root := filepath.Join(pkgDir, dir)
		err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}

				return err
			}
			if d.IsDir() || !isDeclaration(d.Name()) {
				return nil
			}

			return os.Remove(p)
		})
		if err != nil {
			return errors.NewPackageError(pkgDir, "purging declarations from "+dir, err)
		}
	}

	return nil
}

func isDeclaration(name string) bool {
	for _, ext := range []string{".d.ts", ".d.mts", ".d.cts"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}

	return false
}

// compileTypes removes the compiler's incremental cache and runs the type
// compiler. The cache is removed first: it records output paths from the
// previous configuration and makes the compiler skip files it should emit.
func (o *Orchestrator) compileTypes(ctx context.Context, pkgDir string) error {
	if err := o.removeCacheFile(pkgDir); err != nil {
		return err
	}

	if out, err := o.runner.Run(ctx, pkgDir, o.cfg.Tools.TypesCommand); err != nil {
		return errors.NewPackageError(pkgDir, "type compilation failed", err).WithOutput(string(out))
	}

	return nil
}

// bundle runs the bundler once per enabled format, sequentially. Formats
// share the bundler's cache directory, so parallel runs corrupt it.
func (o *Orchestrator) bundle(ctx context.Context, pkgDir string) error {
	formats := make([]paths.Format, 0, 2)
	if o.cfg.CJSEnabled() {
		formats = append(formats, paths.CJS)
	}
	if o.cfg.ESMEnabled() {
		formats = append(formats, paths.ESM)
	}

	for _, format := range formats {
		command := o.cfg.Tools.BundleCommand + " --format " + format.String()
		if out, err := o.runner.Run(ctx, pkgDir, command); err != nil {
			return errors.NewPackageError(pkgDir, "bundling "+format.String()+" failed", err).WithOutput(string(out))
		}
	}

	return nil
}

func (o *Orchestrator) removeCacheFile(pkgDir string) error {
	if o.cfg.Tools.CacheFile == "" {
		return nil
	}
	if err := os.Remove(filepath.Join(pkgDir, o.cfg.Tools.CacheFile)); err != nil && !os.IsNotExist(err) {
		return errors.NewPackageError(pkgDir, "removing compiler cache", err)
	}

	return nil
}

// revert restores the development manifest after a failed build. It reloads
// the manifest from disk so partial in-memory state from the failed pass is
// discarded. Revert failures are logged, never returned: the build error is
// what the caller needs to see.
func (o *Orchestrator) revert(pkgDir string, cause error) {
	o.transition(StateReverting, pkgDir)
	o.log.Warn("build failed, reverting manifest to development mode", "cause", cause.Error())

	m, err := manifest.Load(pkgDir)
	if err != nil {
		o.log.Error(err, "revert: reloading manifest")

		return
	}

	tree, err := scanner.New(o.cfg, o.log).Scan(pkgDir, m)
	if err != nil {
		o.log.Error(err, "revert: rescanning source tree")

		return
	}

	if err := o.finalize(pkgDir, m, tree, synth.ModeDevelopment); err != nil {
		o.log.Error(err, "revert: synthesizing development manifest")
	}
}

func (o *Orchestrator) transition(state State, pkgDir string) {
	o.log.Debug("pipeline state", "state", string(state), "package", pkgDir)
}
