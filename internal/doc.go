// Package internal contains the core implementation packages for pkgshape.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules while providing all
// the core functionality for the pkgshape CLI tool.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - config: configuration loading, defaults, and validation
//   - errors: structured errors with remediation suggestions
//   - ignorefile: the managed .gitignore block
//   - logging: structured logging built on log/slog
//   - manifest: ordered package.json parsing, mutation, and writing
//   - orchestrator: the build pipeline and its revert-on-failure logic
//   - paths: source/build path conversion and extension probing
//   - scanner: source tree scanning and export derivation
//   - synth: mode-specific manifest and submodule synthesis
//   - version: build metadata
//   - watcher: file system monitoring with debouncing
//
// # Inter-Package Communication
//
// The orchestrator owns the pipeline: it drives the scanner over the source
// tree, invokes external tools, and hands the resulting tree to the
// synthesizer, which mutates the manifest through the manifest package's
// ordered document. The watcher feeds debounced change batches back into the
// orchestrator during watch mode.
package internal
