// Package synth derives the mode-specific manifest fields from a scanned
// source tree and writes the per-export submodule manifests.
//
// Synthesis is a pure function of (source tree, configuration, mode): the
// same inputs always produce the same manifest, and a second pass over an
// unchanged tree is a byte-level no-op for the writer. Every owned field is
// set or deleted on every pass, so no value from a previous mode survives a
// mode switch.
package synth

import (
	"github.com/conneroisu/pkgshape/internal/config"
	"github.com/conneroisu/pkgshape/internal/errors"
	"github.com/conneroisu/pkgshape/internal/logging"
	"github.com/conneroisu/pkgshape/internal/manifest"
	"github.com/conneroisu/pkgshape/internal/paths"
	"github.com/conneroisu/pkgshape/internal/scanner"
)

// Mode selects what the manifest's path fields point at.
type Mode string

const (
	// ModeDevelopment points every field at the source tree.
	ModeDevelopment Mode = "development"
	// ModeProduction points every field at compiled output.
	ModeProduction Mode = "production"
	// ModeProductionTypes points runtime fields at source and type
	// declarations at compiled output.
	ModeProductionTypes Mode = "production-types"
)

// Synthesizer computes manifest fields for one package and configuration.
type Synthesizer struct {
	cfg      *config.Config
	resolver *paths.Resolver
	log      logging.Logger
	pkgDir   string
}

// New creates a synthesizer for the package at pkgDir.
func New(cfg *config.Config, pkgDir string, log logging.Logger) *Synthesizer {
	return &Synthesizer{
		cfg:      cfg,
		resolver: paths.NewResolver(pkgDir),
		log:      log.WithComponent("synth"),
		pkgDir:   pkgDir,
	}
}

// Apply mutates the manifest's owned fields (main, module, types, bin,
// exports) to the requested mode, preserving every other field and the
// authored key order.
func (s *Synthesizer) Apply(m *manifest.Manifest, tree *scanner.Tree, mode Mode) error {
	pure := m.IsPureCLI()

	if !s.cfg.CJSEnabled() && !s.cfg.ESMEnabled() && !pure {
		return errors.NewConfigurationError("no output format enabled; nothing to publish").
			WithSuggestion(
				"Enable an output format",
				"A library package needs at least one of build.cjs or build.esm",
				"",
			)
	}

	typesKey := m.TypesKey()
	root, hasRoot := tree.Root()

	var mainVal, moduleVal, typesVal any
	if hasRoot && !pure {
		mainVal, moduleVal = s.entryPoints(root.SourceRel, mode)
		if typesKey != "" {
			typesVal = s.typesValue(root.SourceRel, mode)
		}
	}

	var binVal any
	if bin := m.Bin(); bin != nil {
		binVal = s.convertBin(bin, mode)
	}

	var exportsVal any
	if !pure {
		exportsVal = s.exportMap(tree, mode, typesKey != "")
	}

	setOrDelete(m, manifest.FieldMain, mainVal)
	setOrDelete(m, manifest.FieldModule, moduleVal)
	if typesKey != "" {
		setOrDelete(m, typesKey, typesVal)
	}
	setOrDelete(m, manifest.FieldBin, binVal)
	setOrDelete(m, manifest.FieldExports, exportsVal)

	s.log.Debug("manifest synthesized", "mode", string(mode), "package", m.Name())

	return nil
}

// entryPoints returns the main (CJS) and module (ESM) values for the root
// entry point, nil for a disabled format.
func (s *Synthesizer) entryPoints(sourceRel string, mode Mode) (mainVal, moduleVal any) {
	if s.cfg.CJSEnabled() {
		if mode == ModeProduction {
			mainVal = s.runtimePath(paths.CJS, sourceRel)
		} else {
			mainVal = s.sourcePath(sourceRel)
		}
	}
	if s.cfg.ESMEnabled() {
		if mode == ModeProduction {
			moduleVal = s.runtimePath(paths.ESM, sourceRel)
		} else {
			moduleVal = s.sourcePath(sourceRel)
		}
	}

	return mainVal, moduleVal
}

// typesValue returns the declaration target for an entry, or nil when the
// mode's declaration file does not exist on disk.
func (s *Synthesizer) typesValue(sourceRel string, mode Mode) any {
	if mode == ModeDevelopment {
		return s.sourcePath(sourceRel)
	}
	if decl, ok := s.declarationPath(sourceRel); ok {
		return decl
	}

	return nil
}

func (s *Synthesizer) sourcePath(sourceRel string) string {
	return "./" + s.cfg.Source.Dir + "/" + sourceRel
}

// runtimePath returns the compiled runtime target for an entry, probing the
// output directory for the real extension and falling back to the format's
// published extension when the file is not built yet.
func (s *Synthesizer) runtimePath(format paths.Format, sourceRel string) string {
	dir := s.cfg.Build.CJSDir
	if format == paths.ESM {
		dir = s.cfg.Build.ESMDir
	}

	stem := paths.StripExt(sourceRel)
	if rel, ok := s.resolver.Resolve(dir, stem, paths.RuntimeCandidates(format)); ok {
		return "./" + rel
	}

	return paths.ToBuild(s.sourcePath(sourceRel), s.cfg, format)
}

// declarationPath probes for an entry's compiled declaration file. When both
// CJS and ESM declarations exist, ESM takes precedence.
func (s *Synthesizer) declarationPath(sourceRel string) (string, bool) {
	stem := paths.StripExt(sourceRel)

	if s.cfg.ESMEnabled() {
		if rel, ok := s.resolver.Resolve(s.cfg.Build.ESMDir, stem, paths.DeclarationCandidates(paths.ESM)); ok {
			return "./" + rel, true
		}
	}
	if s.cfg.CJSEnabled() {
		if rel, ok := s.resolver.Resolve(s.cfg.Build.CJSDir, stem, paths.DeclarationCandidates(paths.CJS)); ok {
			return "./" + rel, true
		}
	}

	return "", false
}

// exportMap builds the exports object: one entry per export key, the fixed
// "./package.json" self-mapping last.
func (s *Synthesizer) exportMap(tree *scanner.Tree, mode Mode, typesOpted bool) *manifest.Object {
	exports := manifest.NewObject()
	for _, e := range tree.Exports {
		exports.Set(e.Key, s.exportValue(e, mode, typesOpted))
	}
	exports.Set("./package.json", "./package.json")

	return exports
}

// exportValue builds one export entry. Conditional entries keep the fixed
// field order types, import, require: TypeScript resolves the first matching
// condition, so a reordered entry silently breaks type resolution.
func (s *Synthesizer) exportValue(e scanner.Export, mode Mode, typesOpted bool) any {
	src := s.sourcePath(e.SourceRel)

	if mode == ModeDevelopment {
		return src
	}

	entry := manifest.NewObject()
	if typesOpted {
		if decl, ok := s.declarationPath(e.SourceRel); ok {
			entry.Set("types", decl)
		}
	}
	if s.cfg.ESMEnabled() {
		if mode == ModeProduction {
			entry.Set("import", s.runtimePath(paths.ESM, e.SourceRel))
		} else {
			entry.Set("import", src)
		}
	}
	if s.cfg.CJSEnabled() {
		if mode == ModeProduction {
			entry.Set("require", s.runtimePath(paths.CJS, e.SourceRel))
		} else {
			entry.Set("require", src)
		}
	}

	return entry
}

// convertBin converts a bin field per mode. The field is either a single
// path or a name-to-path record; each value converts independently.
func (s *Synthesizer) convertBin(bin any, mode Mode) any {
	convert := func(p string) string {
		if mode == ModeProduction {
			format := paths.CJS
			if !s.cfg.CJSEnabled() {
				format = paths.ESM
			}

			return paths.ToBuild(paths.ToSource(p, s.cfg, s.resolver), s.cfg, format)
		}

		return paths.ToSource(p, s.cfg, s.resolver)
	}

	switch v := bin.(type) {
	case string:
		return convert(v)
	case *manifest.Object:
		converted := manifest.NewObject()
		for _, key := range v.Keys() {
			if p, ok := v.GetString(key); ok {
				converted.Set(key, convert(p))
			} else {
				value, _ := v.Get(key)
				converted.Set(key, value)
			}
		}

		return converted
	default:
		return bin
	}
}

func setOrDelete(m *manifest.Manifest, key string, value any) {
	if value == nil {
		m.Delete(key)

		return
	}
	m.Set(key, value)
}
