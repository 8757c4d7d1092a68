// Package scanner walks a package's source tree and classifies every entry
// for the manifest synthesizer.
//
// Each entry is judged by two predicates: build-eligible (not matched by a
// build-ignore pattern, and either a directory or a recognized extension)
// and export-eligible (build-eligible and not matched by an export-ignore
// pattern). Patterns are matched against the path relative to the source
// root, so authors write them as if already inside the source tree. A
// directory containing an index file collapses to a single export keyed by
// the directory name.
package scanner

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/conneroisu/pkgshape/internal/config"
	"github.com/conneroisu/pkgshape/internal/errors"
	"github.com/conneroisu/pkgshape/internal/logging"
	"github.com/conneroisu/pkgshape/internal/manifest"
	"github.com/conneroisu/pkgshape/internal/paths"
)

// Export is one entry of the public export surface.
type Export struct {
	// Key is the export map key: "." for the root entry point, "./name"
	// otherwise.
	Key string
	// SourceRel is the backing file's path relative to the source
	// directory, forward-slash separated.
	SourceRel string
}

// Tree is the classified source tree for one package.
type Tree struct {
	// BuildFiles lists every build-eligible file relative to the source
	// directory, in walk order.
	BuildFiles []string
	// Exports lists every export-eligible entry after directory-index
	// collapsing, root entry first.
	Exports []Export
}

// Root returns the root (".") export, if any.
func (t *Tree) Root() (Export, bool) {
	for _, e := range t.Exports {
		if e.Key == "." {
			return e, true
		}
	}

	return Export{}, false
}

// Scanner classifies source trees against one build configuration.
type Scanner struct {
	cfg *config.Config
	log logging.Logger
}

// New creates a scanner.
func New(cfg *config.Config, log logging.Logger) *Scanner {
	return &Scanner{cfg: cfg, log: log.WithComponent("scanner")}
}

// Scan walks the package's source directory and returns the classified
// tree. An empty source root is a configuration error; empty subdirectories
// are silently dropped.
//
// A pure CLI package skips the walk entirely: its single index file is its
// only build and export unit, since such a package has no library surface to
// enumerate.
func (s *Scanner) Scan(pkgDir string, m *manifest.Manifest) (*Tree, error) {
	sourceDir := filepath.Join(pkgDir, s.cfg.Source.Dir)
	if info, err := os.Stat(sourceDir); err != nil || !info.IsDir() {
		return nil, errors.NewConfigurationError(
			"source directory "+s.cfg.Source.Dir+" not found in "+pkgDir).
			WithSuggestion(
				"Create the source directory",
				"pkgshape expects library sources under "+s.cfg.Source.Dir+" (see source.dir)",
				"mkdir -p "+s.cfg.Source.Dir,
			)
	}

	if m.IsPureCLI() {
		return s.scanPureCLI(pkgDir)
	}

	files, exports, err := s.scanDir(sourceDir, "")
	if err != nil {
		return nil, errors.NewPackageError(pkgDir, "scanning source tree", err)
	}

	if len(files) == 0 {
		return nil, errors.NewConfigurationError(
			"source directory "+s.cfg.Source.Dir+" contains no buildable files").
			WithSuggestion(
				"Add an entry point",
				"An index file is the package's root export",
				"touch "+path.Join(s.cfg.Source.Dir, "index.ts"),
			)
	}

	s.log.Debug("scan complete", "files", len(files), "exports", len(exports))

	return &Tree{BuildFiles: files, Exports: orderExports(exports)}, nil
}

func (s *Scanner) scanPureCLI(pkgDir string) (*Tree, error) {
	resolver := paths.NewResolver(pkgDir)
	rel, ok := resolver.Resolve(s.cfg.Source.Dir, "index", s.cfg.Source.Extensions)
	if !ok {
		return nil, errors.NewConfigurationError(
			"no index file found in " + s.cfg.Source.Dir + " for CLI package")
	}

	sourceRel := strings.TrimPrefix(filepath.ToSlash(rel), s.cfg.Source.Dir+"/")

	return &Tree{
		BuildFiles: []string{sourceRel},
		Exports:    []Export{{Key: ".", SourceRel: sourceRel}},
	}, nil
}

// scanDir recursively classifies one directory. rel is the directory's path
// relative to the source root ("" for the root itself).
func (s *Scanner) scanDir(sourceDir, rel string) ([]string, []Export, error) {
	entries, err := os.ReadDir(filepath.Join(sourceDir, filepath.FromSlash(rel)))
	if err != nil {
		return nil, nil, err
	}

	var (
		files   []string
		exports []Export
	)

	for _, entry := range entries {
		entryRel := path.Join(rel, entry.Name())

		if !s.buildEligible(entryRel, entry.IsDir()) {
			continue
		}

		if entry.IsDir() {
			subFiles, subExports, err := s.scanDir(sourceDir, entryRel)
			if err != nil {
				return nil, nil, err
			}
			// An eligible but file-empty subdirectory is dropped from
			// both maps, not an error.
			if len(subFiles) == 0 {
				continue
			}
			files = append(files, subFiles...)

			if index, ok := directoryIndex(subFiles, entryRel); ok {
				// Index collapse: the directory exports as a single
				// unit, superseding the exports of its contents.
				if !s.cfg.ExportIgnored(index) {
					exports = append(exports, Export{Key: "./" + entryRel, SourceRel: index})
				}

				continue
			}
			exports = append(exports, subExports...)

			continue
		}

		files = append(files, entryRel)
		if !s.cfg.ExportIgnored(entryRel) {
			exports = append(exports, s.fileExport(entryRel))
		}
	}

	return files, dedupeExports(exports, s.cfg.Source.Extensions), nil
}

func (s *Scanner) buildEligible(rel string, isDir bool) bool {
	if s.cfg.BuildIgnored(rel) {
		return false
	}
	if isDir {
		return true
	}

	ext := path.Ext(rel)
	for _, candidate := range s.cfg.Source.Extensions {
		if ext == candidate {
			return true
		}
	}

	return false
}

func (s *Scanner) fileExport(rel string) Export {
	stem := paths.StripExt(rel)
	if stem == "index" {
		return Export{Key: ".", SourceRel: rel}
	}

	return Export{Key: "./" + stem, SourceRel: rel}
}

// directoryIndex reports the directory's own index file among the
// build-eligible files directly inside it.
func directoryIndex(files []string, dirRel string) (string, bool) {
	for _, f := range files {
		if path.Dir(f) != dirRel {
			continue
		}
		if paths.StripExt(path.Base(f)) == "index" {
			return f, true
		}
	}

	return "", false
}

// dedupeExports resolves export key collisions (index.ts next to index.js)
// by extension priority: the earlier configured extension wins.
func dedupeExports(exports []Export, extensions []string) []Export {
	rank := func(rel string) int {
		ext := path.Ext(rel)
		for i, candidate := range extensions {
			if ext == candidate {
				return i
			}
		}

		return len(extensions)
	}

	byKey := make(map[string]int)
	var out []Export
	for _, e := range exports {
		i, ok := byKey[e.Key]
		if !ok {
			byKey[e.Key] = len(out)
			out = append(out, e)

			continue
		}
		if rank(e.SourceRel) < rank(out[i].SourceRel) {
			out[i] = e
		}
	}

	return out
}

// orderExports puts the root export first and keeps the remaining entries
// in lexical key order for a deterministic export map.
func orderExports(exports []Export) []Export {
	sort.SliceStable(exports, func(i, j int) bool {
		if exports[i].Key == "." {
			return exports[j].Key != "."
		}
		if exports[j].Key == "." {
			return false
		}

		return exports[i].Key < exports[j].Key
	})

	return exports
}
