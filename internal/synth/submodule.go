package synth

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/conneroisu/pkgshape/internal/errors"
	"github.com/conneroisu/pkgshape/internal/manifest"
	"github.com/conneroisu/pkgshape/internal/paths"
	"github.com/conneroisu/pkgshape/internal/scanner"
)

// GenerateSubmodules writes one minimal manifest per non-root export so deep
// imports resolve without a bundler-level export map. Regeneration is always
// total: every previously generated submodule directory is deleted first,
// because stale submodules from an earlier export set or configuration are a
// correctness hazard, not just clutter.
//
// The returned names are the top-level submodule directories, for the
// ignore-file block.
func (s *Synthesizer) GenerateSubmodules(m *manifest.Manifest, tree *scanner.Tree, mode Mode) ([]string, error) {
	if err := s.removeGeneratedSubmodules(m.Name()); err != nil {
		return nil, err
	}

	topLevel := map[string]struct{}{}
	for _, e := range tree.Exports {
		if e.Key == "." {
			continue
		}

		dir := submoduleDir(e.Key)
		top := strings.SplitN(dir, "/", 2)[0]
		if s.reservedDir(top) {
			// Materializing this submodule would RemoveAll the source or
			// output tree. The export stays in the export map; only the
			// deep-import directory is skipped.
			s.log.Warn("skipping submodule, directory name is reserved",
				"export", e.Key, "dir", top)

			continue
		}
		if err := s.writeSubmodule(dir, e, m, mode); err != nil {
			return nil, err
		}
		topLevel[top] = struct{}{}
	}

	names := make([]string, 0, len(topLevel))
	for name := range topLevel {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}

// submoduleDir derives the directory for an export key, stripping any
// trailing /index suffix so "./foo/index" and "./foo" share a directory.
func submoduleDir(key string) string {
	return strings.TrimSuffix(strings.TrimPrefix(key, "./"), "/index")
}

// reservedDir reports whether a top-level directory name belongs to the
// source tree, the build output, or the package manager. Same set the stale
// walk skips.
func (s *Synthesizer) reservedDir(name string) bool {
	switch name {
	case s.cfg.Source.Dir, s.cfg.Build.CJSDir, s.cfg.Build.ESMDir, "node_modules":
		return true
	}

	return strings.HasPrefix(name, ".")
}

func (s *Synthesizer) writeSubmodule(dir string, e scanner.Export, m *manifest.Manifest, mode Mode) error {
	full := filepath.Join(s.pkgDir, filepath.FromSlash(dir))
	if err := os.RemoveAll(full); err != nil {
		return errors.NewPackageError(s.pkgDir, "removing submodule directory "+dir, err)
	}
	if err := os.MkdirAll(full, 0755); err != nil {
		return errors.NewPackageError(s.pkgDir, "creating submodule directory "+dir, err)
	}

	// Targets resolve one extra directory level per path segment, landing
	// on the same real file the root manifest uses in this mode.
	prefix := strings.Repeat("../", strings.Count(dir, "/")+1)
	rebase := func(target string) string {
		return prefix + strings.TrimPrefix(target, "./")
	}

	doc := manifest.NewObject()
	doc.Set("name", submoduleName(m.Name(), dir))
	doc.Set("private", true)
	doc.Set("sideEffects", false)

	if s.cfg.CJSEnabled() {
		if mode == ModeProduction {
			doc.Set(manifest.FieldMain, rebase(s.runtimePath(paths.CJS, e.SourceRel)))
		} else {
			doc.Set(manifest.FieldMain, rebase(s.sourcePath(e.SourceRel)))
		}
	}
	if s.cfg.ESMEnabled() {
		if mode == ModeProduction {
			doc.Set(manifest.FieldModule, rebase(s.runtimePath(paths.ESM, e.SourceRel)))
		} else {
			doc.Set(manifest.FieldModule, rebase(s.sourcePath(e.SourceRel)))
		}
	}
	if m.TypesKey() != "" {
		if types := s.typesValue(e.SourceRel, mode); types != nil {
			doc.Set(manifest.FieldTypes, rebase(types.(string)))
		}
	}

	encoded, err := manifest.EncodeObject(doc)
	if err != nil {
		return errors.NewPackageError(s.pkgDir, "serializing submodule manifest "+dir, err)
	}
	if err := os.WriteFile(filepath.Join(full, manifest.FileName), encoded, 0644); err != nil {
		return errors.NewPackageError(s.pkgDir, "writing submodule manifest "+dir, err)
	}

	return nil
}

func submoduleName(rootName, dir string) string {
	if rootName == "" {
		return dir
	}

	return rootName + "/" + dir
}

// removeGeneratedSubmodules deletes every directory under the package root
// holding a manifest this generator wrote on a previous pass, then prunes
// the directories left empty.
func (s *Synthesizer) removeGeneratedSubmodules(rootName string) error {
	var doomed []string

	err := filepath.WalkDir(s.pkgDir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p == s.pkgDir {
				return nil
			}
			if s.reservedDir(d.Name()) {
				return filepath.SkipDir
			}

			return nil
		}
		if d.Name() != manifest.FileName || filepath.Dir(p) == s.pkgDir {
			return nil
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		sub, err := manifest.Parse(data)
		if err != nil {
			// Not ours; a generated manifest always parses.
			return nil
		}
		if isGeneratedSubmodule(sub, rootName) {
			doomed = append(doomed, filepath.Dir(p))

			return filepath.SkipDir
		}

		return nil
	})
	if err != nil {
		return errors.NewPackageError(s.pkgDir, "locating generated submodules", err)
	}

	for _, dir := range doomed {
		if err := os.RemoveAll(dir); err != nil {
			return errors.NewPackageError(s.pkgDir, "removing stale submodule", err)
		}
		s.pruneEmptyParents(filepath.Dir(dir))
	}

	return nil
}

// isGeneratedSubmodule recognizes the exact minimal shape this generator
// writes, so user-authored nested packages are never touched.
func isGeneratedSubmodule(sub *manifest.Manifest, rootName string) bool {
	private, ok := sub.Get("private")
	if !ok || private != true {
		return false
	}
	sideEffects, ok := sub.Get("sideEffects")
	if !ok || sideEffects != false {
		return false
	}
	for _, key := range sub.Doc().Keys() {
		switch key {
		case "name", "private", "sideEffects",
			manifest.FieldMain, manifest.FieldModule, manifest.FieldTypes:
		default:
			return false
		}
	}
	if rootName == "" {
		return true
	}

	return strings.HasPrefix(sub.Name(), rootName+"/")
}

func (s *Synthesizer) pruneEmptyParents(dir string) {
	for {
		rel, err := filepath.Rel(s.pkgDir, dir)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		_ = os.Remove(dir)
		dir = filepath.Dir(dir)
	}
}
