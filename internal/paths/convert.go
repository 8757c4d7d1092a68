// Package paths provides the pure path conversions between the source tree
// and the build output directories, plus filesystem probing for the real
// extension of a logical file.
//
// All conversions normalize to forward-slash separators with a leading "./",
// the form package manifests use regardless of platform. Paths that do not
// lie under the configured source or output directories pass through
// unchanged: they are either external or already converted.
package paths

import (
	"path"
	"strings"

	"github.com/conneroisu/pkgshape/internal/config"
)

// Format identifies a module output format.
type Format int

const (
	// CJS is the CommonJS output format.
	CJS Format = iota
	// ESM is the ECMAScript module output format.
	ESM
)

// String returns the format's conventional short name.
func (f Format) String() string {
	if f == CJS {
		return "cjs"
	}

	return "esm"
}

// Published runtime extensions. CommonJS output always publishes .cjs,
// ECMAScript module output always publishes .js.
const (
	CJSExt = ".cjs"
	ESMExt = ".js"
)

// Normalize converts p to forward slashes and a leading "./".
func Normalize(p string) string {
	n := path.Clean(strings.ReplaceAll(p, "\\", "/"))
	if n == "." {
		return "."
	}
	if strings.HasPrefix(n, "/") || strings.HasPrefix(n, "../") {
		return n
	}

	return "./" + strings.TrimPrefix(n, "./")
}

// StripExt removes the final extension from p.
func StripExt(p string) string {
	return strings.TrimSuffix(p, path.Ext(p))
}

// ToBuild maps a source-tree path to its build-output equivalent for the
// given format. Paths outside the source directory are returned unchanged.
func ToBuild(sourcePath string, cfg *config.Config, format Format) string {
	n := Normalize(sourcePath)

	prefix := "./" + cfg.Source.Dir + "/"
	if !strings.HasPrefix(n, prefix) {
		return n
	}

	dir := cfg.Build.CJSDir
	ext := CJSExt
	if format == ESM {
		dir = cfg.Build.ESMDir
		ext = ESMExt
	}

	stem := StripExt(strings.TrimPrefix(n, prefix))

	return "./" + dir + "/" + stem + ext
}

// ToSource maps a build-output path back to the source file it was built
// from. The real source extension is discovered by probing the filesystem
// through the resolver; when no candidate exists the first configured
// extension is assumed so the conversion stays total. Paths outside the
// output directories are returned unchanged.
func ToSource(buildPath string, cfg *config.Config, resolver *Resolver) string {
	n := Normalize(buildPath)

	for _, dir := range []string{cfg.Build.CJSDir, cfg.Build.ESMDir} {
		if dir == "" {
			continue
		}
		prefix := "./" + dir + "/"
		if !strings.HasPrefix(n, prefix) {
			continue
		}

		stem := StripExt(strings.TrimPrefix(n, prefix))
		if rel, ok := resolver.Resolve(cfg.Source.Dir, stem, cfg.Source.Extensions); ok {
			return "./" + rel
		}

		return "./" + cfg.Source.Dir + "/" + stem + cfg.Source.Extensions[0]
	}

	return n
}

// RuntimeCandidates returns the probe order for runtime entry points in a
// format's output directory. Bundlers differ in whether they emit the
// published extension or a bare .js/.mjs, so production synthesis probes
// rather than assumes.
func RuntimeCandidates(format Format) []string {
	if format == CJS {
		return []string{".cjs", ".js"}
	}

	return []string{".js", ".mjs"}
}

// DeclarationCandidates returns the probe order for type declaration files
// in a format's output directory.
func DeclarationCandidates(format Format) []string {
	if format == CJS {
		return []string{".d.ts", ".d.cts"}
	}

	return []string{".d.ts", ".d.mts"}
}
