package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/conneroisu/pkgshape/internal/errors"
)

// Validate checks every configuration constraint and compiles the ignore
// patterns. All violations are collected before failing so the user can fix
// them in one pass.
func (c *Config) Validate() error {
	var violations []string

	violations = append(violations, validateDirName("source.dir", c.Source.Dir, true)...)
	violations = append(violations, validateDirName("build.cjs", c.Build.CJSDir, false)...)
	violations = append(violations, validateDirName("build.esm", c.Build.ESMDir, false)...)

	if c.Build.CJSDir != "" && c.Build.CJSDir == c.Build.ESMDir {
		violations = append(violations,
			fmt.Sprintf("build.cjs and build.esm both name %q; output directories must be distinct", c.Build.CJSDir))
	}
	for _, dir := range []string{c.Build.CJSDir, c.Build.ESMDir} {
		if dir != "" && dir == c.Source.Dir {
			violations = append(violations,
				fmt.Sprintf("output directory %q collides with source.dir", dir))
		}
	}

	for _, ext := range c.Source.Extensions {
		if !strings.HasPrefix(ext, ".") {
			violations = append(violations,
				fmt.Sprintf("source extension %q must start with a dot", ext))
		}
	}

	if c.Tools.CacheFile != "" && filepath.IsAbs(c.Tools.CacheFile) {
		violations = append(violations,
			fmt.Sprintf("tools.cache_file %q must be a package-relative path", c.Tools.CacheFile))
	}

	buildIgnore, errs := compilePatterns("build.ignore", c.Build.Ignore)
	violations = append(violations, errs...)
	exportIgnore, errs := compilePatterns("exports.ignore", c.Exports.Ignore)
	violations = append(violations, errs...)

	if len(violations) > 0 {
		return errors.NewConfigurationError("invalid configuration", violations...).
			WithSuggestion(
				"Review .pkgshape.yml",
				"Each violation above names the offending key",
				"",
			)
	}

	c.buildIgnore = buildIgnore
	c.exportIgnore = exportIgnore

	return nil
}

// validateDirName checks a configured directory name. Directory names are
// single path segments relative to the package root.
func validateDirName(key, name string, required bool) []string {
	if name == "" {
		if required {
			return []string{key + " must not be empty"}
		}

		return nil
	}

	var violations []string
	if filepath.IsAbs(name) {
		violations = append(violations, fmt.Sprintf("%s %q must be relative", key, name))
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		violations = append(violations, fmt.Sprintf("%s %q must be a plain directory name", key, name))
	}

	return violations
}

func compilePatterns(key string, patterns []string) ([]glob.Glob, []string) {
	var (
		compiled   []glob.Glob
		violations []string
	)
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			violations = append(violations,
				fmt.Sprintf("%s pattern %q does not compile: %v", key, pattern, err))

			continue
		}
		compiled = append(compiled, g)
	}

	return compiled, violations
}
