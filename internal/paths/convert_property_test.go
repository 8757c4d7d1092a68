//go:build property

package paths

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/pkgshape/internal/config"
)

// TestPathConversionProperties validates the converter's round-trip and
// normalization laws over generated source-rooted paths.
func TestPathConversionProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	cfg := config.Default()

	// Property: toSource(toBuild(p)) == p when the resolver can report the
	// original extension.
	properties.Property("round-trip through build output", prop.ForAll(
		func(segments []string, stem string, extIndex int, useESM bool) bool {
			if len(segments) > 3 {
				segments = segments[:3]
			}
			ext := cfg.Source.Extensions[extIndex%len(cfg.Source.Extensions)]

			rel := filepath.Join(append(append([]string{}, segments...), stem+ext)...)
			root, err := os.MkdirTemp("", "pkgshape-prop")
			if err != nil {
				return false
			}
			defer os.RemoveAll(root)

			full := filepath.Join(root, "src", rel)
			if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
				return false
			}
			if err := os.WriteFile(full, nil, 0644); err != nil {
				return false
			}

			// Earlier candidate extensions would win the probe; skip those
			// inputs since the resolver is then correct to report another
			// extension.
			for _, candidate := range cfg.Source.Extensions {
				if candidate == ext {
					break
				}
				if _, err := os.Stat(filepath.Join(root, "src", StripExt(rel)+candidate)); err == nil {
					return true
				}
			}

			format := CJS
			if useESM {
				format = ESM
			}

			p := "./src/" + filepath.ToSlash(rel)
			resolver := NewResolver(root)

			return ToSource(ToBuild(p, cfg, format), cfg, resolver) == p
		},
		gen.SliceOf(gen.Identifier()),
		gen.Identifier(),
		gen.IntRange(0, 100),
		gen.Bool(),
	))

	// Property: conversion output is always normalized ("./", forward
	// slashes) and carries the format's published extension.
	properties.Property("build paths are normalized with published extension", prop.ForAll(
		func(stem string, useESM bool) bool {
			format := CJS
			ext := CJSExt
			dir := cfg.Build.CJSDir
			if useESM {
				format = ESM
				ext = ESMExt
				dir = cfg.Build.ESMDir
			}

			out := ToBuild("src/"+stem+".ts", cfg, format)

			return strings.HasPrefix(out, "./"+dir+"/") && strings.HasSuffix(out, stem+ext)
		},
		gen.Identifier(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
