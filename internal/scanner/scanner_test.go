package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/pkgshape/internal/config"
	"github.com/conneroisu/pkgshape/internal/errors"
	"github.com/conneroisu/pkgshape/internal/logging"
	"github.com/conneroisu/pkgshape/internal/manifest"
)

func libraryManifest(t *testing.T) *manifest.Manifest {
	t.Helper()

	m, err := manifest.Parse([]byte(`{"name": "lib", "main": "./src/index.ts"}`))
	require.NoError(t, err)

	return m
}

func cliManifest(t *testing.T) *manifest.Manifest {
	t.Helper()

	m, err := manifest.Parse([]byte(`{"name": "tool", "bin": "./src/index.ts"}`))
	require.NoError(t, err)

	return m
}

// writeTree creates files (empty content) under dir, making parents.
func writeTree(t *testing.T, dir string, files ...string) {
	t.Helper()

	for _, f := range files {
		full := filepath.Join(dir, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, nil, 0644))
	}
}

func exportKeys(tree *Tree) []string {
	keys := make([]string, len(tree.Exports))
	for i, e := range tree.Exports {
		keys[i] = e.Key
	}

	return keys
}

func TestScanFlatTree(t *testing.T) {
	pkg := t.TempDir()
	writeTree(t, pkg, "src/index.ts", "src/util.ts", "src/README.md")

	tree, err := New(config.Default(), logging.Nop()).Scan(pkg, libraryManifest(t))
	require.NoError(t, err)

	// README.md has no recognized extension and is not build-eligible.
	assert.Equal(t, []string{"index.ts", "util.ts"}, tree.BuildFiles)
	assert.Equal(t, []string{".", "./util"}, exportKeys(tree))

	root, ok := tree.Root()
	require.True(t, ok)
	assert.Equal(t, "index.ts", root.SourceRel)
}

func TestScanDirectoryIndexCollapse(t *testing.T) {
	pkg := t.TempDir()
	writeTree(t, pkg, "src/index.ts", "src/foo/index.ts", "src/foo/helper.ts")

	tree, err := New(config.Default(), logging.Nop()).Scan(pkg, libraryManifest(t))
	require.NoError(t, err)

	keys := exportKeys(tree)
	assert.Contains(t, keys, "./foo")
	assert.NotContains(t, keys, "./foo/index")
	assert.NotContains(t, keys, "./foo/helper")

	// The collapsed export resolves to the directory's index file.
	for _, e := range tree.Exports {
		if e.Key == "./foo" {
			assert.Equal(t, "foo/index.ts", e.SourceRel)
		}
	}

	// Collapse affects exports only; all files still build.
	assert.ElementsMatch(t, []string{"index.ts", "foo/index.ts", "foo/helper.ts"}, tree.BuildFiles)
}

func TestScanDirectoryWithoutIndexExportsEachFile(t *testing.T) {
	pkg := t.TempDir()
	writeTree(t, pkg, "src/index.ts", "src/util/a.ts", "src/util/b.ts")

	tree, err := New(config.Default(), logging.Nop()).Scan(pkg, libraryManifest(t))
	require.NoError(t, err)

	assert.Equal(t, []string{".", "./util/a", "./util/b"}, exportKeys(tree))
}

func TestScanBuildIgnorePatterns(t *testing.T) {
	pkg := t.TempDir()
	writeTree(t, pkg,
		"src/index.ts",
		"src/index.test.ts",
		"src/__tests__/helper.ts",
		"src/nested/feature.ts",
		"src/nested/feature.spec.ts",
	)

	tree, err := New(config.Default(), logging.Nop()).Scan(pkg, libraryManifest(t))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"index.ts", "nested/feature.ts"}, tree.BuildFiles)
	assert.Equal(t, []string{".", "./nested/feature"}, exportKeys(tree))
}

func TestScanExportIgnoreStillBuilds(t *testing.T) {
	cfg := config.Default()
	cfg.Exports.Ignore = []string{"internal/**", "**/internal/**"}
	require.NoError(t, cfg.Validate())

	pkg := t.TempDir()
	writeTree(t, pkg, "src/index.ts", "src/internal/db.ts")

	tree, err := New(cfg, logging.Nop()).Scan(pkg, libraryManifest(t))
	require.NoError(t, err)

	assert.Contains(t, tree.BuildFiles, "internal/db.ts")
	assert.Equal(t, []string{"."}, exportKeys(tree))
}

func TestScanEmptySubdirectoryDropped(t *testing.T) {
	pkg := t.TempDir()
	writeTree(t, pkg, "src/index.ts")
	require.NoError(t, os.MkdirAll(filepath.Join(pkg, "src", "empty"), 0755))

	tree, err := New(config.Default(), logging.Nop()).Scan(pkg, libraryManifest(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"index.ts"}, tree.BuildFiles)
	assert.Equal(t, []string{"."}, exportKeys(tree))
}

func TestScanEmptyRootIsConfigurationError(t *testing.T) {
	pkg := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(pkg, "src"), 0755))

	_, err := New(config.Default(), logging.Nop()).Scan(pkg, libraryManifest(t))
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestScanMissingSourceDirIsConfigurationError(t *testing.T) {
	_, err := New(config.Default(), logging.Nop()).Scan(t.TempDir(), libraryManifest(t))

	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestScanPureCLIPackage(t *testing.T) {
	pkg := t.TempDir()
	writeTree(t, pkg, "src/index.ts", "src/commands/run.ts")

	tree, err := New(config.Default(), logging.Nop()).Scan(pkg, cliManifest(t))
	require.NoError(t, err)

	// The full tree is bypassed: only the index participates.
	assert.Equal(t, []string{"index.ts"}, tree.BuildFiles)
	assert.Equal(t, []string{"."}, exportKeys(tree))
}

func TestScanPureCLIIndexTieBreak(t *testing.T) {
	pkg := t.TempDir()
	writeTree(t, pkg, "src/index.js", "src/index.ts")

	tree, err := New(config.Default(), logging.Nop()).Scan(pkg, cliManifest(t))
	require.NoError(t, err)

	root, ok := tree.Root()
	require.True(t, ok)
	assert.Equal(t, "index.ts", root.SourceRel)
}

func TestScanKeyCollisionUsesExtensionOrder(t *testing.T) {
	pkg := t.TempDir()
	writeTree(t, pkg, "src/index.ts", "src/util.js", "src/util.ts")

	tree, err := New(config.Default(), logging.Nop()).Scan(pkg, libraryManifest(t))
	require.NoError(t, err)

	var util []Export
	for _, e := range tree.Exports {
		if e.Key == "./util" {
			util = append(util, e)
		}
	}
	require.Len(t, util, 1)
	assert.Equal(t, "util.ts", util[0].SourceRel)
}
