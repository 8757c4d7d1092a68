package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/pkgshape/internal/config"
	"github.com/conneroisu/pkgshape/internal/logging"
)

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"dev", "build", "check", "clean", "watch", "version"} {
		assert.True(t, names[want], "command %q should be registered", want)
	}
}

func TestBuildCommandFlags(t *testing.T) {
	flag := buildCmd.Flags().Lookup("types-only")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestWatchCommandFlags(t *testing.T) {
	flag := watchCmd.Flags().Lookup("debounce")
	require.NotNil(t, flag)
	assert.Equal(t, "300ms", flag.DefValue)
}

func TestTargetPaths(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, []string{"."}, targetPaths(cfg, nil))
	assert.Equal(t, []string{"pkg-a", "pkg-b"}, targetPaths(cfg, []string{"pkg-a", "pkg-b"}))

	cfg.TargetPaths = []string{"packages/core"}
	assert.Equal(t, []string{"packages/core"}, targetPaths(cfg, nil))
	assert.Equal(t, []string{"explicit"}, targetPaths(cfg, []string{"explicit"}), "arguments beat configured paths")
}

func TestForEachPackageFirstFailureAborts(t *testing.T) {
	visited := []string{}
	err := forEachPackage(logging.Nop(), []string{"a", "b"}, func(pkgDir string) error {
		visited = append(visited, pkgDir)

		return assert.AnError
	})

	assert.Error(t, err)
	assert.Equal(t, []string{"a"}, visited)
}

func TestForEachPackageSkipsLaterFailures(t *testing.T) {
	visited := []string{}
	err := forEachPackage(logging.Nop(), []string{"a", "b", "c"}, func(pkgDir string) error {
		visited = append(visited, pkgDir)
		if pkgDir == "b" {
			return assert.AnError
		}

		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, visited)
}
