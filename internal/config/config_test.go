package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfigFile(t *testing.T, content map[string]any) string {
	t.Helper()

	data, err := yaml.Marshal(content)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), ".pkgshape.yml")
	require.NoError(t, os.WriteFile(path, data, 0644))

	return path
}

func loadFromFile(t *testing.T, path string) (*Config, error) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	return Load()
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "src", cfg.Source.Dir)
	assert.Equal(t, "cjs", cfg.Build.CJSDir)
	assert.Equal(t, "esm", cfg.Build.ESMDir)
	assert.True(t, cfg.TypesEnabled())
	assert.True(t, cfg.CJSEnabled())
	assert.True(t, cfg.ESMEnabled())
	assert.True(t, cfg.GitIgnore.Managed)
	assert.Equal(t, "tsc", cfg.Tools.TypesCommand)
	assert.NotEmpty(t, cfg.Source.Extensions)
	assert.Equal(t, ".ts", cfg.Source.Extensions[0])
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Default().Source, cfg.Source)
	assert.Equal(t, Default().Build, cfg.Build)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, map[string]any{
		"source": map[string]any{"dir": "lib"},
		"build": map[string]any{
			"cjs":   "commonjs",
			"types": false,
		},
		"exports": map[string]any{
			"ignore": []string{"internal/**"},
		},
		"tools": map[string]any{
			"bundle_command": "esbuild --bundle",
		},
	})

	cfg, err := loadFromFile(t, path)
	require.NoError(t, err)

	assert.Equal(t, "lib", cfg.Source.Dir)
	assert.Equal(t, "commonjs", cfg.Build.CJSDir)
	assert.Equal(t, "esm", cfg.Build.ESMDir)
	assert.False(t, cfg.TypesEnabled())
	assert.Equal(t, "esbuild --bundle", cfg.Tools.BundleCommand)
	assert.True(t, cfg.ExportIgnored("internal/secret.ts"))
}

func TestLoadDisablesFormat(t *testing.T) {
	path := writeConfigFile(t, map[string]any{
		"build": map[string]any{"cjs": ""},
	})

	cfg, err := loadFromFile(t, path)
	require.NoError(t, err)

	assert.False(t, cfg.CJSEnabled())
	assert.True(t, cfg.ESMEnabled())
}

func TestValidateCollectsAllViolations(t *testing.T) {
	cfg := &Config{
		Source: SourceConfig{Dir: "", Extensions: []string{"ts"}},
		Build: BuildConfig{
			CJSDir: "out",
			ESMDir: "out",
			Ignore: []string{"[unclosed"},
		},
	}

	err := cfg.Validate()
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "source.dir must not be empty")
	assert.Contains(t, msg, "must be distinct")
	assert.Contains(t, msg, `extension "ts" must start with a dot`)
	assert.Contains(t, msg, "does not compile")
}

func TestValidateRejectsNestedOutputDir(t *testing.T) {
	cfg := Default()
	cfg.Build.CJSDir = "dist/cjs"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plain directory name")
}

func TestBuildIgnorePredicates(t *testing.T) {
	cfg := Default()

	testCases := []struct {
		rel     string
		ignored bool
	}{
		{"index.ts", false},
		{"index.test.ts", true},
		{"nested/util.test.ts", true},
		{"nested/util.spec.js", true},
		{"__tests__/helper.ts", true},
		{"deep/__tests__/helper.ts", true},
		{"util.ts", false},
	}

	for _, tc := range testCases {
		t.Run(tc.rel, func(t *testing.T) {
			assert.Equal(t, tc.ignored, cfg.BuildIgnored(tc.rel))
		})
	}
}
