// Package config provides configuration management for pkgshape using Viper
// for flexible loading from files, environment variables, and command-line
// flags.
//
// The configuration system supports YAML files (.pkgshape.yml), environment
// variable overrides with the PKGSHAPE_ prefix, and validation that reports
// every violated constraint at once. It resolves the source directory layout,
// the enabled output formats, recognized file extensions, ignore patterns,
// and the external tool commands invoked during a build.
package config

import (
	"github.com/gobwas/glob"
	"github.com/spf13/viper"
)

// Config is the resolved build configuration for one command invocation.
// It is immutable once loaded: owned by the orchestrator, read-only to every
// other component.
type Config struct {
	Source    SourceConfig    `yaml:"source" mapstructure:"source"`
	Build     BuildConfig     `yaml:"build" mapstructure:"build"`
	Exports   ExportsConfig   `yaml:"exports" mapstructure:"exports"`
	GitIgnore GitIgnoreConfig `yaml:"gitignore" mapstructure:"gitignore"`
	Tools     ToolsConfig     `yaml:"tools" mapstructure:"tools"`

	// TargetPaths are the package directories given as CLI arguments,
	// never read from the config file.
	TargetPaths []string `yaml:"-" mapstructure:"-"`

	buildIgnore  []glob.Glob
	exportIgnore []glob.Glob
}

// SourceConfig describes the source tree.
type SourceConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
	// Extensions is the ordered list of recognized source extensions.
	// Order matters: it is the tie-break when multiple candidate files
	// exist for the same logical entry point.
	Extensions []string `yaml:"extensions" mapstructure:"extensions"`
}

// BuildConfig describes the compiled output layout. An empty directory name
// disables the corresponding format.
type BuildConfig struct {
	CJSDir string   `yaml:"cjs" mapstructure:"cjs"`
	ESMDir string   `yaml:"esm" mapstructure:"esm"`
	Types  bool     `yaml:"types" mapstructure:"types"`
	Ignore []string `yaml:"ignore" mapstructure:"ignore"`
}

// ExportsConfig holds patterns excluding entries from the public export
// surface. Export-ignored files still build; they just are not published.
type ExportsConfig struct {
	Ignore []string `yaml:"ignore" mapstructure:"ignore"`
}

// GitIgnoreConfig controls the managed block in the package's ignore file.
type GitIgnoreConfig struct {
	Managed bool `yaml:"managed" mapstructure:"managed"`
}

// ToolsConfig names the external tool invocations and the type-compiler
// cache file cleared before each fresh compilation pass.
type ToolsConfig struct {
	TypesCommand  string `yaml:"types_command" mapstructure:"types_command"`
	BundleCommand string `yaml:"bundle_command" mapstructure:"bundle_command"`
	CacheFile     string `yaml:"cache_file" mapstructure:"cache_file"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	config := &Config{
		Source: SourceConfig{
			Dir:        "src",
			Extensions: []string{".ts", ".tsx", ".mts", ".cts", ".js", ".mjs", ".jsx"},
		},
		Build: BuildConfig{
			CJSDir: "cjs",
			ESMDir: "esm",
			Types:  true,
			Ignore: defaultIgnorePatterns(),
		},
		GitIgnore: GitIgnoreConfig{Managed: true},
		Tools: ToolsConfig{
			TypesCommand:  "tsc",
			BundleCommand: "rollup -c",
			CacheFile:     "tsconfig.tsbuildinfo",
		},
	}
	if err := config.Validate(); err != nil {
		panic(err)
	}

	return config
}

func defaultIgnorePatterns() []string {
	return []string{
		"*.test.*", "**/*.test.*",
		"*.spec.*", "**/*.spec.*",
		"__tests__/**", "**/__tests__/**",
		"__mocks__/**", "**/__mocks__/**",
	}
}

// Load builds a Config from viper state (config file, environment, flags),
// applies defaults for everything unset, and validates the result.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Source.Dir == "" {
		config.Source.Dir = "src"
	}
	if len(config.Source.Extensions) == 0 {
		config.Source.Extensions = []string{".ts", ".tsx", ".mts", ".cts", ".js", ".mjs", ".jsx"}
	}

	// Boolean fields default to true, so absence must be distinguished
	// from an explicit false (workaround for viper zero-value handling).
	if !viper.IsSet("build.cjs") && config.Build.CJSDir == "" {
		config.Build.CJSDir = "cjs"
	}
	if !viper.IsSet("build.esm") && config.Build.ESMDir == "" {
		config.Build.ESMDir = "esm"
	}
	if !viper.IsSet("build.types") {
		config.Build.Types = true
	}
	if len(config.Build.Ignore) == 0 {
		config.Build.Ignore = defaultIgnorePatterns()
	}

	if !viper.IsSet("gitignore.managed") {
		config.GitIgnore.Managed = true
	}

	if config.Tools.TypesCommand == "" {
		config.Tools.TypesCommand = "tsc"
	}
	if config.Tools.BundleCommand == "" {
		config.Tools.BundleCommand = "rollup -c"
	}
	if config.Tools.CacheFile == "" {
		config.Tools.CacheFile = "tsconfig.tsbuildinfo"
	}
}

// CJSEnabled reports whether the CommonJS output format is enabled.
func (c *Config) CJSEnabled() bool {
	return c.Build.CJSDir != ""
}

// ESMEnabled reports whether the ECMAScript module output format is enabled.
func (c *Config) ESMEnabled() bool {
	return c.Build.ESMDir != ""
}

// TypesEnabled reports whether declaration output is enabled.
func (c *Config) TypesEnabled() bool {
	return c.Build.Types
}

// BuildIgnored reports whether the given source-root-relative path matches a
// build-ignore pattern. Config must have been validated first.
func (c *Config) BuildIgnored(rel string) bool {
	return matchAny(c.buildIgnore, rel)
}

// ExportIgnored reports whether the given source-root-relative path matches
// an export-ignore pattern.
func (c *Config) ExportIgnored(rel string) bool {
	return matchAny(c.exportIgnore, rel)
}

func matchAny(globs []glob.Glob, rel string) bool {
	for _, g := range globs {
		if g.Match(rel) {
			return true
		}
	}

	return false
}
