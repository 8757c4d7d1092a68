// Package version exposes build metadata for the version command.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set at build time via -ldflags.
var (
	// Version is the semantic version of the binary.
	Version = "dev"

	// GitCommit is the commit the binary was built from.
	GitCommit = "unknown"
)

// Info holds the resolved build metadata.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get resolves build metadata, falling back to the module's embedded build
// info when the ldflags variables were not set.
func Get() Info {
	return Info{
		Version:   resolveVersion(),
		GitCommit: resolveCommit(),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Short returns a one-line version string for display.
func Short() string {
	info := Get()
	if len(info.GitCommit) >= 7 && info.GitCommit != "unknown" {
		return fmt.Sprintf("%s (%s)", info.Version, info.GitCommit[:7])
	}

	return info.Version
}

func resolveVersion() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}

	return "dev"
}

func resolveCommit() string {
	if GitCommit != "" && GitCommit != "unknown" {
		return GitCommit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				return setting.Value
			}
		}
	}

	return "unknown"
}
