package main

import (
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Build metadata, set with -ldflags "-X main.Version=..." by the release build.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// devPrerelease marks builds cut from a development branch, e.g. 0.3.0-dev.2.
const devPrerelease = "dev"

// VersionInfo describes the running build to the renderer.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
	Arch      string `json:"arch"`
	Dev       bool   `json:"dev"`
}

func (a *App) GetVersionInfo() *VersionInfo {
	return &VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
		Dev:       isDevBuild(Version),
	}
}

// isDevBuild reports whether version is unreleased. Anything that does not
// parse as semver counts, since release builds always inject a tag.
func isDevBuild(version string) bool {
	v, err := semver.NewVersion(version)
	if err != nil {
		return true
	}
	return strings.HasPrefix(v.Prerelease(), devPrerelease)
}
