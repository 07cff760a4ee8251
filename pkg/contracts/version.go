// Package contracts holds the version contract shared by the binaries and
// the HTTP API.
package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version is the current version of the application
	Version = "1.0.0"

	// DataFormatVersion versions the layout of the generated JSON files
	DataFormatVersion = "v1"

	// APIVersion is the version of the /api routes
	APIVersion = "v1"
)

var (
	// BuildTime is set during build using ldflags
	BuildTime = "unknown"

	// GitCommit is set during build using ldflags
	GitCommit = "unknown"
)

// VersionInfo contains detailed version information
type VersionInfo struct {
	Version      string `json:"version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"arch"`
	DataFormat   string `json:"data_format"`
	APIVersion   string `json:"api_version"`
}

// GetVersionInfo returns detailed version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      Version,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		DataFormat:   DataFormatVersion,
		APIVersion:   APIVersion,
	}
}

// GetVersionString returns the name of the program followed by its version
func GetVersionString(program string) string {
	return fmt.Sprintf("%s v%s", program, Version)
}

// GetFullVersionString returns a detailed version string
func GetFullVersionString(program string) string {
	info := GetVersionInfo()
	return fmt.Sprintf(
		"%s (built: %s, commit: %s, go: %s, os: %s/%s)",
		GetVersionString(program),
		info.BuildTime,
		info.GitCommit,
		info.GoVersion,
		info.OS,
		info.Architecture,
	)
}
