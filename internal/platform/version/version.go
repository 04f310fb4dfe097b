// Package version reports the build of the running binary
package version

import "runtime/debug"

// BuildInfo holds version information about the service build
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// set via -ldflags "-X 'mintwatch/internal/platform/version.version=v0.1.0' ..."
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var readBuildInfo = debug.ReadBuildInfo

// Info returns the build information; commit and date fall back to the VCS stamp go build records
func Info() BuildInfo {
	bi := BuildInfo{Service: "mintwatch", Version: version, Commit: commit, Date: date}
	info, ok := readBuildInfo()
	if !ok {
		return bi
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if bi.Commit == "none" {
				bi.Commit = s.Value
			}
		case "vcs.time":
			if bi.Date == "unknown" {
				bi.Date = s.Value
			}
		}
	}
	return bi
}
