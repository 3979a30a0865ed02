// Package version reports what build of the service is running
package version

import (
	"runtime/debug"
	"sync"
)

// Service is the name the API reports and logs under
const Service = "armvalidator-api"

// set with -ldflags "-X armvalidator/internal/core/version.version=v1.2.0 ..."
var (
	version = "dev"
	commit  = ""
	date    = ""
)

// BuildInfo is served by /meta/version
type BuildInfo struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
}

var info = sync.OnceValue(func() BuildInfo {
	bi := BuildInfo{Service: Service, Version: version, Commit: commit, Date: date}
	// without ldflags fall back to what the go toolchain stamped
	if b, ok := debug.ReadBuildInfo(); ok {
		bi.GoVersion = b.GoVersion
		for _, s := range b.Settings {
			switch {
			case s.Key == "vcs.revision" && bi.Commit == "":
				bi.Commit = s.Value
			case s.Key == "vcs.time" && bi.Date == "":
				bi.Date = s.Value
			}
		}
	}
	if bi.Commit == "" {
		bi.Commit = "none"
	}
	if bi.Date == "" {
		bi.Date = "unknown"
	}
	return bi
})

// Info returns the build information, resolved once
func Info() BuildInfo { return info() }
