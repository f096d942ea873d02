// Package version carries build metadata stamped in by the linker.
package version

import (
	"fmt"
	"runtime"
)

// Name is the program name shown in version output.
const Name = "queueboard"

// Set via ldflags at build time:
//
//	go build -ldflags "-X github.com/soyeahso/queueboard/internal/version.Version=1.0.0
//	  -X github.com/soyeahso/queueboard/internal/version.Commit=abc123
//	  -X github.com/soyeahso/queueboard/internal/version.Date=2026-01-01"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info returns a formatted version string.
func Info() string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s, %s/%s)",
		Name, Version, ShortCommit(), Date, runtime.GOOS, runtime.GOARCH)
}

// ShortCommit returns the commit hash truncated to seven characters.
func ShortCommit() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}
	return Commit
}
