// Package buildinfo holds build-time metadata injected through -ldflags.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// UnknownValue is reported for metadata that was not injected at build time.
const UnknownValue = "unknown"

// Set with -ldflags "-X github.com/tphakala/orderlens/internal/buildinfo.version=..."
var (
	version   string
	buildDate string
)

// Info describes the running binary.
type Info struct {
	Version   string
	BuildDate string
	GoVersion string
}

// Get returns the metadata of the running binary. When no version was
// injected, the main module version recorded by the Go toolchain is used.
func Get() Info {
	info := Info{
		Version:   version,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
	}
	if info.Version == "" {
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
	}
	if info.Version == "" {
		info.Version = UnknownValue
	}
	if info.BuildDate == "" {
		info.BuildDate = UnknownValue
	}
	return info
}

// Release returns the release name reported to error telemetry.
func (i Info) Release() string {
	return "orderlens@" + i.Version
}

// String formats the metadata for the version command.
func (i Info) String() string {
	return fmt.Sprintf("OrderLens %s (built %s, %s)", i.Version, i.BuildDate, i.GoVersion)
}
