package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set at link time with -ldflags "-X ...".
var (
	Version   = "dev"
	Commit    = "none"
	Date      = "unknown"
	GoVersion = runtime.Version()
)

type BuildInfo struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("Version: %s, Commit: %s, Date: %s, Go Version: %s",
		b.Version, b.Commit, b.Date, b.GoVersion)
}

func GetBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: GoVersion,
	}
	if info.Version == "dev" {
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
	}
	return info
}
