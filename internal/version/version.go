// Package version carries build metadata, set with -ldflags "-X".
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"     // ex: v0.3.0
	Commit    = "none"    // ex: 4f2c9e1
	BuildDate = "unknown" // ex: 2026-03-02T09:15:00Z
	GoVersion = runtime.Version()
)

// String is the one-line form logged at startup.
func String() string {
	return fmt.Sprintf("panelshop %s (commit=%s, built=%s, go=%s)", Version, Commit, BuildDate, GoVersion)
}
