package version

import "fmt"

// Overridden at build time with -ldflags "-X".
var (
	CLIName    = "casper-client"
	CLIVersion = "2.0.0"
	Commit     = "unknown"
	BuildDate  = "unknown"
)

// Long renders the version together with build metadata.
func Long() string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s)", CLIName, CLIVersion, Commit, BuildDate)
}
