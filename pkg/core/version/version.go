package version

import (
	"fmt"
	"runtime"
)

// Version constants, overridable with -ldflags "-X"
var (
	// Platform version
	Platform = "0.4.0"

	// Commit is the source revision the binary was built from
	Commit = "unknown"

	// BuildDate is the build timestamp
	BuildDate = "unknown"
)

// Component versions
const (
	// Grammar is the command language revision
	Grammar = "1.0.0"

	// API is the remote control API revision
	API = "1.0.0"
)

// ComponentVersion returns the version for a given component name
func ComponentVersion(name string) string {
	switch name {
	case "grammar", "rcl":
		return Grammar
	case "api", "grpc":
		return API
	default:
		return Platform
	}
}

// String returns the full version line printed by the CLI
func String() string {
	return fmt.Sprintf("netplane %s (commit %s, built %s, grammar %s, api %s, %s/%s)",
		Platform, Commit, BuildDate, Grammar, API, runtime.GOOS, runtime.GOARCH)
}
