// Package version holds the tool's version constants and the global debug
// flag consulted by the logging package.
package version

import "fmt"

const (
	// Major represents the current major version.
	Major = 0
	// Minor represents the current minor version.
	Minor = 1
	// Patch represents the current patch version.
	Patch = 0
)

// String is the formatted "major.minor.patch" version string.
var String string

func init() {
	String = fmt.Sprintf("%d.%d.%d", Major, Minor, Patch)
}

// DebugEnabled gates the logger's Debug/Debugf/Debugln output. It's set by
// the CLI's --verbose flag at startup.
var DebugEnabled bool
