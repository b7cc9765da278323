// Package version holds the build version, set at release time via ldflags.
package version

// Version is the current transmote version
var Version = "0.1.0"
