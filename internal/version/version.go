// Package version carries the build version, overridable at link time via
// -ldflags "-X github.com/voxpoll/voxpoll/internal/version.Version=...".
package version

// Version is the current build version.
var Version = "0.3.0-dev"
