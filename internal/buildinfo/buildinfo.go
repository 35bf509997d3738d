// Package buildinfo holds version information injected at build time via ldflags.
package buildinfo

var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// IsRelease reports whether this is a packaged build rather than a
// development build.
func IsRelease() bool {
	return Version != "dev"
}
