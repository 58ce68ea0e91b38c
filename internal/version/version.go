// Package version holds the application version string.
package version

// Version is the current application version.
// Overridden at build time via -ldflags "-X github.com/bidfoundry/quotient/internal/version.Version=..."
var Version = "0.4.0-dev"
