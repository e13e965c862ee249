// Package version reports build information for servicekit binaries.
//
// Version, commit and build time are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/servicekit/version.Version=1.0.0"
//
// Whatever is not set is filled from the module build info when present.
package version
