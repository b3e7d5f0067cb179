// Package version provides build and version information for BrewSim.
package version

// Version is the current release version of BrewSim.
// This can be overridden at build time using:
//
//	go build -ldflags "-X github.com/AaronLay10/BrewSim/internal/version.Version=x.y.z"
var Version = "0.3.0"
