// Package buildinfo carries the identifiers stamped into a firmware image.
package buildinfo

import "fmt"

// Set at link time:
//
//	-ldflags "-X ember/internal/buildinfo.Version=v0.3.0 -X ember/internal/buildinfo.Commit=abc123"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func stamped(v, unset string) bool { return v != "" && v != unset }

// Short returns the version, or the commit for an unreleased build.
func Short() string {
	switch {
	case stamped(Version, "dev"):
		return Version
	case stamped(Commit, "unknown"):
		return Commit
	}
	return "dev"
}

// Long returns the version with whatever commit and date were stamped.
func Long() string {
	s := Short()
	switch {
	case stamped(Commit, "unknown") && stamped(Date, "unknown") && s != Commit:
		return fmt.Sprintf("%s (%s, %s)", s, Commit, Date)
	case stamped(Commit, "unknown") && s != Commit:
		return fmt.Sprintf("%s (%s)", s, Commit)
	case stamped(Date, "unknown"):
		return fmt.Sprintf("%s (%s)", s, Date)
	}
	return s
}
