package version

import (
	"runtime/debug"
	"time"
)

// Set with -ldflags.
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

// shortCommit is the number of commit characters kept in Info.
const shortCommit = 7

// Build describes the running binary.
type Build struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
	Dirty     bool   `json:"dirty,omitempty"`
}

// Get returns the build information of the current binary.
func Get() Build {
	b := Build{Version: Version, Commit: Commit, BuildTime: BuildTime}
	if info, ok := debug.ReadBuildInfo(); ok {
		fromBuildInfo(&b, info)
	}
	if len(b.Commit) > shortCommit {
		b.Commit = b.Commit[:shortCommit]
	}
	return b
}

func fromBuildInfo(b *Build, info *debug.BuildInfo) {
	b.GoVersion = info.GoVersion
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if b.Commit == "" {
				b.Commit = s.Value
			}
		case "vcs.modified":
			b.Dirty = s.Value == "true"
		case "vcs.time":
			if b.BuildTime == "" {
				if _, err := time.Parse(time.RFC3339, s.Value); err == nil {
					b.BuildTime = s.Value
				}
			}
		}
	}
}

// String returns "<version>", "<version>-<commit>" or "<version>-<commit>-dirty".
func (b Build) String() string {
	if b.Commit == "" {
		return b.Version
	}
	s := b.Version + "-" + b.Commit
	if b.Dirty {
		s += "-dirty"
	}
	return s
}
