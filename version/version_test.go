package version

import (
	"runtime/debug"
	"testing"
)

func restore() func() {
	v, c, bt := Version, Commit, BuildTime
	return func() { Version, Commit, BuildTime = v, c, bt }
}

func TestGet_LinkerValues(t *testing.T) {
	defer restore()()
	Version = "1.2.3"
	Commit = "abcdef0123456"
	BuildTime = "2024-01-15T10:30:00Z"

	b := Get()
	if b.Version != "1.2.3" {
		t.Errorf("Version = %q", b.Version)
	}
	if b.Commit != "abcdef0" {
		t.Errorf("Commit = %q, want abcdef0", b.Commit)
	}
	if b.BuildTime != "2024-01-15T10:30:00Z" {
		t.Errorf("BuildTime = %q", b.BuildTime)
	}
}

func TestFromBuildInfo(t *testing.T) {
	info := &debug.BuildInfo{
		GoVersion: "go1.25.5",
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789"},
			{Key: "vcs.modified", Value: "true"},
			{Key: "vcs.time", Value: "2025-03-01T08:00:00Z"},
		},
	}
	b := Build{Version: "dev"}
	fromBuildInfo(&b, info)

	if b.GoVersion != "go1.25.5" || b.Commit != "0123456789" || !b.Dirty {
		t.Errorf("unexpected build: %+v", b)
	}
	if b.BuildTime != "2025-03-01T08:00:00Z" {
		t.Errorf("BuildTime = %q", b.BuildTime)
	}

	pinned := Build{Commit: "fixed", BuildTime: "yesterday"}
	fromBuildInfo(&pinned, info)
	if pinned.Commit != "fixed" || pinned.BuildTime != "yesterday" {
		t.Errorf("linker values overwritten: %+v", pinned)
	}
}

func TestBuild_String(t *testing.T) {
	tests := []struct {
		b    Build
		want string
	}{
		{Build{Version: "dev"}, "dev"},
		{Build{Version: "1.0.0", Commit: "abc1234"}, "1.0.0-abc1234"},
		{Build{Version: "1.0.0", Commit: "abc1234", Dirty: true}, "1.0.0-abc1234-dirty"},
	}
	for _, tt := range tests {
		if got := tt.b.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
