package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func withVars(t *testing.T, version, commit, date string) {
	t.Helper()
	oldV, oldC, oldD := Version, Commit, BuildDate
	Version, Commit, BuildDate = version, commit, date
	t.Cleanup(func() { Version, Commit, BuildDate = oldV, oldC, oldD })
}

func TestApplyBuildSettings(t *testing.T) {
	withVars(t, "", "", "")

	applyBuildSettings([]debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef"},
		{Key: "vcs.modified", Value: "true"},
		{Key: "vcs.time", Value: "2025-03-04T05:06:07Z"},
	})

	if Commit != "0123456-dirty" {
		t.Errorf("Commit = %q, want %q", Commit, "0123456-dirty")
	}
	if Version != "dev-20250304" {
		t.Errorf("Version = %q, want %q", Version, "dev-20250304")
	}
	if BuildDate != "2025-03-04T05:06:07Z" {
		t.Errorf("BuildDate = %q, want %q", BuildDate, "2025-03-04T05:06:07Z")
	}
}

func TestApplyBuildSettingsKeepsLdflags(t *testing.T) {
	withVars(t, "v1.2.3", "abc123", "2025-01-02")

	applyBuildSettings([]debug.BuildSetting{
		{Key: "vcs.revision", Value: "fffffffffff"},
		{Key: "vcs.time", Value: "2025-03-04T05:06:07Z"},
	})

	if Version != "v1.2.3" || Commit != "abc123" || BuildDate != "2025-01-02" {
		t.Errorf("ldflags values overwritten: %q %q %q", Version, Commit, BuildDate)
	}
}

func TestFullAndGet(t *testing.T) {
	withVars(t, "v1.0.0", "abc1234", "2025-01-02")

	if got := Full(); got != "v1.0.0 (commit: abc1234)" {
		t.Errorf("Full() = %q", got)
	}
	info := Get()
	if info.Version != "v1.0.0" || info.BuildDate != "2025-01-02" {
		t.Errorf("Get() = %+v", info)
	}
	if !strings.HasPrefix(info.GoVersion, "go") {
		t.Errorf("GoVersion = %q", info.GoVersion)
	}
	if !strings.Contains(info.Platform, "/") {
		t.Errorf("Platform = %q", info.Platform)
	}
}
