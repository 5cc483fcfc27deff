package version

import (
	"strings"
	"testing"
)

func withVersion(t *testing.T, v, c, b string) {
	t.Helper()
	origVersion, origCommit, origBuildTime := Version, Commit, BuildTime
	t.Cleanup(func() {
		Version, Commit, BuildTime = origVersion, origCommit, origBuildTime
	})
	Version, Commit, BuildTime = v, c, b
}

func TestString(t *testing.T) {
	withVersion(t, "1.2.3", "abc1234", "2024-06-18T22:00:00Z")

	if got, want := String(), "1.2.3 (abc1234) built 2024-06-18T22:00:00Z"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestUserAgent(t *testing.T) {
	withVersion(t, "0.4.0", "unknown", "unknown")

	ua := UserAgent()
	if !strings.HasPrefix(ua, "Mozilla/5.0") {
		t.Errorf("UserAgent() = %q, want browser-like prefix", ua)
	}
	if !strings.Contains(ua, "eod-movers/0.4.0") {
		t.Errorf("UserAgent() = %q, want product token with version", ua)
	}
}
