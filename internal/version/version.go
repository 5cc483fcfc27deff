// Package version provides build-time version information.
//
// Variables are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/rickgao/eod-movers/internal/version.Version=1.0.0 \
//	                   -X github.com/rickgao/eod-movers/internal/version.Commit=$(git rev-parse --short HEAD)" \
//	         ./cmd/loader
package version

// Build-time variables (set via ldflags)
var (
	// Version is the semantic version (e.g., "1.0.0")
	Version = "dev"

	// Commit is the git commit hash (short form)
	Commit = "unknown"

	// BuildTime is the UTC build timestamp (ISO 8601)
	BuildTime = "unknown"
)

// String returns a formatted version string.
func String() string {
	return Version + " (" + Commit + ") built " + BuildTime
}

// UserAgent returns the User-Agent sent to market data APIs. Yahoo rejects
// agents that do not look like a browser, hence the Mozilla prefix.
func UserAgent() string {
	return "Mozilla/5.0 (compatible; eod-movers/" + Version + ")"
}
