// Package version exposes build metadata stamped in at link time:
//
//	go build -ldflags "-X github.com/rickgao/eod-data/internal/version.Version=1.0.0 \
//	                   -X github.com/rickgao/eod-data/internal/version.Commit=$(git rev-parse --short HEAD) \
//	                   -X github.com/rickgao/eod-data/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package version

var (
	// Version is the semantic version, "dev" for unstamped builds.
	Version = "dev"

	// Commit is the short git commit hash.
	Commit = "unknown"

	// BuildTime is the UTC build timestamp in ISO 8601.
	BuildTime = "unknown"
)

// String returns a single-line description of the build.
func String() string {
	return Version + " (" + Commit + ") built " + BuildTime
}
