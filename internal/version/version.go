// Package version carries build metadata for the streamclient binary.
//
// Set the variables with ldflags:
//
//	go build -ldflags "-X github.com/potatochat/streamclient/internal/version.Version=1.0.0 \
//	                   -X github.com/potatochat/streamclient/internal/version.Commit=$(git rev-parse --short HEAD) \
//	                   -X github.com/potatochat/streamclient/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package version

import "log/slog"

var (
	// Version is the semantic version, "dev" for local builds.
	Version = "dev"

	// Commit is the short git hash.
	Commit = "unknown"

	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// String returns "<version> (<commit>) built <time>".
func String() string {
	return Version + " (" + Commit + ") built " + BuildTime
}

// UserAgent is sent on REST requests and the websocket handshake.
func UserAgent() string {
	return "streamclient/" + Version
}

// LogAttrs groups the build metadata for a startup log line.
func LogAttrs() slog.Attr {
	return slog.Group("build",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("built", BuildTime),
	)
}
