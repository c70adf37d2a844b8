// Package version exposes build metadata for the release tooling itself.
//
// Variables Version, Commit, and BuildTime are injected at build time via
// Go ldflags. They describe the coralizer-publish binary, not the release
// being published, which always comes from the VERSION environment variable.
package version
