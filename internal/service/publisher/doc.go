// Package publisher stages prebuilt coralizer binaries into npm package
// directories and publishes them.
//
// Two layouts are supported. The shared layout copies every platform binary
// into the base package's bin directory under a suffixed name. The
// per-platform layout builds one package per target from a manifest template,
// publishes them in matrix order and then publishes the base package with its
// optionalDependencies pinned to the same version. The first failure aborts
// the run; nothing already published is rolled back.
package publisher
