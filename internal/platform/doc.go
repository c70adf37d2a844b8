// Package platform enumerates the build targets coralizer ships for and maps
// each target to its file naming and permission policy.
//
// Identifiers use the npm vocabulary (process.platform / process.arch), so
// Go's "windows" and "amd64" become "win32" and "x64".
package platform
