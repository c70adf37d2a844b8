// Package launcher finds the prebuilt coralizer binary for the running host
// and runs it in place of the launcher.
//
// The child inherits the standard streams and receives the arguments
// verbatim; its exit status becomes the launcher's. Resolution is done either
// through an installed platform package (Node-style node_modules lookup) or
// through a bin directory next to the launcher, chosen at build time.
package launcher
