// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing for CLI flags and environment variables,
//   - convenience functions (InfoKV, WarnKV, etc.).
//
// Commands put a named logger into the context and every service extracts it
// from there, so output stays scoped to the binary that produced it.
package logger
