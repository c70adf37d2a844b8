// Package config defines the publisher settings and provides helpers to load,
// default and validate them from YAML, plus resolution of the release version
// from the environment or a dotenv file.
package config
