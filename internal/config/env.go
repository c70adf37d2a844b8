package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// ResolveVersion returns the release version from the process environment,
// falling back to envFile. A missing envFile is not an error; the process
// environment always wins. Nothing is written to the filesystem or environment.
func ResolveVersion(envFile string) (string, error) {
	if v := strings.TrimSpace(os.Getenv(VersionEnv)); v != "" {
		return v, nil
	}

	if envFile == "" {
		return "", ErrVersionRequired
	}

	values, err := godotenv.Read(envFile)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrVersionRequired
	}

	if err != nil {
		return "", fmt.Errorf("read %s: %w", envFile, err)
	}

	if v := strings.TrimSpace(values[VersionEnv]); v != "" {
		return v, nil
	}

	return "", ErrVersionRequired
}
