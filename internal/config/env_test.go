package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestResolveVersion covers environment, dotenv fallback and the missing case.
//
//nolint:paralleltest // t.Setenv is incompatible with t.Parallel.
func TestResolveVersion(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")

	t.Setenv(VersionEnv, "")

	_, err := ResolveVersion(envFile)
	require.ErrorIs(t, err, ErrVersionRequired)

	require.NoError(t, os.WriteFile(envFile, []byte("VERSION=1.2.3\n"), 0o600))

	v, err := ResolveVersion(envFile)
	require.NoError(t, err)
	require.Equal(t, "1.2.3", v)

	t.Setenv(VersionEnv, " 2.0.0 ")

	v, err = ResolveVersion(envFile)
	require.NoError(t, err)
	require.Equal(t, "2.0.0", v)

	t.Setenv(VersionEnv, "")
	require.NoError(t, os.WriteFile(envFile, []byte("OTHER=1\n"), 0o600))

	_, err = ResolveVersion(envFile)
	require.ErrorIs(t, err, ErrVersionRequired)

	_, err = ResolveVersion("")
	require.ErrorIs(t, err, ErrVersionRequired)
}
