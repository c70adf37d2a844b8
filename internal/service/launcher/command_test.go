package launcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coralizer/coralizer-release/internal/platform"
)

const helperMarker = "coralizer-helper"

// TestHelperProcess is not a real test. Run copies the test binary into a bin
// directory and executes it as the platform binary.
//
//nolint:paralleltest // Runs only as a child process.
func TestHelperProcess(*testing.T) {
	args := os.Args
	for len(args) > 0 && args[0] != helperMarker {
		args = args[1:]
	}

	if len(args) < 2 {
		return
	}

	code, err := strconv.Atoi(args[1])
	if err != nil {
		os.Exit(2)
	}

	fmt.Fprintf(os.Stdout, "args=%s\n", strings.Join(args[2:], ","))

	if stdin, err := io.ReadAll(os.Stdin); err == nil && len(stdin) > 0 {
		fmt.Fprintf(os.Stdout, "stdin=%s\n", stdin)
	}

	os.Exit(code)
}

func hostDescriptor(t *testing.T) platform.Descriptor {
	t.Helper()

	d, err := platform.Current()
	if err != nil {
		t.Skipf("host platform is not supported: %v", err)
	}

	return d
}

// installChild places a copy of the test binary where the bin strategy looks.
func installChild(t *testing.T, d platform.Descriptor) string {
	t.Helper()

	exe, err := os.Executable()
	require.NoError(t, err)

	raw, err := os.ReadFile(exe)
	require.NoError(t, err)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bin", d.SuffixedBinaryName("coralizer")), string(raw))

	return dir
}

func helperArgs(code int, args ...string) []string {
	return append([]string{"-test.run=^TestHelperProcess$", "--", helperMarker, strconv.Itoa(code)}, args...)
}

func TestRun_ExitCodePropagation(t *testing.T) {
	t.Parallel()

	d := hostDescriptor(t)
	dir := installChild(t, d)

	for _, code := range []int{0, 1, 3, 42, 255} {
		code := code
		t.Run(strconv.Itoa(code), func(t *testing.T) {
			t.Parallel()

			var stdout bytes.Buffer

			err := Run(context.Background(), &Options{
				Args:     helperArgs(code, "--flag", "value with spaces"),
				Strategy: StrategyBin,
				BaseDir:  dir,
				Platform: &d,
				Stdin:    strings.NewReader("piped"),
				Stdout:   &stdout,
				Stderr:   io.Discard,
			})

			require.Contains(t, stdout.String(), "args=--flag,value with spaces\n")
			require.Contains(t, stdout.String(), "stdin=piped\n")

			if code == 0 {
				require.NoError(t, err)

				return
			}

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			require.Equal(t, code, exitErr.Code)
		})
	}
}

func TestRun_BinaryNotFound(t *testing.T) {
	t.Parallel()

	d, err := platform.Lookup("darwin-arm64")
	require.NoError(t, err)

	var stdout bytes.Buffer

	err = Run(context.Background(), &Options{
		Strategy: StrategyBin,
		BaseDir:  t.TempDir(),
		Platform: &d,
		Stdout:   &stdout,
	})
	require.ErrorIs(t, err, ErrBinaryNotFound)
	require.ErrorContains(t, err, "darwin-arm64")
	require.Empty(t, stdout.String())
}

func TestRun_SpawnFailure(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("execute permission is not enforced on Windows")
	}

	d := hostDescriptor(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "bin", d.SuffixedBinaryName("coralizer"))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("not a program"), 0o644))

	err := Run(context.Background(), &Options{
		Strategy: StrategyBin,
		BaseDir:  dir,
		Platform: &d,
	})
	require.ErrorIs(t, err, ErrSpawn)

	var exitErr *ExitError
	require.False(t, errors.As(err, &exitErr))
}

func TestRun_UnknownStrategy(t *testing.T) {
	t.Parallel()

	d := hostDescriptor(t)

	err := Run(context.Background(), &Options{Strategy: "npx", BaseDir: t.TempDir(), Platform: &d})
	require.ErrorIs(t, err, errUnknownStrategy)
}

func TestExitError(t *testing.T) {
	t.Parallel()

	require.Equal(t, "binary exited with status 7", (&ExitError{Code: 7}).Error())
}
