package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coralizer/coralizer-release/internal/platform"
	"github.com/coralizer/coralizer-release/internal/service/launcher"
)

const (
	// launcherHelperEnv turns TestLauncherProcess into the launcher entry point.
	launcherHelperEnv = "CORALIZER_LAUNCHER_HELPER"
	// childExitEnv is the status the fake platform binary exits with.
	childExitEnv = "CORALIZER_CHILD_EXIT"

	// fakeChild prints its arguments one per line and exits with childExitEnv.
	fakeChild = "#!/bin/sh\nprintf '%s\\n' \"$@\"\nexit \"${" + childExitEnv + ":-0}\"\n"
)

// TestLauncherProcess runs Execute with the arguments after "--".
//
//nolint:paralleltest // Runs only as a child process.
func TestLauncherProcess(t *testing.T) {
	if os.Getenv(launcherHelperEnv) == "" {
		t.Skip("helper process")
	}

	for i, arg := range os.Args {
		if arg == "--" {
			os.Args = append([]string{os.Args[0]}, os.Args[i+1:]...)
			break
		}
	}

	Execute()
}

type launcherResult struct {
	code   int
	stdout string
	stderr string
}

// installLauncher copies the test binary into a fresh directory so that the
// launcher looks for the platform binary in that directory's bin folder.
func installLauncher(t *testing.T) (string, platform.Descriptor) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("the fake platform binary is a shell script")
	}

	d, err := platform.Current()
	if err != nil {
		t.Skipf("host platform is not supported: %v", err)
	}

	exe, err := os.Executable()
	require.NoError(t, err)

	raw, err := os.ReadFile(exe)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "coralizer"), raw, 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "bin"), 0o755))

	return dir, d
}

func installChild(t *testing.T, dir string, d platform.Descriptor, mode os.FileMode) {
	t.Helper()

	path := filepath.Join(dir, "bin", d.SuffixedBinaryName("coralizer"))
	require.NoError(t, os.WriteFile(path, []byte(fakeChild), mode))
}

func runLauncher(t *testing.T, dir string, childExit int, args ...string) launcherResult {
	t.Helper()

	var stdout, stderr bytes.Buffer

	//nolint:gosec // Runs the copied test binary.
	cmd := exec.Command(filepath.Join(dir, "coralizer"), append([]string{"-test.run=^TestLauncherProcess$", "--"}, args...)...)
	cmd.Env = append(os.Environ(), launcherHelperEnv+"=1", childExitEnv+"="+strconv.Itoa(childExit))
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	var exitErr *exec.ExitError
	if err != nil {
		require.ErrorAs(t, err, &exitErr)
	}

	return launcherResult{
		code:   cmd.ProcessState.ExitCode(),
		stdout: stdout.String(),
		stderr: stderr.String(),
	}
}

func TestExecute_ExitStatus(t *testing.T) {
	t.Parallel()

	dir, d := installLauncher(t)
	installChild(t, dir, d, 0o755)

	for _, code := range []int{0, 1, 7, 128, 255} {
		code := code
		t.Run(strconv.Itoa(code), func(t *testing.T) {
			t.Parallel()

			got := runLauncher(t, dir, code, "build", "--out", "a b")
			require.Equal(t, code, got.code)
			require.Equal(t, "build\n--out\na b\n", got.stdout)
			require.Empty(t, got.stderr)
		})
	}
}

func TestExecute_ForwardsEveryArgument(t *testing.T) {
	t.Parallel()

	dir, d := installLauncher(t)
	installChild(t, dir, d, 0o755)

	for _, args := range [][]string{
		{"__complete", "x"},
		{"__completeNoDesc", ""},
		{"--help"},
		{"-h"},
		{"help"},
		{"completion", "bash"},
		{"version"},
	} {
		args := args
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			t.Parallel()

			got := runLauncher(t, dir, 7, args...)
			require.Equal(t, 7, got.code)
			require.Equal(t, strings.Join(args, "\n")+"\n", got.stdout)
		})
	}
}

func TestExecute_BinaryNotFound(t *testing.T) {
	t.Parallel()

	dir, d := installLauncher(t)

	got := runLauncher(t, dir, 0, "build")
	require.Equal(t, 1, got.code)
	require.Empty(t, got.stdout)
	require.True(t, strings.HasPrefix(got.stderr, "Error: Could not find the binary for your platform ("+d.Name+")"), got.stderr)
	require.Contains(t, got.stderr, d.SuffixedBinaryName("coralizer"))
}

func TestExecute_SpawnFailure(t *testing.T) {
	t.Parallel()

	dir, d := installLauncher(t)
	installChild(t, dir, d, 0o644)

	got := runLauncher(t, dir, 0, "build")
	require.Equal(t, 1, got.code)
	require.Empty(t, got.stdout)
	require.True(t, strings.HasPrefix(got.stderr, "Error executing binary: "), got.stderr)
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		code   int
		stderr string
	}{
		{name: "success", err: nil, code: 0, stderr: ""},
		{name: "child status", err: &launcher.ExitError{Code: 255}, code: 255, stderr: ""},
		{
			name:   "resolution",
			err:    fmt.Errorf("%w (linux-x64): expected it at /opt/bin/coralizer-linux-x64", launcher.ErrBinaryNotFound),
			code:   1,
			stderr: "Error: Could not find the binary for your platform (linux-x64): expected it at /opt/bin/coralizer-linux-x64\n",
		},
		{
			name:   "spawn",
			err:    fmt.Errorf("%w: %w", launcher.ErrSpawn, errors.New("permission denied")),
			code:   1,
			stderr: "Error executing binary: permission denied\n",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var stderr bytes.Buffer

			require.Equal(t, tt.code, exitCode(tt.err, &stderr))
			require.Equal(t, tt.stderr, stderr.String())
		})
	}
}
