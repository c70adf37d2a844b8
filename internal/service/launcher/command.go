package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/coralizer/coralizer-release/internal/logger"
	"github.com/coralizer/coralizer-release/internal/platform"
)

var (
	// Strategy is the resolution strategy baked into this build.
	// Override with -ldflags "-X .../launcher.Strategy=package".
	//nolint:gochecknoglobals // Injected at build time.
	Strategy = StrategyBin

	// Product is the name of the delegated executable.
	//nolint:gochecknoglobals // Injected at build time.
	Product = "coralizer"
)

// ErrSpawn is returned when the operating system cannot start or wait for the binary.
var ErrSpawn = errors.New("error executing binary")

// ExitError carries the non-zero exit status of the delegated binary.
type ExitError struct {
	Code int
}

// Error implements error.
func (e *ExitError) Error() string {
	return fmt.Sprintf("binary exited with status %d", e.Code)
}

// Options controls a single launcher invocation.
type Options struct {
	// Args are forwarded verbatim to the binary.
	Args []string
	// Strategy overrides the build-time Strategy when non-empty.
	Strategy string
	// Product overrides the build-time Product when non-empty.
	Product string
	// BaseDir is where resolution starts. Defaults to the launcher's own directory.
	BaseDir string
	// Platform overrides host detection.
	Platform *platform.Descriptor

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run resolves the platform binary and delegates to it. A non-zero child
// status is returned as *ExitError; nothing is printed on success.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "coralizer")

	d, err := hostPlatform(opts)
	if err != nil {
		return err
	}

	resolver, err := newResolver(opts)
	if err != nil {
		return err
	}

	path, err := resolver.Resolve(ctx, d)
	if err != nil {
		return err
	}

	logger.DebugKV(ctx, "Delegating", "binary", path, "args", len(opts.Args))

	return delegate(ctx, path, opts)
}

func hostPlatform(opts *Options) (platform.Descriptor, error) {
	if opts.Platform != nil {
		return *opts.Platform, nil
	}

	d, err := platform.Current()
	if err != nil {
		return platform.Descriptor{}, fmt.Errorf("%w (%s-%s): %w", ErrBinaryNotFound, runtime.GOOS, runtime.GOARCH, err)
	}

	return d, nil
}

//nolint:ireturn // Returns the strategy-specific resolver.
func newResolver(opts *Options) (Resolver, error) {
	strategy := opts.Strategy
	if strategy == "" {
		strategy = Strategy
	}

	product := opts.Product
	if product == "" {
		product = Product
	}

	baseDir := opts.BaseDir
	if baseDir == "" {
		dir, err := executableDir()
		if err != nil {
			return nil, err
		}

		baseDir = dir
	}

	return NewResolver(strategy, product, baseDir)
}

// executableDir returns the real directory of the running launcher, following
// the symlinks package managers place in their bin directories.
func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate launcher: %w", err)
	}

	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	return filepath.Dir(exe), nil
}

// delegate runs path with inherited streams and waits for it without a timeout.
func delegate(ctx context.Context, path string, opts *Options) error {
	//nolint:gosec,noctx // The child must outlive cancellation; its path comes from resolution.
	cmd := exec.Command(path, opts.Args...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr

	if opts.Stdin != nil {
		cmd.Stdin = opts.Stdin
	}

	if opts.Stdout != nil {
		cmd.Stdout = opts.Stdout
	}

	if opts.Stderr != nil {
		cmd.Stderr = opts.Stderr
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %w", ErrSpawn, err)
	}

	stop := forwardSignals(ctx, cmd.Process)
	defer stop()

	err := cmd.Wait()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			// Terminated by a signal.
			code = 1
		}

		return &ExitError{Code: code}
	}

	return fmt.Errorf("%w: %w", ErrSpawn, err)
}

// forwardSignals keeps the launcher alive on interrupts, which the terminal
// already delivers to the child, and relays termination requests to it.
func forwardSignals(ctx context.Context, child *os.Process) func() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})

	go func() {
		defer close(done)

		for sig := range signals {
			if sig == os.Interrupt {
				continue
			}

			if err := child.Signal(sig); err != nil {
				logger.WarnKV(ctx, "Could not forward signal", "signal", sig.String(), "error", err)
			}
		}
	}()

	return func() {
		signal.Stop(signals)
		close(signals)
		<-done
	}
}
