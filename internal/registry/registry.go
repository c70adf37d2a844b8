package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/coralizer/coralizer-release/internal/config"
)

//go:generate mockgen -source=registry.go -destination=mocks/mock_registry.go -package=mocks

// ErrPublishFailed is returned when the publish action exits unsuccessfully.
var ErrPublishFailed = errors.New("publish failed")

// Publisher pushes one staged package directory to a registry.
type Publisher interface {
	Publish(ctx context.Context, dir string) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, dir string) error

// Publish calls f(ctx, dir).
func (f PublisherFunc) Publish(ctx context.Context, dir string) error {
	return f(ctx, dir)
}

// Command runs a publish command such as `npm publish --access public`
// inside the package directory, inheriting the standard streams.
type Command struct {
	// args is the full command line without the package directory.
	args []string
	// env replaces the child environment when non-nil.
	env []string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// Option configures a Command.
type Option func(*Command)

// WithDryRun appends --dry-run so nothing reaches the registry.
func WithDryRun(dryRun bool) Option {
	return func(c *Command) {
		if dryRun {
			c.args = append(c.args, "--dry-run")
		}
	}
}

// WithEnv sets the environment of the publish command.
func WithEnv(env []string) Option {
	return func(c *Command) {
		c.env = env
	}
}

// WithOutput redirects the command's stdout and stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(c *Command) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// NewCommand builds the publish command from registry settings.
func NewCommand(settings config.Registry, opts ...Option) *Command {
	args := append([]string(nil), settings.Command...)
	if settings.Access != "" {
		args = append(args, "--access", settings.Access)
	}

	c := &Command{
		args:   args,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Args returns the command line that Publish runs.
func (c *Command) Args() []string {
	return append([]string(nil), c.args...)
}

// Publish runs the command with its working directory set to dir.
func (c *Command) Publish(ctx context.Context, dir string) error {
	//nolint:gosec // The command comes from trusted release configuration.
	cmd := exec.CommandContext(ctx, c.args[0], c.args[1:]...)
	cmd.Dir = dir
	cmd.Env = c.env
	cmd.Stdin = c.stdin
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}
