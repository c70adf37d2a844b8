package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/coralizer/coralizer-release/internal/logger"
	"github.com/coralizer/coralizer-release/internal/service/launcher"
)

// logLevelEnv raises launcher diagnostics, which are off unless something fails.
const logLevelEnv = "CORALIZER_LOG_LEVEL"

// rootCmd forwards every argument, flags included, to the platform binary.
//
//nolint:gochecknoglobals // Required by Cobra CLI framework architecture.
var rootCmd = &cobra.Command{
	Use:   "coralizer [args...]",
	Short: "Run the coralizer binary for this platform.",
	Long: `Locates the prebuilt coralizer executable for the host OS and CPU and runs it.

All arguments are passed through unchanged and the exit status of the binary
becomes the exit status of this command.`,
	Args:               cobra.ArbitraryArgs,
	DisableFlagParsing: true,
	SilenceErrors:      true,
	SilenceUsage:       true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return launcher.Run(cmd.Context(), &launcher.Options{Args: args})
	},
}

// Execute runs the launcher and exits with the status of the delegated binary.
func Execute() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stderr))
}

// run delegates args and returns the process exit status.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	level := zapcore.ErrorLevel
	if parsed, ok := logger.ParseLogLevel(os.Getenv(logLevelEnv)); ok {
		level = parsed
	}

	logger.SetLogger(logger.New(zap.NewAtomicLevelAt(level), zapcore.AddSync(stderr)))

	var err error

	// Cobra routes these to its hidden completion command before RunE.
	if len(args) > 0 && strings.HasPrefix(args[0], cobra.ShellCompRequestCmd) {
		err = launcher.Run(ctx, &launcher.Options{Args: args})
	} else {
		rootCmd.SetArgs(args)
		err = rootCmd.ExecuteContext(ctx)
	}

	return exitCode(err, stderr)
}

// exitCode reports err on stderr and maps it to an exit status.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}

	var exitErr *launcher.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	message := capitalize(err.Error())
	if !errors.Is(err, launcher.ErrSpawn) {
		message = "Error: " + message
	}

	_, _ = fmt.Fprintln(stderr, message)

	return 1
}

// capitalize turns a wrapped Go error into a sentence for end users.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}

	return string(unicode.ToUpper(r)) + s[size:]
}
