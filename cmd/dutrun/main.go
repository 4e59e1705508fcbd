// Package main is the entry point for the dutrun CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dutrun/dutrun/internal/buildinfo"
	clierrors "github.com/dutrun/dutrun/internal/errors"
	"github.com/dutrun/dutrun/internal/observability"
	"github.com/dutrun/dutrun/internal/output"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() (exitCode int) {
	buildinfo.Version = version
	buildinfo.Commit = commit

	out := output.Default()

	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		return handleError(out, err)
	}

	return clierrors.ExitSuccess
}

// handleError formats and displays a CLI error, returning the appropriate
// exit code. For CLIError types, it displays the message and hint with
// styled output. For Cobra errors (unknown command, flags), it prints them
// with suggestions; usage errors count as script-level errors here, the
// same exit code the runner has always used.
func handleError(out *output.Writer, err error) int {
	var cliErr *clierrors.CLIError
	if clierrors.As(err, &cliErr) {
		out.Failure("%s", cliErr.Message)

		if cliErr.Hint != "" {
			out.Info("%s", cliErr.Hint)
		}

		return cliErr.Code
	}

	errStr := err.Error()

	if strings.HasPrefix(errStr, "unknown command") {
		out.Failure("%s", errStr)

		if !strings.Contains(errStr, "--help") {
			out.Info("Run 'dutrun --help' for usage")
		}

		return clierrors.ExitScript
	}

	if strings.HasPrefix(errStr, "unknown flag") ||
		strings.HasPrefix(errStr, "unknown shorthand flag") ||
		strings.Contains(errStr, "required flag") {
		out.Failure("%s", errStr)
		out.Info("Run 'dutrun --help' for usage")

		return clierrors.ExitScript
	}

	out.Failure("%s", errStr)

	return clierrors.ExitTest
}

func newRootCmd() *cobra.Command {
	var (
		jsonOutput bool
		quiet      bool
		noColor    bool
		noInput    bool
		verbose    bool
		logLevel   string
		logFormat  string
		logFile    string
		logStderr  string
	)

	out := output.Default()

	rootCmd := &cobra.Command{
		Use:   "dutrun",
		Short: "dutrun - Scripted functional tests over a serial link",
		Long: `dutrun executes a scripted functional test against a device under
test (DUT) over a serial port. A JSON test script defines the prompts
expected from the DUT and the responses sent back; dutrun waits for the
start prompt, answers scripted prompts as they appear, and stops at the
end prompt or when the DUT goes quiet.

Get started:
  dutrun ports                       List serial ports on this machine
  dutrun check test.json             Validate a test script
  dutrun run /dev/ttyUSB0 test.json  Execute the test
  dutrun sim test.json               Simulate the DUT on a pty`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			out.JSON = pickBoolFlagOrEnv(jsonOutput, "DUTRUN_JSON")
			out.Quiet = pickBoolFlagOrEnv(quiet, "DUTRUN_QUIET")
			out.Verbose = pickBoolFlagOrEnv(verbose, "DUTRUN_VERBOSE")
			out.NoInput = pickBoolFlagOrEnv(noInput, "DUTRUN_NO_INPUT") || pickBoolFlagOrEnv(false, "CI")

			if noColor {
				out.SetNoColor(true)

				color.NoColor = true
			}

			logCfg := observability.Config{
				Level:       pickFlagOrEnv(logLevel, "DUTRUN_LOG_LEVEL", "info"),
				Format:      pickFlagOrEnv(logFormat, "DUTRUN_LOG_FORMAT", "json"),
				LogFile:     pickFlagOrEnv(logFile, "DUTRUN_LOG_FILE", ""),
				StderrMode:  pickFlagOrEnv(logStderr, "DUTRUN_LOG_STDERR", "auto"),
				VerboseTTY:  out.Terminal().IsTTY && out.Verbose && echoesSerialTraffic(cmd.CommandPath()),
				SessionID:   uuid.NewString(),
				CommandPath: cmd.CommandPath(),
				Version:     version,
				Commit:      commit,
			}

			logger, cleanup, err := observability.NewLogger(&logCfg)
			if err != nil {
				return &clierrors.CLIError{
					Message: fmt.Sprintf("Invalid logging configuration: %v", err),
					Hint:    "Use --log-level (error|warn|info|debug), --log-format (json|text), --log-stderr (auto|on|off), and/or --log-file",
					Code:    clierrors.ExitScript,
				}
			}

			slog.SetDefault(logger)

			// Store writer in context for subcommands
			ctx := out.WithContext(cmd.Context())
			ctx = observability.WithLogger(ctx, logger)
			cmd.SetContext(ctx)

			if cleanup != nil {
				cmd.PostRunE = wrapPostRunCleanup(cmd.PostRunE, "logger resources", cleanup)
			}

			// Initialize OpenTelemetry tracing (opt-in via OTEL_ENABLED).
			telemetryCfg := &observability.TelemetryConfig{
				Enabled: observability.IsTelemetryEnabled(),
				Version: version,
				Commit:  commit,
			}

			telemetryShutdown, telemetryErr := observability.SetupTelemetry(ctx, telemetryCfg)
			if telemetryErr != nil {
				logger.Warn("telemetry initialization failed", slog.String("error", telemetryErr.Error()))
			}

			if telemetryShutdown != nil {
				cmd.PostRunE = wrapPostRunCleanup(cmd.PostRunE, "telemetry resources", func() error {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()

					return telemetryShutdown(shutdownCtx)
				})
			}

			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Minimal output (for CI)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&noInput, "no-input", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Echo serial traffic to stdout")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: error, warn, info, debug")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: json, text")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Optional structured log file path")
	rootCmd.PersistentFlags().StringVar(&logStderr, "log-stderr", "", "Structured logging to stderr: auto, on, off")

	// Enable typo suggestions for unknown commands
	rootCmd.SuggestionsMinimumDistance = 2

	// Wrap Cobra's raw flag errors in CLIError so they get styled output
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &clierrors.CLIError{
			Message: err.Error(),
			Hint:    fmt.Sprintf("Run '%s --help' for available flags", cmd.CommandPath()),
			Code:    clierrors.ExitScript,
		}
	})

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newPortsCmd())
	rootCmd.AddCommand(newSimCmd())
	rootCmd.AddCommand(newDoctorCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func wrapPostRunCleanup(postRun func(*cobra.Command, []string) error, name string, cleanup func() error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if postRun != nil {
			if err := postRun(cmd, args); err != nil {
				_ = cleanup()
				return err
			}
		}

		if err := cleanup(); err != nil {
			return fmt.Errorf("cleanup %s: %w", name, err)
		}

		return nil
	}
}

func pickBoolFlagOrEnv(flagValue bool, envKey string) bool {
	if flagValue {
		return true
	}

	v := strings.ToLower(strings.TrimSpace(os.Getenv(envKey)))

	return v == "1" || v == "true" || v == "yes"
}

func pickFlagOrEnv(flagValue, envKey, fallback string) string {
	trimmed := strings.TrimSpace(flagValue)
	if trimmed != "" {
		return trimmed
	}

	if envValue := strings.TrimSpace(os.Getenv(envKey)); envValue != "" {
		return envValue
	}

	return fallback
}

// echoesSerialTraffic reports whether the command writes raw serial bytes
// to stdout in verbose mode; structured stderr logging is suppressed for
// those commands in auto mode.
func echoesSerialTraffic(path string) bool {
	return path == "dutrun run" || strings.HasPrefix(path, "dutrun run ")
}

// VersionInfo represents version information for JSON output.
type VersionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// scriptLevelArgs wraps a Cobra positional-arg validator so its failures
// surface as script-level CLIErrors (exit 2), the same treatment flag
// errors get via SetFlagErrorFunc. A wrong argument count means no run
// could start, which has never been a test failure.
func scriptLevelArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &clierrors.CLIError{
				Message: err.Error(),
				Hint:    fmt.Sprintf("Run '%s --help' for usage", cmd.CommandPath()),
				Code:    clierrors.ExitScript,
			}
		}

		return nil
	}
}

// exactArgs is cobra.ExactArgs with script-level error reporting.
func exactArgs(n int) cobra.PositionalArgs {
	return scriptLevelArgs(cobra.ExactArgs(n))
}

// rangeArgs is cobra.RangeArgs with script-level error reporting.
func rangeArgs(minArgs, maxArgs int) cobra.PositionalArgs {
	return scriptLevelArgs(cobra.RangeArgs(minArgs, maxArgs))
}

// noArgs returns a Cobra positional-arg validator that rejects any arguments
// with a clear, user-friendly message (unlike cobra.NoArgs which says "unknown command").
func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return &clierrors.CLIError{
			Message: fmt.Sprintf("'%s' accepts no arguments", cmd.CommandPath()),
			Hint:    fmt.Sprintf("Run '%s --help' for usage", cmd.CommandPath()),
			Code:    clierrors.ExitScript,
		}
	}

	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Show version information",
		Long:    `Display the dutrun binary version, git commit, and build date.`,
		Example: `  dutrun version`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			if out.JSON {
				return out.PrintJSON(VersionInfo{
					Version: version,
					Commit:  commit,
					Date:    date,
				})
			}

			out.Print("dutrun %s\n", version)
			out.Print("  commit: %s\n", commit)
			out.Print("  built:  %s\n", date)

			return nil
		},
	}
}
