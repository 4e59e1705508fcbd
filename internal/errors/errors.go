// Package errors provides structured CLI error types for dutrun.
//
// CLIError wraps errors with user-facing messages, hints, and exit codes
// to provide consistent, actionable error output across all commands.
package errors

import (
	"errors"
	"fmt"
)

// Exit codes for CLI errors.
//
// The runner distinguishes only two failure classes: test-level failures
// (a run started and went wrong) and script-level failures (nothing could
// start: bad script, bad flags, unopenable port).
const (
	ExitSuccess = 0 // All runs ended cleanly
	ExitTest    = 1 // A test-level failure occurred (start failure, write timeout, idle timeout)
	ExitScript  = 2 // A script/configuration/usage error prevented any run from starting
)

// CLIError represents a user-facing CLI error with actionable guidance.
type CLIError struct {
	// Message is the primary error message shown to the user.
	Message string

	// Hint provides actionable guidance on how to fix the error.
	Hint string

	// Cause is the underlying error, if any.
	Cause error

	// Code is the exit code for the CLI.
	Code int
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}

	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// New creates a new CLIError with the given message and exit code.
func New(code int, message string) *CLIError {
	return &CLIError{
		Message: message,
		Code:    code,
	}
}

// Wrap wraps an existing error with a CLIError.
func Wrap(code int, message string, cause error) *CLIError {
	return &CLIError{
		Message: message,
		Cause:   cause,
		Code:    code,
	}
}

// WithHint adds a hint to the error.
func (e *CLIError) WithHint(hint string) *CLIError {
	e.Hint = hint
	return e
}

// As is a convenience function for errors.As with CLIError.
func As(err error, target **CLIError) bool {
	return errors.As(err, target)
}

// --- Common error constructors ---

// ScriptInvalid returns an error for a malformed or incomplete test script.
func ScriptInvalid(path string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Invalid test script: %s", path),
		Hint:    "Run 'dutrun check' on the script to see the full validation report",
		Cause:   cause,
		Code:    ExitScript,
	}
}

// ScriptUnreadable returns an error when the script file cannot be read.
func ScriptUnreadable(path string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Cannot read test script: %s", path),
		Hint:    "Check that the file exists and is readable",
		Cause:   cause,
		Code:    ExitScript,
	}
}

// PortOpenFailed returns an error when the serial device cannot be opened.
func PortOpenFailed(port string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Cannot open serial port: %s", port),
		Hint:    "Run 'dutrun ports' to list available serial ports",
		Cause:   cause,
		Code:    ExitScript,
	}
}

// TranscriptOpenFailed returns an error when the transcript log cannot be created.
func TranscriptOpenFailed(path string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Cannot open transcript log: %s", path),
		Hint:    "Check file permissions for the target directory",
		Cause:   cause,
		Code:    ExitScript,
	}
}

// StartFailed returns an error for a run that never got going: either the
// start prompt was not seen before the deadline or the start response could
// not be sent. The two causes are reported the same way.
func StartFailed(run int) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Timeout attempting to start test (run %d)", run),
		Hint:    "Check the DUT is powered and emitting the start prompt, or raise start.timeout",
		Code:    ExitTest,
	}
}

// RunFailed returns an error for a response write timeout during a run.
func RunFailed(run int) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Response write timeout (run %d)", run),
		Hint:    "The DUT stopped draining the link; check flow control and cabling",
		Code:    ExitTest,
	}
}

// TestTimedOut returns an error for an inactivity timeout with no end prompt.
func TestTimedOut(run int) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Test timed out waiting for end prompt (run %d)", run),
		Hint:    "Raise the top-level timeout if the DUT legitimately goes quiet this long",
		Code:    ExitTest,
	}
}

// TestFailed returns a generic overall-failure error for a run sequence.
func TestFailed() *CLIError {
	return &CLIError{
		Message: "Test sequence failed",
		Code:    ExitTest,
	}
}

// CannotPrompt returns an error when interactive prompts are unavailable.
func CannotPrompt(what string) *CLIError {
	return &CLIError{
		Message: "Cannot prompt in non-interactive mode",
		Hint:    fmt.Sprintf("Pass %s explicitly on the command line", what),
		Code:    ExitScript,
	}
}

// NoPortsFound returns an error when no serial ports exist on the machine.
func NoPortsFound() *CLIError {
	return &CLIError{
		Message: "No serial ports found",
		Hint:    "Connect the DUT and check the device shows up (e.g. /dev/ttyUSB0)",
		Code:    ExitScript,
	}
}
