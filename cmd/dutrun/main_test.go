package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	clierrors "github.com/dutrun/dutrun/internal/errors"
)

func TestHandleError_ExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{
			name:     "script-level CLI error",
			err:      clierrors.ScriptInvalid("dut.json", nil),
			wantCode: clierrors.ExitScript,
		},
		{
			name:     "test-level CLI error",
			err:      clierrors.TestTimedOut(1),
			wantCode: clierrors.ExitTest,
		},
		{
			name:     "wrapped CLI error",
			err:      fmt.Errorf("outer: %w", clierrors.StartFailed(2)),
			wantCode: clierrors.ExitTest,
		},
		{
			name:     "unknown command",
			err:      fmt.Errorf("unknown command %q for %q", "rnu", "dutrun"),
			wantCode: clierrors.ExitScript,
		},
		{
			name:     "unknown flag",
			err:      fmt.Errorf("unknown flag: --frobnicate"),
			wantCode: clierrors.ExitScript,
		},
		{
			name:     "unknown shorthand flag",
			err:      fmt.Errorf("unknown shorthand flag: 'z' in -z"),
			wantCode: clierrors.ExitScript,
		},
		{
			name:     "generic error",
			err:      fmt.Errorf("something broke"),
			wantCode: clierrors.ExitTest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _ := testWriter()

			if got := handleError(out, tt.err); got != tt.wantCode {
				t.Errorf("handleError() = %d, want %d", got, tt.wantCode)
			}
		})
	}
}

func TestMissingPositionalArgExitsScriptLevel(t *testing.T) {
	// A wrong argument count means no run could start; it must exit 2 like
	// every other usage error, not 1.
	tests := []struct {
		name string
		args []string
	}{
		{name: "check without script", args: []string{"check"}},
		{name: "run without arguments", args: []string{"run"}},
		{name: "run with too many arguments", args: []string{"run", "a", "b", "c"}},
		{name: "sim without script", args: []string{"sim"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _ := testWriter()

			root := newRootCmd()
			root.SetArgs(tt.args)
			root.SetOut(io.Discard)
			root.SetErr(io.Discard)

			err := root.Execute()
			if err == nil {
				t.Fatal("Execute() succeeded, want an argument-count error")
			}

			var cliErr *clierrors.CLIError
			if !clierrors.As(err, &cliErr) {
				t.Fatalf("error type = %T (%v), want CLIError", err, err)
			}
			if cliErr.Code != clierrors.ExitScript {
				t.Errorf("code = %d, want %d", cliErr.Code, clierrors.ExitScript)
			}

			if got := handleError(out, err); got != clierrors.ExitScript {
				t.Errorf("handleError() = %d, want %d", got, clierrors.ExitScript)
			}
		})
	}
}

func TestHandleError_PrintsHint(t *testing.T) {
	out, buf := testWriter()

	handleError(out, clierrors.PortOpenFailed("/dev/ttyUSB0", fmt.Errorf("permission denied")))

	got := buf.String()
	if !strings.Contains(got, "Cannot open serial port: /dev/ttyUSB0") {
		t.Errorf("output missing message:\n%s", got)
	}
	if !strings.Contains(got, "dutrun ports") {
		t.Errorf("output missing hint:\n%s", got)
	}
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	root := newRootCmd()

	want := []string{"run", "check", "ports", "sim", "doctor", "version"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
}

func TestAllRunnableCommandsHaveExample(t *testing.T) {
	root := newRootCmd()

	for _, cmd := range root.Commands() {
		if !cmd.Runnable() {
			continue
		}
		if strings.TrimSpace(cmd.Example) == "" {
			t.Errorf("command %q has no Example", cmd.CommandPath())
		}
	}
}
