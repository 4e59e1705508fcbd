package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Leveler
		wantErr bool
	}{
		{input: "", want: slog.LevelInfo},
		{input: "info", want: slog.LevelInfo},
		{input: "DEBUG", want: slog.LevelDebug},
		{input: " warn ", want: slog.LevelWarn},
		{input: "warning", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseLevel(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseLevel(%q) succeeded, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseLevel(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestShouldEnableStderr(t *testing.T) {
	tests := []struct {
		name       string
		mode       string
		verboseTTY bool
		want       bool
		wantErr    bool
	}{
		{name: "auto without echo", mode: "auto", verboseTTY: false, want: true},
		{name: "auto while echoing serial traffic", mode: "auto", verboseTTY: true, want: false},
		{name: "empty means auto", mode: "", verboseTTY: true, want: false},
		{name: "forced on wins over echo", mode: "on", verboseTTY: true, want: true},
		{name: "forced off", mode: "off", verboseTTY: false, want: false},
		{name: "numeric on", mode: "1", want: true},
		{name: "invalid", mode: "maybe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := shouldEnableStderr(tt.mode, tt.verboseTTY)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("shouldEnableStderr() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("shouldEnableStderr(%q, %v) = %v, want %v", tt.mode, tt.verboseTTY, got, tt.want)
			}
		})
	}
}

func TestNewLogger_FileSink(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "dutrun.log")

	logger, cleanup, err := NewLogger(&Config{
		Level:      "debug",
		Format:     "json",
		LogFile:    logPath,
		StderrMode: "off",
		SessionID:  "session-1",
	})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.Info("run finished", slog.Int("run", 1))

	if err := cleanup(); err != nil {
		t.Fatalf("cleanup() error = %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}

	got := string(data)
	if !strings.Contains(got, `"run finished"`) {
		t.Errorf("log file missing message: %q", got)
	}
	if !strings.Contains(got, `"session.id":"session-1"`) {
		t.Errorf("log file missing session id: %q", got)
	}
}

func TestNewLogger_NoSinks(t *testing.T) {
	_, _, err := NewLogger(&Config{StderrMode: "off"})
	if err == nil {
		t.Fatal("NewLogger() with no sinks succeeded, want error")
	}
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	_, _, err := NewLogger(&Config{Format: "xml", StderrMode: "on"})
	if err == nil {
		t.Fatal("NewLogger() with invalid format succeeded, want error")
	}
}

func TestRedactAttr(t *testing.T) {
	tests := []struct {
		key        string
		wantRedact bool
	}{
		{key: "authorization", wantRedact: true},
		{key: "api_key", wantRedact: true},
		{key: "DUT_ACCESS_TOKEN", wantRedact: true},
		{key: "password", wantRedact: true},
		{key: "port.name", wantRedact: false},
		{key: "run", wantRedact: false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			attr := redactAttr(nil, slog.String(tt.key, "value"))

			got := attr.Value.String()
			if tt.wantRedact && got != redactedValue {
				t.Errorf("attr %q = %q, want redacted", tt.key, got)
			}
			if !tt.wantRedact && got != "value" {
				t.Errorf("attr %q = %q, want untouched", tt.key, got)
			}
		})
	}
}

func TestLoggerContext(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx := WithLogger(context.Background(), logger)
	if got := FromContext(ctx); got != logger {
		t.Error("FromContext() did not return the stored logger")
	}

	if got := FromContext(context.Background()); got != slog.Default() {
		t.Error("FromContext() on a bare context did not fall back to slog.Default")
	}
}
