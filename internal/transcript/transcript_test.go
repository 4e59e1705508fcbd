package transcript

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpen_WritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.log")

	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer l.Close()

	if got := l.Name(); got != path {
		t.Errorf("Name() = %q, want %q", got, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}

	lines := strings.Split(string(data), "\n")
	if len(lines) < 1 || lines[0] == "" {
		t.Fatalf("transcript has no header line: %q", data)
	}

	fields := strings.Fields(lines[0])
	if len(fields) != 3 {
		t.Fatalf("header = %q, want \"<prog> <date> <time>\"", lines[0])
	}
	if fields[0] != filepath.Base(os.Args[0]) {
		t.Errorf("header program = %q, want %q", fields[0], filepath.Base(os.Args[0]))
	}
	if len(fields[1]) != len("2006-01-02") || len(fields[2]) != len("15:04:05") {
		t.Errorf("header timestamp = %q %q, want date and time fields", fields[1], fields[2])
	}
}

func TestWriteAndWriteLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.log")

	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	l.Write([]byte("raw chunk"))
	l.WriteLine("Response sent: 'GO'")

	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}

	got := string(data)
	if !strings.Contains(got, "raw chunk") {
		t.Errorf("transcript missing raw chunk: %q", got)
	}
	if !strings.Contains(got, "Response sent: 'GO'\n") {
		t.Errorf("transcript missing response line: %q", got)
	}
}

func TestDisabledSinkIsNoOp(t *testing.T) {
	// Both the nil pointer and the zero value must be safe.
	var nilLog *Log
	nilLog.Write([]byte("x"))
	nilLog.WriteLine("x")
	if err := nilLog.Close(); err != nil {
		t.Errorf("nil Close() error = %v", err)
	}
	if got := nilLog.Name(); got != "" {
		t.Errorf("nil Name() = %q, want empty", got)
	}

	var zero Log
	zero.Write([]byte("x"))
	zero.WriteLine("x")
	if err := zero.Close(); err != nil {
		t.Errorf("zero Close() error = %v", err)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "session.log"))
	if err == nil {
		t.Fatal("Open() into a missing directory succeeded, want error")
	}
}

func TestClose_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.log")

	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := l.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	// Writes after Close are swallowed.
	l.Write([]byte("late"))

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "late") {
		t.Error("write after Close landed in the transcript")
	}
}
