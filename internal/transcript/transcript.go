// Package transcript records raw serial traffic to an append-only text log.
//
// The transcript is the operator-facing record of a test: every chunk read
// from the link and every response dispatched lands here verbatim. It is
// distinct from structured logging; transcripts are meant to be diffed and
// grepped by the people who wrote the test script.
package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Log is an append-only transcript sink. The zero value is a valid,
// disabled sink: operations on an unopened Log are no-ops.
type Log struct {
	name string
	file *os.File
}

// Open creates (or truncates) the transcript file and writes a header line
// with the program name and a timestamp.
func Open(path string) (*Log, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}

	l := &Log{name: path, file: file}
	l.WriteLine(fmt.Sprintf("%s %s", filepath.Base(os.Args[0]), time.Now().Format("2006-01-02 15:04:05")))

	return l, nil
}

// Name returns the transcript file path, or "" for a disabled sink.
func (l *Log) Name() string {
	if l == nil {
		return ""
	}

	return l.name
}

// Write appends raw bytes. Write errors are swallowed: a full disk must
// not change test behavior mid-run.
func (l *Log) Write(p []byte) {
	if l == nil || l.file == nil {
		return
	}

	_, _ = l.file.Write(p)
}

// WriteLine appends text followed by a newline.
func (l *Log) WriteLine(s string) {
	if l == nil || l.file == nil {
		return
	}

	_, _ = l.file.WriteString(s)
	_, _ = l.file.WriteString("\n")
}

// Close closes the underlying file. Safe on a disabled sink.
func (l *Log) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	err := l.file.Close()
	l.file = nil

	return err
}
