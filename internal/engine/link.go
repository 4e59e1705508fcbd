package engine

import "errors"

// ErrWriteTimeout is returned by a Link when a write does not complete
// within the link's configured write deadline. The engine treats it as a
// value: it fails the start phase or the current run, never panics.
var ErrWriteTimeout = errors.New("link write timeout")

// Link is one character-oriented connection to the device under test.
//
// Read is a bounded poll: it returns whatever bytes are available, or
// (0, nil) after a short implementation-defined wait when nothing arrived.
// It must never block indefinitely. Write sends raw response bytes and
// returns ErrWriteTimeout when the write deadline elapses.
//
// A Link is owned by exactly one executing run; nothing else may touch it
// concurrently.
type Link interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// Recorder receives every raw chunk read from the link and every response
// dispatched to it. Writes are best-effort; a Recorder never fails the run.
type Recorder interface {
	Write(p []byte)
	WriteLine(s string)
}

// nopRecorder is used when no transcript log was requested.
type nopRecorder struct{}

func (nopRecorder) Write([]byte)      {}
func (nopRecorder) WriteLine(string)  {}
