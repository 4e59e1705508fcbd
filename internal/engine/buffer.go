package engine

import "strings"

// lineSeparator is the DUT's line break. Pruning drops whole lines ending
// in this sequence.
const lineSeparator = "\r\n"

// Buffer accumulates bytes read from the link during one run. It is owned
// by the executing run: created empty at run start, grown by every
// successful read, shrunk only by prompt removal and pruning, and
// discarded when the run terminates.
type Buffer struct {
	data string
}

// Append concatenates newly read bytes onto the buffer.
func (b *Buffer) Append(p []byte) {
	b.data += string(p)
}

// Len returns the current buffer length in bytes.
func (b *Buffer) Len() int {
	return len(b.data)
}

// String returns the current buffer contents.
func (b *Buffer) String() string {
	return b.data
}

// Contains reports whether the buffer contains the given substring.
func (b *Buffer) Contains(s string) bool {
	return strings.Contains(b.data, s)
}

// RemoveFirst removes the first occurrence of s from the buffer, reporting
// whether anything was removed. Only the first occurrence goes: this keeps
// one prompt occurrence from firing its response twice, while letting the
// same prompt text fire again when it reappears later in the stream.
func (b *Buffer) RemoveFirst(s string) bool {
	if s == "" {
		return false
	}

	i := strings.Index(b.data, s)
	if i < 0 {
		return false
	}

	b.data = b.data[:i] + b.data[i+len(s):]
	return true
}

// Prune drops the first complete line (up to and including the first line
// separator) to bound buffer growth over long runs. No separator, no-op.
//
// Callers must prune only after the iteration's prompt checks have scanned
// the full buffer. This is a growth bound, not a correctness guarantee: a
// prompt that straddles a line break and goes unmatched in the iteration
// it completes in can lose its leading bytes to the next prune.
func (b *Buffer) Prune() {
	if _, rest, ok := strings.Cut(b.data, lineSeparator); ok {
		b.data = rest
	}
}
