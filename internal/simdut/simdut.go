// Package simdut is a scripted device-under-test simulator.
//
// It plays the DUT side of a test script over a pseudo-terminal: emits the
// start prompt, waits for the start response, walks the user prompts, and
// finishes with the end prompt. Point `dutrun run` at the printed tty path
// to exercise the runner without hardware.
package simdut

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/creack/pty"

	"github.com/dutrun/dutrun/internal/script"
)

// Options configures a Simulator.
type Options struct {
	// Delay inserted before each emitted line, to mimic a device that
	// takes time between prompts.
	Delay time.Duration

	// WaitTimeout bounds how long the simulator waits for each expected
	// response from the runner.
	WaitTimeout time.Duration

	// Logger for structured events. Nil falls back to slog.Default.
	Logger *slog.Logger
}

// Simulator plays the DUT side of a script over an io.ReadWriter.
type Simulator struct {
	script *script.Script
	conn   io.ReadWriter
	delay  time.Duration
	wait   time.Duration
	logger *slog.Logger

	pending string
}

// New creates a simulator over an existing connection. Used directly in
// tests; production callers go through OpenPTY.
func New(s *script.Script, conn io.ReadWriter, opts Options) *Simulator {
	sim := &Simulator{
		script: s,
		conn:   conn,
		delay:  opts.Delay,
		wait:   opts.WaitTimeout,
		logger: opts.Logger,
	}

	if sim.wait <= 0 {
		sim.wait = 30 * time.Second
	}
	if sim.logger == nil {
		sim.logger = slog.Default()
	}

	return sim
}

// PTY is a simulator bound to a pseudo-terminal pair.
type PTY struct {
	*Simulator
	master *os.File
	tty    *os.File
}

// OpenPTY allocates a pty pair and binds a simulator to the master side.
// The runner connects to TTYName.
func OpenPTY(s *script.Script, opts Options) (*PTY, error) {
	master, tty, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("open pty: %w", err)
	}

	return &PTY{
		Simulator: New(s, master, opts),
		master:    master,
		tty:       tty,
	}, nil
}

// TTYName returns the slave device path the runner should open.
func (p *PTY) TTYName() string {
	return p.tty.Name()
}

// Close releases the pty pair.
func (p *PTY) Close() error {
	err := p.master.Close()
	if cerr := p.tty.Close(); err == nil {
		err = cerr
	}

	return err
}

// Run plays the script the given number of times.
func (s *Simulator) Run(ctx context.Context, runs int) error {
	for run := 1; run <= runs; run++ {
		if err := s.runOnce(ctx, run); err != nil {
			return fmt.Errorf("run %d: %w", run, err)
		}
	}

	return nil
}

func (s *Simulator) runOnce(ctx context.Context, run int) error {
	s.logger.Info("simulated run starting", slog.Int("run", run))

	if err := s.emitLine(ctx, s.script.StartPrompt); err != nil {
		return err
	}

	if err := s.awaitResponse(ctx, s.script.StartResponse); err != nil {
		return fmt.Errorf("waiting for start response: %w", err)
	}

	for _, up := range s.script.UserPrompts {
		if err := s.emitLine(ctx, up.Prompt); err != nil {
			return err
		}

		if err := s.awaitResponse(ctx, up.Response); err != nil {
			return fmt.Errorf("waiting for response to %q: %w", up.Name, err)
		}
	}

	return s.emitLine(ctx, s.script.EndPrompt)
}

// emitLine writes text followed by the DUT line break, after the
// configured inter-line delay.
func (s *Simulator) emitLine(ctx context.Context, text string) error {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if _, err := io.WriteString(s.conn, text+"\r\n"); err != nil {
		return fmt.Errorf("emit %q: %w", text, err)
	}

	return nil
}

// awaitResponse reads from the runner until the expected bytes have been
// seen, consuming them from the pending input. An empty expectation is
// satisfied immediately.
func (s *Simulator) awaitResponse(ctx context.Context, want string) error {
	if want == "" {
		return nil
	}

	deadline := time.Now().Add(s.wait)

	if f, ok := s.conn.(*os.File); ok {
		// Bound each read so ctx cancellation is noticed.
		defer func() { _ = f.SetReadDeadline(time.Time{}) }()
	}

	buf := make([]byte, 4096)

	for {
		if i := strings.Index(s.pending, want); i >= 0 {
			s.pending = s.pending[i+len(want):]
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("no %q within %s", want, s.wait)
		}

		if f, ok := s.conn.(*os.File); ok {
			_ = f.SetReadDeadline(time.Now().Add(250 * time.Millisecond))
		}

		n, err := s.conn.Read(buf)
		if n > 0 {
			s.pending += string(buf[:n])
		}

		if err != nil && !errors.Is(err, os.ErrDeadlineExceeded) {
			return fmt.Errorf("read: %w", err)
		}
	}
}
