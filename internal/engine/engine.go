// Package engine implements the serial test protocol: buffer accumulation
// and pruning, prompt matching, response dispatch, and the
// start/run/end-timeout state machine.
//
// One run is WaitStart → Running → a terminal outcome. The engine executes
// the cycle once per configured run and reports the sequence result. All
// I/O goes through the Link interface so tests drive the engine with an
// in-memory peer and an injected clock.
package engine

import (
	"context"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dutrun/dutrun/internal/observability"
	"github.com/dutrun/dutrun/internal/script"
)

// Outcome is the terminal state of one run.
type Outcome int

const (
	// OutcomeEnded means the end prompt was seen; the run passed.
	OutcomeEnded Outcome = iota
	// OutcomeStartFailed means the start prompt never appeared before the
	// start deadline, or the start response could not be sent. The two
	// causes are reported identically; StartCause carries the distinction
	// for diagnostics only.
	OutcomeStartFailed
	// OutcomeRunFailed means a response write timed out during the running
	// phase. Fails this run; later runs are still attempted.
	OutcomeRunFailed
	// OutcomeTimedOut means no data arrived for the idle timeout with no
	// end prompt. Fatal to the whole remaining sequence.
	OutcomeTimedOut
)

// String returns a short label for logs and span attributes.
func (o Outcome) String() string {
	switch o {
	case OutcomeEnded:
		return "ended"
	case OutcomeStartFailed:
		return "start_failed"
	case OutcomeRunFailed:
		return "run_failed"
	case OutcomeTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// StartCause tags why a start failed. Both causes surface as the same
// start failure; the tag exists for logging and tests.
type StartCause int

const (
	StartCauseNone StartCause = iota
	// StartCauseNoPrompt: the start prompt was never seen in time.
	StartCauseNoPrompt
	// StartCauseSendFailed: the prompt was seen but the response write failed.
	StartCauseSendFailed
)

// RunResult is the terminal record of a single run.
type RunResult struct {
	Run        int
	Outcome    Outcome
	StartCause StartCause
}

// SequenceResult aggregates a whole run sequence.
type SequenceResult struct {
	Runs []RunResult
}

// Passed reports whether every configured run reached a clean end. A
// sequence cut short (timeout, start failure) has fewer results than runs
// requested and never passes.
func (r *SequenceResult) Passed(wantRuns int) bool {
	if len(r.Runs) != wantRuns {
		return false
	}

	for _, run := range r.Runs {
		if run.Outcome != OutcomeEnded {
			return false
		}
	}

	return true
}

// readChunk bounds a single poll's read.
const readChunk = 4096

// Options configures an Engine.
type Options struct {
	// Recorder receives raw traffic and dispatched responses. Nil means
	// no transcript.
	Recorder Recorder

	// Echo, when non-nil, receives raw chunks and response notices
	// (verbose mode).
	Echo io.Writer

	// Logger for structured events. Nil falls back to slog.Default.
	Logger *slog.Logger

	// PollIdle is how long the loop rests after a poll that returned no
	// data. The protocol timeouts are measured against Now, not this.
	PollIdle time.Duration

	// Now and Sleep are injectable for tests.
	Now   func() time.Time
	Sleep func(time.Duration)
}

// Engine drives the scripted exchange over one Link.
type Engine struct {
	link     Link
	script   *script.Script
	recorder Recorder
	echo     io.Writer
	logger   *slog.Logger

	pollIdle time.Duration
	now      func() time.Time
	sleep    func(time.Duration)

	scratch []byte
}

// New creates an engine for the given link and script.
func New(link Link, s *script.Script, opts Options) *Engine {
	e := &Engine{
		link:     link,
		script:   s,
		recorder: opts.Recorder,
		echo:     opts.Echo,
		logger:   opts.Logger,
		pollIdle: opts.PollIdle,
		now:      opts.Now,
		sleep:    opts.Sleep,
		scratch:  make([]byte, readChunk),
	}

	if e.recorder == nil {
		e.recorder = nopRecorder{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.pollIdle <= 0 {
		e.pollIdle = 50 * time.Millisecond
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.sleep == nil {
		e.sleep = time.Sleep
	}

	return e
}

// RunSequence executes the WaitStart→Running cycle runs times.
//
// A timed-out or failed-to-start run aborts the remaining sequence: both
// mean the DUT is gone. A run that failed on a response write timeout does
// not, and the loop moves on to the next run.
func (e *Engine) RunSequence(ctx context.Context, runs int) *SequenceResult {
	ctx, span := observability.Tracer("dutrun.engine").Start(ctx, "test.sequence",
		trace.WithAttributes(attribute.Int("test.runs_requested", runs)),
	)
	defer span.End()

	result := &SequenceResult{}

	for run := 1; run <= runs; run++ {
		res := e.runOnce(ctx, run)
		result.Runs = append(result.Runs, res)

		e.logger.Info("run finished",
			slog.Int("run", run),
			slog.String("outcome", res.Outcome.String()))

		if res.Outcome == OutcomeTimedOut || res.Outcome == OutcomeStartFailed {
			break
		}
	}

	if result.Passed(runs) {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, "test sequence failed")
	}

	return result
}

// runOnce executes one complete run against a fresh buffer. Trailing bytes
// from the previous run die here, when the next run begins, not when the
// previous one ended.
func (e *Engine) runOnce(ctx context.Context, run int) RunResult {
	_, span := observability.Tracer("dutrun.engine").Start(ctx, "test.run",
		trace.WithAttributes(attribute.Int("run.index", run)),
	)
	defer span.End()

	buf := &Buffer{}
	res := RunResult{Run: run}

	ok, cause := e.waitStart(buf)
	if !ok {
		res.Outcome = OutcomeStartFailed
		res.StartCause = cause
		span.SetAttributes(attribute.String("run.outcome", res.Outcome.String()))
		span.SetStatus(codes.Error, res.Outcome.String())

		return res
	}

	res.Outcome = e.runUntilEnd(buf)
	span.SetAttributes(attribute.String("run.outcome", res.Outcome.String()))

	if res.Outcome == OutcomeEnded {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, res.Outcome.String())
	}

	return res
}

// poll reads whatever the link has, appends it to the buffer, and records
// it. Returns true when data arrived. Read errors are logged and treated
// as no data; a dead link then surfaces through the protocol timeouts.
func (e *Engine) poll(buf *Buffer) bool {
	n, err := e.link.Read(e.scratch)
	if err != nil {
		e.logger.Warn("link read failed", slog.String("error", err.Error()))
		return false
	}

	if n == 0 {
		return false
	}

	chunk := e.scratch[:n]
	buf.Append(chunk)
	e.recorder.Write(chunk)

	if e.echo != nil {
		_, _ = e.echo.Write(chunk)
	}

	return true
}

// waitStart polls for the start prompt and sends the start response.
//
// The start deadline is hard: it runs from run start and is not extended
// by data arrival. Pruning happens each iteration, after the prompt check.
func (e *Engine) waitStart(buf *Buffer) (bool, StartCause) {
	deadline := e.now().Add(time.Duration(e.script.StartTimeout) * time.Second)

	for e.now().Before(deadline) {
		got := e.poll(buf)

		if buf.Contains(e.script.StartPrompt) {
			buf.RemoveFirst(e.script.StartPrompt)

			if err := e.sendResponse(e.script.StartResponse); err != nil {
				return false, StartCauseSendFailed
			}

			return true, StartCauseNone
		}

		buf.Prune()

		if !got {
			e.sleep(e.pollIdle)
		}
	}

	return false, StartCauseNoPrompt
}

// runUntilEnd is the running phase: poll, match, prune, until the end
// prompt shows up or the DUT goes quiet for the idle timeout.
//
// The idle clock resets only on data arrival. The end prompt is not
// removed from the buffer; the run simply stops.
func (e *Engine) runUntilEnd(buf *Buffer) Outcome {
	idle := time.Duration(e.script.IdleTimeout) * time.Second
	lastData := e.now()

	for e.now().Sub(lastData) < idle {
		got := e.poll(buf)
		if got {
			lastData = e.now()
		}

		if buf.Contains(e.script.EndPrompt) {
			return OutcomeEnded
		}

		if err := e.checkUserPrompts(buf); err != nil {
			return OutcomeRunFailed
		}

		buf.Prune()

		if !got {
			e.sleep(e.pollIdle)
		}
	}

	return OutcomeTimedOut
}
