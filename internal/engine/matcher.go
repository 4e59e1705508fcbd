package engine

import (
	"errors"
	"fmt"
	"log/slog"
)

// sendResponse writes raw response bytes to the link and records the
// dispatch in the transcript. The returned error is ErrWriteTimeout (or a
// wrapper) when the deadline elapsed; the caller decides how fatal that is.
func (e *Engine) sendResponse(text string) error {
	if _, err := e.link.Write([]byte(text)); err != nil {
		return fmt.Errorf("send response: %w", err)
	}

	// Same transcript line the bench operators have always grepped for.
	msg := fmt.Sprintf("\nResponse sent: '%s'", text)
	e.recorder.WriteLine(msg)
	if e.echo != nil {
		fmt.Fprintln(e.echo, msg)
	}

	return nil
}

// checkUserPrompts scans the buffer for every user prompt, in script
// declaration order, and sends the matching responses. On each match the
// first occurrence of the prompt is removed from the buffer so one
// occurrence fires exactly one response. Multiple distinct prompts may
// fire within a single pass.
//
// A write timeout aborts the rest of the pass and is returned to the
// caller; successfully sent responses earlier in the pass stand.
func (e *Engine) checkUserPrompts(buf *Buffer) error {
	for _, up := range e.script.UserPrompts {
		if !buf.Contains(up.Prompt) {
			continue
		}

		if err := e.sendResponse(up.Response); err != nil {
			if errors.Is(err, ErrWriteTimeout) {
				e.logger.Warn("response write timed out",
					slog.String("prompt.name", up.Name))
			} else {
				e.logger.Warn("response write failed",
					slog.String("prompt.name", up.Name),
					slog.String("error", err.Error()))
			}

			return err
		}

		buf.RemoveFirst(up.Prompt)

		e.logger.Debug("user prompt matched",
			slog.String("prompt.name", up.Name),
			slog.Int("buffer.len", buf.Len()))
	}

	return nil
}
