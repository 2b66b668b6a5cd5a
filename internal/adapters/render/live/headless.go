package live

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bnema/sage/internal/domain"
	"github.com/bnema/sage/internal/mathtext"
	"github.com/bnema/sage/internal/ports"
	"go.uber.org/zap"
)

// Headless drives a turn with a plain poll loop and writes the sanitized
// response as plain text. It serves piped output, where redrawing panels
// makes no sense.
type Headless struct {
	out      io.Writer
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger
	// onPaint, when set, observes every tick-boundary paint.
	onPaint func(*domain.TurnState)
}

var _ ports.TurnRenderer = (*Headless)(nil)

func NewHeadless(out io.Writer, refreshRate int, logger *zap.Logger) *Headless {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Headless{
		out:      out,
		interval: Options{RefreshRate: refreshRate}.interval(),
		now:      time.Now,
		logger:   logger,
	}
}

func (h *Headless) RenderTurn(ctx context.Context, turn *domain.TurnState, stream ports.ChunkStream) (domain.TurnOutcome, error) {
	if err := turn.Begin(); err != nil {
		return domain.TurnOutcome{Phase: domain.PhaseAborted}, err
	}

	w := &textWriter{out: h.out}
	next := h.now().Add(h.interval)

	for {
		if ctx.Err() != nil {
			return h.abort(turn, w, nil)
		}

		chunk, err := stream.Next(ctx)
		switch {
		case errors.Is(err, io.EOF):
			turn.SetUsage(stream.Usage())
			messages, err := turn.Finalize()
			if err != nil {
				return h.abort(turn, w, err)
			}
			h.paint(turn, w)
			if err := w.finish(); err != nil {
				h.logger.Warn("write response", zap.Error(err))
			}
			return turn.Outcome(messages), nil
		case err != nil:
			if ctx.Err() != nil {
				return h.abort(turn, w, nil)
			}
			h.logger.Error("pull chunk", zap.Error(err))
			return h.abort(turn, w, err)
		}

		if err := turn.ConsumeChunk(chunk); err != nil {
			return h.abort(turn, w, err)
		}

		if now := h.now(); !now.Before(next) {
			h.paint(turn, w)
			next = now.Add(h.interval)
		}
	}
}

func (h *Headless) abort(turn *domain.TurnState, w *textWriter, cause error) (domain.TurnOutcome, error) {
	message := turn.Abort()
	h.paint(turn, w)
	if err := w.finish(); err != nil {
		h.logger.Warn("write response", zap.Error(err))
	}
	return turn.Outcome([]domain.Message{message}), cause
}

func (h *Headless) paint(turn *domain.TurnState, w *textWriter) {
	if !turn.Dirty() {
		return
	}
	if h.onPaint != nil {
		h.onPaint(turn)
	}
	if err := w.write(turn.Response()); err != nil {
		h.logger.Warn("write response", zap.Error(err))
		return
	}
	turn.MarkClean()
}

// textWriter releases response text through the streaming sanitizer, so
// math split across chunks is written once it is complete.
type textWriter struct {
	out     io.Writer
	stream  mathtext.Stream
	fed     int
	endLine bool
}

func (w *textWriter) write(response string) error {
	if len(response) <= w.fed {
		return nil
	}
	released := w.stream.Push(response[w.fed:])
	w.fed = len(response)
	return w.emit(released)
}

func (w *textWriter) finish() error {
	if err := w.emit(w.stream.Flush()); err != nil {
		return err
	}
	if w.fed > 0 && !w.endLine {
		return w.emit("\n")
	}
	return nil
}

func (w *textWriter) emit(text string) error {
	if text == "" {
		return nil
	}
	if _, err := fmt.Fprint(w.out, text); err != nil {
		return err
	}
	w.endLine = strings.HasSuffix(text, "\n")
	return nil
}
