// Package capture turns a live render surface into an ordered sequence of
// named frames.
//
// A Sequencer captures at most one frame at a time per Session. Requests that
// arrive while a capture is in flight are dropped rather than queued, so a
// render loop can call CaptureNext every frame without piling up work.
package capture

import (
	"context"
	"fmt"

	"github.com/san-kum/rdlab/internal/logger"
)

// Surface renders the current simulation state as an encoded image. An empty
// result means the surface is not ready.
type Surface interface {
	EncodeFrame(ctx context.Context) ([]byte, error)
}

type SurfaceFunc func(ctx context.Context) ([]byte, error)

func (f SurfaceFunc) EncodeFrame(ctx context.Context) ([]byte, error) { return f(ctx) }

type Sequencer struct {
	surface Surface
	log     *logger.Logger
}

func NewSequencer(surface Surface, log *logger.Logger) *Sequencer {
	return &Sequencer{surface: surface, log: log}
}

// CaptureNext encodes the surface and appends one record to s.
//
// It returns (nil, nil) without doing anything when s is not active or a
// capture is already in flight. On failure the frame index is not advanced,
// so calling again retries the same frame.
func (q *Sequencer) CaptureNext(ctx context.Context, s *Session) (*FrameRecord, error) {
	if !s.capturing.CompareAndSwap(false, true) {
		q.log.Debug().Str("session", s.ID).Msg("capture in flight, frame dropped")
		return nil, nil
	}
	defer s.capturing.Store(false)

	if !s.Active() {
		return nil, nil
	}
	index := s.CurrentFrame()

	data, err := q.surface.EncodeFrame(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture: encode frame %d: %w", index, err)
	}
	if len(data) == 0 {
		return nil, &EncodeNotReadyError{Frame: index}
	}

	rec := FrameRecord{Filename: FrameName(s.Prefix, index), Payload: data}
	s.commit(rec)
	q.log.Debug().Str("session", s.ID).Str("file", rec.Filename).Int("bytes", len(data)).Msg("frame captured")
	return &rec, nil
}
