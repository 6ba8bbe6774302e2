package capture

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

const (
	FrameExt   = ".png"
	FrameWidth = 5
)

// FrameRecord is one captured frame, named and ready to package.
type FrameRecord struct {
	Filename string
	Payload  []byte
}

// FrameName is prefix + zero-padded index + ".png". Names sort in capture
// order up to 10^FrameWidth frames.
func FrameName(prefix string, index int) string {
	return fmt.Sprintf("%s%0*d%s", prefix, FrameWidth, index, FrameExt)
}

// Session is one recording of a fixed number of frames. It is owned by
// whatever drives the render loop and handed to the Sequencer per capture.
type Session struct {
	ID          string
	Prefix      string
	TotalFrames int
	// Restart asks the driver to reset the simulation before the first
	// capture. The sequencer does not act on it.
	Restart bool

	capturing atomic.Bool

	mu      sync.Mutex
	current int
	active  bool
	records []FrameRecord
}

// Begin starts a session. A session of zero frames is complete from the start.
func Begin(totalFrames int, prefix string, restart bool) *Session {
	if totalFrames < 0 {
		totalFrames = 0
	}
	return &Session{
		ID:          uuid.NewString(),
		Prefix:      prefix,
		TotalFrames: totalFrames,
		Restart:     restart,
		active:      totalFrames > 0,
		records:     make([]FrameRecord, 0, totalFrames),
	}
}

// End stops accepting captures. A capture already in flight still completes
// and its record is kept.
func (s *Session) End() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}

func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// CurrentFrame is the index the next successful capture will get.
func (s *Session) CurrentFrame() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Complete reports whether every requested frame was captured.
func (s *Session) Complete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current >= s.TotalFrames
}

// Capturing reports whether a capture is in flight.
func (s *Session) Capturing() bool { return s.capturing.Load() }

// Records returns the held frames in index order.
func (s *Session) Records() []FrameRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FrameRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Take removes the held records and returns them in index order. A driver
// that writes frames as they arrive takes them so the session does not keep
// the payloads. Frame indices are unaffected.
func (s *Session) Take() []FrameRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.records
	s.records = nil
	return out
}

func (s *Session) commit(rec FrameRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	s.current++
	if s.current >= s.TotalFrames {
		s.active = false
	}
}
