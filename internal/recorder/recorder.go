// Package recorder drives a recording: it advances the simulation between
// captures and hands finished frames to a directory, one by one or as a zip.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/san-kum/rdlab/internal/capture"
	"github.com/san-kum/rdlab/internal/config"
	"github.com/san-kum/rdlab/internal/export"
	"github.com/san-kum/rdlab/internal/logger"
)

// Sim is the simulation being recorded.
type Sim interface {
	capture.Surface
	Step(n int)
	Reset()
	MeanB() float64
}

type Recorder struct {
	sim  Sim
	seq  *capture.Sequencer
	dir  export.Directory
	opts Options
	log  *logger.Logger

	// Now stamps archive names.
	Now func() time.Time

	writes []export.WriteResult
	stats  []float64
	// stepped is set once the simulation has advanced for the pending frame,
	// so retries capture the same state.
	stepped bool
}

// Result is what a finished session produced.
type Result struct {
	Session *capture.Session
	// Archive is set in zip mode when at least one frame was captured.
	Archive *export.Archive
	// Writes has one entry per frame in directory mode.
	Writes []export.WriteResult
	// MeanB samples the mean B concentration at each captured frame.
	MeanB []float64
}

func New(sim Sim, dir export.Directory, opts Options, log *logger.Logger) *Recorder {
	return &Recorder{
		sim:  sim,
		seq:  capture.NewSequencer(sim, log),
		dir:  dir,
		opts: opts,
		log:  log,
		Now:  time.Now,
	}
}

func (r *Recorder) Options() Options { return r.opts }

// Start prepares the simulation for s.
func (r *Recorder) Start(s *capture.Session) {
	r.writes, r.stats = nil, nil
	r.stepped = false
	if s.Restart {
		r.sim.Reset()
	}
	r.sessionLog(s).Info().
		Int("frames", s.TotalFrames).
		Str("prefix", s.Prefix).
		Str("output", r.opts.Output).
		Msg("recording started")
}

func (r *Recorder) sessionLog(s *capture.Session) *logger.Logger {
	return r.log.Extend(r.log.With().Str("session", s.ID))
}

// Frame advances the simulation and captures one frame. It returns
// (nil, nil) when s is no longer active.
func (r *Recorder) Frame(ctx context.Context, s *capture.Session) (*capture.FrameRecord, error) {
	if !s.Active() {
		return nil, nil
	}
	if !r.stepped {
		r.sim.Step(r.opts.StepsPerFrame)
		r.stepped = true
	}

	rec, err := r.seq.CaptureNext(ctx, s)
	if err != nil || rec == nil {
		return nil, err
	}
	r.stepped = false
	r.stats = append(r.stats, r.sim.MeanB())

	if r.opts.Output == config.OutputDir {
		// written frames are not kept in the session
		for _, res := range export.StreamToDirectory(ctx, r.dir, s.Take()...) {
			if !res.OK() {
				r.log.Warn().Err(res.Err).Str("file", res.Filename).Msg("frame not saved")
			}
			r.writes = append(r.writes, res)
		}
	}
	return rec, nil
}

// Finish ends s and flushes its output. In directory mode a returned error is
// a *export.PartialWriteFailure and the result is still valid.
func (r *Recorder) Finish(ctx context.Context, s *capture.Session) (*Result, error) {
	s.End()
	res := &Result{Session: s, Writes: r.writes, MeanB: r.stats}
	r.writes, r.stats = nil, nil

	log := r.sessionLog(s).Info().Int("frames", s.CurrentFrame())

	if r.opts.Output == config.OutputDir {
		log.Msg("recording finished")
		return res, export.Failed(res.Writes)
	}

	records := s.Records()
	if len(records) == 0 {
		log.Msg("recording finished without frames")
		return res, nil
	}
	archive, err := export.PackageAsArchive(records, r.opts.ArchivePrefix, r.Now())
	if err != nil {
		return res, err
	}
	if err := archive.WriteTo(ctx, r.dir); err != nil {
		return res, err
	}
	res.Archive = archive
	log.Str("archive", archive.Name).Int("bytes", len(archive.Data)).Msg("recording finished")
	return res, nil
}

// Run records s to completion.
func (r *Recorder) Run(ctx context.Context, s *capture.Session, progress func(*capture.FrameRecord)) (*Result, error) {
	r.Start(s)

	misses := 0
	for s.Active() {
		if err := ctx.Err(); err != nil {
			s.End()
			return nil, err
		}
		rec, err := r.Frame(ctx, s)
		switch {
		case errors.Is(err, capture.ErrEncodeNotReady):
			misses++
			if misses > r.opts.Retries {
				s.End()
				return nil, err
			}
			r.log.Debug().Err(err).Int("attempt", misses).Msg("retrying frame")
			continue
		case err != nil:
			s.End()
			return nil, err
		}
		misses = 0
		if rec != nil && progress != nil {
			progress(rec)
		}
	}
	return r.Finish(ctx, s)
}

// Snapshot encodes the current frame for a single image export.
func (r *Recorder) Snapshot(ctx context.Context) (string, error) {
	data, err := r.sim.EncodeFrame(ctx)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("recorder: snapshot: %w", capture.ErrEncodeNotReady)
	}
	name := export.ImageName(r.Now())
	res := export.StreamToDirectory(ctx, r.dir, capture.FrameRecord{Filename: name, Payload: data})
	return name, res[0].Err
}
