package recorder

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/san-kum/rdlab/internal/capture"
	"github.com/san-kum/rdlab/internal/config"
	"github.com/san-kum/rdlab/internal/export"
	"github.com/san-kum/rdlab/internal/logger"
)

type fakeSim struct {
	steps    int
	resets   int
	notReady int
	fail     error
}

func (f *fakeSim) Step(n int)     { f.steps += n }
func (f *fakeSim) MeanB() float64 { return float64(f.steps) }

func (f *fakeSim) Reset() {
	f.resets++
	f.steps = 0
}

func (f *fakeSim) EncodeFrame(context.Context) ([]byte, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	if f.notReady > 0 {
		f.notReady--
		return nil, nil
	}
	return []byte{byte(f.steps)}, nil
}

type memDir struct {
	mu    sync.Mutex
	files map[string][]byte
	fail  map[string]bool
}

func newMemDir() *memDir { return &memDir{files: map[string][]byte{}, fail: map[string]bool{}} }

type memFile struct {
	bytes.Buffer
	dir  *memDir
	name string
}

func (f *memFile) Close() error {
	f.dir.mu.Lock()
	defer f.dir.mu.Unlock()
	f.dir.files[f.name] = f.Bytes()
	return nil
}

func (d *memDir) Create(_ context.Context, name string) (io.WriteCloser, error) {
	if d.fail[name] {
		return nil, errors.New("disk full")
	}
	return &memFile{dir: d, name: name}, nil
}

var _ export.Directory = (*memDir)(nil)

func newRecorder(sim Sim, dir export.Directory, output string) *Recorder {
	opts := DefaultOptions()
	opts.StepsPerFrame = 2
	opts.Output = output
	opts.ArchivePrefix = "rd"
	r := New(sim, dir, opts, logger.Nop())
	r.Now = func() time.Time { return time.UnixMilli(1700000000000) }
	return r
}

func TestRunZip(t *testing.T) {
	sim := &fakeSim{}
	dir := newMemDir()
	r := newRecorder(sim, dir, config.OutputZip)

	s := capture.Begin(3, "frame_", true)
	var seen []string
	res, err := r.Run(context.Background(), s, func(rec *capture.FrameRecord) { seen = append(seen, rec.Filename) })
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if sim.resets != 1 {
		t.Errorf("expected one reset, got %d", sim.resets)
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 progress calls, got %d", len(seen))
	}
	if res.Archive == nil || res.Archive.Name != "rd-1700000000000.zip" {
		t.Fatalf("unexpected archive: %+v", res.Archive)
	}
	if _, ok := dir.files[res.Archive.Name]; !ok {
		t.Error("archive not written to directory")
	}

	zr, err := zip.NewReader(bytes.NewReader(res.Archive.Data), int64(len(res.Archive.Data)))
	if err != nil {
		t.Fatalf("bad zip: %v", err)
	}
	want := []string{"frame_00000.png", "frame_00001.png", "frame_00002.png"}
	for i, f := range zr.File {
		if f.Name != want[i] {
			t.Errorf("entry %d: expected %s, got %s", i, want[i], f.Name)
		}
	}
	if len(res.MeanB) != 3 || res.MeanB[2] != 6 {
		t.Errorf("unexpected stats: %v", res.MeanB)
	}
}

func TestRunDir(t *testing.T) {
	dir := newMemDir()
	dir.fail["f_00001.png"] = true
	r := newRecorder(&fakeSim{}, dir, config.OutputDir)

	s := capture.Begin(3, "f_", false)
	res, err := r.Run(context.Background(), s, nil)

	var partial *export.PartialWriteFailure
	if !errors.As(err, &partial) {
		t.Fatalf("expected partial write failure, got %v", err)
	}
	if len(partial.Failed) != 1 || partial.Failed[0].Filename != "f_00001.png" {
		t.Errorf("unexpected failures: %+v", partial.Failed)
	}
	if len(res.Writes) != 3 {
		t.Errorf("expected 3 write results, got %d", len(res.Writes))
	}
	if len(dir.files) != 2 {
		t.Errorf("expected 2 files on disk, got %d", len(dir.files))
	}
	if res.Archive != nil {
		t.Error("directory mode should not build an archive")
	}
	if held := len(s.Records()); held != 0 {
		t.Errorf("written frames should leave the session, %d still held", held)
	}
	if s.CurrentFrame() != 3 {
		t.Errorf("expected 3 frames captured, got %d", s.CurrentFrame())
	}
}

func TestRunNoRestart(t *testing.T) {
	sim := &fakeSim{}
	r := newRecorder(sim, newMemDir(), config.OutputZip)
	if _, err := r.Run(context.Background(), capture.Begin(1, "x", false), nil); err != nil {
		t.Fatal(err)
	}
	if sim.resets != 0 {
		t.Errorf("expected no reset, got %d", sim.resets)
	}
}

func TestRunRetriesNotReady(t *testing.T) {
	sim := &fakeSim{notReady: 2}
	r := newRecorder(sim, newMemDir(), config.OutputZip)

	s := capture.Begin(2, "x", false)
	res, err := r.Run(context.Background(), s, nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !s.Complete() || len(s.Records()) != 2 {
		t.Errorf("expected 2 frames, got %d", len(s.Records()))
	}
	if res.Archive == nil {
		t.Error("expected archive")
	}

	// retries capture the state the failed attempt saw
	recs := s.Records()
	if recs[0].Payload[0] != 2 || recs[1].Payload[0] != 4 {
		t.Errorf("expected payloads 2 and 4, got %d and %d", recs[0].Payload[0], recs[1].Payload[0])
	}
	if sim.steps != 4 {
		t.Errorf("expected 4 steps, got %d", sim.steps)
	}
}

func TestRunGivesUpWhenNeverReady(t *testing.T) {
	r := newRecorder(&fakeSim{notReady: 100}, newMemDir(), config.OutputZip)

	s := capture.Begin(2, "x", false)
	_, err := r.Run(context.Background(), s, nil)
	if !errors.Is(err, capture.ErrEncodeNotReady) {
		t.Fatalf("expected not-ready error, got %v", err)
	}
	if s.Active() {
		t.Error("session should be ended")
	}
	if s.CurrentFrame() != 0 {
		t.Errorf("expected no frames, got %d", s.CurrentFrame())
	}
}

func TestRunEncodeError(t *testing.T) {
	r := newRecorder(&fakeSim{fail: errors.New("gpu lost")}, newMemDir(), config.OutputZip)
	_, err := r.Run(context.Background(), capture.Begin(2, "x", false), nil)
	if err == nil || !strings.Contains(err.Error(), "gpu lost") {
		t.Fatalf("expected encode error, got %v", err)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := newRecorder(&fakeSim{}, newMemDir(), config.OutputZip)

	s := capture.Begin(2, "x", false)
	if _, err := r.Run(ctx, s, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if s.Active() {
		t.Error("session should be ended")
	}
}

func TestFinishEarlyKeepsFrames(t *testing.T) {
	r := newRecorder(&fakeSim{}, newMemDir(), config.OutputZip)
	s := capture.Begin(10, "x", false)
	r.Start(s)

	for i := 0; i < 2; i++ {
		if _, err := r.Frame(context.Background(), s); err != nil {
			t.Fatal(err)
		}
	}
	res, err := r.Finish(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if s.Active() || s.Complete() {
		t.Error("session should be ended but incomplete")
	}
	if res.Archive == nil {
		t.Error("expected archive of the captured frames")
	}

	if rec, err := r.Frame(context.Background(), s); rec != nil || err != nil {
		t.Errorf("ended session should not capture, got %v %v", rec, err)
	}
}

func TestFinishEmptyZip(t *testing.T) {
	dir := newMemDir()
	r := newRecorder(&fakeSim{}, dir, config.OutputZip)
	res, err := r.Finish(context.Background(), capture.Begin(0, "x", false))
	if err != nil {
		t.Fatal(err)
	}
	if res.Archive != nil || len(dir.files) != 0 {
		t.Error("no archive expected without frames")
	}
}

func TestSnapshot(t *testing.T) {
	dir := newMemDir()
	r := newRecorder(&fakeSim{}, dir, config.OutputZip)

	name, err := r.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if name != "reaction-diffusion-1700000000000.png" {
		t.Errorf("unexpected name %s", name)
	}
	if _, ok := dir.files[name]; !ok {
		t.Error("image not written")
	}

	r = newRecorder(&fakeSim{notReady: 1}, dir, config.OutputZip)
	_, err = r.Snapshot(context.Background())
	if !errors.Is(err, capture.ErrEncodeNotReady) {
		t.Errorf("expected not ready, got %v", err)
	}
	if err != nil && strings.Contains(err.Error(), "frame") {
		t.Errorf("single image error should not name a frame: %v", err)
	}
}

func TestFromApp(t *testing.T) {
	app := config.DefaultApp()
	app.Grid.StepsPerFrame = 7
	app.Recording.Output = config.OutputDir

	o := FromApp(app)
	if o.StepsPerFrame != 7 || o.Output != config.OutputDir || o.ArchivePrefix != "reaction-diffusion" {
		t.Errorf("unexpected options: %+v", o)
	}
}
