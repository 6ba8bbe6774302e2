package panel

import (
	"context"
	"io"
	"math"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/rdlab/internal/config"
	"github.com/san-kum/rdlab/internal/kv"
	"github.com/san-kum/rdlab/internal/logger"
	"github.com/san-kum/rdlab/internal/notify"
	"github.com/san-kum/rdlab/internal/params"
	"github.com/san-kum/rdlab/internal/rd"
	"github.com/san-kum/rdlab/internal/recorder"
	"github.com/san-kum/rdlab/internal/settings"
)

type memDir struct {
	mu    sync.Mutex
	files map[string]int
}

type memFile struct {
	d    *memDir
	name string
	n    int
}

func (f *memFile) Write(p []byte) (int, error) {
	f.n += len(p)
	return len(p), nil
}

func (f *memFile) Close() error {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	f.d.files[f.name] = f.n
	return nil
}

func (d *memDir) Create(_ context.Context, name string) (io.WriteCloser, error) {
	return &memFile{d: d, name: name}, nil
}

type fixture struct {
	m     Model
	store *settings.Store
	dir   *memDir
}

func newFixture(t *testing.T, quota int) *fixture {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Canvas = config.Canvas{Width: 16, Height: 12}
	cfg.Seed.Size = 3

	grid, err := rd.New(cfg, 1)
	if err != nil {
		t.Fatal(err)
	}
	store := settings.New(kv.NewMemory(quota), logger.Nop())
	dir := &memDir{files: map[string]int{}}
	opts := recorder.DefaultOptions()
	opts.StepsPerFrame = 1

	m := New(Deps{
		Config:   cfg,
		Grid:     grid,
		Store:    store,
		Recorder: recorder.New(grid, dir, opts, logger.Nop()),
		Actions:  settings.Actions{TotalRecordingFrames: 2, RecordingPrefix: "frame_", RestartBeforeRecording: true},
	})
	return &fixture{m: m, store: store, dir: dir}
}

func (f *fixture) send(msgs ...tea.Msg) {
	for _, msg := range msgs {
		updated, _ := f.m.Update(msg)
		f.m = updated.(Model)
	}
}

func key(s string) tea.Msg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func (f *fixture) saveAs(name string) {
	f.send(key("s"))
	if name != "" {
		f.send(key(name))
	}
	f.send(key("enter"))
}

func TestNewModel(t *testing.T) {
	f := newFixture(t, 0)
	if f.m.mode != modeParams {
		t.Error("new model should show parameters")
	}
	if !f.m.excludeImage {
		t.Error("style image should be excluded by default")
	}
	if f.m.notice != nil {
		t.Error("new model should have no notice")
	}
}

func TestAdjustParameter(t *testing.T) {
	f := newFixture(t, 0)
	f.send(key("right"))

	if math.Abs(f.m.cfg.F-(config.DefaultF+0.0001)) > 1e-9 {
		t.Errorf("f = %v, want %v", f.m.cfg.F, config.DefaultF+0.0001)
	}

	f.send(key("down"), key("L"))
	if math.Abs(f.m.cfg.K-(config.DefaultK+0.001)) > 1e-9 {
		t.Errorf("k = %v, want %v", f.m.cfg.K, config.DefaultK+0.001)
	}
}

func TestSaveSettings(t *testing.T) {
	f := newFixture(t, 0)
	f.saveAs("coral")

	if f.m.mode != modeParams {
		t.Error("should return to parameters after save")
	}
	if f.m.notice == nil || f.m.notice.Kind != notify.Success {
		t.Fatalf("notice = %+v, want success", f.m.notice)
	}
	names, _ := f.store.List()
	if len(names) != 1 || names[0] != "coral" {
		t.Errorf("names = %v", names)
	}
}

func TestSaveEmptyName(t *testing.T) {
	f := newFixture(t, 0)
	f.saveAs("")

	if f.m.notice == nil || f.m.notice.Kind != notify.ValidationAlert {
		t.Fatalf("notice = %+v, want validation alert", f.m.notice)
	}
	names, _ := f.store.List()
	if len(names) != 0 {
		t.Errorf("catalog should be untouched, got %v", names)
	}
}

func TestSaveOverQuota(t *testing.T) {
	f := newFixture(t, 64)
	f.saveAs("big")

	if f.m.notice == nil || f.m.notice.Kind != notify.QuotaAlert {
		t.Fatalf("notice = %+v, want quota alert", f.m.notice)
	}
}

func TestSaveExcludesImage(t *testing.T) {
	f := newFixture(t, 0)
	f.m.cfg.StyleMap.ImageData = "data:image/png;base64,AAAA"
	f.m.cfg.StyleMap.ImageLoaded = true
	f.saveAs("mapped")

	snap, err := f.store.Load("mapped")
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := snap.Configuration.Lookup("styleMap.imageData"); n.Kind() != params.KindNull {
		t.Errorf("imageData = %v, want null", n)
	}
	if n, _ := snap.Configuration.Lookup("styleMap.imageLoaded"); !params.Equal(n, params.Bool(false)) {
		t.Errorf("imageLoaded = %v, want false", n)
	}
	if !f.m.cfg.StyleMap.ImageLoaded {
		t.Error("live configuration should keep its image")
	}
}

func TestLoadSettings(t *testing.T) {
	f := newFixture(t, 0)
	f.m.cfg.F = 0.03
	f.saveAs("low-feed")

	f.m.cfg.F = 0.07
	f.m.actions = settings.Actions{}
	f.send(key("o"))
	if f.m.mode != modeSettings || len(f.m.names) != 1 {
		t.Fatalf("mode = %v, names = %v", f.m.mode, f.m.names)
	}
	f.send(key("enter"))

	if f.m.cfg.F != 0.03 {
		t.Errorf("f = %v, want 0.03", f.m.cfg.F)
	}
	if f.m.actions.TotalRecordingFrames != 2 || f.m.actions.RecordingPrefix != "frame_" {
		t.Errorf("actions = %+v", f.m.actions)
	}
	if f.m.notice == nil || f.m.notice.Kind != notify.Success {
		t.Errorf("notice = %+v, want success", f.m.notice)
	}
}

func TestLoadResizesCanvas(t *testing.T) {
	f := newFixture(t, 0)
	f.m.cfg.Canvas = config.Canvas{Width: 8, Height: 6}
	f.saveAs("small")
	f.m.cfg.Canvas = config.Canvas{Width: 16, Height: 12}

	f.send(key("o"), key("enter"))
	if f.m.grid.W != 8 || f.m.grid.H != 6 {
		t.Errorf("grid = %dx%d, want 8x6", f.m.grid.W, f.m.grid.H)
	}
}

func TestDeleteSettings(t *testing.T) {
	f := newFixture(t, 0)
	f.saveAs("a")
	f.saveAs("b")

	f.send(key("o"), key("d"))
	if len(f.m.names) != 1 || f.m.names[0] != "b" {
		t.Errorf("names = %v, want [b]", f.m.names)
	}
	f.send(key("esc"))
	if f.m.mode != modeParams {
		t.Error("esc should return to parameters")
	}
}

func TestRecording(t *testing.T) {
	f := newFixture(t, 0)
	f.send(key("c"))
	if !f.m.recording() {
		t.Fatal("should be recording")
	}

	f.send(tickMsg{}, tickMsg{})
	if f.m.recording() {
		t.Error("recording should stop after the last frame")
	}
	if !f.m.session.Complete() {
		t.Errorf("frames = %d, want 2", f.m.session.CurrentFrame())
	}
	if len(f.dir.files) != 1 {
		t.Errorf("files = %v, want one archive", f.dir.files)
	}
	if f.m.notice == nil || !strings.Contains(f.m.notice.Message, ".zip") {
		t.Errorf("notice = %+v", f.m.notice)
	}
}

func TestStopRecordingEarly(t *testing.T) {
	f := newFixture(t, 0)
	f.m.actions.TotalRecordingFrames = 10
	f.send(key("c"), tickMsg{}, key("c"))

	if f.m.recording() {
		t.Error("second c should stop recording")
	}
	if got := len(f.m.session.Records()); got != 1 {
		t.Errorf("records = %d, want 1", got)
	}
}

func TestPauseStopsSteps(t *testing.T) {
	f := newFixture(t, 0)
	f.send(key(" "))
	before := f.m.grid.Steps()
	f.send(tickMsg{})
	if f.m.grid.Steps() != before {
		t.Error("paused panel should not step")
	}
}

func TestExportImage(t *testing.T) {
	f := newFixture(t, 0)
	f.send(key("i"))
	if len(f.dir.files) != 1 {
		t.Errorf("files = %v, want one image", f.dir.files)
	}
}

func TestView(t *testing.T) {
	f := newFixture(t, 0)
	f.send(tea.WindowSizeMsg{Width: 100, Height: 40})

	out := f.m.View()
	if !strings.Contains(out, "Feed") {
		t.Error("view should list parameters")
	}
	f.send(key("s"), key("ab"))
	if !strings.Contains(f.m.View(), "ab") {
		t.Error("view should show the name being typed")
	}
}
