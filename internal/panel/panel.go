// Package panel is the interactive control panel: a live preview of the
// simulation, the editable parameter list, saved settings and recording.
package panel

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/rdlab/internal/capture"
	"github.com/san-kum/rdlab/internal/config"
	"github.com/san-kum/rdlab/internal/logger"
	"github.com/san-kum/rdlab/internal/notify"
	"github.com/san-kum/rdlab/internal/rd"
	"github.com/san-kum/rdlab/internal/recorder"
	"github.com/san-kum/rdlab/internal/settings"
)

type mode int

const (
	modeParams mode = iota
	modeName
	modeSettings
)

const historyLen = 60

type Deps struct {
	Config   *config.Config
	Grid     *rd.Grid
	Store    *settings.Store
	Recorder *recorder.Recorder
	Actions  settings.Actions
	Log      *logger.Logger
}

type Model struct {
	mode mode

	cfg   *config.Config
	grid  *rd.Grid
	store *settings.Store
	rec   *recorder.Recorder
	log   *logger.Logger

	cursor  int
	paused  bool
	actions settings.Actions
	// excludeImage keeps the style map image out of saved settings.
	excludeImage bool

	input      string
	names      []string
	nameCursor int

	session *capture.Session
	notice  *notify.Notice
	history []float64

	width, height int
}

func New(d Deps) Model {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return Model{
		cfg:          d.Config,
		grid:         d.Grid,
		store:        d.Store,
		rec:          d.Recorder,
		log:          log,
		actions:      d.Actions,
		excludeImage: true,
		history:      make([]float64, 0, historyLen),
		width:        80,
		height:       24,
	}
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tickMsg:
		m.advance()
		return m, tick()
	}
	return m, nil
}

// advance runs one frame: a recording frame while a session is active,
// otherwise a plain simulation step.
func (m *Model) advance() {
	if m.paused {
		return
	}
	if m.recording() {
		if _, err := m.rec.Frame(context.Background(), m.session); err != nil {
			m.fail(err)
		}
		if !m.session.Active() {
			m.finishRecording()
		}
	} else {
		m.grid.Step(m.rec.Options().StepsPerFrame)
	}

	m.history = append(m.history, m.grid.MeanB())
	if len(m.history) > historyLen {
		m.history = m.history[1:]
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.mode {
	case modeName:
		return m.nameKey(msg)
	case modeSettings:
		return m.settingsKey(msg)
	}
	return m.paramsKey(msg)
}

func (m Model) paramsKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		if m.recording() {
			m.finishRecording()
		}
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(config.Fields)-1 {
			m.cursor++
		}
	case "left", "h":
		m.adjust(-1)
	case "right", "l":
		m.adjust(1)
	case "H":
		m.adjust(-10)
	case "L":
		m.adjust(10)
	case " ", "p":
		m.paused = !m.paused
	case "r":
		m.grid.Reset()
		m.history = m.history[:0]
	case "x":
		m.excludeImage = !m.excludeImage
	case "s":
		m.mode = modeName
		m.input = ""
	case "o":
		m.openSettings()
	case "c":
		if m.recording() {
			m.finishRecording()
		} else {
			m.startRecording()
		}
	case "i":
		m.exportImage()
	}
	return m, nil
}

func (m Model) nameKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.save(m.input)
		m.mode = modeParams
	case tea.KeyEsc:
		m.mode = modeParams
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.input += string(msg.Runes)
	}
	return m, nil
}

func (m Model) settingsKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.mode = modeParams
	case "up", "k":
		if m.nameCursor > 0 {
			m.nameCursor--
		}
	case "down", "j":
		if m.nameCursor < len(m.names)-1 {
			m.nameCursor++
		}
	case "enter":
		if name, ok := m.selectedName(); ok {
			m.load(name)
			m.mode = modeParams
		}
	case "d":
		if name, ok := m.selectedName(); ok {
			m.delete(name)
		}
	}
	return m, nil
}

func (m *Model) adjust(n int) {
	f := config.Fields[m.cursor]
	if !m.cfg.Adjust(f.Path, n) {
		return
	}
	if err := m.grid.Configure(m.cfg); err != nil {
		m.fail(err)
	}
}

func (m *Model) save(name string) {
	tree, err := m.cfg.Tree()
	if err != nil {
		m.fail(err)
		return
	}
	var exclusions []settings.Exclusion
	if m.excludeImage {
		exclusions = settings.ImageExclusions
	}
	if err := m.store.Save(name, tree, exclusions, settings.WithActions(m.actions)); err != nil {
		m.fail(err)
		return
	}
	m.log.Info().Str("name", name).Bool("exclude_image", m.excludeImage).Msg("settings saved")
	m.notify(notify.Successf("Settings saved as %q.", name))
}

func (m *Model) openSettings() {
	names, err := m.store.List()
	if err != nil {
		m.fail(err)
		return
	}
	m.names = names
	m.nameCursor = 0
	m.mode = modeSettings
}

func (m Model) selectedName() (string, bool) {
	if m.nameCursor < 0 || m.nameCursor >= len(m.names) {
		return "", false
	}
	return m.names[m.nameCursor], true
}

func (m *Model) load(name string) {
	snap, err := m.store.Load(name)
	if err != nil {
		m.fail(err)
		return
	}
	if err := m.cfg.Merge(snap.Configuration); err != nil {
		m.fail(err)
		return
	}
	if err := m.grid.Configure(m.cfg); err != nil {
		m.fail(err)
		return
	}
	if snap.Actions != nil {
		m.actions = *snap.Actions
	}
	m.log.Info().Str("name", name).Bool("legacy", snap.Legacy()).Msg("settings loaded")
	m.notify(notify.Successf("Settings %q loaded.", name))
}

func (m *Model) delete(name string) {
	if err := m.store.Delete(name); err != nil {
		m.fail(err)
		return
	}
	m.names, _ = m.store.List()
	if m.nameCursor >= len(m.names) {
		m.nameCursor = max(len(m.names)-1, 0)
	}
	m.notify(notify.Successf("Settings %q deleted.", name))
}

func (m Model) recording() bool { return m.session != nil && m.session.Active() }

func (m *Model) startRecording() {
	m.session = capture.Begin(m.actions.TotalRecordingFrames, m.actions.RecordingPrefix, m.actions.RestartBeforeRecording)
	m.rec.Start(m.session)
	m.paused = false
	m.notify(notify.Infof("Recording %d frames.", m.session.TotalFrames))
}

func (m *Model) finishRecording() {
	res, err := m.rec.Finish(context.Background(), m.session)
	if err != nil {
		m.fail(err)
		return
	}
	n := notify.Successf("Recorded %d frames.", res.Session.CurrentFrame())
	if res.Archive != nil {
		n = notify.Successf("Recorded %d frames to %s.", res.Session.CurrentFrame(), res.Archive.Name)
	}
	m.notify(n)
}

func (m *Model) exportImage() {
	name, err := m.rec.Snapshot(context.Background())
	if err != nil {
		m.fail(err)
		return
	}
	m.notify(notify.Successf("Image saved as %s.", name))
}

func (m *Model) fail(err error) {
	m.log.Error().Err(err).Msg("panel")
	if n, ok := notify.FromError(err); ok {
		m.notify(n)
	}
}

func (m *Model) notify(n notify.Notice) { m.notice = &n }
