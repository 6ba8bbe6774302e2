package panel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/rdlab/internal/config"
	"github.com/san-kum/rdlab/internal/notify"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

const ramp = " .:-=+*#%@"

func (m Model) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("   " + cyan.Render("r d l a b") + "  " + m.status() + "\n")
	b.WriteString(dimmer.Render("   "+strings.Repeat("─", 40)) + "\n\n")

	preview := m.viewPreview()
	var side string
	switch m.mode {
	case modeSettings:
		side = m.viewSettings()
	case modeName:
		side = m.viewName()
	default:
		side = m.viewParams()
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, "   ", preview, "   ", side))
	b.WriteString("\n\n")

	if m.notice != nil {
		b.WriteString("   " + noticeStyle(m.notice.Kind).Render(m.notice.Message) + "\n\n")
	}
	b.WriteString(dim.Render("   "+m.help()) + "\n")
	return b.String()
}

func (m Model) status() string {
	switch {
	case m.recording():
		return red.Render("●") + " " + red.Render(fmt.Sprintf("rec %d/%d", m.session.CurrentFrame(), m.session.TotalFrames))
	case m.paused:
		return yellow.Render("○ paused")
	}
	return green.Render("● running") + " " + dim.Render(fmt.Sprintf("step %d", m.grid.Steps()))
}

// viewPreview samples the grid onto a character ramp sized to the terminal.
func (m Model) viewPreview() string {
	cw := max(min(m.width/2, 60), 20)
	ch := max(min(m.height-12, 24), 8)
	if m.grid.W == 0 || m.grid.H == 0 {
		return dim.Render("(empty canvas)")
	}

	var b strings.Builder
	for y := 0; y < ch; y++ {
		for x := 0; x < cw; x++ {
			_, v := m.grid.At(x*m.grid.W/cw, y*m.grid.H/ch)
			i := int(v * float64(len(ramp)-1))
			b.WriteByte(ramp[max(0, min(i, len(ramp)-1))])
		}
		if y < ch-1 {
			b.WriteByte('\n')
		}
	}
	return cyan.Render(b.String()) + "\n" + dim.Render(sparkline(m.history, cw))
}

func (m Model) viewParams() string {
	var b strings.Builder
	for i, f := range config.Fields {
		p, _ := m.cfg.Float(f.Path)
		val := fmt.Sprintf("%9.4f", *p)
		if i == m.cursor {
			b.WriteString(cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-13s", f.Label)) + magenta.Render(val) + "\n")
		} else {
			b.WriteString("  " + dim.Render(fmt.Sprintf("%-13s", f.Label)) + dim.Render(val) + "\n")
		}
	}

	b.WriteString("\n")
	image := "none"
	if m.cfg.StyleMap.ImageLoaded {
		image = "loaded"
		if m.excludeImage {
			image += ", not saved"
		}
	}
	b.WriteString(dim.Render(fmt.Sprintf("  style map  %s", image)) + "\n")
	b.WriteString(dim.Render(fmt.Sprintf("  recording  %d × %s, restart %v",
		m.actions.TotalRecordingFrames, m.actions.RecordingPrefix, m.actions.RestartBeforeRecording)) + "\n")
	return b.String()
}

func (m Model) viewName() string {
	return white.Render("save settings as") + "\n\n" +
		"  " + magenta.Render(m.input+"▋") + "\n"
}

func (m Model) viewSettings() string {
	if len(m.names) == 0 {
		return dim.Render("no saved settings") + "\n"
	}
	var b strings.Builder
	b.WriteString(white.Render("saved settings") + "\n\n")
	for i, name := range m.names {
		if i == m.nameCursor {
			b.WriteString(cyan.Render("▸ ") + white.Render(name) + "\n")
		} else {
			b.WriteString("  " + dim.Render(name) + "\n")
		}
	}
	return b.String()
}

func (m Model) help() string {
	switch m.mode {
	case modeName:
		return "enter save  esc cancel"
	case modeSettings:
		return "↑↓ select  enter load  d delete  esc back"
	}
	return "↑↓ select  ←→ adjust  space pause  r reset  s save  o open  x keep image  c record  i png  q quit"
}

func noticeStyle(k notify.Kind) lipgloss.Style {
	switch k {
	case notify.Success:
		return green
	case notify.ValidationAlert:
		return yellow
	case notify.QuotaAlert, notify.ErrorAlert:
		return red
	}
	return dim
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	if len(data) > width {
		data = data[len(data)-width:]
	}
	lo, hi := data[0], data[0]
	for _, v := range data {
		lo, hi = min(lo, v), max(hi, v)
	}
	bars := []rune("▁▂▃▄▅▆▇█")
	out := make([]rune, len(data))
	for i, v := range data {
		idx := 0
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(bars)-1))
		}
		out[i] = bars[idx]
	}
	return string(out)
}
