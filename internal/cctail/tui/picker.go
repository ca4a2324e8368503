package tui

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/kenfdev/cctail/internal/cctail/sessionindex"
)

// pickerState holds the session picker's cursor/scroll over a flat session
// list, mirroring the teacher's picker.go fields without the date-group
// headers (SPEC_FULL.md's picker lists sessions newest-first, capped at
// sessionindex.SidebarCap, with no grouping requirement).
type pickerState struct {
	sessions []sessionindex.Session
	stats    []sessionindex.Stats // parallel to sessions; best-effort, errors leave a zero Stats
	cursor   int
	scroll   int
}

func newPickerState(sessions []sessionindex.Session) pickerState {
	if len(sessions) > sessionindex.SidebarCap() {
		sessions = sessions[:sessionindex.SidebarCap()]
	}
	stats := make([]sessionindex.Stats, len(sessions))
	for i, s := range sessions {
		if st, err := sessionindex.ComputeStats(s); err == nil {
			stats[i] = st
		}
	}
	return pickerState{sessions: sessions, stats: stats}
}

func (m Model) updatePicker(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc", "escape":
		if m.watching {
			m.view = viewStream
		}
		return m, nil
	case "j", "down":
		if m.picker.cursor < len(m.picker.sessions)-1 {
			m.picker.cursor++
		}
		m.picker.ensureVisible(m.height)
	case "k", "up":
		if m.picker.cursor > 0 {
			m.picker.cursor--
		}
		m.picker.ensureVisible(m.height)
	case "G":
		m.picker.cursor = len(m.picker.sessions) - 1
		m.picker.ensureVisible(m.height)
	case "g":
		m.picker.cursor = 0
		m.picker.scroll = 0
	case "enter":
		if m.picker.cursor >= 0 && m.picker.cursor < len(m.picker.sessions) {
			s := m.picker.sessions[m.picker.cursor]
			return m, switchSessionCmd(m.vm, m.projectDir, s)
		}
	case "r":
		return m, loadSessionsCmd(m.projectDir)
	}
	return m, nil
}

// pickerRowHeight is how many display lines formatPickerRow plus its
// formatPickerStatsLine companion occupy per session.
const pickerRowHeight = 2

func (p *pickerState) ensureVisible(height int) {
	viewHeight := rowCapacity(height)
	if p.cursor < p.scroll {
		p.scroll = p.cursor
	}
	if p.cursor >= p.scroll+viewHeight {
		p.scroll = p.cursor - viewHeight + 1
	}
}

func rowCapacity(height int) int {
	h := (height - 3) / pickerRowHeight
	if h < 1 {
		return 1
	}
	return h
}

var (
	pickerSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	pickerOngoingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pickerDimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

func (m Model) viewPicker() string {
	if m.err != nil {
		return fmt.Sprintf("error: %v\n", m.err)
	}
	if len(m.picker.sessions) == 0 {
		return "no sessions found in " + m.projectDir + "\n"
	}

	var b strings.Builder
	b.WriteString(pickerDimStyle.Render("sessions: "+m.projectDir) + "\n\n")

	end := m.picker.scroll + rowCapacity(m.height)
	if end > len(m.picker.sessions) {
		end = len(m.picker.sessions)
	}
	for i := m.picker.scroll; i < end; i++ {
		s := m.picker.sessions[i]
		line := formatPickerRow(s)
		if i == m.picker.cursor {
			line = pickerSelectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
		if i < len(m.picker.stats) {
			b.WriteString("    " + pickerDimStyle.Render(formatPickerStatsLine(m.picker.stats[i])) + "\n")
		}
	}

	b.WriteString("\n" + pickerDimStyle.Render("j/k move  enter open  r refresh  q/esc back  ^C quit"))
	return b.String()
}

func formatPickerRow(s sessionindex.Session) string {
	status := "inactive"
	styled := pickerDimStyle
	if sessionindex.Classify(s, time.Now()) == sessionindex.StatusActive {
		status = "active"
		styled = pickerOngoingStyle
	} else if s.IsOngoingHint {
		// Past the flat mtime cutoff but the content heuristic still reads
		// as mid-turn (e.g. waiting on a long-running tool); flag it
		// distinctly from a genuinely idle session.
		status = "inactive (ongoing?)"
		styled = pickerOngoingStyle
	}
	agents := ""
	if n := len(s.SubagentFiles); n > 0 {
		agents = fmt.Sprintf("  +%d agent(s)", n)
	}
	return fmt.Sprintf("%-36s  %s%s", s.ID, styled.Render(status), agents)
}

// formatPickerStatsLine renders the teacher's first-message-preview/
// turn-count/duration sidebar summary (SPEC_FULL.md supplemental feature
// 1), minus a token count: cctail's LogEntry never decodes usage data, so
// there is nothing to report there (see sessionindex.Stats doc comment).
func formatPickerStatsLine(st sessionindex.Stats) string {
	preview := st.FirstUserPreview
	if preview == "" {
		preview = "(no user message yet)"
	}
	return fmt.Sprintf("%q  %d turn(s)  %s", preview, st.TurnCount, st.Duration.Round(time.Second))
}
