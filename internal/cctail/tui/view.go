package tui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/kenfdev/cctail/internal/cctail/render"
	"github.com/kenfdev/cctail/internal/cctail/scrollmode"
	"github.com/kenfdev/cctail/internal/cctail/searchstate"
	"github.com/kenfdev/cctail/internal/cctail/viewmodel"
)

const (
	headerLines = 0
	footerLines = 2
)

var (
	roleUserStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	roleAssistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	roleSystemStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	toolLineStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
	unknownLineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	searchMatchStyle   = lipgloss.NewStyle().Reverse(true)
	statusBarStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	agentTagStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("135"))
)

// viewStream renders the chat-stream view from the Frame Update computed on
// the way in (spec §4.11: Tick runs once per frame, not once per draw).
// Active scroll mode's frozen snapshot — not the live line list — is what's
// drawn, per spec §4.10 ("the view always draws from the frozen snapshot
// while Active").
func (m Model) viewStream() string {
	frame := m.lastFrame

	if m.err != nil {
		return fmt.Sprintf("error: %v\n", m.err)
	}

	lines := plainLines(frame.Lines)
	viewportHeight := m.viewportHeight()

	var visible []string
	var offset int
	if frame.Scroll.Mode() == scrollmode.ModeActive {
		offset = frame.Scroll.VisualOffset()
		visible = sliceByVisualOffset(frame.Scroll.FrozenLines(), offset, viewportHeight)
	} else {
		offset = len(lines) - viewportHeight
		if offset < 0 {
			offset = 0
		}
		visible = lines[offset:]
	}
	highlightCurrentMatch(visible, offset, frame)

	var b strings.Builder
	for _, l := range visible {
		b.WriteString(l + "\n")
	}
	b.WriteString(m.renderStatusBar(frame))
	return b.String()
}

// highlightCurrentMatch reverse-styles whichever visible row is the current
// search match's logical line, per spec §4.9 ("the current match is
// distinguished from other matches").
func highlightCurrentMatch(visible []string, offset int, frame viewmodel.Frame) {
	if frame.CurrentMatch == nil {
		return
	}
	row := frame.CurrentMatch.LineIndex - offset
	if row < 0 || row >= len(visible) {
		return
	}
	visible[row] = searchMatchStyle.Render(visible[row])
}

// plainLines renders every render.Line to its styled display text.
func plainLines(rendered []render.Line) []string {
	out := make([]string, 0, len(rendered))
	for _, l := range rendered {
		out = append(out, renderOne(l))
	}
	return out
}

func renderOne(l render.Line) string {
	tag := ""
	if l.AgentPrefix != "" {
		tag = agentTagStyle.Render("["+l.AgentPrefix+"] ")
	}
	switch l.Kind {
	case render.KindToolUse:
		return toolLineStyle.Render("  ⚙ " + l.Summary)
	case render.KindUnknown:
		return unknownLineStyle.Render(fmt.Sprintf("  ? %s (%d bytes)", l.BlockType, l.Size))
	case render.KindProgressNote:
		return unknownLineStyle.Render("  " + l.Body)
	default:
		style := roleSystemStyle
		switch l.Role {
		case "user":
			style = roleUserStyle
		case "assistant":
			style = roleAssistantStyle
		}
		return tag + style.Render(l.Role+":") + " " + l.Body
	}
}

// sliceByVisualOffset returns the logical lines that would appear starting at
// visualOffset for height visual rows. Since scrollmode already computed
// wrap-aware totals, this walks the frozen snapshot line by line rather than
// recomputing wrap math — the terminal itself wraps long lines on draw, this
// just picks which logical lines start the viewport.
func sliceByVisualOffset(lines []string, visualOffset, height int) []string {
	if len(lines) == 0 {
		return nil
	}
	// Approximate: each logical line contributes >=1 visual line; walking
	// by logical index keeps this a thin presentation seam over
	// scrollmode's already-resolved offset rather than a second wrap engine.
	start := visualOffset
	if start < 0 {
		start = 0
	}
	if start >= len(lines) {
		start = len(lines) - 1
	}
	end := start + height
	if end > len(lines) {
		end = len(lines)
	}
	return lines[start:end]
}

func (m Model) renderStatusBar(frame viewmodel.Frame) string {
	if frame.FullLoadPending {
		mib := float64(frame.FullLoadPendingSizeBytes) / (1024 * 1024)
		return statusBarStyle.Render(fmt.Sprintf("full history is %.1f MiB — load anyway? (y/n)", mib))
	}

	parts := []string{"j/k scroll", "/ search", "n/N next/prev", "t tools", "a all-agents", "L full history", "q back"}
	left := statusBarStyle.Render(strings.Join(parts, "  "))

	right := ""
	if frame.Filter.IsActive() {
		right = frame.Filter.Display()
	}
	if frame.Search.Mode == searchstate.ModeInput {
		right = "search: " + frame.Search.Buf
	} else if frame.Search.Mode == searchstate.ModeActive {
		right = fmt.Sprintf("search %q (%d matches)", frame.Search.Query, len(frame.Search.Matches))
	}
	if right != "" {
		right = "  " + statusBarStyle.Render(right)
	}
	return left + right
}
