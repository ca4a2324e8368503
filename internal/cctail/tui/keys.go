package tui

import (
	tea "charm.land/bubbletea/v2"

	"github.com/kenfdev/cctail/internal/cctail/filterstate"
	"github.com/kenfdev/cctail/internal/cctail/searchstate"
)

// updateStream handles key events in the chat-stream view, per spec §4.10's
// key handler: scroll requests only ever arm Pending state (the ViewModel
// resolves them against the next Tick's wrap-aware line list), and search
// keys route entirely through SearchState's constructors.
func (m Model) updateStream(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	// lastFrame reflects the state as of the previous draw; fine to read
	// here since the teacher's key handlers work off the same model state
	// that was current going into the render that's currently on screen.
	searchMode := m.lastFrame.Search.Mode

	// A pending full-history-load confirmation (spec §4.6's >50 MiB gate)
	// takes over the keyboard until resolved, same precedence as search
	// input mode below.
	if m.lastFrame.FullLoadPending {
		switch msg.String() {
		case "y", "Y":
			if err := m.vm.ConfirmFullHistoryLoad(); err != nil {
				m.err = err
			}
		case "ctrl+c":
			return m, tea.Quit
		default:
			m.vm.CancelFullHistoryLoad()
		}
		return m, nil
	}

	// While composing a search query, every printable key is text input;
	// only a small set of control keys escape back to navigation.
	if searchMode == searchstate.ModeInput {
		switch msg.String() {
		case "enter":
			m.vm.ConfirmSearch()
		case "esc", "escape":
			m.vm.CancelSearch()
		case "backspace":
			m.vm.BackspaceSearch()
		case "ctrl+c":
			return m, tea.Quit
		default:
			if r := msg.Text; r != "" {
				for _, ch := range r {
					m.vm.TypeSearch(ch)
				}
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc", "escape":
		switch {
		case searchMode == searchstate.ModeActive:
			m.vm.CancelSearch()
		case m.vm.Filter().IsActive():
			m.vm.ApplyFilter(filterstate.Default())
		default:
			m.view = viewPicker
			return m, loadSessionsCmd(m.projectDir)
		}
		return m, nil
	case "j", "down":
		m.vm.RequestScrollDown(1)
	case "k", "up":
		m.vm.RequestScrollUp(1)
	case "J", "ctrl+d", "pgdown":
		m.vm.RequestScrollDown(m.viewportHeight() / 2)
	case "K", "ctrl+u", "pgup":
		m.vm.RequestScrollUp(m.viewportHeight() / 2)
	case "G":
		m.vm.ExitScroll() // bottom == live-tail
	case "g", "home":
		m.vm.RequestScrollHome()
	case "/":
		m.vm.BeginSearch()
	case "n":
		m.vm.NextMatch()
	case "N":
		m.vm.PrevMatch()
	case "t":
		f := m.vm.Filter()
		f.HideToolCalls = !f.HideToolCalls
		m.vm.ApplyFilter(f)
	case "a":
		f := m.vm.Filter()
		f.SelectedAgent = filterstate.All()
		m.vm.ApplyFilter(f)
	case "L":
		if err := m.vm.RequestFullHistoryLoad(); err != nil {
			m.err = err
		}
	}
	return m, nil
}

func (m Model) updateStreamMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Mouse().Button {
	case tea.MouseWheelUp:
		m.vm.RequestScrollUp(3)
	case tea.MouseWheelDown:
		m.vm.RequestScrollDown(3)
	}
	return m, nil
}

// innerWidth/viewportHeight account for the status bar + header lines view.go
// reserves, matching the teacher's listViewHeight/detailViewHeight pattern.
func (m Model) innerWidth() int {
	w := m.width
	if w <= 0 {
		return 80
	}
	return w
}

func (m Model) viewportHeight() int {
	h := m.height - headerLines - footerLines
	if h < 1 {
		return 1
	}
	return h
}
