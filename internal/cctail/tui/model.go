// Package tui implements the interactive Bubble Tea program: the chat-stream
// view, its filter/search/scroll key handling, and the session picker.
// Grounded on the teacher's main.go model/Init/Update/View skeleton and
// update.go's per-view key-switch style, restructured around a
// viewmodel.ViewModel instead of the teacher's always-growing message slice.
package tui

import (
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/kenfdev/cctail/internal/cctail/pathresolve"
	"github.com/kenfdev/cctail/internal/cctail/ringbuffer"
	"github.com/kenfdev/cctail/internal/cctail/sessionindex"
	"github.com/kenfdev/cctail/internal/cctail/viewmodel"
	"github.com/kenfdev/cctail/internal/cctail/watcher"
)

// view names which top-level screen is current, mirroring the teacher's
// viewState enum (viewList/viewDetail/viewPicker).
type view int

const (
	viewStream view = iota
	viewPicker
)

// tickMsg drives the activity indicator, same cadence as the teacher's
// tickCmd.
type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(150*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// watcherEventMsg carries the single event that woke this command, plus
// whether the channel is still open. Model re-subscribes after every
// message, matching the teacher's waitForTailUpdate resubscribe pattern.
type watcherEventMsg struct {
	event watcher.Event
	ok    bool
}

func waitForWatcherActivity(events <-chan watcher.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		return watcherEventMsg{event: ev, ok: ok}
	}
}

// sessionsLoadedMsg carries a fresh picker listing.
type sessionsLoadedMsg struct {
	sessions []sessionindex.Session
	err      error
}

func loadSessionsCmd(projectDir string) tea.Cmd {
	return func() tea.Msg {
		sessions, err := sessionindex.Discover(projectDir)
		return sessionsLoadedMsg{sessions: sessions, err: err}
	}
}

// sessionSwitchedMsg reports a completed SwitchSession plus the fresh
// Watcher to subscribe to.
type sessionSwitchedMsg struct {
	session sessionindex.Session
	w       *watcher.Watcher
	err     error
}

func switchSessionCmd(vm *viewmodel.ViewModel, projectDir string, session sessionindex.Session) tea.Cmd {
	return func() tea.Msg {
		offsets, err := vm.SwitchSession(session)
		if err != nil {
			return sessionSwitchedMsg{err: err}
		}
		w := watcher.New(projectDir, offsets)
		go w.Run()
		return sessionSwitchedMsg{session: session, w: w}
	}
}

// Model is the Bubble Tea root model.
type Model struct {
	vm         *viewmodel.ViewModel
	projectDir string

	view view

	w         *watcher.Watcher
	animFrame int
	watching  bool

	width, height int

	picker pickerState

	// lastFrame is the most recent Tick result, refreshed at the end of
	// Update. Key
	// handling reads it to decide e.g. whether a search query is being
	// composed, one frame behind the keystroke that will next change it —
	// the same lag the teacher's model has between a key handler mutating
	// state and the next View() picking it up.
	lastFrame viewmodel.Frame

	err error
}

// New creates the root Model, resolving projectDir (empty uses cwd/git-root
// auto-detection) and sessionID (empty opens the picker on startup).
func New(workingDir, explicitProject, sessionID string, budget int64) (Model, error) {
	projectDir, err := pathresolve.Resolve(workingDir, explicitProject, "")
	if err != nil {
		return Model{}, err
	}

	m := Model{
		vm:         viewmodel.New(budget),
		projectDir: projectDir,
	}

	if sessionID == "" {
		m.view = viewPicker
		return m, nil
	}

	sessions, err := sessionindex.Discover(projectDir)
	if err != nil {
		return Model{}, err
	}
	if s, err := sessionindex.Resolve(sessions, sessionID); err == nil {
		m.view = viewStream
		m.startSession(s)
		return m, nil
	}
	m.view = viewPicker
	return m, nil
}

func (m *Model) startSession(s sessionindex.Session) {
	offsets, err := m.vm.SwitchSession(s)
	if err != nil {
		m.err = err
		return
	}
	if m.w != nil {
		m.w.Shutdown()
	}
	w := watcher.New(m.projectDir, offsets)
	go w.Run()
	m.w = w
	m.watching = true
}

func (m Model) Init() tea.Cmd {
	if m.view == viewPicker {
		return loadSessionsCmd(m.projectDir)
	}
	cmds := []tea.Cmd{tickCmd()}
	if m.w != nil {
		cmds = append(cmds, waitForWatcherActivity(m.w.Events()))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tickMsg:
		m.animFrame++
		cmd = tickCmd()

	case watcherEventMsg:
		if !msg.ok {
			break
		}
		m.vm.PushWatcherEvent(msg.event)
		if m.w != nil {
			m.vm.DrainChannel(m.w.Events())
			cmd = waitForWatcherActivity(m.w.Events())
		}

	case sessionsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			break
		}
		m.picker = newPickerState(msg.sessions)

	case sessionSwitchedMsg:
		if msg.err != nil {
			m.err = msg.err
			break
		}
		if m.w != nil {
			m.w.Shutdown()
		}
		m.w = msg.w
		m.watching = true
		m.view = viewStream
		cmd = waitForWatcherActivity(m.w.Events())

	case tea.KeyPressMsg:
		var next tea.Model
		switch m.view {
		case viewPicker:
			next, cmd = m.updatePicker(msg)
		default:
			next, cmd = m.updateStream(msg)
		}
		m = next.(Model)

	case tea.MouseMsg:
		if m.view == viewStream {
			var next tea.Model
			next, cmd = m.updateStreamMouse(msg)
			m = next.(Model)
		}
	}

	if m.view == viewStream && m.height > 0 {
		m.lastFrame = m.vm.Tick(m.innerWidth(), m.viewportHeight())
	}
	return m, cmd
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	switch m.view {
	case viewPicker:
		return m.viewPicker()
	default:
		return m.viewStream()
	}
}

// DefaultBudget is a small helper cmd/cctail uses to avoid importing
// ringbuffer just to reference its default.
func DefaultBudget() int64 { return ringbuffer.DefaultBudget }
