// Package viewmodel implements the per-frame orchestration described in
// spec §4.11: drain the watcher channel, push into the ring buffer, render
// under the active filter, rescan search, resolve scroll, and hand a flat
// line list to the drawing layer. Grounded on the teacher's main.go model
// and update.go's message-driven rebuild loop, restructured around the
// ring buffer + filter + search + scroll composition the teacher doesn't
// need (it keeps one always-growing slice with no filter/search/budget).
package viewmodel

import (
	"github.com/kenfdev/cctail/internal/cctail/filterstate"
	"github.com/kenfdev/cctail/internal/cctail/logentry"
	"github.com/kenfdev/cctail/internal/cctail/render"
	"github.com/kenfdev/cctail/internal/cctail/replay"
	"github.com/kenfdev/cctail/internal/cctail/ringbuffer"
	"github.com/kenfdev/cctail/internal/cctail/scrollmode"
	"github.com/kenfdev/cctail/internal/cctail/searchstate"
	"github.com/kenfdev/cctail/internal/cctail/sessionindex"
	"github.com/kenfdev/cctail/internal/cctail/watcher"
)

// drainBatchSize bounds how many channel entries are consumed per frame
// (spec §4.11 step 1: "drain up to K entries... non-blocking").
const drainBatchSize = 256

// ViewModel owns every piece of UI-domain state named in spec §5: "No
// ViewModel state is shared with the watcher." It is not itself
// goroutine-safe and must be driven from a single cooperative loop.
type ViewModel struct {
	ring   *ringbuffer.RingBuffer
	filter filterstate.FilterState
	search searchstate.SearchState
	scroll scrollmode.ScrollMode

	session           sessionindex.Session
	fullHistoryLoaded bool
	fullLoadPending   bool
	fullLoadSizeBytes int64

	lines []render.Line // most recent render pass's flat output
}

// fullLoadWarnThreshold is spec §4.6's session_file_size gate: a full-history
// load above this size requires confirmation before replacing the ring
// buffer's content.
const fullLoadWarnThreshold = 50 * 1024 * 1024

// New creates a ViewModel over a ring buffer of the given byte budget.
func New(budget int64) *ViewModel {
	return &ViewModel{
		ring:   ringbuffer.New(budget),
		filter: filterstate.Default(),
		search: searchstate.Inactive(),
		scroll: scrollmode.Inactive(),
	}
}

// Frame is the result of one Tick: the flat rendered line list plus the
// overlays the drawing layer needs.
type Frame struct {
	Lines        []render.Line
	Filter       filterstate.FilterState
	Search       searchstate.SearchState
	Scroll       scrollmode.ScrollMode
	CurrentMatch *searchstate.Match

	FullLoadPending          bool
	FullLoadPendingSizeBytes int64
}

// PushWatcherEvent applies a single already-received watcher.Event, pushing
// its Entry into the ring buffer if it carries one. Callers that receive an
// event off the channel directly (e.g. the Bubble Tea wakeup command) use
// this to apply it before draining whatever else has queued up since,
// rather than discarding it.
func (v *ViewModel) PushWatcherEvent(ev watcher.Event) (pushed bool) {
	if ev.Kind == watcher.KindEntry {
		v.ring.Push(ev.Entry)
		return true
	}
	// NewFile/Truncated/ParseError are diagnostic-only at the ViewModel
	// layer; the core doesn't react to them beyond what FileTail/Watcher
	// already did internally.
	return false
}

// DrainChannel is step 1: non-blocking-drains up to drainBatchSize events,
// pushing every Entry into the ring buffer. Returns the number of entries
// pushed and whether the channel was observed closed (spec's ChannelClosed
// terminal condition).
func (v *ViewModel) DrainChannel(events <-chan watcher.Event) (pushed int, closed bool) {
	for i := 0; i < drainBatchSize; i++ {
		select {
		case ev, ok := <-events:
			if !ok {
				return pushed, true
			}
			if v.PushWatcherEvent(ev) {
				pushed++
			}
		default:
			return pushed, false
		}
	}
	return pushed, false
}

// SwitchSession is step 2: clears the ring buffer, replays the new session,
// and resets SearchState/ScrollMode. Returns the EOF offsets to hand to a
// freshly constructed Watcher so live tailing resumes past the replayed
// bytes.
func (v *ViewModel) SwitchSession(session sessionindex.Session) (map[string]int64, error) {
	v.ring.Clear()
	res, err := replay.Replay(replay.FromSessionIndex(session), replay.BaselineVisible, 20)
	if err != nil {
		return nil, err
	}
	for _, e := range res.Entries {
		v.ring.Push(e)
	}
	v.session = session
	v.fullHistoryLoaded = false
	v.fullLoadPending = false
	v.search = searchstate.Inactive()
	v.scroll = scrollmode.Live()
	return res.EOFOffsets, nil
}

// LoadFullHistory is step 3: re-replays the active session with no cap.
func (v *ViewModel) LoadFullHistory() error {
	v.ring.Clear()
	res, err := replay.Replay(replay.FromSessionIndex(v.session), replay.BaselineVisible, replay.All)
	if err != nil {
		return err
	}
	for _, e := range res.Entries {
		v.ring.Push(e)
	}
	v.fullHistoryLoaded = true
	return nil
}

// FullHistoryLoaded reports whether LoadFullHistory has run for the
// current session.
func (v *ViewModel) FullHistoryLoaded() bool { return v.fullHistoryLoaded }

// RequestFullHistoryLoad is step 3's entry point (spec §4.6's
// session_file_size gate): sessions at or under fullLoadWarnThreshold load
// immediately. Larger sessions arm a pending confirmation instead of
// loading; ConfirmFullHistoryLoad or CancelFullHistoryLoad resolves it.
func (v *ViewModel) RequestFullHistoryLoad() error {
	if v.fullHistoryLoaded || v.fullLoadPending {
		return nil
	}
	size, err := replay.SessionFileSize(replay.FromSessionIndex(v.session))
	if err != nil {
		return err
	}
	if size <= fullLoadWarnThreshold {
		return v.LoadFullHistory()
	}
	v.fullLoadPending = true
	v.fullLoadSizeBytes = size
	return nil
}

// ConfirmFullHistoryLoad resolves a pending confirmation by performing the
// load. A no-op if nothing is pending.
func (v *ViewModel) ConfirmFullHistoryLoad() error {
	if !v.fullLoadPending {
		return nil
	}
	v.fullLoadPending = false
	return v.LoadFullHistory()
}

// CancelFullHistoryLoad resolves a pending confirmation without loading.
func (v *ViewModel) CancelFullHistoryLoad() {
	v.fullLoadPending = false
}

// ApplyFilter atomically swaps in a new FilterState (spec §4.8's mutation
// flow) and drops any in-flight search/scroll state, per spec §4.9/§4.10
// ("on filter change... resets to Inactive" / "filter apply" exits scroll).
func (v *ViewModel) ApplyFilter(f filterstate.FilterState) {
	v.filter = f
	v.search = searchstate.Inactive()
	v.scroll = scrollmode.Live()
}

// Filter returns the active filter.
func (v *ViewModel) Filter() filterstate.FilterState { return v.filter }

// BeginSearch transitions SearchState Inactive -> Input.
func (v *ViewModel) BeginSearch() { v.search = v.search.BeginInput() }

// TypeSearch appends a rune to the in-progress query.
func (v *ViewModel) TypeSearch(r rune) { v.search = v.search.AppendRune(r) }

// BackspaceSearch removes the last rune of the in-progress query.
func (v *ViewModel) BackspaceSearch() { v.search = v.search.Backspace() }

// CancelSearch returns SearchState to Inactive.
func (v *ViewModel) CancelSearch() { v.search = v.search.Cancel() }

// ConfirmSearch confirms the in-progress query against the most recent
// render pass's visible lines and, when the query has a current match,
// arms a scroll request centered on it. A query with no match leaves
// scroll mode unchanged.
func (v *ViewModel) ConfirmSearch() {
	visible := v.visibleLines()
	v.search = v.search.Confirm(visible)
	if v.search.Mode == searchstate.ModeActive {
		if m, ok := v.search.CurrentMatch(); ok {
			v.scroll = scrollmode.RequestMatch(m.LineIndex)
		}
	}
}

// NextMatch/PrevMatch advance the search cursor and invalidate the scroll
// snapshot so the viewport can re-center (spec §4.9).
func (v *ViewModel) NextMatch() {
	v.search = v.search.Next()
	v.recenterOnCurrentMatch()
}

func (v *ViewModel) PrevMatch() {
	v.search = v.search.Prev()
	v.recenterOnCurrentMatch()
}

func (v *ViewModel) recenterOnCurrentMatch() {
	if m, ok := v.search.CurrentMatch(); ok {
		v.scroll = scrollmode.RequestMatch(m.LineIndex)
	}
}

// RequestScrollUp/Down/Home arm Pending scroll requests (spec §4.10 key
// handler: "never directly reads line counts").
func (v *ViewModel) RequestScrollUp(delta int)   { v.scroll = scrollmode.RequestUp(delta) }
func (v *ViewModel) RequestScrollDown(delta int) { v.scroll = scrollmode.RequestDown(delta) }
func (v *ViewModel) RequestScrollHome()          { v.scroll = scrollmode.RequestHome() }
func (v *ViewModel) ExitScroll()                 { v.scroll = scrollmode.Live() }

// renderLines applies FilterState.matches and render_content_blocks over the
// ring buffer, dropping ToolUse lines under hide_tool_calls. Implements
// spec §4.11 step 4.
func (v *ViewModel) renderLines() []render.Line {
	var lines []render.Line
	v.ring.IterFiltered(v.filter.Matches, func(e logentry.LogEntry) bool {
		ctx := render.Context{
			AgentPrefix: e.AgentSlugSuffix(),
			Timestamp:   e.Timestamp,
			Role:        e.Role,
		}
		for _, l := range render.RenderContentBlocks(e.Content, ctx) {
			if !v.filter.IsToolLineVisible(l) {
				continue
			}
			lines = append(lines, l)
		}
		return true
	})
	return lines
}

// visibleLines adapts the most recent render pass into searchstate's input
// shape, using each line's Body as the searchable text. Non-text lines
// (ToolUse summaries, Unknown placeholders) are still searchable over
// their own summary text, matching "visible (post-filter) rendered lines
// only" (spec §4.9) rather than text-only lines.
func (v *ViewModel) visibleLines() []searchstate.VisibleLine {
	out := make([]searchstate.VisibleLine, 0, len(v.lines))
	for i, l := range v.lines {
		out = append(out, searchstate.VisibleLine{Index: i, Body: searchableBody(l)})
	}
	return out
}

func searchableBody(l render.Line) string {
	switch l.Kind {
	case render.KindToolUse:
		return l.Summary
	case render.KindUnknown:
		return l.BlockType
	default:
		return l.Body
	}
}

// Tick runs one full frame per spec §4.11 steps 4-7: render, rescan search,
// resolve scroll, and return the flattened result for the drawing layer.
func (v *ViewModel) Tick(innerWidth, viewportHeight int) Frame {
	v.lines = v.renderLines()

	if v.search.Mode == searchstate.ModeActive {
		v.search = v.search.Rescan(v.visibleLines())
	}

	plain := make([]string, len(v.lines))
	for i, l := range v.lines {
		plain[i] = searchableBody(l)
	}
	v.scroll = v.scroll.Resolve(plain, innerWidth, viewportHeight)

	frame := Frame{
		Lines:                    v.lines,
		Filter:                   v.filter,
		Search:                   v.search,
		Scroll:                   v.scroll,
		FullLoadPending:          v.fullLoadPending,
		FullLoadPendingSizeBytes: v.fullLoadSizeBytes,
	}
	if m, ok := v.search.CurrentMatch(); ok {
		mCopy := m
		frame.CurrentMatch = &mCopy
	}
	return frame
}

// RingBuffer exposes the underlying ring buffer for diagnostics/tests; the
// drawing layer itself should only ever consume Tick's Frame.
func (v *ViewModel) RingBuffer() *ringbuffer.RingBuffer { return v.ring }
