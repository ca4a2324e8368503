// Package scrollmode implements the two-phase scroll state machine
// described in spec §4.10: live-tail (Inactive), a recorded-but-unapplied
// Pending request, and a frozen Active snapshot. Grounded on the teacher's
// scroll.go (computeLineOffsets' wrap-aware line accounting,
// ensureCursorVisible/clampListScroll's clamping arithmetic), restructured
// into the explicit Pending->Active handshake the spec requires: the
// teacher's key handler mutates m.scroll directly because it always has
// width/height in scope on the same goroutine, but this package's key
// handler runs before a render pass has computed wrap-dependent totals, so
// it can only record intent.
package scrollmode

import (
	"github.com/mattn/go-runewidth"
)

// Direction names a scroll request's intent, recorded while Pending.
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirHome
	DirMatch // "jump to current search match" — resolved against a line index, not a delta
)

// ScrollOffMatch is the scroll-off applied when centering on a search
// match (spec §4.10: "subtract a small scroll-off (3-5 visual lines)").
const ScrollOffMatch = 4

// Mode tags which of the three states is current.
type Mode int

const (
	ModeInactive Mode = iota
	ModePending
	ModeActive
)

// pendingRequest records intent without needing to know the wrap width.
type pendingRequest struct {
	direction Direction
	delta     int // visual-line delta; meaningless for DirHome/DirMatch
	matchLine int // logical line index; only meaningful for DirMatch
}

// ScrollMode holds whichever of the three states is current.
type ScrollMode struct {
	mode    Mode
	pending pendingRequest

	// Active fields, frozen at the moment Pending->Active materialized.
	frozenLines      []string
	totalVisualLines int
	innerWidth       int
	visualOffset     int
}

// Inactive is the default live-tail state.
func Inactive() ScrollMode { return ScrollMode{mode: ModeInactive} }

// Mode reports the current state.
func (s ScrollMode) Mode() Mode { return s.mode }

// VisualOffset returns the current Active viewport offset; 0 outside Active.
func (s ScrollMode) VisualOffset() int { return s.visualOffset }

// FrozenLines returns the snapshot taken when Pending became Active; nil
// outside Active.
func (s ScrollMode) FrozenLines() []string { return s.frozenLines }

// TotalVisualLines returns the snapshot's wrap-aware line count; 0 outside
// Active.
func (s ScrollMode) TotalVisualLines() int { return s.totalVisualLines }

// RequestUp arms a Pending request for k/Up (delta -1), from any mode.
func RequestUp(delta int) ScrollMode {
	return ScrollMode{mode: ModePending, pending: pendingRequest{direction: DirUp, delta: -delta}}
}

// RequestDown arms a Pending request for j/Down (delta +1).
func RequestDown(delta int) ScrollMode {
	return ScrollMode{mode: ModePending, pending: pendingRequest{direction: DirDown, delta: delta}}
}

// RequestHome arms a Pending request for g/Home (visual_offset := 0).
func RequestHome() ScrollMode {
	return ScrollMode{mode: ModePending, pending: pendingRequest{direction: DirHome}}
}

// RequestMatch arms a Pending request to center on logical line index L,
// the "scroll to current search match" behavior (spec §4.10).
func RequestMatch(logicalLine int) ScrollMode {
	return ScrollMode{mode: ModePending, pending: pendingRequest{direction: DirMatch, matchLine: logicalLine}}
}

// Live exits to Inactive (End/G/Esc/session-switch/filter-apply), dropping
// any snapshot.
func Live() ScrollMode { return Inactive() }

// displayWidth wraps go-runewidth so the rest of this package never calls
// it directly, matching the single-seam style the teacher uses for its
// lipgloss.Width wrapper in render.go's spaceBetween.
func displayWidth(s string) int { return runewidth.StringWidth(s) }

// visualLineCount returns ceil(display_width(line) / innerWidth), the unit
// spec §4.10 sums over logical lines to get total_visual_lines.
func visualLineCount(line string, innerWidth int) int {
	if innerWidth <= 0 {
		return 1
	}
	w := displayWidth(line)
	if w == 0 {
		return 1
	}
	return (w + innerWidth - 1) / innerWidth
}

// visualLineStart returns the visual offset at which logical line L begins,
// i.e. the sum of ceil(display_width(line_i)/innerWidth) for i in [0, L).
func visualLineStart(lines []string, innerWidth int, l int) int {
	total := 0
	for i := 0; i < l && i < len(lines); i++ {
		total += visualLineCount(lines[i], innerWidth)
	}
	return total
}

// totalVisualLines sums visualLineCount over every line.
func totalVisualLines(lines []string, innerWidth int) int {
	total := 0
	for _, l := range lines {
		total += visualLineCount(l, innerWidth)
	}
	return total
}

// Resolve implements spec §4.10/§4.11 step 6: if Pending, snapshot the
// current frame's rendered lines and transition to Active, seeding
// visual_offset per the pending direction; if already Active, the caller
// should use Advance instead to apply further deltas against the existing
// snapshot. Called once per render frame.
func (s ScrollMode) Resolve(lines []string, innerWidth, viewportHeight int) ScrollMode {
	if s.mode != ModePending {
		return s
	}

	total := totalVisualLines(lines, innerWidth)
	next := ScrollMode{
		mode:             ModeActive,
		frozenLines:      lines,
		totalVisualLines: total,
		innerWidth:       innerWidth,
	}

	switch s.pending.direction {
	case DirHome:
		next.visualOffset = 0
	case DirMatch:
		start := visualLineStart(lines, innerWidth, s.pending.matchLine)
		next.visualOffset = start - ScrollOffMatch
	default:
		maxOffset := clampMax(total, viewportHeight)
		next.visualOffset = clamp(maxOffset, maxOffset+s.pending.delta)
	}
	next.visualOffset = clamp(clampMax(total, viewportHeight), next.visualOffset)
	return next
}

// Advance applies a further delta while already Active, e.g. repeated j/k
// presses without leaving scroll mode. No-op outside Active.
func (s ScrollMode) Advance(delta int, viewportHeight int) ScrollMode {
	if s.mode != ModeActive {
		return s
	}
	maxOffset := clampMax(s.totalVisualLines, viewportHeight)
	s.visualOffset = clamp(maxOffset, s.visualOffset+delta)
	return s
}

// JumpHome sets visual_offset to 0 while Active (g/Home without leaving
// scroll mode first).
func (s ScrollMode) JumpHome() ScrollMode {
	if s.mode != ModeActive {
		return s
	}
	s.visualOffset = 0
	return s
}

// JumpToMatch re-centers the existing Active snapshot on logical line L
// without re-snapshotting (the frozen lines and total stay fixed; only the
// offset moves).
func (s ScrollMode) JumpToMatch(logicalLine, viewportHeight int) ScrollMode {
	if s.mode != ModeActive {
		return s
	}
	start := visualLineStart(s.frozenLines, s.innerWidth, logicalLine)
	maxOffset := clampMax(s.totalVisualLines, viewportHeight)
	s.visualOffset = clamp(maxOffset, start-ScrollOffMatch)
	return s
}

func clampMax(total, viewportHeight int) int {
	m := total - viewportHeight
	if m < 0 {
		return 0
	}
	return m
}

func clamp(maxOffset, v int) int {
	if v < 0 {
		return 0
	}
	if v > maxOffset {
		return maxOffset
	}
	return v
}
