// Package searchstate implements the three-mode search machine described
// in spec §4.9: Inactive / Input / Active, with case-insensitive substring
// matching whose match ranges are always valid UTF-8 boundaries in the
// *original* (not lowered) text. No pack example performs this exact
// lower-to-original byte remapping; the offset-index algorithm here is
// built directly from the spec's description (§4.9, §9 "UTF-8-safe
// search"), since naive reuse of byte offsets from a lowered copy can
// slice a multi-byte rune in half whenever lowering changes a string's
// byte length (e.g. under Go's strings.ToLower `İ` -> `i`, two bytes to
// one, and `ẞ` -> `ß`, three bytes to two). Ported into Go idiom: explicit
// struct variants behind a Mode enum rather than tagged unions, matching
// how the rest of this module encodes spec state machines (see
// scrollmode.Mode for the same shape).
package searchstate

import (
	"sort"
	"strings"
)

// Mode tags which of the three states SearchState currently holds.
type Mode int

const (
	ModeInactive Mode = iota
	ModeInput
	ModeActive
)

// Match is one located occurrence: the rendered-line index it was found on
// and the byte range into that line's *original* (unlowered) text.
type Match struct {
	LineIndex int
	Start     int
	End       int
}

// SearchState holds whichever of the three modes is current. Fields not
// relevant to Mode are zero.
type SearchState struct {
	Mode    Mode
	Buf     string // ModeInput: the query being typed
	Query   string // ModeActive: the confirmed query
	Matches []Match
	Current int // index into Matches; meaningless if len(Matches) == 0
}

// Inactive returns the zero/no-overlay state.
func Inactive() SearchState {
	return SearchState{Mode: ModeInactive}
}

// BeginInput transitions Inactive -> Input on `/`.
func (s SearchState) BeginInput() SearchState {
	return SearchState{Mode: ModeInput, Buf: ""}
}

// AppendRune appends a printable key to the input buffer.
func (s SearchState) AppendRune(r rune) SearchState {
	if s.Mode != ModeInput {
		return s
	}
	s.Buf += string(r)
	return s
}

// Backspace removes the last rune from the input buffer.
func (s SearchState) Backspace() SearchState {
	if s.Mode != ModeInput || s.Buf == "" {
		return s
	}
	runes := []rune(s.Buf)
	s.Buf = string(runes[:len(runes)-1])
	return s
}

// Cancel returns to Inactive from Input or Active, clearing highlights.
func (s SearchState) Cancel() SearchState {
	return Inactive()
}

// VisibleLine is the minimal shape Confirm needs from a rendered line: its
// index in the currently-visible (post-filter) list and its searchable body.
type VisibleLine struct {
	Index int
	Body  string
}

// Confirm transitions Input -> Active by scanning every visible line for
// all non-overlapping case-insensitive occurrences of the buffered query.
// An empty query confirms back to Inactive, per spec §4.9.
func (s SearchState) Confirm(lines []VisibleLine) SearchState {
	if s.Mode != ModeInput {
		return s
	}
	if s.Buf == "" {
		return Inactive()
	}
	return activeFor(s.Buf, lines)
}

func activeFor(query string, lines []VisibleLine) SearchState {
	var matches []Match
	for _, l := range lines {
		for _, r := range FindAll(l.Body, query) {
			matches = append(matches, Match{LineIndex: l.Index, Start: r.Start, End: r.End})
		}
	}
	next := SearchState{Mode: ModeActive, Query: query, Matches: matches}
	if len(matches) > 0 {
		next.Current = 0
	}
	return next
}

// Rescan rebuilds Matches from the current frame's visible lines,
// preserving the current match's identity (line_index, byte_range) across
// the rescan when it still exists, per spec §4.11 step 5.
func (s SearchState) Rescan(lines []VisibleLine) SearchState {
	if s.Mode != ModeActive {
		return s
	}
	var prevIdentity *Match
	if len(s.Matches) > 0 && s.Current < len(s.Matches) {
		m := s.Matches[s.Current]
		prevIdentity = &m
	}

	next := activeFor(s.Query, lines)
	if prevIdentity != nil {
		for i, m := range next.Matches {
			if m == *prevIdentity {
				next.Current = i
				return next
			}
		}
	}
	return next
}

// Next advances Current forward, wrapping mod len(Matches).
func (s SearchState) Next() SearchState {
	if s.Mode != ModeActive || len(s.Matches) == 0 {
		return s
	}
	s.Current = (s.Current + 1) % len(s.Matches)
	return s
}

// Prev retreats Current, wrapping mod len(Matches).
func (s SearchState) Prev() SearchState {
	if s.Mode != ModeActive || len(s.Matches) == 0 {
		return s
	}
	s.Current = (s.Current - 1 + len(s.Matches)) % len(s.Matches)
	return s
}

// CurrentMatch returns the match Current points to, if any.
func (s SearchState) CurrentMatch() (Match, bool) {
	if s.Mode != ModeActive || len(s.Matches) == 0 {
		return Match{}, false
	}
	return s.Matches[s.Current], true
}

// byteRange is a (start, end) pair into the original text, exported as
// Match-shaped but without a line index since FindAll operates on a
// single string.
type byteRange struct {
	Start, End int
}

// offsetPair is one entry of the lower->orig index: lowerOffset is this
// pair's byte position in the lowered string, origOffset is the
// corresponding byte position in the original string. Built once per call
// by walking both strings rune-by-rune in lockstep (every rune has exactly
// one position in each string, even though byte lengths can differ).
type offsetPair struct {
	lowerOffset int
	origOffset  int
}

// FindAll returns every non-overlapping case-insensitive occurrence of
// query in body, with byte ranges valid in body's own (original) encoding.
// Implements spec §4.9's UTF-8-safe matcher: search happens in lowered
// space, then every match boundary is mapped back through an explicit
// sorted offset index rather than reused directly, which is what makes
// this safe when lowering changes a rune's byte length.
func FindAll(body, query string) []byteRange {
	if query == "" {
		return nil
	}

	loweredBody := strings.ToLower(body)
	loweredQuery := strings.ToLower(query)
	if loweredQuery == "" {
		return nil
	}

	index := buildOffsetIndex(body)

	var ranges []byteRange
	searchFrom := 0
	for {
		rel := strings.Index(loweredBody[searchFrom:], loweredQuery)
		if rel < 0 {
			break
		}
		lowerStart := searchFrom + rel
		lowerEnd := lowerStart + len(loweredQuery)

		origStart := mapOffset(index, lowerStart)
		origEnd := mapOffset(index, lowerEnd)
		ranges = append(ranges, byteRange{Start: origStart, End: origEnd})

		searchFrom = lowerEnd
		if searchFrom > len(loweredBody) {
			break
		}
	}
	return ranges
}

// buildOffsetIndex walks body and its lowered form in lockstep, one rune
// at a time, recording where each rune begins in both encodings. The
// result is sorted by construction (both offsets are monotonically
// non-decreasing), so mapOffset can binary-search it directly.
func buildOffsetIndex(body string) []offsetPair {
	pairs := make([]offsetPair, 0, len(body)+1)
	lowerOffset := 0
	// range over a string already yields each rune's byte offset in the
	// original encoding for free; pair it with the running length of the
	// lowered encoding built up so far.
	for origOffset, r := range body {
		pairs = append(pairs, offsetPair{lowerOffset: lowerOffset, origOffset: origOffset})
		lowerOffset += len(strings.ToLower(string(r)))
	}
	// Sentinel covering the end of both strings, so a match ending exactly
	// at the string's end maps cleanly.
	pairs = append(pairs, offsetPair{lowerOffset: lowerOffset, origOffset: len(body)})
	return pairs
}

// mapOffset finds the orig_offset whose corresponding lower_offset exactly
// matches target via binary search over the sorted index.
func mapOffset(index []offsetPair, target int) int {
	i := sort.Search(len(index), func(i int) bool {
		return index[i].lowerOffset >= target
	})
	if i < len(index) && index[i].lowerOffset == target {
		return index[i].origOffset
	}
	// target fell strictly between two runes' lowered starts -- can only
	// happen if the lowered form of one rune is itself multi-byte and
	// target points into the middle of it, which never occurs for a
	// match boundary found via strings.Index on whole lowered runes. The
	// closest preceding entry is the correct, UTF-8-safe fallback.
	if i > 0 {
		return index[i-1].origOffset
	}
	return 0
}
