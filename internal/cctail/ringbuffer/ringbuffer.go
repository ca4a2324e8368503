// Package ringbuffer implements the byte-budget FIFO of LogEntry described
// in spec §4.7: amortized O(1) push, O(1)-per-evicted-entry eviction, and
// cheap ordered/filtered iteration. No direct teacher analogue exists (the
// teacher keeps an unbounded slice for a session's lifetime); grounded
// instead on the general bounded-catch-up-buffer shape in
// other_examples/logreader's StreamBufferSize, generalized from a fixed
// entry count to a byte budget per spec §4.7/§9.
package ringbuffer

import "github.com/kenfdev/cctail/internal/cctail/logentry"

// DefaultBudget is the default byte budget named in spec §4.7.
const DefaultBudget = 50 * 1024 * 1024

// RingBuffer is a FIFO of LogEntry bounded by total estimated byte weight.
// Implemented as a slice with a head index rather than a circular array:
// pushes append, evictions advance the head, and the backing array is
// compacted periodically so memory doesn't grow unbounded across a long
// session. This keeps the same amortized-O(1) bounds as a true ring while
// staying simple enough to reason about alongside the teacher's
// straight-slice style.
type RingBuffer struct {
	budget   int64
	entries  []logentry.LogEntry
	head     int
	byteSize int64
}

// New creates a RingBuffer with the given byte budget. A non-positive budget
// falls back to DefaultBudget.
func New(budget int64) *RingBuffer {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &RingBuffer{budget: budget}
}

// weight estimates an entry's contribution to byte_size(), per spec §4.7.
// Uses the retained raw JSONL line length (DESIGN.md Open Questions) —
// cheap and deterministic for a given entry.
func weight(e logentry.LogEntry) int64 {
	if len(e.Raw) > 0 {
		return int64(len(e.Raw))
	}
	return 64 // entries without raw bytes (e.g. synthesized) still cost something
}

// Push appends entry, evicting the oldest entries until it fits the budget.
// If entry's own weight exceeds the budget, the buffer retains only that
// entry (§4.7).
func (r *RingBuffer) Push(entry logentry.LogEntry) {
	w := weight(entry)

	if w > r.budget {
		r.entries = []logentry.LogEntry{entry}
		r.head = 0
		r.byteSize = w
		return
	}

	r.entries = append(r.entries, entry)
	r.byteSize += w

	for r.byteSize > r.budget && r.head < len(r.entries) {
		r.byteSize -= weight(r.entries[r.head])
		r.entries[r.head] = logentry.LogEntry{} // drop reference for GC
		r.head++
	}

	r.compactIfSparse()
}

// compactIfSparse reclaims the evicted prefix once it dominates the slice, so
// a long-running session doesn't grow its backing array without bound.
func (r *RingBuffer) compactIfSparse() {
	if r.head == 0 {
		return
	}
	if r.head < 1024 && r.head*2 < len(r.entries) {
		return
	}
	remaining := make([]logentry.LogEntry, len(r.entries)-r.head)
	copy(remaining, r.entries[r.head:])
	r.entries = remaining
	r.head = 0
}

// ByteSize returns the current total estimated weight.
func (r *RingBuffer) ByteSize() int64 { return r.byteSize }

// Len returns the number of live entries.
func (r *RingBuffer) Len() int { return len(r.entries) - r.head }

// Clear empties the buffer, e.g. on session switch or full-history load
// (spec §3 lifecycle).
func (r *RingBuffer) Clear() {
	r.entries = nil
	r.head = 0
	r.byteSize = 0
}

// Iter calls fn for each live entry, oldest first. fn returning false stops
// iteration early.
func (r *RingBuffer) Iter(fn func(logentry.LogEntry) bool) {
	for i := r.head; i < len(r.entries); i++ {
		if !fn(r.entries[i]) {
			return
		}
	}
}

// IterFiltered calls fn for each live entry matching pred, oldest first.
func (r *RingBuffer) IterFiltered(pred func(logentry.LogEntry) bool, fn func(logentry.LogEntry) bool) {
	r.Iter(func(e logentry.LogEntry) bool {
		if !pred(e) {
			return true
		}
		return fn(e)
	})
}

// Snapshot returns a copy of all live entries, oldest first. Intended for
// callers (e.g. ViewModel's render pass) that want a stable slice to range
// over rather than a callback.
func (r *RingBuffer) Snapshot() []logentry.LogEntry {
	out := make([]logentry.LogEntry, 0, r.Len())
	r.Iter(func(e logentry.LogEntry) bool {
		out = append(out, e)
		return true
	})
	return out
}
