package ringbuffer_test

import (
	"testing"

	"github.com/kenfdev/cctail/internal/cctail/logentry"
	"github.com/kenfdev/cctail/internal/cctail/ringbuffer"
)

func entryOfSize(n int) logentry.LogEntry {
	return logentry.LogEntry{Raw: make([]byte, n)}
}

// TestRingBuffer_SixthPushEvicts mirrors spec §8 scenario 3: a budget sized
// for 5 unit-weight entries, pushing a 6th evicts the oldest down to len()==5.
func TestRingBuffer_SixthPushEvicts(t *testing.T) {
	rb := ringbuffer.New(5)
	for i := 0; i < 6; i++ {
		rb.Push(entryOfSize(1))
	}
	if rb.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", rb.Len())
	}
	if rb.ByteSize() != 5 {
		t.Fatalf("ByteSize() = %d, want 5", rb.ByteSize())
	}
}

// TestRingBuffer_BudgetInvariant is spec §8 property 1: after every push,
// byte_size() never exceeds the configured budget.
func TestRingBuffer_BudgetInvariant(t *testing.T) {
	budget := int64(1000)
	rb := ringbuffer.New(budget)
	sizes := []int{10, 999, 1, 500, 500, 1, 2000, 3, 4, 5, 6, 7}
	for _, n := range sizes {
		rb.Push(entryOfSize(n))
		if rb.ByteSize() > budget && int64(n) <= budget {
			t.Fatalf("after pushing size %d, ByteSize() = %d exceeds budget %d", n, rb.ByteSize(), budget)
		}
	}
}

func TestRingBuffer_OversizedEntryReplacesAll(t *testing.T) {
	rb := ringbuffer.New(10)
	rb.Push(entryOfSize(5))
	rb.Push(entryOfSize(3))
	rb.Push(entryOfSize(50))
	if rb.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (oversized entry should evict everything)", rb.Len())
	}
	if rb.ByteSize() != 50 {
		t.Fatalf("ByteSize() = %d, want 50", rb.ByteSize())
	}
}

func TestRingBuffer_IterOrderIsOldestFirst(t *testing.T) {
	rb := ringbuffer.New(1000)
	for i := 1; i <= 3; i++ {
		e := entryOfSize(1)
		e.SessionID = string(rune('a' + i - 1))
		rb.Push(e)
	}
	var order []string
	rb.Iter(func(e logentry.LogEntry) bool {
		order = append(order, e.SessionID)
		return true
	})
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("order = %v, want [a b c]", order)
	}
}

func TestRingBuffer_IterFiltered(t *testing.T) {
	rb := ringbuffer.New(1000)
	rb.Push(logentry.LogEntry{Raw: []byte("x"), EntryType: logentry.TypeUser})
	rb.Push(logentry.LogEntry{Raw: []byte("y"), EntryType: logentry.TypeAssistant})
	rb.Push(logentry.LogEntry{Raw: []byte("z"), EntryType: logentry.TypeUser})

	var count int
	rb.IterFiltered(func(e logentry.LogEntry) bool {
		return e.EntryType == logentry.TypeUser
	}, func(e logentry.LogEntry) bool {
		count++
		return true
	})
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
}

func TestRingBuffer_ClearEmpties(t *testing.T) {
	rb := ringbuffer.New(1000)
	rb.Push(entryOfSize(10))
	rb.Clear()
	if rb.Len() != 0 || rb.ByteSize() != 0 {
		t.Fatalf("after Clear: Len()=%d ByteSize()=%d, want 0,0", rb.Len(), rb.ByteSize())
	}
}

func TestRingBuffer_SnapshotIsStableCopy(t *testing.T) {
	rb := ringbuffer.New(1000)
	rb.Push(entryOfSize(1))
	snap := rb.Snapshot()
	rb.Push(entryOfSize(1))
	if len(snap) != 1 {
		t.Fatalf("snapshot mutated after later push: len = %d, want 1", len(snap))
	}
}
