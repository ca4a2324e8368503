package watcher_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kenfdev/cctail/internal/cctail/watcher"
)

func waitForEvent(t *testing.T, events <-chan watcher.Event, kind watcher.Kind, timeout time.Duration) watcher.Event {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("events channel closed while waiting for kind %v", kind)
			}
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event kind %v", kind)
		}
	}
}

func TestWatcher_PicksUpAppendedEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s1.jsonl")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	w := watcher.New(dir, nil)
	go w.Run()
	defer w.Shutdown()

	line := `{"type":"user","sessionId":"s1","timestamp":"2025-01-01T00:00:00Z"}` + "\n"
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(line)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	ev := waitForEvent(t, w.Events(), watcher.KindEntry, 5*time.Second)
	require.Equal(t, "s1", ev.Entry.SessionID)
	require.Equal(t, path, ev.Path)
}

func TestWatcher_NewFileDiscovered(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed.jsonl")
	require.NoError(t, os.WriteFile(seed, nil, 0o644))

	w := watcher.New(dir, nil)
	go w.Run()
	defer w.Shutdown()

	newPath := filepath.Join(dir, "s2.jsonl")
	line := `{"type":"user","sessionId":"s2","timestamp":"2025-01-01T00:00:00Z"}` + "\n"
	require.NoError(t, os.WriteFile(newPath, []byte(line), 0o644))

	ev := waitForEvent(t, w.Events(), watcher.KindNewFile, 5*time.Second)
	require.Equal(t, newPath, ev.Path)

	entryEv := waitForEvent(t, w.Events(), watcher.KindEntry, 5*time.Second)
	require.Equal(t, "s2", entryEv.Entry.SessionID)
}

func TestWatcher_SeedOffsetResumesPastReplayedBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s3.jsonl")
	already := `{"type":"user","sessionId":"s3","timestamp":"2025-01-01T00:00:00Z"}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(already), 0o644))

	w := watcher.New(dir, map[string]int64{path: int64(len(already))})
	go w.Run()
	defer w.Shutdown()

	fresh := `{"type":"assistant","sessionId":"s3","timestamp":"2025-01-01T00:00:01Z"}` + "\n"
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(fresh)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	ev := waitForEvent(t, w.Events(), watcher.KindEntry, 5*time.Second)
	require.NotEqual(t, already, string(ev.Entry.Raw), "watcher replayed the pre-seeded entry instead of resuming past it")
}

func TestWatcher_ShutdownClosesEventsChannel(t *testing.T) {
	dir := t.TempDir()
	w := watcher.New(dir, nil)
	go w.Run()

	w.Shutdown()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-w.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("events channel never closed after Shutdown")
		}
	}
}
