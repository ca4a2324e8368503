// Package watcher implements the filesystem-watching domain described in
// spec §4.5: a recursive native watcher rooted at the project directory,
// exclusive per-file FileTail ownership, and a bounded single-producer
// channel of decoded LogEntry values. Grounded on the teacher's watcher.go
// sessionWatcher (fsnotify setup, debounced event loop, channel
// handoff), generalized from a single session file plus team-session
// discovery to an arbitrary, growing set of `*.jsonl` files under one
// project directory, and from Bubble Tea Cmd wrapping to a plain channel
// the ViewModel drains directly (spec §4.8 step 1).
package watcher

import (
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kenfdev/cctail/internal/cctail/filetail"
	"github.com/kenfdev/cctail/internal/cctail/logentry"
)

// debounce coalesces rapid writes (e.g. a single tool-call round trip
// touching a file several times) into one poll, matching the teacher's
// watcherDebounce constant.
const debounce = 300 * time.Millisecond

// eventChanCapacity bounds in-flight entries (spec §4.5 backpressure: the
// watcher blocks on send once this fills, rather than dropping).
const eventChanCapacity = 256

// Kind distinguishes the event variants named in spec §6.
type Kind int

const (
	KindEntry Kind = iota
	KindNewFile
	KindTruncated
	KindParseError
	KindShutdown
)

// Event is the single message type published on Watcher.Events(). Only the
// fields relevant to Kind are populated.
type Event struct {
	Kind  Kind
	Path  string
	Entry logentry.LogEntry
	Err   error
}

// Watcher owns a native recursive filesystem watch over a project
// directory, filters to `*.jsonl` paths, and maintains exclusive per-file
// FileTail state.
type Watcher struct {
	projectDir string
	events     chan Event
	errs       chan error
	done       chan struct{}
	shutdown   atomic.Bool

	mu      sync.Mutex
	tails   map[string]*filetail.FileTail
	timers  map[string]*time.Timer
	fsw     *fsnotify.Watcher
	signals chan string // debounced poll trigger, one pending path at a time is fine to coalesce
}

// New creates a Watcher rooted at projectDir. seedOffsets supplies the
// byte offset to resume each already-replayed file at (spec §4.6's
// eof_offset handoff); files not present in seedOffsets start at 0, i.e.
// subagent files discovered after startup are tailed from the top.
func New(projectDir string, seedOffsets map[string]int64) *Watcher {
	w := &Watcher{
		projectDir: projectDir,
		events:     make(chan Event, eventChanCapacity),
		errs:       make(chan error, 8),
		done:       make(chan struct{}),
		tails:      make(map[string]*filetail.FileTail),
		timers:     make(map[string]*time.Timer),
		signals:    make(chan string, 64),
	}
	for path, offset := range seedOffsets {
		w.tails[path] = filetail.New(path, offset)
	}
	return w
}

// Events returns the channel Watcher publishes on. Closed once Run exits.
func (w *Watcher) Events() <-chan Event { return w.events }

// Errs returns the channel non-fatal watcher-level errors are reported on
// (fsnotify setup/internal errors, not per-file FileTail errors, which are
// surfaced as KindParseError/diagnostics on Events()).
func (w *Watcher) Errs() <-chan error { return w.errs }

// Shutdown sets the atomic flag observed by Run between events (spec §4.5
// cancellation). Safe to call multiple times or concurrently with Run.
func (w *Watcher) Shutdown() {
	w.shutdown.Store(true)
	select {
	case <-w.done:
	default:
		close(w.done)
	}
}

// Run drives the fsnotify event loop until Shutdown is called. Intended to
// be invoked as the sole owner of the watcher domain (spec §5: "one or more
// tasks on an async runtime"), run in its own goroutine.
func (w *Watcher) Run() {
	defer close(w.events)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.reportErr(err)
		return
	}
	defer fsw.Close()

	if err := fsw.Add(w.projectDir); err != nil {
		w.reportErr(err)
		return
	}
	if err := w.addExistingSubagentDirs(fsw); err != nil {
		w.reportErr(err)
	}

	w.mu.Lock()
	w.fsw = fsw
	seeded := make([]string, 0, len(w.tails))
	for path := range w.tails {
		seeded = append(seeded, path)
	}
	w.mu.Unlock()
	// Poll every seeded file immediately so entries written between replay
	// and watcher startup aren't missed. pollPath takes w.mu itself.
	for _, path := range seeded {
		w.pollPath(path)
	}

	for {
		if w.shutdown.Load() {
			return
		}
		select {
		case <-w.done:
			return

		case path := <-w.signals:
			if w.shutdown.Load() {
				return
			}
			w.pollPath(path)

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(fsw, event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.reportErr(err)
		}
	}
}

func (w *Watcher) reportErr(err error) {
	select {
	case w.errs <- err:
	default:
	}
}

// addExistingSubagentDirs watches every `<session>/subagents/` directory
// already present, since fsnotify's recursive watch is emulated by walking
// and watching each directory individually (the teacher only ever watches
// the flat project dir; the spec's "recursive" requirement needs this
// extra layer for subagent subdirectories).
func (w *Watcher) addExistingSubagentDirs(fsw *fsnotify.Watcher) error {
	entries, err := filepathGlobDirs(w.projectDir)
	if err != nil {
		return err
	}
	var firstErr error
	for _, dir := range entries {
		if err := fsw.Add(dir); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// handleFSEvent classifies one fsnotify event and, for relevant writes,
// (re)arms a per-path debounce timer that eventually sends on w.signals.
func (w *Watcher) handleFSEvent(fsw *fsnotify.Watcher, event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		info, err := statIsDir(event.Name)
		if err == nil && info {
			// A new subagents/ directory: watch it too, so files created
			// inside it are observed (spec §4.5's new-path discovery).
			_ = fsw.Add(event.Name)
			return
		}
	}

	if !matchesJSONL(event.Name) {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	w.mu.Lock()
	isNew := w.tails[event.Name] == nil
	if isNew {
		w.tails[event.Name] = filetail.New(event.Name, 0)
	}
	if t, ok := w.timers[event.Name]; ok {
		t.Stop()
	}
	path := event.Name
	w.timers[path] = time.AfterFunc(debounce, func() { w.sendSignal(path) })
	w.mu.Unlock()

	if isNew {
		select {
		case w.events <- Event{Kind: KindNewFile, Path: path}:
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) sendSignal(path string) {
	select {
	case w.signals <- path:
	default:
		// Channel full: this wakeup is dropped, and the path's unread bytes
		// are read on its next filesystem event (coalesced latency, spec §4.5).
	}
}

// pollPath drains a single file's FileTail to EOF, decoding and publishing
// each complete line, per spec §4.5's per-event algorithm.
func (w *Watcher) pollPath(path string) {
	w.mu.Lock()
	tail, ok := w.tails[path]
	w.mu.Unlock()
	if !ok {
		tail = filetail.New(path, 0)
		w.mu.Lock()
		w.tails[path] = tail
		w.mu.Unlock()
	}

	lines, diags, err := tail.Poll()
	if err != nil {
		switch {
		case errors.Is(err, filetail.ErrFileMissing):
			// Non-fatal; retried on next event (spec §4.4 edge cases).
			return
		case errors.Is(err, filetail.ErrPermissionDenied):
			w.publish(Event{Kind: KindParseError, Path: path, Err: err})
			return
		default:
			w.publish(Event{Kind: KindParseError, Path: path, Err: err})
			return
		}
	}

	for _, d := range diags {
		if d.Kind == "Truncated" {
			w.publish(Event{Kind: KindTruncated, Path: path})
		}
		// LineTooLong is reported implicitly: the oversized line is simply
		// dropped by FileTail and never reaches decode.
	}

	lineNo := 0
	for _, line := range lines {
		lineNo++
		entry, err := logentry.DecodeLine(line.Bytes, path, lineNo)
		if err != nil {
			w.publish(Event{Kind: KindParseError, Path: path, Err: err})
			continue
		}
		w.publish(Event{Kind: KindEntry, Path: path, Entry: entry})
	}
}

// publish blocks on send when the channel is full, per spec §4.5's
// backpressure requirement (never drop silently), but still observes
// shutdown so Run doesn't leak blocked forever on a dead consumer.
func (w *Watcher) publish(ev Event) {
	select {
	case w.events <- ev:
	case <-w.done:
	}
}
