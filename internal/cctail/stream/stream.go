// Package stream implements the headless Streamer named in spec §4.12: the
// non-interactive sibling of ViewModel that replays a session's main file
// and its subagent files, then live-tails them, writing formatted lines to
// a byte sink. Grounded on the
// teacher's icons.go (the prefix-per-role icon table, generalized here
// into parallel ASCII/emoji tables selected by TTY detection) and the same
// Replay/FileTail read path ViewModel uses, stripped of the ring buffer
// and scroll/search machinery a non-interactive consumer has no use for.
package stream

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/kenfdev/cctail/internal/cctail/filetail"
	"github.com/kenfdev/cctail/internal/cctail/logentry"
	"github.com/kenfdev/cctail/internal/cctail/render"
	"github.com/kenfdev/cctail/internal/cctail/replay"
	"github.com/kenfdev/cctail/internal/cctail/sessionindex"
)

// pollInterval is how often Run drives FileTail.Poll during the live
// phase. The teacher relies on fsnotify for this; Streamer intentionally
// stays dependency-light (a single file, not a project tree) and polls
// instead, matching spec §4.12's "a FileTail-driven loop" wording rather
// than requiring a full Watcher.
const pollInterval = 250 * time.Millisecond

// prefixes is the line-prefix table for one presentation mode (spec §4.12:
// "TTY detection selects either emoji+ANSI (interactive) or ASCII-only
// (piped) line prefixes; both formats are stable").
type prefixes struct {
	user     string
	assistant string
	system   string
	tool     string
	unknown  string
}

// emojiPrefixes mirrors the teacher's icons.go role taxonomy (user/system/
// tool-ok/tool-err icons), translated to plain emoji since icons.go's
// codepoints require a Nerd Font patch that a piped/redirected stream
// consumer cannot assume even when attached to a TTY.
var emojiPrefixes = prefixes{
	user:      "🧑",
	assistant: "🤖",
	system:    "⚙️ ",
	tool:      "🔧",
	unknown:   "❔",
}

var asciiPrefixes = prefixes{
	user:      "[user]",
	assistant: "[ai]",
	system:    "[sys]",
	tool:      "[tool]",
	unknown:   "[?]",
}

// DetectASCII reports whether w should use the ASCII-only prefix table:
// true when w isn't a TTY (piped/redirected), matching spec §4.12's rule.
// Callers that want an explicit override (the --ascii flag) should skip
// this and pass their own Streamer.ASCII value instead.
func DetectASCII(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return true
	}
	return !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
}

// Streamer runs the headless replay-then-tail loop.
type Streamer struct {
	Sink    io.Writer
	ASCII   bool
	Verbose bool
}

// New creates a Streamer writing to sink, using the ASCII prefix table when
// ascii is true. New does not call DetectASCII; callers choose ascii.
func New(sink io.Writer, ascii bool) *Streamer {
	return &Streamer{Sink: sink, ASCII: ascii}
}

func (s *Streamer) table() prefixes {
	if s.ASCII {
		return asciiPrefixes
	}
	return emojiPrefixes
}

// Run implements spec §4.12: run(file, replay_n, is_tty_sink), over the
// session's main file and subagent files. replayN == replay.All replays
// the entire session. stop is closed by the caller to end
// the live phase (e.g. on SIGINT).
func (s *Streamer) Run(session sessionindex.Session, replayN int, stop <-chan struct{}) error {
	w := bufio.NewWriter(s.Sink)
	defer w.Flush()

	res, err := replay.Replay(replay.FromSessionIndex(session), replay.BaselineVisible, replayN)
	if err != nil {
		return err
	}
	for _, e := range res.Entries {
		s.writeEntry(w, e)
	}
	w.Flush()

	tails := make(map[string]*filetail.FileTail, len(res.EOFOffsets))
	for path, offset := range res.EOFOffsets {
		tails[path] = filetail.New(path, offset)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return nil
		case <-ticker.C:
			for path, tail := range tails {
				lines, _, err := tail.Poll()
				if err != nil {
					continue // FileMissing/PermissionDenied: non-fatal to the stream (spec §7)
				}
				for i, line := range lines {
					entry, err := logentry.DecodeLine(line.Bytes, path, i+1)
					if err != nil {
						if s.Verbose {
							fmt.Fprintf(w, "parse error: %v\n", err)
						}
						continue
					}
					if !replay.BaselineVisible(entry) {
						continue
					}
					s.writeEntry(w, entry)
				}
				w.Flush()
			}
		}
	}
}

func (s *Streamer) writeEntry(w io.Writer, e logentry.LogEntry) {
	ctx := render.Context{
		AgentPrefix: e.AgentSlugSuffix(),
		Timestamp:   e.Timestamp,
		Role:        e.Role,
	}
	t := s.table()
	prefix := t.unknown
	switch e.EntryType {
	case logentry.TypeUser:
		prefix = t.user
	case logentry.TypeAssistant:
		prefix = t.assistant
	case logentry.TypeSystem:
		prefix = t.system
	}

	for _, line := range render.RenderContentBlocks(e.Content, ctx) {
		switch line.Kind {
		case render.KindText:
			agentTag := ""
			if ctx.AgentPrefix != "" {
				agentTag = "(" + ctx.AgentPrefix + ") "
			}
			fmt.Fprintf(w, "%s %s%s\n", prefix, agentTag, line.Body)
		case render.KindToolUse:
			fmt.Fprintf(w, "%s %s\n", t.tool, line.Summary)
		case render.KindUnknown:
			fmt.Fprintf(w, "%s [%s] (%d bytes)\n", t.unknown, line.BlockType, line.Size)
		}
	}
}
