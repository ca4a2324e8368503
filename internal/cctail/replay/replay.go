// Package replay implements the full-session scan described in spec §4.6:
// read a session's main file plus all subagent files start-to-end,
// chronologically merge the visible entries, and hand back both the last N
// (or all) of them and the EOF offset of every file read, so the Watcher
// can resume tailing exactly past the replayed bytes. Grounded on the
// teacher's parser/session.go ReadSessionIncremental (offset-tracked,
// bounded-buffer file scan) generalized from a single file to a
// main-plus-subagents set with a cross-file chronological merge the
// teacher never needs (it only ever reads one file at a time).
package replay

import (
	"bufio"
	"io"
	"os"
	"sort"

	"github.com/kenfdev/cctail/internal/cctail/logentry"
	"github.com/kenfdev/cctail/internal/cctail/sessionindex"
)

// maxScanBufferLine caps a single line's size during the initial bufio.Scanner
// pass, matching the teacher's ReadSessionIncremental buffer ceiling.
const maxScanBufferLine = 4 * 1024 * 1024

// All requests every visible entry rather than the last N.
const All = -1

// VisiblePredicate decides whether an entry survives into the merged
// result. Replay applies it before merging, not after, so n counts visible
// entries only.
type VisiblePredicate func(logentry.LogEntry) bool

// BaselineVisible is spec §4.6's default predicate: drop file_history_snapshot
// always, drop progress by default, keep user | assistant | system.
func BaselineVisible(e logentry.LogEntry) bool {
	switch e.EntryType {
	case logentry.TypeSnapshot, logentry.TypeProgress:
		return false
	default:
		return true
	}
}

type taggedEntry struct {
	entry    logentry.LogEntry
	fileRank int // index into the name-sorted path list, for the merge tiebreak
}

// Result is what Replay returns: the merged, capped entry list plus the EOF
// byte offset of every file scanned (for Watcher.New's seedOffsets).
type Result struct {
	Entries    []logentry.LogEntry
	EOFOffsets map[string]int64
}

// Session carries the file set worth scanning. Built from
// sessionindex.Session so replay doesn't need to import sessionindex
// discovery logic itself — only the identity of each file.
type Session struct {
	MainFilePath  string
	SubagentPaths []string
}

// FromSessionIndex adapts a sessionindex.Session into the minimal Session
// shape replay needs.
func FromSessionIndex(s sessionindex.Session) Session {
	paths := make([]string, 0, len(s.SubagentFiles))
	for _, sf := range s.SubagentFiles {
		paths = append(paths, sf.Path)
	}
	return Session{MainFilePath: s.MainFilePath, SubagentPaths: paths}
}

// Replay implements spec §4.6's algorithm.
func Replay(session Session, visible VisiblePredicate, n int) (Result, error) {
	if visible == nil {
		visible = BaselineVisible
	}

	paths := make([]string, 0, 1+len(session.SubagentPaths))
	if session.MainFilePath != "" {
		paths = append(paths, session.MainFilePath)
	}
	paths = append(paths, session.SubagentPaths...)
	sort.Strings(paths)

	eof := make(map[string]int64, len(paths))
	var all []taggedEntry

	for rank, path := range paths {
		entries, size, err := scanFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				// A subagent file discovered by listing but removed/renamed
				// between discovery and scan; tolerate and move on.
				continue
			}
			return Result{}, err
		}
		eof[path] = size
		for _, e := range entries {
			if !visible(e) {
				continue
			}
			all = append(all, taggedEntry{entry: e, fileRank: rank})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		ti, tj := all[i].entry.Timestamp, all[j].entry.Timestamp
		if ti != tj {
			return ti < tj
		}
		if all[i].fileRank != all[j].fileRank {
			return all[i].fileRank < all[j].fileRank
		}
		return all[i].entry.LineNo < all[j].entry.LineNo
	})

	merged := make([]logentry.LogEntry, len(all))
	for i, t := range all {
		merged[i] = t.entry
	}

	if n != All && n >= 0 && len(merged) > n {
		merged = merged[len(merged)-n:]
	}

	return Result{Entries: merged, EOFOffsets: eof}, nil
}

// SessionFileSize implements spec §4.6's session_file_size(session) -> bytes:
// the sum of the main file's and every subagent file's size on disk, used to
// gate a full-history load behind a confirmation above a size threshold.
// Missing files are tolerated and simply contribute 0, matching Replay's own
// tolerance for a subagent file that vanished between discovery and scan.
func SessionFileSize(session Session) (int64, error) {
	paths := make([]string, 0, 1+len(session.SubagentPaths))
	if session.MainFilePath != "" {
		paths = append(paths, session.MainFilePath)
	}
	paths = append(paths, session.SubagentPaths...)

	var total int64
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}

// scanFile reads path start-to-end with a capped per-line buffer, decoding
// every complete line. Malformed lines are skipped (ParseError is not
// fatal to a full replay scan, matching the teacher's ParseEntry/ok-bool
// skip-on-failure pattern).
func scanFile(path string) ([]logentry.LogEntry, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxScanBufferLine)

	var entries []logentry.LogEntry
	var offset int64
	lineNo := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		offset += int64(len(line)) + 1
		lineNo++
		if len(line) == 0 {
			continue
		}
		entry, err := logentry.DecodeLine(line, path, lineNo)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return entries, offset, err
	}

	info, err := f.Stat()
	if err == nil {
		offset = info.Size()
	}

	return entries, offset, nil
}
