package sessionindex

import (
	"bufio"
	"encoding/json"
	"os"
	"time"

	"github.com/kenfdev/cctail/internal/cctail/logentry"
)

// maxScanBufferLine mirrors replay's scan buffer ceiling; metadata scanning
// reads the same files with the same oversized-line tolerance.
const maxScanBufferLine = 4 * 1024 * 1024

// previewRunes caps how much of the first user message Stats surfaces in
// the picker sidebar.
const previewRunes = 80

// Stats is the picker sidebar's per-session summary, grounded on the
// teacher's scanSessionMetadata (first-message preview, turn count,
// session duration from the first/last timestamp). The teacher's metadata
// also reports a token count; cctail's hybrid LogEntry schema deliberately
// doesn't decode usage fields (spec §3's data model has no token-count
// field), so Stats has no TokenCount — see DESIGN.md.
type Stats struct {
	FirstUserPreview string
	TurnCount        int
	Duration         time.Duration
}

type textBlock struct {
	Text string `json:"text"`
}

// ComputeStats scans a session's main file once for the sidebar summary.
// Malformed lines are skipped, matching replay's tolerance for bad lines
// during a read that only needs best-effort stats, not a complete replay.
func ComputeStats(s Session) (Stats, error) {
	var stats Stats
	var firstTs, lastTs string

	err := scanMainFile(s.MainFilePath, func(entry logentryEntry) {
		switch entry.EntryType {
		case logentry.TypeUser, logentry.TypeAssistant:
			stats.TurnCount++
		}
		if entry.Timestamp != "" {
			if firstTs == "" {
				firstTs = entry.Timestamp
			}
			lastTs = entry.Timestamp
		}
		if stats.FirstUserPreview == "" && entry.EntryType == logentry.TypeUser {
			stats.FirstUserPreview = firstTextPreview(entry.Content)
		}
	})
	stats.Duration = durationBetween(firstTs, lastTs)
	return stats, err
}

// logentryEntry aliases logentry.LogEntry so scanMainFile's callback
// signature doesn't force every caller to import logentry directly.
type logentryEntry = logentry.LogEntry

// detectOngoingFromFile runs DetectOngoing against every decoded entry in
// path, swallowing read errors into a false result: Discover's sidebar
// hint is best-effort, never authoritative (Classify's mtime rule is).
func detectOngoingFromFile(path string) bool {
	var entries []logentry.LogEntry
	_ = scanMainFile(path, func(e logentryEntry) {
		entries = append(entries, e)
	})
	return DetectOngoing(entries)
}

// scanMainFile decodes every line of path in order, invoking fn for each
// successfully-decoded entry. Malformed lines are skipped rather than
// aborting the scan, matching replay's tolerance for bad lines.
func scanMainFile(path string, fn func(logentryEntry)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxScanBufferLine)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		entry, err := logentry.DecodeLine(line, path, lineNo)
		if err != nil {
			continue
		}
		fn(entry)
	}
	return scanner.Err()
}

func firstTextPreview(blocks []logentry.ContentBlock) string {
	for _, b := range blocks {
		if b.Type != "text" {
			continue
		}
		var t textBlock
		if err := json.Unmarshal(b.Raw, &t); err != nil {
			continue
		}
		runes := []rune(t.Text)
		if len(runes) > previewRunes {
			return string(runes[:previewRunes]) + "…"
		}
		return t.Text
	}
	return ""
}

func durationBetween(firstTs, lastTs string) time.Duration {
	if firstTs == "" || lastTs == "" {
		return 0
	}
	first, err1 := time.Parse(time.RFC3339, firstTs)
	last, err2 := time.Parse(time.RFC3339, lastTs)
	if err1 != nil || err2 != nil {
		return 0
	}
	return last.Sub(first)
}
