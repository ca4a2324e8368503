// Package filetail implements the per-file byte cursor described in spec
// §4.4: incremental reads bounded to MaxReadBytes, incomplete-line retention,
// and truncation detection. Grounded on the teacher's parser/linereader.go
// (bounded buffer, oversized-line handling) and parser/session.go's
// ReadSessionIncremental (offset tracking), generalized to expose the
// incomplete-line buffer explicitly and to detect truncation, neither of
// which the teacher's always-growing-file assumption needed.
package filetail

import (
	"bytes"
	"errors"
	"io"
	"os"
)

const (
	// MaxReadBytes bounds a single poll's read, per spec §4.4 step 3.
	MaxReadBytes = 64 * 1024 * 1024

	// MaxIncompleteLineBuf bounds the retained trailing partial line, per
	// spec §4.4 step 4.
	MaxIncompleteLineBuf = 10 * 1024 * 1024
)

// ErrFileMissing reports a stat failure because the file doesn't currently
// exist; non-fatal per spec §7, retried on the next poll.
var ErrFileMissing = errors.New("filetail: file missing")

// ErrPermissionDenied reports a stat/open failure due to permissions;
// callers should stop tailing the file per spec §7.
var ErrPermissionDenied = errors.New("filetail: permission denied")

// Line is one complete line emitted by Poll, paired with the cursor offset
// immediately after it.
type Line struct {
	Bytes     []byte
	NewOffset int64
}

// Diagnostic reports a non-fatal condition surfaced during a poll.
type Diagnostic struct {
	Kind string // "LineTooLong" | "Truncated"
}

// FileTail tracks one file's read cursor and incomplete-line buffer, per
// spec §4.4's state triple {byte_offset, incomplete_line_buf, last_known_size}.
type FileTail struct {
	Path              string
	byteOffset        int64
	incompleteLineBuf []byte
	lastKnownSize     int64
}

// New creates a FileTail seeded at the given offset (0 for newly discovered
// files, or a Replay-supplied EOF offset for files already replayed).
func New(path string, offset int64) *FileTail {
	return &FileTail{Path: path, byteOffset: offset}
}

// Offset returns the current byte cursor.
func (t *FileTail) Offset() int64 { return t.byteOffset }

// Poll implements spec §4.4's five-step algorithm: stat, truncation check,
// no-op check, bounded read, split-and-retain. Returns the complete lines
// found plus any diagnostics (LineTooLong, Truncated), in emission order.
func (t *FileTail) Poll() ([]Line, []Diagnostic, error) {
	info, err := os.Stat(t.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrFileMissing
		}
		if os.IsPermission(err) {
			return nil, nil, ErrPermissionDenied
		}
		return nil, nil, err
	}

	var diags []Diagnostic
	currentSize := info.Size()

	if currentSize < t.lastKnownSize {
		// Truncation/rotation: reset and resume from the top (§4.4 step 1).
		t.byteOffset = 0
		t.incompleteLineBuf = nil
		diags = append(diags, Diagnostic{Kind: "Truncated"})
	}
	t.lastKnownSize = currentSize

	if currentSize == t.byteOffset {
		return nil, diags, nil
	}

	f, err := os.Open(t.Path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, diags, ErrPermissionDenied
		}
		if os.IsNotExist(err) {
			return nil, diags, ErrFileMissing
		}
		return nil, diags, err
	}
	defer f.Close()

	if _, err := f.Seek(t.byteOffset, io.SeekStart); err != nil {
		return nil, diags, err
	}

	readBudget := currentSize - t.byteOffset
	if readBudget > MaxReadBytes {
		readBudget = MaxReadBytes
	}
	buf := make([]byte, readBudget)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, diags, err
	}
	chunk := buf[:n]

	// combinedStartOffset is where the combined buffer (old partial + new
	// chunk) begins in file terms. byteOffset already advanced past the old
	// partial bytes the last time they were read from disk (§4.4 step 5),
	// so it must be backed out here to compute per-line absolute offsets.
	oldPartialLen := int64(len(t.incompleteLineBuf))
	combinedStartOffset := t.byteOffset - oldPartialLen

	combined := chunk
	if oldPartialLen > 0 {
		combined = make([]byte, 0, len(t.incompleteLineBuf)+len(chunk))
		combined = append(combined, t.incompleteLineBuf...)
		combined = append(combined, chunk...)
	}

	// Never re-read bytes already pulled off disk: byteOffset always grows
	// by exactly the number of bytes read this call.
	t.byteOffset += int64(n)

	parts := bytes.Split(combined, []byte("\n"))
	// bytes.Split on "a\nb\n" yields ["a","b",""]; the trailing "" means the
	// data ended exactly on a newline boundary and there is no partial line.
	complete := parts[:len(parts)-1]
	partial := parts[len(parts)-1]

	var lines []Line
	pos := combinedStartOffset
	for _, line := range complete {
		pos += int64(len(line)) + 1 // +1 for the stripped \n
		lines = append(lines, Line{Bytes: line, NewOffset: pos})
	}

	if len(partial) > MaxIncompleteLineBuf {
		diags = append(diags, Diagnostic{Kind: "LineTooLong"})
		partial = nil
	}
	t.incompleteLineBuf = append([]byte(nil), partial...)

	return lines, diags, nil
}
