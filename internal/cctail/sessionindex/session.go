// Package sessionindex enumerates Claude Code session files under a project
// directory and classifies them Active/Inactive by mtime, per spec §4.2.
// Grounded on the teacher's parser/session.go (DiscoverProjectSessions,
// DiscoverLatestSession) and parser/subagent.go (subagent file discovery).
package sessionindex

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kenfdev/cctail/internal/cctail/logentry"
)

// activeThreshold is the mtime cutoff for Active vs. Inactive classification
// (spec §3).
const activeThreshold = 10 * time.Minute

// sidebarCap is the maximum number of sessions callers should display; the
// cap lives here as documentation of the spec's "cap at 20 in the sidebar
// view", not enforced by Discover itself (Discover returns everything so
// other callers, e.g. Resolve's prefix match, see the full population).
const sidebarCap = 20

// SidebarCap returns the spec's sidebar display cap.
func SidebarCap() int { return sidebarCap }

// SubagentFile identifies one subagent's log file within a session.
type SubagentFile struct {
	AgentID string
	Slug    string
	Path    string
}

// Session is one conversation: a main file plus zero or more subagent files,
// per the GLOSSARY.
type Session struct {
	ID            string
	MainFilePath  string
	SubagentFiles []SubagentFile
	LastModified  time.Time
	IsOngoingHint bool // supplemental heuristic (SPEC_FULL.md feature 3); not authoritative
}

// Status is a session's Active/Inactive classification (spec §3).
type Status int

const (
	StatusInactive Status = iota
	StatusActive
)

// Classify returns Active iff now-lastModified <= 10 minutes, else Inactive.
func Classify(s Session, now time.Time) Status {
	if now.Sub(s.LastModified) <= activeThreshold {
		return StatusActive
	}
	return StatusInactive
}

// Discover scans projectDir shallowly for *.jsonl main sessions, then for
// each session's {sid}/subagents/agent-*.jsonl children. Returned sessions
// are sorted by LastModified descending (spec §4.2); callers cap at
// SidebarCap() for sidebar display.
func Discover(projectDir string) ([]Session, error) {
	entries, err := os.ReadDir(projectDir)
	if err != nil {
		return nil, err
	}

	var sessions []Session
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		if !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		sid := strings.TrimSuffix(name, ".jsonl")
		mainPath := filepath.Join(projectDir, name)

		subagents, _ := discoverSubagentFiles(projectDir, sid)

		sessions = append(sessions, Session{
			ID:            sid,
			MainFilePath:  mainPath,
			SubagentFiles: subagents,
			LastModified:  latestModTime(info.ModTime(), mainPath, subagents),
			IsOngoingHint: detectOngoingFromFile(mainPath),
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastModified.After(sessions[j].LastModified)
	})

	return sessions, nil
}

// discoverSubagentFiles scans {projectDir}/{sid}/subagents/agent-*.jsonl.
func discoverSubagentFiles(projectDir, sid string) ([]SubagentFile, error) {
	subagentsDir := filepath.Join(projectDir, sid, "subagents")
	entries, err := os.ReadDir(subagentsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []SubagentFile
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		if !strings.HasPrefix(name, "agent-") || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		agentID := strings.TrimSuffix(strings.TrimPrefix(name, "agent-"), ".jsonl")
		path := filepath.Join(subagentsDir, name)
		files = append(files, SubagentFile{
			AgentID: agentID,
			Slug:    firstEntrySlug(path),
			Path:    path,
		})
	}
	return files, nil
}

// firstEntrySlug reads just enough of a subagent file to learn its slug
// (every entry in a subagent file carries the same slug, stamped by Claude
// Code at subagent spawn time), so the picker and agent filter can label a
// subagent before any entry has been pushed through the ring buffer.
// Returns "" on any read/decode failure; the filter still works off
// per-entry Slug data in that case.
func firstEntrySlug(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxScanBufferLine)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		entry, err := logentry.DecodeLine(line, path, 1)
		if err != nil {
			continue
		}
		return entry.Slug
	}
	return ""
}

// latestModTime returns the most recent mtime among the main file and its
// subagent files, so a session with an actively-writing subagent but a quiet
// main file still reads as recently modified.
func latestModTime(mainModTime time.Time, mainPath string, subagents []SubagentFile) time.Time {
	latest := mainModTime
	for _, sa := range subagents {
		if info, err := os.Stat(sa.Path); err == nil {
			if info.ModTime().After(latest) {
				latest = info.ModTime()
			}
		}
	}
	return latest
}

// ErrAmbiguous is returned by Resolve when a session ID prefix matches more
// than one session.
var ErrAmbiguous = errors.New("ambiguous session prefix")

// ErrNotFound is returned by Resolve when no session ID matches the prefix.
var ErrNotFound = errors.New("no session matches prefix")

// Resolve finds the unique session whose ID has the given prefix, per §4.2.
func Resolve(sessions []Session, prefix string) (Session, error) {
	var match *Session
	for i := range sessions {
		if strings.HasPrefix(sessions[i].ID, prefix) {
			if match != nil {
				return Session{}, ErrAmbiguous
			}
			match = &sessions[i]
		}
	}
	if match == nil {
		return Session{}, ErrNotFound
	}
	return *match, nil
}
