package sessionindex_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kenfdev/cctail/internal/cctail/sessionindex"
)

func writeFile(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func TestDiscover_SortedByRecency(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writeFile(t, filepath.Join(dir, "old.jsonl"), now.Add(-time.Hour))
	writeFile(t, filepath.Join(dir, "new.jsonl"), now)

	sessions, err := sessionindex.Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("len(sessions) = %d, want 2", len(sessions))
	}
	if sessions[0].ID != "new" {
		t.Errorf("sessions[0].ID = %q, want new (most recent first)", sessions[0].ID)
	}
}

func TestDiscover_FindsSubagentFiles(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writeFile(t, filepath.Join(dir, "s1.jsonl"), now.Add(-time.Minute))
	writeFile(t, filepath.Join(dir, "s1", "subagents", "agent-abc.jsonl"), now)

	sessions, err := sessionindex.Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("len(sessions) = %d, want 1", len(sessions))
	}
	if len(sessions[0].SubagentFiles) != 1 || sessions[0].SubagentFiles[0].AgentID != "abc" {
		t.Fatalf("SubagentFiles = %+v", sessions[0].SubagentFiles)
	}
	// A recently-written subagent file should bump LastModified past the
	// (older) main file's own mtime.
	if !sessions[0].LastModified.Equal(now) {
		t.Errorf("LastModified = %v, want %v (subagent mtime)", sessions[0].LastModified, now)
	}
}

func TestClassify_ActiveInactive(t *testing.T) {
	now := time.Now()
	active := sessionindex.Session{LastModified: now.Add(-5 * time.Minute)}
	inactive := sessionindex.Session{LastModified: now.Add(-11 * time.Minute)}

	if got := sessionindex.Classify(active, now); got != sessionindex.StatusActive {
		t.Errorf("active session classified %v, want Active", got)
	}
	if got := sessionindex.Classify(inactive, now); got != sessionindex.StatusInactive {
		t.Errorf("inactive session classified %v, want Inactive", got)
	}
}

func TestResolve_UniquePrefix(t *testing.T) {
	sessions := []sessionindex.Session{{ID: "abc123"}, {ID: "def456"}}
	got, err := sessionindex.Resolve(sessions, "abc")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.ID != "abc123" {
		t.Errorf("got %q, want abc123", got.ID)
	}
}

func TestResolve_AmbiguousPrefix(t *testing.T) {
	sessions := []sessionindex.Session{{ID: "abc123"}, {ID: "abc456"}}
	_, err := sessionindex.Resolve(sessions, "abc")
	if err != sessionindex.ErrAmbiguous {
		t.Fatalf("got %v, want ErrAmbiguous", err)
	}
}

func TestResolve_NotFound(t *testing.T) {
	sessions := []sessionindex.Session{{ID: "abc123"}}
	_, err := sessionindex.Resolve(sessions, "zzz")
	if err != sessionindex.ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestDiscover_PopulatesIsOngoingHint(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	toolUse := `{"type":"assistant","sessionId":"mid-tool","timestamp":"2025-01-01T00:00:00Z",` +
		`"message":{"role":"assistant","content":[{"type":"tool_use","name":"Bash","input":{"command":"sleep 100"}}]}}` + "\n"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "mid-tool.jsonl"), []byte(toolUse), 0o644); err != nil {
		t.Fatal(err)
	}
	// Backdate the mtime so Classify alone would call this Inactive, isolating
	// the content heuristic's contribution to IsOngoingHint.
	if err := os.Chtimes(filepath.Join(dir, "mid-tool.jsonl"), now.Add(-time.Hour), now.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "idle.jsonl"), now.Add(-time.Hour))

	sessions, err := sessionindex.Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	var midTool, idle *sessionindex.Session
	for i := range sessions {
		switch sessions[i].ID {
		case "mid-tool":
			midTool = &sessions[i]
		case "idle":
			idle = &sessions[i]
		}
	}
	if midTool == nil || idle == nil {
		t.Fatalf("expected both sessions, got %+v", sessions)
	}
	if !midTool.IsOngoingHint {
		t.Error("expected mid-tool session to have IsOngoingHint = true")
	}
	if idle.IsOngoingHint {
		t.Error("expected idle session (blank main file) to have IsOngoingHint = false")
	}
}
