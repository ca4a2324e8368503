package stream_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kenfdev/cctail/internal/cctail/replay"
	"github.com/kenfdev/cctail/internal/cctail/sessionindex"
	"github.com/kenfdev/cctail/internal/cctail/stream"
)

func userLine(ts, text string) string {
	b, _ := json.Marshal(map[string]any{
		"type":      "user",
		"sessionId": "s1",
		"timestamp": ts,
		"message":   map[string]any{"role": "user", "content": text},
	})
	return string(b)
}

func toolUseLine(ts string) string {
	b, _ := json.Marshal(map[string]any{
		"type":      "assistant",
		"sessionId": "s1",
		"timestamp": ts,
		"message": map[string]any{
			"role": "assistant",
			"content": []map[string]any{
				{"type": "tool_use", "name": "Bash", "input": map[string]string{"command": "ls -la"}},
			},
		},
	})
	return string(b)
}

func writeFile(t *testing.T, dir, name string, lines []string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestStreamer_ReplayPhaseWritesExistingEntries(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "s1.jsonl", []string{
		userLine("2025-01-01T00:00:00Z", "hello there"),
		toolUseLine("2025-01-01T00:00:01Z"),
	})

	var buf bytes.Buffer
	s := stream.New(&buf, true)
	stop := make(chan struct{})
	close(stop) // exit the live phase immediately after replay

	sess := sessionindex.Session{ID: "s1", MainFilePath: path}
	if err := s.Run(sess, replay.All, stop); err != nil {
		t.Fatalf("Run: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "hello there") {
		t.Errorf("output missing replayed user text: %q", out)
	}
	if !strings.Contains(out, "[tool]") || !strings.Contains(out, "ls -la") {
		t.Errorf("output missing tool summary: %q", out)
	}
}

func TestStreamer_ASCIITablesAreStable(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "s2.jsonl", []string{
		userLine("2025-01-01T00:00:00Z", "ping"),
	})

	var buf bytes.Buffer
	s := stream.New(&buf, true)
	stop := make(chan struct{})
	close(stop)

	sess := sessionindex.Session{ID: "s2", MainFilePath: path}
	if err := s.Run(sess, replay.All, stop); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "[user]") {
		t.Errorf("ASCII mode should prefix with [user], got %q", buf.String())
	}
}

func TestStreamer_LivePhasePicksUpAppendedLines(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "s3.jsonl", []string{
		userLine("2025-01-01T00:00:00Z", "first"),
	})

	var buf bytes.Buffer
	s := stream.New(&buf, true)
	stop := make(chan struct{})

	sess := sessionindex.Session{ID: "s3", MainFilePath: path}
	done := make(chan error, 1)
	go func() { done <- s.Run(sess, replay.All, stop) }()

	time.Sleep(50 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(userLine("2025-01-01T00:00:01Z", "second") + "\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	time.Sleep(400 * time.Millisecond)
	close(stop)
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "first") || !strings.Contains(out, "second") {
		t.Errorf("expected both replayed and live-tailed lines, got %q", out)
	}
}

func TestDetectASCII_NonTTYWriterIsASCII(t *testing.T) {
	var buf bytes.Buffer
	if !stream.DetectASCII(&buf) {
		t.Error("a bytes.Buffer has no Fd(); DetectASCII should default to ASCII")
	}
}
