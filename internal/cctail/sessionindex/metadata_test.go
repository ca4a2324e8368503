package sessionindex

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeMetaLine(t *testing.T, entryType, ts, text string) string {
	t.Helper()
	msg := map[string]any{"role": entryType, "content": []map[string]any{{"type": "text", "text": text}}}
	b, err := json.Marshal(map[string]any{
		"type":      entryType,
		"sessionId": "s1",
		"timestamp": ts,
		"message":   msg,
	})
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestComputeStats_PreviewTurnCountAndDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s1.jsonl")
	lines := []string{
		writeMetaLine(t, "user", "2025-01-01T00:00:00Z", "help me debug this auth failure please"),
		writeMetaLine(t, "assistant", "2025-01-01T00:05:00Z", "sure, let's look at the logs"),
		writeMetaLine(t, "user", "2025-01-01T00:10:00Z", "here they are"),
	}
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	stats, err := ComputeStats(Session{MainFilePath: path})
	if err != nil {
		t.Fatalf("ComputeStats: %v", err)
	}
	if stats.TurnCount != 3 {
		t.Fatalf("TurnCount = %d, want 3", stats.TurnCount)
	}
	if stats.FirstUserPreview != "help me debug this auth failure please" {
		t.Fatalf("FirstUserPreview = %q", stats.FirstUserPreview)
	}
	if stats.Duration.Minutes() != 10 {
		t.Fatalf("Duration = %v, want 10m", stats.Duration)
	}
}

func TestComputeStats_LongPreviewIsTruncated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s1.jsonl")
	long := ""
	for i := 0; i < 200; i++ {
		long += "x"
	}
	if err := os.WriteFile(path, []byte(writeMetaLine(t, "user", "2025-01-01T00:00:00Z", long)+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	stats, err := ComputeStats(Session{MainFilePath: path})
	if err != nil {
		t.Fatalf("ComputeStats: %v", err)
	}
	if len([]rune(stats.FirstUserPreview)) != previewRunes+1 { // +1 for the ellipsis rune
		t.Fatalf("preview length = %d, want %d", len([]rune(stats.FirstUserPreview)), previewRunes+1)
	}
}

func TestComputeStats_MissingFileReturnsError(t *testing.T) {
	_, err := ComputeStats(Session{MainFilePath: filepath.Join(t.TempDir(), "nope.jsonl")})
	if err == nil {
		t.Fatal("expected an error for a missing main file")
	}
}
