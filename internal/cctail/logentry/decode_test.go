package logentry_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/kenfdev/cctail/internal/cctail/logentry"
)

func TestDecodeLine_ValidUser(t *testing.T) {
	line := []byte(`{"uuid":"abc-123","type":"user","sessionId":"s1","timestamp":"2025-01-15T10:00:00Z","isSidechain":false,"message":{"role":"user","content":"hello"}}`)
	entry, err := logentry.DecodeLine(line, "main.jsonl", 1)
	if err != nil {
		t.Fatalf("DecodeLine: %v", err)
	}
	if entry.UUID != "abc-123" {
		t.Errorf("UUID = %q, want %q", entry.UUID, "abc-123")
	}
	if entry.EntryType != logentry.TypeUser {
		t.Errorf("EntryType = %q, want %q", entry.EntryType, logentry.TypeUser)
	}
	if entry.SessionID != "s1" {
		t.Errorf("SessionID = %q, want %q", entry.SessionID, "s1")
	}
	if len(entry.Content) != 1 || entry.Content[0].Type != "text" {
		t.Fatalf("Content = %+v, want one text block", entry.Content)
	}
}

// TestDecodeLine_StringContentRawUnmarshalsAsTextBlock guards against a
// decode/render contract break: string-form message content must wrap into
// a Raw payload that consumers' `{"text": "..."}` unmarshal (render.go,
// sessionindex's firstTextPreview) can actually read, not the bare JSON
// string encoding.Marshal would otherwise produce.
func TestDecodeLine_StringContentRawUnmarshalsAsTextBlock(t *testing.T) {
	line := []byte(`{"uuid":"u1","type":"user","sessionId":"s1","timestamp":"t","message":{"role":"user","content":"auth failed"}}`)
	entry, err := logentry.DecodeLine(line, "main.jsonl", 1)
	if err != nil {
		t.Fatalf("DecodeLine: %v", err)
	}
	if len(entry.Content) != 1 {
		t.Fatalf("len(Content) = %d, want 1", len(entry.Content))
	}
	var textBlock struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(entry.Content[0].Raw, &textBlock); err != nil {
		t.Fatalf("Raw does not unmarshal as a text block: %v", err)
	}
	if textBlock.Text != "auth failed" {
		t.Errorf("textBlock.Text = %q, want %q", textBlock.Text, "auth failed")
	}
}

func TestDecodeLine_ArrayContent(t *testing.T) {
	line := []byte(`{"uuid":"u1","type":"assistant","sessionId":"s1","timestamp":"2025-01-15T10:00:01Z","message":{"role":"assistant","content":[{"type":"text","text":"hi"},{"type":"tool_use","name":"Bash"},{"type":"mystery_block","foo":1}]}}`)
	entry, err := logentry.DecodeLine(line, "main.jsonl", 2)
	if err != nil {
		t.Fatalf("DecodeLine: %v", err)
	}
	if len(entry.Content) != 3 {
		t.Fatalf("len(Content) = %d, want 3", len(entry.Content))
	}
	if entry.Content[1].Type != "tool_use" {
		t.Errorf("Content[1].Type = %q, want tool_use", entry.Content[1].Type)
	}
	if entry.Content[2].Type != "mystery_block" {
		t.Errorf("Content[2].Type = %q, want mystery_block", entry.Content[2].Type)
	}
}

func TestDecodeLine_UnknownTopLevelFieldIgnored(t *testing.T) {
	line := []byte(`{"uuid":"u1","type":"user","sessionId":"s1","timestamp":"t","somethingNew":{"nested":true},"message":{"role":"user","content":"hi"}}`)
	if _, err := logentry.DecodeLine(line, "main.jsonl", 1); err != nil {
		t.Fatalf("DecodeLine: %v", err)
	}
}

func TestDecodeLine_UnknownEntryType(t *testing.T) {
	line := []byte(`{"uuid":"u1","type":"something_future","sessionId":"s1","timestamp":"t"}`)
	entry, err := logentry.DecodeLine(line, "main.jsonl", 1)
	if err != nil {
		t.Fatalf("DecodeLine: %v", err)
	}
	if entry.EntryType != logentry.TypeUnknown {
		t.Errorf("EntryType = %q, want unknown", entry.EntryType)
	}
}

func TestDecodeLine_QueueOperationPassesThrough(t *testing.T) {
	line := []byte(`{"uuid":"u1","type":"queue_operation","sessionId":"s1","timestamp":"t"}`)
	entry, err := logentry.DecodeLine(line, "main.jsonl", 1)
	if err != nil {
		t.Fatalf("DecodeLine: %v", err)
	}
	if entry.EntryType != logentry.TypeQueueOp {
		t.Errorf("EntryType = %q, want queue_operation", entry.EntryType)
	}
}

func TestDecodeLine_InvalidJSON(t *testing.T) {
	_, err := logentry.DecodeLine([]byte(`{not valid json`), "main.jsonl", 1)
	if err == nil {
		t.Fatal("expected error on invalid JSON")
	}
	var pe *logentry.ParseError
	if !asParseError(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
}

func TestDecodeLine_MissingSessionID(t *testing.T) {
	_, err := logentry.DecodeLine([]byte(`{"uuid":"u1","type":"user","timestamp":"t"}`), "main.jsonl", 1)
	if err == nil {
		t.Fatal("expected error on missing sessionId")
	}
}

func TestDecodeLine_MissingUUIDIsSynthesized(t *testing.T) {
	entry, err := logentry.DecodeLine([]byte(`{"type":"user","sessionId":"s1","timestamp":"t","message":{"role":"user","content":"hi"}}`), "main.jsonl", 1)
	if err != nil {
		t.Fatalf("DecodeLine: %v", err)
	}
	if entry.UUID == "" {
		t.Error("expected a synthesized UUID, got empty string")
	}
}

func TestDecodeLine_SnippetTruncatedTo200Bytes(t *testing.T) {
	huge := strings.Repeat("x", 5000)
	_, err := logentry.DecodeLine([]byte(`{`+huge), "main.jsonl", 1)
	if err == nil {
		t.Fatal("expected error")
	}
	pe, ok := err.(*logentry.ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if len(pe.Snippet) != 200 {
		t.Errorf("len(Snippet) = %d, want 200", len(pe.Snippet))
	}
}

func asParseError(err error, target **logentry.ParseError) bool {
	pe, ok := err.(*logentry.ParseError)
	if !ok {
		return false
	}
	*target = pe
	return true
}
