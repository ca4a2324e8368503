package render_test

import (
	"encoding/json"
	"testing"

	"github.com/kenfdev/cctail/internal/cctail/logentry"
	"github.com/kenfdev/cctail/internal/cctail/render"
)

func TestSummarizeToolUse_Bash(t *testing.T) {
	input, _ := json.Marshal(map[string]string{"command": "go test ./..."})
	got := render.SummarizeToolUse("Bash", input)
	want := "Bash(go test ./...)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSummarizeToolUse_Read(t *testing.T) {
	input, _ := json.Marshal(map[string]string{"file_path": "/tmp/x.go"})
	got := render.SummarizeToolUse("Read", input)
	if got != "Read(/tmp/x.go)" {
		t.Errorf("got %q", got)
	}
}

func TestSummarizeToolUse_FallsBackToNameWhenInputMissing(t *testing.T) {
	if got := render.SummarizeToolUse("MysteryTool", nil); got != "MysteryTool" {
		t.Errorf("got %q, want bare name", got)
	}
}

func TestSummarizeToolUse_NeverReadsToolResultFields(t *testing.T) {
	// SummarizeToolUse's signature takes (name, input) only -- there is no
	// way to pass tool_result data, which is the property spec §6 requires.
	input, _ := json.Marshal(map[string]string{"command": "echo hi"})
	got := render.SummarizeToolUse("Bash", input)
	if got != "Bash(echo hi)" {
		t.Errorf("got %q", got)
	}
}

func TestRenderContentBlocks_TextAndToolUse(t *testing.T) {
	textRaw, _ := json.Marshal(map[string]string{"text": "hello world"})
	tu, _ := json.Marshal(map[string]any{"name": "Grep", "input": map[string]string{"pattern": "TODO"}})
	mystery, _ := json.Marshal(map[string]string{"foo": "bar"})

	blocks := []logentry.ContentBlock{
		{Type: "text", Raw: textRaw},
		{Type: "tool_use", Raw: tu},
		{Type: "mystery_block", Raw: mystery},
	}

	lines := render.RenderContentBlocks(blocks, render.Context{AgentPrefix: "cook", Role: "assistant", Timestamp: "t"})
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[0].Kind != render.KindText || lines[0].Body != "hello world" {
		t.Errorf("lines[0] = %+v", lines[0])
	}
	if lines[1].Kind != render.KindToolUse || lines[1].Summary != `Grep("TODO")` {
		t.Errorf("lines[1] = %+v", lines[1])
	}
	if lines[2].Kind != render.KindUnknown || lines[2].BlockType != "mystery_block" {
		t.Errorf("lines[2] = %+v", lines[2])
	}
}

func TestRenderContentBlocks_ToolResultDropped(t *testing.T) {
	tr, _ := json.Marshal(map[string]string{"content": "big output"})
	lines := render.RenderContentBlocks([]logentry.ContentBlock{{Type: "tool_result", Raw: tr}}, render.Context{})
	if len(lines) != 0 {
		t.Fatalf("got %d lines, want 0 (tool_result is dropped)", len(lines))
	}
}

func TestRenderContentBlocks_EmptyTextSkipped(t *testing.T) {
	textRaw, _ := json.Marshal(map[string]string{"text": "   \n  "})
	lines := render.RenderContentBlocks([]logentry.ContentBlock{{Type: "text", Raw: textRaw}}, render.Context{})
	if len(lines) != 0 {
		t.Fatalf("got %d lines, want 0 (whitespace-only text dropped)", len(lines))
	}
}
