// Package render implements the two pure collaborator functions named in
// spec §6: summarize_tool_use (one-line, input-only tool summary) and
// render_content_blocks (opaque content list -> RenderedLine list).
// Grounded on the teacher's parser/taxonomy.go (ToolCategory/
// CategorizeToolName) for tool-name classification and
// parser/summary.go's ToolSummary signature, extended here into an actual
// one-line summary (the teacher's version is a one-line stub returning the
// bare name) using the per-category input fields the taxonomy already
// distinguishes.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kenfdev/cctail/internal/cctail/logentry"
)

// Kind tags a RenderedLine variant, per spec §3's RenderedLine glossary
// entry: Text | ToolUse | Unknown | ProgressNote.
type Kind int

const (
	KindText Kind = iota
	KindToolUse
	KindUnknown
	KindProgressNote
)

// Line is a tagged line emitted by the content renderer. The core never
// introspects Text's Body structure; it does distinguish ToolUse so
// FilterState.is_tool_line_visible can drop it under hide_tool_calls.
type Line struct {
	Kind Kind

	// Text fields.
	AgentPrefix string
	Role        string
	Timestamp   string
	Body        string

	// ToolUse fields.
	Summary string

	// Unknown fields.
	BlockType string
	Size      int
}

// Context is the core-supplied rendering context for one entry (spec §6's
// renderer collaborator: "the core supplies ctx: agent prefix, timestamp,
// role").
type Context struct {
	AgentPrefix string
	Timestamp   string
	Role        string
}

// ToolCategory classifies a tool call for summary formatting. Ported
// verbatim in spirit from the teacher's parser/taxonomy.go
// CategorizeToolName, trimmed to the categories this renderer's summary
// logic actually branches on.
type ToolCategory string

const (
	CategoryRead  ToolCategory = "Read"
	CategoryEdit  ToolCategory = "Edit"
	CategoryWrite ToolCategory = "Write"
	CategoryBash  ToolCategory = "Bash"
	CategoryGrep  ToolCategory = "Grep"
	CategoryGlob  ToolCategory = "Glob"
	CategoryTask  ToolCategory = "Task"
	CategoryWeb   ToolCategory = "Web"
	CategoryOther ToolCategory = "Other"
)

// CategorizeToolName maps a raw tool name to a ToolCategory. Mirrors the
// teacher's multi-agent alias table (Codex/Gemini/OpenCode/Copilot/Cursor
// tool-name variants) for forward compatibility with non-Claude-Code
// agents that may write entries into the same log format.
func CategorizeToolName(name string) ToolCategory {
	switch name {
	case "Read", "read_file", "read", "view", "LS":
		return CategoryRead
	case "Edit", "apply_patch", "edit_file", "edit", "StrReplace":
		return CategoryEdit
	case "Write", "NotebookEdit", "write_file", "write":
		return CategoryWrite
	case "Bash", "shell_command", "exec_command", "write_stdin", "shell",
		"run_command", "execute_command", "bash", "Shell":
		return CategoryBash
	case "Grep", "search_files", "grep":
		return CategoryGrep
	case "Glob", "glob":
		return CategoryGlob
	case "Task", "task":
		return CategoryTask
	case "WebFetch", "WebSearch":
		return CategoryWeb
	default:
		return CategoryOther
	}
}

// SummarizeToolUse produces a one-line summary from a tool's name and
// input only (spec §6: "no tool_result fields read"). Falls back to the
// bare name when input is absent or its shape isn't recognized, matching
// the teacher's stub behavior as the floor.
func SummarizeToolUse(name string, input json.RawMessage) string {
	if len(input) == 0 {
		return name
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(input, &fields); err != nil {
		return name
	}

	switch CategorizeToolName(name) {
	case CategoryRead, CategoryEdit, CategoryWrite:
		if p := stringField(fields, "file_path"); p != "" {
			return fmt.Sprintf("%s(%s)", name, p)
		}
	case CategoryBash:
		if cmd := stringField(fields, "command"); cmd != "" {
			return fmt.Sprintf("%s(%s)", name, truncate(cmd, 80))
		}
	case CategoryGrep:
		if pat := stringField(fields, "pattern"); pat != "" {
			return fmt.Sprintf("%s(%q)", name, pat)
		}
	case CategoryGlob:
		if pat := stringField(fields, "pattern"); pat != "" {
			return fmt.Sprintf("%s(%s)", name, pat)
		}
	case CategoryTask:
		if desc := stringField(fields, "description"); desc != "" {
			return fmt.Sprintf("%s(%s)", name, desc)
		}
	case CategoryWeb:
		if u := stringField(fields, "url"); u != "" {
			return fmt.Sprintf("%s(%s)", name, u)
		}
		if q := stringField(fields, "query"); q != "" {
			return fmt.Sprintf("%s(%s)", name, q)
		}
	}
	return name
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

// toolUseBlock/textBlock mirror just the fields this renderer reads
// from an opaque content block, per the hybrid-schema contract in
// logentry: the rest of each block's shape is never introspected.
type toolUseBlock struct {
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

type textBlock struct {
	Text string `json:"text"`
}

// RenderContentBlocks walks content in array order and emits one Line per
// text, tool_use or unknown block, per spec §6: "walks the opaque content
// list in array order and emits text/tool-use/unknown lines." tool_result
// blocks and whitespace-only text blocks emit no line. Progress entries
// carry no content blocks in the schema this renders.
func RenderContentBlocks(content []logentry.ContentBlock, ctx Context) []Line {
	lines := make([]Line, 0, len(content))
	for _, b := range content {
		switch b.Type {
		case "text":
			var t textBlock
			_ = json.Unmarshal(b.Raw, &t)
			body := strings.TrimRight(t.Text, "\n")
			if strings.TrimSpace(body) == "" {
				continue
			}
			lines = append(lines, Line{
				Kind:        KindText,
				AgentPrefix: ctx.AgentPrefix,
				Role:        ctx.Role,
				Timestamp:   ctx.Timestamp,
				Body:        body,
			})
		case "tool_use":
			var tu toolUseBlock
			_ = json.Unmarshal(b.Raw, &tu)
			lines = append(lines, Line{
				Kind:    KindToolUse,
				Summary: SummarizeToolUse(tu.Name, tu.Input),
			})
		case "tool_result":
			// tool_result bodies are never summarized (spec §6: summary is
			// input-only); the core drops them entirely from the rendered
			// stream rather than emit an empty or misleading line.
			continue
		default:
			lines = append(lines, Line{
				Kind:      KindUnknown,
				BlockType: b.Type,
				Size:      len(b.Raw),
			})
		}
	}
	return lines
}

// RenderProgressNote builds the single ProgressNote line for a `progress`
// entry. FilterState has no progress option; replay.BaselineVisible drops
// progress entries.
func RenderProgressNote(body string) Line {
	return Line{Kind: KindProgressNote, Body: body}
}
