// Package logentry decodes JSONL lines written by Claude Code into LogEntry
// values. The schema is hybrid: a handful of typed top-level fields plus an
// opaque, ordered content block list whose interpretation is left to a
// renderer collaborator.
package logentry

import "encoding/json"

// Type enumerates the entry_type values the core cares about. Unrecognized
// values decode to Unknown rather than failing the line.
type Type string

const (
	TypeUser          Type = "user"
	TypeAssistant     Type = "assistant"
	TypeProgress      Type = "progress"
	TypeSnapshot      Type = "file_history_snapshot"
	TypeSystem        Type = "system"
	TypeQueueOp       Type = "queue_operation"
	TypeUnknown       Type = "unknown"
)

// ContentBlock is one element of an entry's opaque content list. Raw holds
// the verbatim JSON payload; Type tags it for callers that care (the core
// only distinguishes ToolUse for the "hide tool calls" mask).
type ContentBlock struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// LogEntry is one parsed JSONL record. See spec §3 for the data model this
// mirrors. Content is preserved verbatim; the core never introspects it.
type LogEntry struct {
	EntryType   Type
	SessionID   string
	AgentID     string // present on subagent entries only
	Slug        string // three-word subagent name; last token is the short prefix
	IsSidechain bool
	Timestamp   string // ISO 8601 source text
	Role        string // user | assistant, for message entries
	Content     []ContentBlock
	UUID        string
	ParentUUID  string

	// Origin metadata, not part of the wire schema: which file this entry
	// was read from, used by Replay's file-then-line-order tiebreak (§4.6).
	SourcePath string
	LineNo     int

	// Raw is the original JSONL line bytes (sans trailing newline). RingBuffer
	// uses len(Raw) as its weight estimate (§4.7, DESIGN.md Open Questions).
	Raw []byte
}

// AgentSlugSuffix returns the last space-, hyphen- or underscore-separated
// token of Slug, the
// short prefix used in the agent filter and rendered line prefixes.
func (e LogEntry) AgentSlugSuffix() string {
	if e.Slug == "" {
		return ""
	}
	last := e.Slug
	for i := len(e.Slug) - 1; i >= 0; i-- {
		if e.Slug[i] == ' ' || e.Slug[i] == '-' || e.Slug[i] == '_' {
			last = e.Slug[i+1:]
			break
		}
	}
	return last
}
