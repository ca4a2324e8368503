package logentry

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// maxParseErrorSnippet bounds how much of a malformed line a ParseError
// retains, per spec §4.3.
const maxParseErrorSnippet = 200

// ParseError reports a line that failed to decode. It is never fatal; callers
// decide whether to log it (cctail does so only with --verbose, see
// SPEC_FULL.md AMBIENT STACK).
type ParseError struct {
	Snippet string // first maxParseErrorSnippet bytes of the raw line
	Reason  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse log entry: %v (line starts %q)", e.Reason, e.Snippet)
}

func (e *ParseError) Unwrap() error { return e.Reason }

// wireEntry is the on-disk shape. Unknown top-level fields are ignored by
// encoding/json automatically; every known field gets a default-valued typed
// slot, matching the hybrid schema in spec §4.3.
type wireEntry struct {
	Type        string          `json:"type"`
	UUID        string          `json:"uuid"`
	ParentUUID  *string         `json:"parentUuid"`
	SessionID   string          `json:"sessionId"`
	AgentID     string          `json:"agentId"`
	Slug        string          `json:"slug"`
	Timestamp   string          `json:"timestamp"`
	IsSidechain bool            `json:"isSidechain"`
	Message     *wireMessage    `json:"message"`
	Content     json.RawMessage `json:"content"`
}

type wireMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type wireBlock struct {
	Type string `json:"type"`
}

// DecodeLine parses one JSONL line into a LogEntry. sourcePath/lineNo are
// stamped onto the result for Replay's merge tiebreak (§4.6); they play no
// role in decoding itself.
func DecodeLine(line []byte, sourcePath string, lineNo int) (LogEntry, error) {
	var w wireEntry
	if err := json.Unmarshal(line, &w); err != nil {
		return LogEntry{}, &ParseError{Snippet: snippet(line), Reason: err}
	}

	entry := LogEntry{
		EntryType:   classifyType(w.Type),
		SessionID:   w.SessionID,
		AgentID:     w.AgentID,
		Slug:        w.Slug,
		IsSidechain: w.IsSidechain,
		Timestamp:   w.Timestamp,
		UUID:        w.UUID,
		SourcePath:  sourcePath,
		LineNo:      lineNo,
		Raw:         append([]byte(nil), line...),
	}
	if w.ParentUUID != nil {
		entry.ParentUUID = *w.ParentUUID
	}
	if entry.UUID == "" {
		// Synthesize a stable-for-this-process id so downstream identity
		// (search match tracking, scroll snapshots) never keys on "".
		entry.UUID = uuid.NewString()
	}

	raw := w.Content
	if w.Message != nil {
		entry.Role = w.Message.Role
		if len(w.Message.Content) > 0 {
			raw = w.Message.Content
		}
	}
	entry.Content = decodeContent(raw)

	if entry.SessionID == "" {
		return LogEntry{}, &ParseError{Snippet: snippet(line), Reason: fmt.Errorf("missing sessionId")}
	}

	return entry, nil
}

// classifyType maps the wire type string to the spec's Type enum, falling
// back to Unknown for anything unrecognized (§3: "tolerate unknown fields").
func classifyType(raw string) Type {
	switch Type(raw) {
	case TypeUser, TypeAssistant, TypeProgress, TypeSnapshot, TypeSystem, TypeQueueOp:
		return Type(raw)
	default:
		return TypeUnknown
	}
}

// decodeContent accepts either a JSON string (plain text message body,
// wrapped as a single text block) or a JSON array of blocks. Unknown block
// shapes are preserved by type-and-size only, per §4.3.
func decodeContent(raw json.RawMessage) []ContentBlock {
	if len(raw) == 0 {
		return nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if asString == "" {
			return nil
		}
		wrapped, err := json.Marshal(struct {
			Text string `json:"text"`
		}{Text: asString})
		if err != nil {
			return nil
		}
		return []ContentBlock{{Type: "text", Raw: wrapped}}
	}

	var asArray []json.RawMessage
	if err := json.Unmarshal(raw, &asArray); err != nil {
		return nil
	}

	blocks := make([]ContentBlock, 0, len(asArray))
	for _, item := range asArray {
		var b wireBlock
		if err := json.Unmarshal(item, &b); err != nil {
			continue
		}
		typ := b.Type
		if typ == "" {
			typ = "unknown"
		}
		blocks = append(blocks, ContentBlock{Type: typ, Raw: item})
	}
	return blocks
}

func snippet(line []byte) string {
	if len(line) <= maxParseErrorSnippet {
		return string(line)
	}
	return string(line[:maxParseErrorSnippet])
}
