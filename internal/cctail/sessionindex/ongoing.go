package sessionindex

import (
	"encoding/json"
	"strings"

	"github.com/kenfdev/cctail/internal/cctail/logentry"
)

// DetectOngoing implements the auxiliary ongoing-activity heuristic named in
// SPEC_FULL.md supplemental feature 3. It decorates the picker sidebar only;
// Classify's flat mtime rule (spec §3) remains the sole authoritative
// Active/Inactive signal. Ported from the teacher's
// parser/ongoing.go scanOngoingAssistant/scanOngoingUser, generalized from
// Claude-message chunks to the spec's opaque ContentBlock list.
func DetectOngoing(entries []logentry.LogEntry) bool {
	lastEndingIndex := -1
	hasAny := false
	hasAfter := false
	index := 0

	for _, e := range entries {
		switch e.EntryType {
		case logentry.TypeAssistant:
			for _, b := range e.Content {
				switch b.Type {
				case "thinking", "tool_use", "tool_result":
					if b.Type == "tool_use" && isExitPlanMode(b.Raw) {
						lastEndingIndex = index
						hasAfter = false
					} else {
						hasAny = true
						if lastEndingIndex >= 0 {
							hasAfter = true
						}
					}
					index++
				case "text":
					if hasNonEmptyText(b.Raw) {
						lastEndingIndex = index
						hasAfter = false
						index++
					}
				}
			}
		case logentry.TypeUser:
			for _, b := range e.Content {
				if b.Type == "text" && hasInterruptionText(b.Raw) {
					lastEndingIndex = index
					hasAfter = false
					index++
				}
			}
		}
	}

	if lastEndingIndex == -1 {
		return hasAny
	}
	return hasAfter
}

func isExitPlanMode(raw json.RawMessage) bool {
	var b struct {
		Name string `json:"name"`
	}
	_ = json.Unmarshal(raw, &b)
	return b.Name == "ExitPlanMode"
}

func hasNonEmptyText(raw json.RawMessage) bool {
	var b struct {
		Text string `json:"text"`
	}
	_ = json.Unmarshal(raw, &b)
	return strings.TrimSpace(b.Text) != ""
}

func hasInterruptionText(raw json.RawMessage) bool {
	var b struct {
		Text string `json:"text"`
	}
	_ = json.Unmarshal(raw, &b)
	return strings.HasPrefix(b.Text, "[Request interrupted by user")
}
