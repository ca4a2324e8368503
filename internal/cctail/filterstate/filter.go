// Package filterstate implements the two-axis filter described in spec
// §4.8: a boolean "hide tool calls" line mask and a single-select agent
// filter. New relative to the teacher (no filter feature exists in
// tail-claude); grounded on the teacher's simple boolean per-line state
// pattern (main.go's `expanded map[int]bool`) for the shape of a pure,
// cheaply-copyable predicate struct, and on the substring-predicate style
// of other_examples' logreader filtering for matches/display conventions.
package filterstate

import (
	"fmt"

	"github.com/kenfdev/cctail/internal/cctail/logentry"
	"github.com/kenfdev/cctail/internal/cctail/render"
)

// AgentSelector picks either every agent or exactly one subagent slug.
type AgentSelector struct {
	all  bool
	slug string
}

// All selects every agent (the default).
func All() AgentSelector { return AgentSelector{all: true} }

// Agent selects a single subagent by slug.
func Agent(slug string) AgentSelector { return AgentSelector{slug: slug} }

// IsAll reports whether this selector is the default "all agents" value.
func (a AgentSelector) IsAll() bool { return a.all }

// Slug returns the selected slug; meaningless when IsAll() is true.
func (a AgentSelector) Slug() string { return a.slug }

// FilterState is `{hide_tool_calls, selected_agent}` per spec §4.8. The
// zero value is the default (no filtering), matching Go's zero-value
// idiom and the teacher's preference for zero-config defaults.
type FilterState struct {
	HideToolCalls bool
	SelectedAgent AgentSelector
}

// Default returns the inactive filter: show everything.
func Default() FilterState {
	return FilterState{SelectedAgent: All()}
}

// IsActive reports whether any field deviates from default (spec §4.8).
func (f FilterState) IsActive() bool {
	return f.HideToolCalls || !f.SelectedAgent.IsAll()
}

// Matches is the agent-level predicate: drops entries whose agent slug
// disagrees with SelectedAgent. Entries with no agent slug (the main
// session thread, is_sidechain == false) always match, since the agent
// filter only ever discriminates among subagents.
func (f FilterState) Matches(e logentry.LogEntry) bool {
	if f.SelectedAgent.IsAll() {
		return true
	}
	if !e.IsSidechain {
		return true
	}
	return e.AgentSlugSuffix() == f.SelectedAgent.Slug() || e.Slug == f.SelectedAgent.Slug()
}

// IsToolLineVisible is the line-level predicate: drops ToolUse rendered
// lines when HideToolCalls is set.
func (f FilterState) IsToolLineVisible(line render.Line) bool {
	if !f.HideToolCalls {
		return true
	}
	return line.Kind != render.KindToolUse
}

// Display renders the short status-bar label named in spec §4.8, e.g.
// "filter: no tools", "filter: agent cook", "filter: no tools + agent cook".
func (f FilterState) Display() string {
	if !f.IsActive() {
		return ""
	}
	var parts []string
	if f.HideToolCalls {
		parts = append(parts, "no tools")
	}
	if !f.SelectedAgent.IsAll() {
		parts = append(parts, fmt.Sprintf("agent %s", f.SelectedAgent.Slug()))
	}
	label := parts[0]
	for _, p := range parts[1:] {
		label += " + " + p
	}
	return "filter: " + label
}
