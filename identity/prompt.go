package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/9v2/pyclaw/tool"
)

// recentNotes is how many daily note names the prompt lists.
const recentNotes = 7

// BuildSystemPrompt assembles the system prompt from the current files.
// It reads everything from disk on every call so edits made by tools in
// one round are visible in the next.
//
// Sections, in order: AGENTS.md, IDENTITY.md, SOUL.md (FirstBootPrompt
// while it is missing), USER.md, MEMORY.md unless it still holds the
// sentinel, recent daily notes, TOOLS.md, HEARTBEAT.md, the skills block
// and the active tools reminder.
//
// A file that cannot be read is left out and its error joined into the
// returned error; the prompt is still built from everything else.
func (s *Store) BuildSystemPrompt(toolNames []string, skills string) (string, error) {
	var (
		sections []string
		errs     []error
	)
	add := func(header, body string) {
		body = strings.TrimSpace(body)
		if body == "" {
			return
		}
		if header != "" {
			body = header + "\n" + body
		}
		sections = append(sections, body)
	}
	read := func(f File) string {
		text, err := s.Read(f)
		if err != nil {
			errs = append(errs, fmt.Errorf("identity: read %s: %w", f.Name(), err))
		}
		return text
	}

	add("", read(Agents))
	add("", read(Identity))
	if s.IsFirstBoot() {
		add("", FirstBootPrompt)
	} else {
		add("", read(Soul))
	}
	add("# User Context (USER.md)", read(User))

	if memory := read(Memory); !strings.Contains(memory, MemorySentinel) {
		add("# Long-Term Memory (MEMORY.md)", memory)
	}

	notes, err := s.DailyNotes(recentNotes)
	if err != nil {
		errs = append(errs, fmt.Errorf("identity: list daily notes: %w", err))
	}
	if len(notes) > 0 {
		add("# Recent Daily Notes (memory/)", "- "+strings.Join(notes, "\n- "))
	}

	add("# Available Tools (TOOLS.md)", read(Tools))
	add("# Active Heartbeat Tasks (HEARTBEAT.md)", read(Heartbeat))
	add("", skills)

	if len(toolNames) > 0 {
		add("", "Active Tools: "+strings.Join(toolNames, ", ")+".\n"+activeToolsGuide)
	}
	return strings.Join(sections, "\n\n"), errors.Join(errs...)
}

// WriteToolsDoc regenerates TOOLS.md from the given tools, sorted by name.
func (s *Store) WriteToolsDoc(tools []*tool.Tool) error {
	sorted := append([]*tool.Tool(nil), tools...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var sb strings.Builder
	sb.WriteString("# Available Tools (TOOLS.md)\n\n")
	sb.WriteString("This file lists the tools currently available to the AI agent.\n\n")
	for _, t := range sorted {
		fmt.Fprintf(&sb, "## `%s`\n%s\n\n", t.Name, t.Description)
		writeParams(&sb, t.Parameters)
		sb.WriteString("\n---\n\n")
	}
	return s.Write(Tools, sb.String())
}

func writeParams(sb *strings.Builder, raw json.RawMessage) {
	var params struct {
		Properties map[string]struct {
			Description string `json:"description"`
		} `json:"properties"`
		Required []string `json:"required"`
	}
	if len(raw) == 0 || json.Unmarshal(raw, &params) != nil || len(params.Properties) == 0 {
		return
	}
	required := make(map[string]bool, len(params.Required))
	for _, r := range params.Required {
		required[r] = true
	}
	names := make([]string, 0, len(params.Properties))
	for name := range params.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	sb.WriteString("### Parameters\n")
	for _, name := range names {
		req := ""
		if required[name] {
			req = " (required)"
		}
		fmt.Fprintf(sb, "- **%s**%s: %s\n", name, req, params.Properties[name].Description)
	}
}
