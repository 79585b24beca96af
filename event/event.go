// Package event defines the stream of events an agent turn produces. CLI and
// chat gateways render these; nothing else crosses that boundary.
package event

import (
	"encoding/json"
	"iter"
)

// Type identifies the kind of event.
type Type string

const (
	// Text carries final answer text. Emitted only in the terminal round,
	// or as the fixed stop notice after cancellation.
	Text Type = "text"

	// ToolCall fires before a model-requested tool is gated or executed.
	ToolCall Type = "tool_call"

	// Confirm fires when a call needs user approval before running.
	Confirm Type = "confirm"

	// ToolResult carries the outcome of a call: a result or an error.
	ToolResult Type = "tool_result"

	// Error is terminal. No Done follows it.
	Error Type = "error"

	// Done is terminal. Truncated is set when the round limit was reached.
	Done Type = "done"
)

// StoppedText is the text emitted when a turn is cancelled.
const StoppedText = "⛔ stopped."

// Event is a single occurrence in an agent turn.
type Event struct {
	Type Type `json:"type"`

	Text string `json:"text,omitempty"`

	// Tool fields.
	Name   string         `json:"name,omitempty"`
	Args   map[string]any `json:"args,omitempty"`
	ID     string         `json:"id,omitempty"`
	Result *string        `json:"result,omitempty"`
	Error  *string        `json:"error,omitempty"`

	Message   string `json:"message,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
}

// MarshalJSON keeps result and error present on tool_result events so
// consumers can rely on both keys existing.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	if e.Type != ToolResult {
		return json.Marshal(plain(e))
	}
	return json.Marshal(struct {
		plain
		Result *string `json:"result"`
		Error  *string `json:"error"`
	}{plain(e), e.Result, e.Error})
}

// IsTerminal reports whether no further events follow e.
func (e Event) IsTerminal() bool {
	return e.Type == Done || e.Type == Error
}

// NewText builds a text event.
func NewText(text string) Event { return Event{Type: Text, Text: text} }

// NewToolCall builds a tool_call event.
func NewToolCall(name, id string, args map[string]any) Event {
	return Event{Type: ToolCall, Name: name, ID: id, Args: args}
}

// NewConfirm builds a confirm event.
func NewConfirm(name, id string, args map[string]any) Event {
	return Event{Type: Confirm, Name: name, ID: id, Args: args}
}

// NewResult builds a successful tool_result event.
func NewResult(name, id, result string) Event {
	return Event{Type: ToolResult, Name: name, ID: id, Result: &result}
}

// NewFailure builds a failed tool_result event.
func NewFailure(name, id, msg string) Event {
	return Event{Type: ToolResult, Name: name, ID: id, Error: &msg}
}

// NewError builds a terminal error event.
func NewError(msg string) Event { return Event{Type: Error, Message: msg} }

// NewDone builds a terminal done event.
func NewDone(truncated bool) Event { return Event{Type: Done, Truncated: truncated} }

// Stream is the lazy sequence of events a turn produces. The turn runs
// while the stream is ranged over and stops early if the loop breaks.
type Stream = iter.Seq[Event]

// Collect runs s to completion and returns its events. Intended for tests
// and batch consumers.
func Collect(s Stream) []Event {
	var out []Event
	for e := range s {
		out = append(out, e)
	}
	return out
}

// Types returns the event types in order.
func Types(events []Event) []Type {
	out := make([]Type, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
