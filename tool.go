package pyclaw

import "encoding/json"

// ToolDeclaration describes a callable tool to the model.
type ToolDeclaration struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ToolGroup wraps declarations the way function-calling APIs expect them.
// Only one group is ever produced by a registry.
type ToolGroup struct {
	FunctionDeclarations []ToolDeclaration `json:"functionDeclarations"`
}

// Declarations flattens the groups back into a single list.
func Declarations(groups []ToolGroup) []ToolDeclaration {
	var out []ToolDeclaration
	for _, g := range groups {
		out = append(out, g.FunctionDeclarations...)
	}
	return out
}
