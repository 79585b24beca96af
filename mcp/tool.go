// Package mcp bridges pyclaw's tools and MCP (Model Context Protocol)
// servers in both directions.
//
//   - Client: each server listed in mcp.servers is started (stdio) or dialed
//     (SSE) and its tools are registered as "<server>_<tool>", forwarding
//     calls with CallTool.
//   - Server: `pyclaw mcp serve` exposes the assistant's own tools over
//     stdio so other MCP clients can use them.
package mcp

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/9v2/pyclaw/tool"
	"github.com/mark3labs/mcp-go/mcp"
)

// ToMCPTool converts a pyclaw tool to an MCP tool declaration.
func ToMCPTool(t *tool.Tool) mcp.Tool {
	return mcp.NewToolWithRawSchema(t.Name, t.Description, t.Declaration().Parameters)
}

// Schema returns the JSON schema of an MCP tool, preferring the raw form.
func Schema(t mcp.Tool) json.RawMessage {
	if len(t.RawInputSchema) > 0 {
		return t.RawInputSchema
	}
	data, err := json.Marshal(t.InputSchema)
	if err != nil {
		return nil
	}
	return data
}

// ToolName joins a server and tool name.
func ToolName(server, name string) string {
	return server + "_" + name
}

// CallRequest builds the request for a remote call.
func CallRequest(name string, args map[string]any) mcp.CallToolRequest {
	if args == nil {
		args = map[string]any{}
	}
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// ResultText flattens a call result to text. Text content is joined with
// newlines; other content and structured content are JSON encoded. A result
// flagged as an error is returned as an error carrying the same text.
func ResultText(result *mcp.CallToolResult) (string, error) {
	if result == nil {
		return "", errors.New("empty result from MCP server")
	}

	var parts []string
	for _, c := range result.Content {
		switch content := c.(type) {
		case mcp.TextContent:
			parts = append(parts, content.Text)
		case *mcp.TextContent:
			parts = append(parts, content.Text)
		default:
			if data, err := json.Marshal(content); err == nil {
				parts = append(parts, string(data))
			}
		}
	}
	if result.StructuredContent != nil {
		if data, err := json.Marshal(result.StructuredContent); err == nil {
			parts = append(parts, string(data))
		}
	}

	text := strings.Join(parts, "\n")
	if result.IsError {
		if text == "" {
			text = "MCP tool failed"
		}
		return "", errors.New(text)
	}
	return text, nil
}

// ToMCPResult converts a registry result to an MCP call result.
func ToMCPResult(res tool.Result) *mcp.CallToolResult {
	if !res.OK() {
		return mcp.NewToolResultError(res.ErrorMessage())
	}
	return mcp.NewToolResultText(res.Text())
}
