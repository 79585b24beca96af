package mcp

import (
	"context"

	"github.com/9v2/pyclaw/tool"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	name    string
	version string
	gated   bool
}

// WithName sets the server name reported to MCP clients.
func WithName(name string) ServerOption {
	return func(c *serverConfig) {
		c.name = name
	}
}

// WithVersion sets the server version reported to MCP clients.
func WithVersion(version string) ServerOption {
	return func(c *serverConfig) {
		c.version = version
	}
}

// WithGatedTools also exposes tools that require confirmation. MCP clients
// cannot be asked, so these run unconfirmed.
func WithGatedTools() ServerOption {
	return func(c *serverConfig) {
		c.gated = true
	}
}

// NewServer creates an MCP server exposing the registry's tools. Hidden
// tools are never exposed; tools that require confirmation are skipped
// unless WithGatedTools is given.
//
// Example:
//
//	s := mcp.NewServer(registry, mcp.WithName("pyclaw"))
//	server.ServeStdio(s)
func NewServer(registry *tool.Registry, opts ...ServerOption) *server.MCPServer {
	cfg := &serverConfig{
		name:    "pyclaw",
		version: "1.0.0",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := server.NewMCPServer(
		cfg.name,
		cfg.version,
		server.WithToolCapabilities(true),
	)

	for _, t := range registry.Tools() {
		if t.Hidden || (t.RequiresConfirmation && !cfg.gated) {
			continue
		}
		s.AddTool(ToMCPTool(t), handler(registry, t.Name))
	}

	return s
}

func handler(registry *tool.Registry, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return ToMCPResult(registry.Execute(ctx, name, "", req.GetArguments())), nil
	}
}

// ServeStdio serves the registry over stdin/stdout until the client
// disconnects.
func ServeStdio(registry *tool.Registry, opts ...ServerOption) error {
	return server.ServeStdio(NewServer(registry, opts...))
}
