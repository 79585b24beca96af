package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/9v2/pyclaw/config"
	"github.com/9v2/pyclaw/tool"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// ConfigKey lists the servers to connect to.
const ConfigKey = "mcp.servers"

// ServerConfig is one entry of mcp.servers. Command starts a stdio server;
// URL dials an SSE server.
type ServerConfig struct {
	Name    string            `json:"name"`
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	URL     string            `json:"url,omitempty"`
}

func (sc ServerConfig) env() []string {
	keys := make([]string, 0, len(sc.Env))
	for k := range sc.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k + "=" + sc.Env[k]
	}
	return out
}

// Remote is a connected MCP server. It is safe for concurrent use; the tool
// list is cached and can be refreshed with Refresh.
type Remote struct {
	name   string
	client *client.Client

	mu    sync.RWMutex
	tools []mcp.Tool
}

// Dial starts or connects to the server described by sc.
//
// Example:
//
//	remote, err := mcp.Dial(ctx, mcp.ServerConfig{
//	    Name:    "github",
//	    Command: "github-mcp-server",
//	    Args:    []string{"stdio"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer remote.Close()
//	registry.Add(remote.Tools()...)
func Dial(ctx context.Context, sc ServerConfig) (*Remote, error) {
	if sc.Name == "" {
		return nil, errors.New("mcp server needs a name")
	}

	var (
		c   *client.Client
		err error
	)
	switch {
	case sc.Command != "":
		c, err = client.NewStdioMCPClient(sc.Command, sc.env(), sc.Args...)
	case sc.URL != "":
		c, err = client.NewSSEMCPClient(sc.URL)
	default:
		return nil, fmt.Errorf("mcp server %s: set command or url", sc.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP client for %s: %w", sc.Name, err)
	}

	return NewRemote(ctx, sc.Name, c)
}

// NewRemote initializes an existing client and fetches its tools.
func NewRemote(ctx context.Context, name string, c *client.Client) (*Remote, error) {
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start MCP client: %w", err)
	}

	_, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    "pyclaw",
				Version: "1.0.0",
			},
		},
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize MCP session: %w", err)
	}

	r := &Remote{name: name, client: c}
	if err := r.Refresh(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	return r, nil
}

// Name returns the server name used as the tool prefix.
func (r *Remote) Name() string { return r.name }

// Close closes the connection, stopping a stdio server.
func (r *Remote) Close() error {
	return r.client.Close()
}

// Refresh fetches the current tool list from the server.
func (r *Remote) Refresh(ctx context.Context) error {
	result, err := r.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.tools = result.Tools
	r.mu.Unlock()
	return nil
}

// Len returns the number of tools the server offers.
func (r *Remote) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Tools returns the server's tools as pyclaw tools named
// "<server>_<tool>" whose handlers forward to the server.
func (r *Remote) Tools() []*tool.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*tool.Tool, len(r.tools))
	for i, t := range r.tools {
		remoteName := t.Name
		out[i] = tool.New(ToolName(r.name, t.Name), t.Description, Schema(t),
			func(ctx context.Context, call tool.Call) (any, error) {
				return r.Call(ctx, remoteName, call.Args)
			})
	}
	return out
}

// Call invokes a tool by its remote name.
func (r *Remote) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	result, err := r.client.CallTool(ctx, CallRequest(name, args))
	if err != nil {
		return "", err
	}
	return ResultText(result)
}

// Pool is the set of servers connected from the config.
type Pool struct {
	remotes []*Remote
}

// Connect dials every configured server. Servers that fail are logged and
// skipped; their errors are joined in the returned error alongside a
// usable pool.
func Connect(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Pool, error) {
	if log == nil {
		log = slog.Default()
	}
	var servers []ServerConfig
	if err := cfg.Decode(ConfigKey, &servers); err != nil && !errors.Is(err, config.ErrNotFound) {
		return &Pool{}, fmt.Errorf("%s: %w", ConfigKey, err)
	}

	p := &Pool{}
	var errs []error
	for _, sc := range servers {
		r, err := Dial(ctx, sc)
		if err != nil {
			log.Warn("mcp server unavailable", "server", sc.Name, "error", err)
			errs = append(errs, err)
			continue
		}
		log.Info("mcp server connected", "server", sc.Name, "tools", r.Len())
		p.remotes = append(p.remotes, r)
	}
	return p, errors.Join(errs...)
}

// Add includes an already connected server.
func (p *Pool) Add(r *Remote) {
	p.remotes = append(p.remotes, r)
}

// Tools returns the tools of every connected server.
func (p *Pool) Tools() []*tool.Tool {
	var out []*tool.Tool
	for _, r := range p.remotes {
		out = append(out, r.Tools()...)
	}
	return out
}

// Close disconnects every server.
func (p *Pool) Close() error {
	var errs []error
	for _, r := range p.remotes {
		if err := r.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.name, err))
		}
	}
	return errors.Join(errs...)
}
