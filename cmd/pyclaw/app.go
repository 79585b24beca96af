package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/9v2/pyclaw"
	"github.com/9v2/pyclaw/agent"
	"github.com/9v2/pyclaw/config"
	"github.com/9v2/pyclaw/cron"
	"github.com/9v2/pyclaw/gateway"
	"github.com/9v2/pyclaw/identity"
	"github.com/9v2/pyclaw/mcp"
	"github.com/9v2/pyclaw/provider"
	"github.com/9v2/pyclaw/skills"
	"github.com/9v2/pyclaw/tool"
)

// DebugEnv enables debug logging when set to 1.
const DebugEnv = "PYCLAW_DEBUG"

// providerFromConfig is replaced in tests.
var providerFromConfig = provider.FromConfig

// app holds the collaborators every command builds on.
type app struct {
	cfg      *config.Config
	identity *identity.Store
	skills   *skills.Manager
	cron     *cron.Manager
	gateway  *gateway.Manager
	log      *slog.Logger
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	if os.Getenv(DebugEnv) == "1" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newApp loads the config and prepares the identity files and skills.
func newApp(log *slog.Logger) (*app, error) {
	slog.SetDefault(log)

	cfg, err := config.Load("")
	if err != nil {
		return nil, err
	}
	ids := identity.NewStore(cfg.Dir(), cfg.WorkspacePath())
	if err := ids.EnsureFiles(); err != nil {
		return nil, fmt.Errorf("identity files: %w", err)
	}

	sk := skills.NewManager(cfg.WorkspacePath())
	if loaded, err := sk.Load(); err != nil {
		log.Warn("skills not loaded", "error", err)
	} else {
		log.Debug("skills loaded", "count", len(loaded))
	}

	return &app{
		cfg:      cfg,
		identity: ids,
		skills:   sk,
		cron:     cron.NewManager(cfg, cron.WithLogger(log)),
		gateway:  gateway.NewManager(cfg.Dir()),
		log:      log,
	}, nil
}

// registry builds the tool registry, bridging every reachable MCP server.
// The caller closes the returned pool.
func (a *app) registry(ctx context.Context) (*tool.Registry, *mcp.Pool) {
	pool, err := mcp.Connect(ctx, a.cfg, a.log)
	if err != nil {
		a.log.Warn("some mcp servers are unavailable", "error", err)
	}
	reg := agent.DefaultRegistry(agent.Toolset{
		Config:   a.cfg,
		Identity: a.identity,
		Cron:     a.cron,
		Files:    []tool.FileOption{tool.WithBaseDir(a.cfg.WorkspacePath())},
		Extra:    pool.Tools(),
		Logger:   a.log,
	})
	return reg, pool
}

func (a *app) provider(ctx context.Context) (pyclaw.Provider, error) {
	p, err := providerFromConfig(ctx, a.cfg)
	if err != nil {
		return nil, fmt.Errorf("provider: %w", err)
	}
	return p, nil
}

func (a *app) newAgent(p pyclaw.Provider, reg *tool.Registry, opts ...agent.Option) *agent.Agent {
	opts = append([]agent.Option{
		agent.WithIdentity(a.identity),
		agent.WithSkills(a.skills),
		agent.WithLogger(a.log),
	}, opts...)
	return agent.New(a.cfg, p, reg, opts...)
}

// aiName is the assistant's display name.
func (a *app) aiName() string {
	if name := a.identity.AIName(); name != "" {
		return name
	}
	return "Claw 🦞"
}
