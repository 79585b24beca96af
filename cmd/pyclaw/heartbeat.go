package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/9v2/pyclaw/heartbeat"
	"github.com/9v2/pyclaw/mcp"
)

// runHeartbeat runs every health check once, records it and prints the
// result.
func runHeartbeat(ctx context.Context, out io.Writer) error {
	a, err := newApp(newLogger(os.Stderr, slog.LevelWarn))
	if err != nil {
		return err
	}
	m := heartbeat.New(a.cfg,
		heartbeat.WithGateway(a.gateway),
		heartbeat.WithIdentity(a.identity),
		heartbeat.WithLogger(a.log),
	)
	st := m.Check(ctx)
	if err := m.Record(st); err != nil {
		a.log.Warn("heartbeat not recorded", "error", err)
	}

	head := okStyle.Render("✓ all checks passed")
	if !st.OK {
		head = warnStyle.Render("⚠️  some checks failed")
	}
	fmt.Fprintln(out, head)
	fmt.Fprintln(out, st.Markdown())
	fmt.Fprintln(out, dimStyle.Render("log: "+m.Path()))
	return nil
}

// runMCP serves the local tools to MCP clients over stdio. Logs go to
// stderr so they never mix with the protocol.
func runMCP(ctx context.Context, args []string) error {
	action, rest := sub(args, "serve")
	if action != "serve" {
		return fmt.Errorf("unknown mcp action %q", action)
	}
	opts := []mcp.ServerOption{mcp.WithName("pyclaw"), mcp.WithVersion(version)}
	for _, arg := range rest {
		switch arg {
		case "--gated", "-gated":
			opts = append(opts, mcp.WithGatedTools())
		default:
			return fmt.Errorf("unknown flag %q", arg)
		}
	}

	a, err := newApp(newLogger(os.Stderr, slog.LevelWarn))
	if err != nil {
		return err
	}
	reg, pool := a.registry(ctx)
	defer pool.Close()
	a.log.Info("serving tools over mcp", "tools", reg.Len())
	return mcp.ServeStdio(reg, opts...)
}
