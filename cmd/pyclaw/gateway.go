package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/9v2/pyclaw/agent"
	"github.com/9v2/pyclaw/gateway"
	"github.com/9v2/pyclaw/gateway/telegram"
	"github.com/9v2/pyclaw/heartbeat"
	"github.com/9v2/pyclaw/session"
	"github.com/9v2/pyclaw/store"
)

// sessionsDir holds the Telegram sessions under the pyclaw home.
const sessionsDir = "sessions"

func runGateway(ctx context.Context, args []string, out io.Writer) error {
	action, _ := sub(args, "status")
	if action == "run" {
		return serveGateway(ctx)
	}

	a, err := newApp(newLogger(os.Stderr, slog.LevelWarn))
	if err != nil {
		return err
	}
	m := a.gateway

	switch action {
	case "start", "restart":
		if a.cfg.String(telegram.TokenKey) == "" {
			return fmt.Errorf("%w\nget a token from @BotFather, then: pyclaw config set %s TOKEN", telegram.ErrNoToken, telegram.TokenKey)
		}
		start := m.Start
		if action == "restart" {
			start = m.Restart
		}
		pid, err := start()
		if errors.Is(err, gateway.ErrRunning) {
			fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("gateway already running (pid %d)", m.PID())))
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(out, okStyle.Render(fmt.Sprintf("✓ gateway started (pid %d)", pid)))
		fmt.Fprintln(out, dimStyle.Render("  logs: "+m.LogPath()))

	case "stop":
		pid, err := m.Stop()
		if errors.Is(err, gateway.ErrNotRunning) {
			fmt.Fprintln(out, warnStyle.Render("gateway is not running."))
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(out, okStyle.Render(fmt.Sprintf("✓ gateway stopped (pid %d)", pid)))

	case "status":
		printGatewayStatus(out, m)

	default:
		return fmt.Errorf("unknown gateway action %q", action)
	}
	return nil
}

func printGatewayStatus(out io.Writer, m *gateway.Manager) {
	status := errStyle.Render("● stopped")
	if pid := m.PID(); pid != 0 {
		status = okStyle.Render("● running") + "  " + dimStyle.Render(fmt.Sprintf("pid %d", pid))
	}
	fmt.Fprintln(out, panelStyle.Padding(0, 2).Render(titleStyle.Render("telegram gateway")+"\n"+status))
	if m.IsRunning() {
		fmt.Fprintln(out, dimStyle.Render("  logs: "+m.LogPath()))
	}
}

// serveGateway is the body of the background process: it runs the Telegram
// bot under supervision until SIGINT or SIGTERM.
func serveGateway(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(newLogger(os.Stdout, slog.LevelInfo))
	if err != nil {
		return err
	}
	defer a.gateway.Release()
	log := a.log.With("component", "gateway")

	bot, err := telegram.NewBot(a.cfg)
	if err != nil {
		return err
	}
	p, err := a.provider(ctx)
	if err != nil {
		return err
	}
	sessions, err := store.NewFileAdapter(filepath.Join(a.cfg.Dir(), sessionsDir))
	if err != nil {
		return err
	}
	reg, pool := a.registry(ctx)
	defer pool.Close()

	monitor := heartbeat.New(a.cfg,
		heartbeat.WithGateway(a.gateway),
		heartbeat.WithIdentity(a.identity),
		heartbeat.WithLogger(a.log),
	)
	g, err := telegram.New(a.cfg, bot,
		func(s *session.Session) *agent.Agent { return a.newAgent(p, reg, agent.WithSession(s)) },
		telegram.WithStore(sessions),
		telegram.WithIdentity(a.identity),
		telegram.WithMonitor(monitor),
		telegram.WithCron(a.cron),
		telegram.WithBaseDir(a.cfg.WorkspacePath()),
		telegram.WithLogger(a.log),
	)
	if err != nil {
		return err
	}

	log.Info("gateway starting", "pid", os.Getpid(), "model", a.cfg.ModelID(), "tools", reg.Len())
	return gateway.Supervise(ctx, log, g.Run)
}
