package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"

	markdown "github.com/MichaelMure/go-term-markdown"

	"github.com/9v2/pyclaw"
	"github.com/9v2/pyclaw/agent"
	"github.com/9v2/pyclaw/event"
	"github.com/9v2/pyclaw/gateway/telegram"
	"github.com/9v2/pyclaw/tool"
)

// firstBootMessage opens the conversation when the assistant has no soul.
const firstBootMessage = "Hello! I'm new here."

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".bmp": true,
}

const chatHelp = `commands:
  /quit        exit
  /clear       reset session
  /model       show current model
  /model X [V] switch to model X, optional variant V
  /tools       list available tools
  /image PATH  send an image for analysis, optional caption after the path
  /help        show this help

you can also paste an image path directly.
`

func runChat(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	model := fs.String("m", "", "override the model for this session")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(newLogger(os.Stderr, slog.LevelWarn))
	if err != nil {
		return err
	}
	if *model != "" {
		a.cfg.SetModel(*model, "")
	}

	p, err := a.provider(ctx)
	if err != nil {
		return err
	}
	reg, pool := a.registry(ctx)
	defer pool.Close()

	autoStartGateway(a, out)

	r := newREPL(a.newAgent(p, reg), in, out)
	stop := r.watchInterrupts()
	defer stop()
	return r.run(ctx, a.aiName())
}

// autoStartGateway starts the Telegram gateway alongside the chat when
// gateway.auto_start is set and a token is configured.
func autoStartGateway(a *app, out io.Writer) {
	if !a.cfg.Bool("gateway.auto_start") || a.cfg.String(telegram.TokenKey) == "" || a.gateway.IsRunning() {
		return
	}
	pid, err := a.gateway.Start()
	if err != nil {
		a.log.Warn("gateway auto start failed", "error", err)
		return
	}
	fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("telegram gateway started (pid %d)", pid)))
}

// repl is the interactive terminal chat.
type repl struct {
	agent *agent.Agent
	in    *bufio.Reader
	out   io.Writer
	width int
	busy  atomic.Bool
}

func newREPL(a *agent.Agent, in io.Reader, out io.Writer) *repl {
	r := &repl{agent: a, in: bufio.NewReader(in), out: out, width: termWidth()}
	a.SetConfirmCallback(r.confirm)
	return r
}

// watchInterrupts makes Ctrl-C stop the running turn, or exit when idle.
func (r *repl) watchInterrupts() (stop func()) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		for range sig {
			if r.busy.Load() {
				r.agent.Cancel()
				continue
			}
			fmt.Fprintln(r.out, dimStyle.Render("\nbye 👋"))
			os.Exit(0)
		}
	}()
	return func() {
		signal.Stop(sig)
		close(sig)
	}
}

func (r *repl) run(ctx context.Context, name string) error {
	r.banner(name)

	if r.agent.IsFirstBoot() {
		fmt.Fprintln(r.out, dimStyle.Render("first boot, the AI will introduce itself…"))
		fmt.Fprintln(r.out)
		r.turn(r.agent.Chat(ctx, firstBootMessage), true)
	}

	for {
		fmt.Fprint(r.out, promptStyle.Render("❯ "))
		line, err := r.readLine()
		if err != nil {
			fmt.Fprintln(r.out, dimStyle.Render("\nbye 👋"))
			return nil
		}
		if line == "" {
			continue
		}
		if r.handle(ctx, line) {
			return nil
		}
	}
}

func (r *repl) banner(name string) {
	body := strings.Join([]string{
		titleStyle.Render(name),
		dimStyle.Render("model: " + r.agent.ModelID()),
		dimStyle.Render(fmt.Sprintf("tools: %d loaded", r.agent.Registry().Len())),
		dimStyle.Render("/quit · /clear · /model · /tools · /image · /help"),
	}, "\n")
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, panelStyle.Render(body))
	fmt.Fprintln(r.out)
}

func (r *repl) readLine() (string, error) {
	line, err := r.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// handle runs one line of input and reports whether the session ended.
func (r *repl) handle(ctx context.Context, line string) bool {
	cmd := strings.ToLower(line)
	switch {
	case cmd == "/quit" || cmd == "/exit" || cmd == "/q":
		fmt.Fprintln(r.out, dimStyle.Render("bye 👋"))
		return true

	case cmd == "/clear" || cmd == "/reset":
		r.agent.Session().Clear()
		fmt.Fprintln(r.out, dimStyle.Render("session cleared."))
		fmt.Fprintln(r.out)

	case cmd == "/model":
		fmt.Fprintln(r.out, dimStyle.Render("model: "+r.agent.ModelID()))
		fmt.Fprintln(r.out)

	case strings.HasPrefix(cmd, "/model "):
		args := strings.Fields(line)[1:]
		variant := ""
		if len(args) > 1 {
			variant = args[1]
		}
		if err := r.agent.SetModel(args[0], variant); err != nil {
			fmt.Fprintln(r.out, errStyle.Render("✗ "+err.Error()))
			return false
		}
		fmt.Fprintln(r.out, okStyle.Render("✓ model → "+r.agent.ModelID()))
		fmt.Fprintln(r.out)

	case cmd == "/tools":
		for _, t := range r.agent.Registry().Tools() {
			if t.Hidden {
				continue
			}
			mark := ""
			if t.RequiresConfirmation {
				mark = " " + warnStyle.Render("⚠️")
			}
			fmt.Fprintf(r.out, "  %s%s %s\n", titleStyle.Render(t.Name), mark, dimStyle.Render("— "+clip(t.Description, 80)))
		}
		fmt.Fprintln(r.out)

	case cmd == "/help":
		fmt.Fprintln(r.out, dimStyle.Render(chatHelp))

	default:
		path, caption, err := detectImage(line)
		if err != nil {
			fmt.Fprintln(r.out, errStyle.Render("✗ "+err.Error()))
			return false
		}
		fmt.Fprintln(r.out)
		if path == "" {
			r.turn(r.agent.Chat(ctx, line), false)
			return false
		}
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(r.out, errStyle.Render("✗ "+err.Error()))
			return false
		}
		fmt.Fprintln(r.out, dimStyle.Render("  📷 loading "+filepath.Base(path)+"…"))
		r.turn(r.agent.ChatWithImage(ctx, data, imageType(path), caption), false)
	}
	return false
}

// turn prints a turn's events as they arrive and renders the reply as
// markdown once the turn is over. Brief mode omits arguments and results.
func (r *repl) turn(events event.Stream, brief bool) {
	r.busy.Store(true)
	defer r.busy.Store(false)

	var (
		sb         strings.Builder
		toolActive bool
	)
	for e := range events {
		switch e.Type {
		case event.Text:
			sb.WriteString(e.Text)

		case event.ToolCall:
			toolActive = true
			line := "  " + warnStyle.Render("⚡ "+e.Name)
			if !brief && len(e.Args) > 0 {
				args, _ := json.MarshalIndent(e.Args, "", "  ")
				line += " " + dimStyle.Render(clip(string(args), 200))
			}
			fmt.Fprintln(r.out, line)

		case event.ToolResult:
			switch {
			case e.Error != nil:
				fmt.Fprintln(r.out, "  "+errStyle.Render("✗ "+e.Name+": "+*e.Error))
			case brief || e.Result == nil:
				fmt.Fprintln(r.out, "  "+okStyle.Render("✓ "+e.Name))
			default:
				preview := strings.ReplaceAll(clip(*e.Result, 150), "\n", " ")
				fmt.Fprintln(r.out, "  "+okStyle.Render("✓ "+e.Name)+" "+dimStyle.Render(preview))
			}

		case event.Error:
			fmt.Fprintln(r.out)
			fmt.Fprintln(r.out, errStyle.Render("⚠️  "+e.Message))

		case event.Done:
			if e.Truncated {
				fmt.Fprintln(r.out, warnStyle.Render("⚠️  stopped after too many tool rounds."))
			}
		}
	}

	if text := sb.String(); strings.TrimSpace(text) != "" {
		if toolActive {
			fmt.Fprintln(r.out)
		}
		fmt.Fprint(r.out, string(markdown.Render(text, r.width, 2)))
	}
	fmt.Fprintln(r.out)
}

// confirm asks before a gated tool runs. Anything but y or yes denies.
func (r *repl) confirm(ctx context.Context, call pyclaw.FunctionCall) bool {
	args, _ := json.MarshalIndent(call.Args, "", "  ")
	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "  %s wants to run:\n", warnStyle.Render("⚠️  "+call.Name))
	fmt.Fprintf(r.out, "  %s\n", dimStyle.Render(clip(string(args), 300)))
	fmt.Fprint(r.out, "  "+titleStyle.Render("allow? (y/N): "))

	answer, err := r.readLine()
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	}
	return false
}

// detectImage recognizes "/image PATH [caption]" and a bare image path.
// Other input yields an empty path.
func detectImage(line string) (path, caption string, err error) {
	if rest, ok := strings.CutPrefix(line, "/image "); ok {
		p, caption, _ := strings.Cut(strings.TrimSpace(rest), " ")
		path, err := tool.ExpandPath(p, "")
		if err != nil {
			return "", "", err
		}
		if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
			return "", "", fmt.Errorf("image not found: %s", path)
		}
		return path, strings.TrimSpace(caption), nil
	}

	if !imageExts[strings.ToLower(filepath.Ext(line))] {
		return "", "", nil
	}
	path, err = tool.ExpandPath(line, "")
	if err != nil {
		return "", "", nil
	}
	if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
		return "", "", nil
	}
	return path, "", nil
}

func imageType(path string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); strings.HasPrefix(t, "image/") {
		return t
	}
	return "image/jpeg"
}
