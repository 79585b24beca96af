package agent

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/9v2/pyclaw"
	"github.com/9v2/pyclaw/config"
	"github.com/9v2/pyclaw/event"
	"github.com/9v2/pyclaw/identity"
	"github.com/9v2/pyclaw/session"
	"github.com/9v2/pyclaw/skills"
	"github.com/9v2/pyclaw/tool"
)

// Agent drives conversation turns against one session. Turns on the same
// agent run one at a time; separate agents are independent.
type Agent struct {
	cfg      *config.Config
	provider pyclaw.Provider
	registry *tool.Registry
	session  *session.Session
	identity *identity.Store
	skills   *skills.Manager
	opts     Options
	log      *slog.Logger

	turn      sync.Mutex
	mu        sync.RWMutex
	confirm   ConfirmFunc
	cancelled atomic.Bool
}

// New creates an agent. A nil registry means no tools.
func New(cfg *config.Config, p pyclaw.Provider, registry *tool.Registry, opts ...Option) *Agent {
	o := ApplyOptions(opts...)
	if registry == nil {
		registry = tool.NewRegistry()
	}
	s := o.Session
	if s == nil {
		s = session.New()
	}

	a := &Agent{
		cfg:      cfg,
		provider: p,
		registry: registry,
		session:  s,
		identity: o.Identity,
		skills:   o.Skills,
		confirm:  o.Confirm,
		log:      o.Logger.With("component", "agent", "session", s.ID()),
	}
	o.Confirm = nil
	a.opts = *o
	return a
}

// Session returns the transcript.
func (a *Agent) Session() *session.Session { return a.session }

// Registry returns the shared tool registry.
func (a *Agent) Registry() *tool.Registry { return a.registry }

// ModelID returns the model the next round will use.
func (a *Agent) ModelID() string { return a.cfg.ModelID() }

// SetModel switches the model and saves the config.
func (a *Agent) SetModel(model, variant string) error {
	a.cfg.SetModel(model, variant)
	return a.cfg.Save()
}

// IsFirstBoot reports whether the assistant has no soul yet.
func (a *Agent) IsFirstBoot() bool {
	return a.identity != nil && a.identity.IsFirstBoot()
}

// SetConfirmCallback sets the callback consulted for gated tool calls. A
// nil callback denies them.
func (a *Agent) SetConfirmCallback(fn ConfirmFunc) {
	a.mu.Lock()
	a.confirm = fn
	a.mu.Unlock()
}

// Cancel asks the current or next turn to stop at its next round boundary.
// It is safe to call at any time and more than once.
func (a *Agent) Cancel() {
	a.cancelled.Store(true)
}

// Chat adds message to the session and runs a turn. The turn is lazy: it
// starts when the stream is ranged over, so a Cancel issued before that
// stops it before any model call.
func (a *Agent) Chat(ctx context.Context, message string, opts ...Option) event.Stream {
	return a.start(ctx, opts, func() {
		a.session.Add(session.RoleUser, message)
	})
}

// ChatWithImage adds an image message, with an optional caption, and runs a
// turn.
func (a *Agent) ChatWithImage(ctx context.Context, data []byte, mimeType, caption string, opts ...Option) event.Stream {
	return a.start(ctx, opts, func() {
		a.session.AddImage(session.RoleUser, data, mimeType, caption)
	})
}

func (a *Agent) start(ctx context.Context, opts []Option, add func()) event.Stream {
	o := a.turnOptions(opts)
	return func(yield func(event.Event) bool) {
		a.turn.Lock()
		defer a.turn.Unlock()
		defer a.cancelled.Store(false)

		add()
		a.runLoop(ctx, o, &sink{yield: yield})
	}
}

// sink forwards events to the consumer until it stops ranging.
type sink struct {
	yield  func(event.Event) bool
	broken bool
}

func (s *sink) emit(e event.Event) bool {
	if s.broken {
		return false
	}
	s.broken = !s.yield(e)
	return !s.broken
}

func (a *Agent) turnOptions(opts []Option) *Options {
	o := a.opts
	o.TurnTools = append([]*tool.Tool(nil), a.opts.TurnTools...)
	o.apply(opts...)
	return &o
}

func (a *Agent) runLoop(ctx context.Context, o *Options, out *sink) {
	reg := a.registry.Overlay(o.TurnTools...)
	reg.SetDefaultTimeout(o.HandlerTimeout)

	for round := 1; round <= o.MaxRounds; round++ {
		if a.stopped(ctx, out) {
			return
		}

		text, calls, err := a.stream(ctx, reg)
		if err != nil {
			a.log.Warn("model call failed", "round", round, "error", err)
			out.emit(event.NewError(err.Error()))
			return
		}

		if a.stopped(ctx, out) {
			return
		}

		if len(calls) == 0 {
			for _, t := range text {
				if !out.emit(event.NewText(t)) {
					return
				}
			}
			if final := strings.Join(text, ""); final != "" {
				a.session.Add(session.RoleAssistant, final)
			}
			out.emit(event.NewDone(false))
			return
		}

		a.log.Debug("executing tool calls", "round", round, "calls", len(calls))
		parts := make([]pyclaw.Part, 0, len(calls)+1)
		if joined := strings.Join(text, ""); joined != "" {
			parts = append(parts, pyclaw.TextPart(joined))
		}
		a.session.AddRaw(pyclaw.RoleModel, append(parts, calls...))

		// Sequential: later calls may read what earlier ones wrote.
		responses := make([]pyclaw.Part, 0, len(calls))
		for _, call := range calls {
			responses = append(responses, a.executeCall(ctx, reg, o, *call.FunctionCall, out))
		}
		a.session.AddRaw(pyclaw.RoleUser, responses)
	}

	a.log.Warn("round limit reached", "rounds", o.MaxRounds)
	out.emit(event.NewDone(true))
}

// stopped reports whether the turn must end. A cancelled turn emits the stop
// notice and done; a turn whose context or consumer is gone ends silently.
func (a *Agent) stopped(ctx context.Context, out *sink) bool {
	if ctx.Err() != nil || out.broken {
		return true
	}
	if !a.cancelled.Load() {
		return false
	}
	a.log.Info("turn cancelled")
	if out.emit(event.NewText(event.StoppedText)) {
		out.emit(event.NewDone(false))
	}
	return true
}

// stream runs one model call and splits its output into text chunks and
// function call parts. Thought parts are dropped.
func (a *Agent) stream(ctx context.Context, reg *tool.Registry) ([]string, []pyclaw.Part, error) {
	req := pyclaw.Request{
		Model:             a.ModelID(),
		Contents:          a.session.Contents(),
		SystemInstruction: a.systemPrompt(reg),
		Temperature:       a.cfg.Float("agent.temperature", 0.7),
		MaxOutputTokens:   a.cfg.Int("agent.max_tokens", 8192),
	}
	if reg.Len() > 0 {
		req.Tools = reg.Declarations()
	}

	chunks, err := a.provider.Stream(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	var text []string
	var calls []pyclaw.Part
	for chunk := range chunks {
		if chunk.Error != "" {
			go drain(chunks)
			return nil, nil, errors.New(chunk.Error)
		}
		if chunk.Content == nil {
			continue
		}
		for _, p := range chunk.Content.Parts {
			switch {
			case p.Thought:
			case p.FunctionCall != nil:
				calls = append(calls, p)
			case p.Text != "":
				text = append(text, p.Text)
			}
		}
	}
	return text, calls, nil
}

func drain(ch <-chan pyclaw.Chunk) {
	for range ch {
	}
}

// systemPrompt is rebuilt from disk every round so identity edits made by
// tools are visible to the very next model call.
func (a *Agent) systemPrompt(reg *tool.Registry) string {
	if a.identity == nil {
		return a.cfg.String("agent.system_prompt")
	}
	var skillBlock string
	if a.skills != nil {
		skillBlock = a.skills.Prompt()
	}
	prompt, err := a.identity.BuildSystemPrompt(visibleNames(reg), skillBlock)
	if err != nil {
		a.log.Warn("system prompt is missing sections", "error", err)
	}
	if prompt == "" {
		return a.cfg.String("agent.system_prompt")
	}
	return prompt
}

func visibleNames(reg *tool.Registry) []string {
	var names []string
	for _, t := range reg.Tools() {
		if !t.Hidden {
			names = append(names, t.Name)
		}
	}
	return names
}

// executeCall gates and runs one call, emitting tool_call, an optional
// confirm, and tool_result. It returns the response part for the model.
func (a *Agent) executeCall(ctx context.Context, reg *tool.Registry, o *Options, call pyclaw.FunctionCall, out *sink) pyclaw.Part {
	args := call.Args
	if args == nil {
		args = map[string]any{}
	}
	log := a.log.With("tool", call.Name, "call_id", call.ID)
	out.emit(event.NewToolCall(call.Name, call.ID, args))

	gated := false
	if t, ok := reg.Get(call.Name); ok {
		gated = t.RequiresConfirmation && a.cfg.Bool("safety.confirm_destructive")
	}

	if call.Name == tool.RunCommandName {
		cmd := commandArg(args)
		if p := BlockedPattern(cmd, a.cfg.Strings("safety.blocked_patterns")); p != "" {
			msg := (&BlockedError{Pattern: p}).Error()
			log.Warn("command blocked", "pattern", p)
			out.emit(event.NewFailure(call.Name, call.ID, msg))
			return pyclaw.ErrorPart(call.Name, call.ID, msg)
		}
		if IsSafeCommand(cmd) {
			gated = false
		}
	}

	if gated {
		out.emit(event.NewConfirm(call.Name, call.ID, args))
		call.Args = args
		if !a.approve(ctx, o, call) {
			log.Info("tool call denied")
			msg := ErrDenied.Error()
			out.emit(event.NewFailure(call.Name, call.ID, msg))
			return pyclaw.ErrorPart(call.Name, call.ID, msg)
		}
	}

	res := reg.Execute(ctx, call.Name, call.ID, args)
	if !res.OK() {
		msg := res.ErrorMessage()
		out.emit(event.NewFailure(call.Name, call.ID, msg))
		return pyclaw.ErrorPart(call.Name, call.ID, msg)
	}
	text := res.Text()
	out.emit(event.NewResult(call.Name, call.ID, text))
	return pyclaw.ResultPart(call.Name, call.ID, text)
}

func (a *Agent) approve(ctx context.Context, o *Options, call pyclaw.FunctionCall) bool {
	fn := o.Confirm
	if fn == nil {
		a.mu.RLock()
		fn = a.confirm
		a.mu.RUnlock()
	}
	if fn == nil {
		return false
	}
	return fn(ctx, call)
}
