package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/9v2/pyclaw"
	"github.com/9v2/pyclaw/identity"
	"github.com/9v2/pyclaw/session"
	"github.com/9v2/pyclaw/skills"
	"github.com/9v2/pyclaw/tool"
)

// MaxToolRounds bounds the model calls in one turn.
const MaxToolRounds = 15

// ConfirmFunc decides whether a gated tool call may run. It may block; the
// turn waits for it.
type ConfirmFunc func(ctx context.Context, call pyclaw.FunctionCall) bool

// Options configures an agent. Options given to New apply to every turn;
// options given to Chat or ChatWithImage apply to that turn only.
type Options struct {
	// MaxRounds limits the model calls per turn. Default is MaxToolRounds.
	MaxRounds int

	// HandlerTimeout replaces the registry's default tool timeout for
	// tools without their own. Zero keeps the registry default.
	HandlerTimeout time.Duration

	// Confirm overrides the callback set with SetConfirmCallback.
	Confirm ConfirmFunc

	// TurnTools are added to the registry for a single turn without
	// changing it.
	TurnTools []*tool.Tool

	// Session holds the transcript. A fresh one is created when nil.
	Session *session.Session

	// Identity supplies the system prompt. When nil, agent.system_prompt
	// from the config is used.
	Identity *identity.Store

	// Skills are rendered into the system prompt when set.
	Skills *skills.Manager

	// Logger receives loop diagnostics. Default is slog.Default().
	Logger *slog.Logger
}

// Option is a functional option for configuring an agent.
type Option func(*Options)

// WithMaxRounds sets the round limit.
func WithMaxRounds(n int) Option {
	return func(o *Options) {
		o.MaxRounds = n
	}
}

// WithHandlerTimeout sets the default tool timeout.
func WithHandlerTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.HandlerTimeout = d
	}
}

// WithConfirm sets the confirmation callback.
func WithConfirm(fn ConfirmFunc) Option {
	return func(o *Options) {
		o.Confirm = fn
	}
}

// WithTurnTools adds tools visible only to the turn they are passed to,
// e.g. a reaction tool bound to the message being answered.
func WithTurnTools(tools ...*tool.Tool) Option {
	return func(o *Options) {
		o.TurnTools = append(o.TurnTools, tools...)
	}
}

// WithSession sets the transcript.
func WithSession(s *session.Session) Option {
	return func(o *Options) {
		o.Session = s
	}
}

// WithIdentity sets the identity store used to build the system prompt.
func WithIdentity(s *identity.Store) Option {
	return func(o *Options) {
		o.Identity = s
	}
}

// WithSkills sets the skills rendered into the system prompt.
func WithSkills(m *skills.Manager) Option {
	return func(o *Options) {
		o.Skills = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// ApplyOptions applies functional options to an Options struct with defaults.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{
		MaxRounds: MaxToolRounds,
	}
	o.apply(opts...)
	return o
}

func (o *Options) apply(opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
	if o.MaxRounds <= 0 {
		o.MaxRounds = MaxToolRounds
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}
