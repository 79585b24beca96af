package tool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/9v2/pyclaw"
	"github.com/9v2/pyclaw/schema"
)

// DefaultTimeout bounds every tool execution unless overridden.
const DefaultTimeout = 30 * time.Second

// Result is the outcome of one execution. Exactly one of Value and Err is
// meaningful; Err carries the typed failure.
type Result struct {
	Name   string
	CallID string
	Value  any
	Err    error
}

// OK reports whether the execution succeeded.
func (r Result) OK() bool { return r.Err == nil }

// ErrorMessage returns the flattened failure message, or "".
func (r Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Text returns the stringified value.
func (r Result) Text() string { return Stringify(r.Value) }

// Registry maps tool names to tools. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]*Tool
	order   []string
	timeout time.Duration
	log     *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithDefaultTimeout sets the timeout applied to tools without their own.
func WithDefaultTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the logger used for execution records.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) { r.log = l }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		tools:   make(map[string]*Tool),
		timeout: DefaultTimeout,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds t, replacing any tool with the same name. The original
// registration position is kept on replacement.
func (r *Registry) Register(t *Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// Add registers tools and returns the registry for chaining.
func (r *Registry) Add(tools ...*Tool) *Registry {
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Get returns the named tool.
func (r *Registry) Get(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Tools returns all tools in registration order.
func (r *Registry) Tools() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Names returns all tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Declarations returns nil when empty, otherwise a single group holding
// every declaration.
func (r *Registry) Declarations() []pyclaw.ToolGroup {
	tools := r.Tools()
	if len(tools) == 0 {
		return nil
	}
	decls := make([]pyclaw.ToolDeclaration, len(tools))
	for i, t := range tools {
		decls[i] = t.Declaration()
	}
	return []pyclaw.ToolGroup{{FunctionDeclarations: decls}}
}

// Overlay returns a new registry holding the receiver's tools plus extra.
// The receiver is not modified, so turn-scoped tools never leak into other
// turns.
func (r *Registry) Overlay(extra ...*Tool) *Registry {
	r.mu.RLock()
	o := &Registry{
		tools:   make(map[string]*Tool, len(r.tools)+len(extra)),
		order:   append([]string(nil), r.order...),
		timeout: r.timeout,
		log:     r.log,
	}
	for k, v := range r.tools {
		o.tools[k] = v
	}
	r.mu.RUnlock()
	return o.Add(extra...)
}

// SetDefaultTimeout changes the timeout applied to tools without their own.
// Non-positive values are ignored.
func (r *Registry) SetDefaultTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	r.mu.Lock()
	r.timeout = d
	r.mu.Unlock()
}

// Execute runs the named tool. It never panics and never returns a Go
// error: every failure is carried in Result.Err as one of NotFoundError,
// InvalidArgumentsError, TimeoutError or ExecutionError.
func (r *Registry) Execute(ctx context.Context, name, callID string, args map[string]any) Result {
	res := Result{Name: name, CallID: callID}

	t, ok := r.Get(name)
	if !ok {
		res.Err = &NotFoundError{Name: name}
		return res
	}
	if args == nil {
		args = map[string]any{}
	}
	if err := schema.Validate(t.Parameters, args); err != nil {
		res.Err = &InvalidArgumentsError{Tool: name, Err: err}
		return res
	}

	r.mu.RLock()
	timeout := r.timeout
	r.mu.RUnlock()
	if t.Timeout > 0 {
		timeout = t.Timeout
	}
	log := r.log.With("tool", name, "call_id", callID)
	start := time.Now()

	res.Value, res.Err = run(ctx, t, Call{Name: name, ID: callID, Args: args}, timeout)
	if res.Err != nil {
		res.Value = nil
		log.Warn("tool failed", "duration", time.Since(start), "error", res.Err)
	} else {
		log.Debug("tool executed", "duration", time.Since(start))
	}
	return res
}

type outcome struct {
	value any
	err   error
}

func run(ctx context.Context, t *Tool, call Call, timeout time.Duration) (any, error) {
	if t.Handler == nil {
		return nil, &ExecutionError{Tool: t.Name, Err: errors.New("tool has no handler")}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", p)}
			}
		}()
		v, err := t.Handler(ctx, call)
		done <- outcome{value: v, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			if errors.Is(out.err, context.DeadlineExceeded) && ctx.Err() != nil {
				return nil, &TimeoutError{Tool: t.Name, Timeout: timeout}
			}
			return nil, &ExecutionError{Tool: t.Name, Err: out.err}
		}
		return out.value, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Tool: t.Name, Timeout: timeout}
		}
		return nil, &ExecutionError{Tool: t.Name, Err: ctx.Err()}
	}
}
