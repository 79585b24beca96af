package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/9v2/pyclaw"
	"github.com/9v2/pyclaw/schema"
)

// Call is a single invocation request as seen by a handler.
type Call struct {
	Name string
	ID   string
	Args map[string]any
}

// Bind decodes the call arguments into v, typically a pointer to a struct
// with json tags.
func (c Call) Bind(v any) error {
	raw, err := json.Marshal(c.Args)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// String returns the named string argument, or "" when absent.
func (c Call) String(key string) string {
	s, _ := c.Args[key].(string)
	return s
}

// Handler executes a call. Returned values are passed back to the model;
// non-string values are JSON encoded.
type Handler func(ctx context.Context, call Call) (any, error)

// Tool is a named, schema-described executable unit.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
	Handler     Handler

	// RequiresConfirmation gates the call behind user approval.
	RequiresConfirmation bool
	// Hidden tools are callable but left out of user-facing listings.
	Hidden bool
	// Timeout overrides the registry default when positive.
	Timeout time.Duration
}

// Option configures a Tool.
type Option func(*Tool)

// RequiresConfirmation marks the tool as needing user approval.
func RequiresConfirmation() Option {
	return func(t *Tool) { t.RequiresConfirmation = true }
}

// Hidden excludes the tool from listings.
func Hidden() Option {
	return func(t *Tool) { t.Hidden = true }
}

// WithTimeout overrides the execution timeout for this tool.
func WithTimeout(d time.Duration) Option {
	return func(t *Tool) { t.Timeout = d }
}

// New creates a tool from a raw parameter schema and handler.
func New(name, description string, params json.RawMessage, h Handler, opts ...Option) *Tool {
	t := &Tool{Name: name, Description: description, Parameters: params, Handler: h}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Func creates a tool whose parameters are derived from T and whose
// arguments are decoded into T before fn runs.
//
//	type readArgs struct {
//	    Path string `json:"path" desc:"File path" required:"true"`
//	}
//	t := tool.Func("read_file", "Read a file", func(ctx context.Context, a readArgs) (any, error) {
//	    return os.ReadFile(a.Path)
//	})
func Func[T any](name, description string, fn func(ctx context.Context, args T) (any, error), opts ...Option) *Tool {
	h := func(ctx context.Context, call Call) (any, error) {
		var args T
		if err := call.Bind(&args); err != nil {
			return nil, fmt.Errorf("decode arguments: %w", err)
		}
		return fn(ctx, args)
	}
	return New(name, description, schema.For[T](), h, opts...)
}

// Declaration returns the model-facing description of the tool.
func (t *Tool) Declaration() pyclaw.ToolDeclaration {
	params := t.Parameters
	if len(params) == 0 {
		params = json.RawMessage(`{"type":"object","properties":{}}`)
	}
	return pyclaw.ToolDeclaration{Name: t.Name, Description: t.Description, Parameters: params}
}

// Stringify renders a tool result for display and event payloads.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
