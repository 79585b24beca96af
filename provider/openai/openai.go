// Package openai implements pyclaw.Provider on the Chat Completions API. It
// serves OpenAI itself and any OpenAI-compatible endpoint ("custom").
package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"

	"github.com/9v2/pyclaw"
	"github.com/9v2/pyclaw/internal/retry"
	"github.com/9v2/pyclaw/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
)

// DefaultBaseURL is the OpenAI API root.
const DefaultBaseURL = "https://api.openai.com/v1/"

// Client streams chat completions.
type Client struct {
	client   openai.Client
	provider pyclaw.ProviderName
	model    string
	retry    retry.Config
}

// Option configures a Client.
type Option func(*options)

type options struct {
	baseURL    string
	provider   pyclaw.ProviderName
	model      string
	httpClient *http.Client
	retry      retry.Config
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithProviderName sets the name used in errors and for the catalog
// fallback. Defaults to openai.
func WithProviderName(p pyclaw.ProviderName) Option {
	return func(o *options) { o.provider = p }
}

// WithDefaultModel sets the model used when a request names none.
func WithDefaultModel(m string) Option {
	return func(o *options) { o.model = m }
}

// WithHTTPClient sets the HTTP client used by the SDK.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithRetry sets how stream establishment is retried.
func WithRetry(cfg retry.Config) Option {
	return func(o *options) { o.retry = cfg }
}

// New creates a client. An empty key, or the literal "secret", sends no
// Authorization header, for local endpoints that take none.
func New(apiKey string, opts ...Option) *Client {
	o := options{
		baseURL:  DefaultBaseURL,
		provider: pyclaw.ProviderOpenAI,
		model:    model.DefaultGPTModel.ID,
		retry:    retry.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	reqOpts := []option.RequestOption{
		option.WithBaseURL(o.baseURL),
		option.WithMaxRetries(0),
	}
	if apiKey == "" || apiKey == "secret" {
		reqOpts = append(reqOpts, option.WithHeaderDel("authorization"))
	} else {
		reqOpts = append(reqOpts, option.WithAPIKey(apiKey))
	}
	if o.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(o.httpClient))
	}

	return &Client{
		client:   openai.NewClient(reqOpts...),
		provider: o.provider,
		model:    o.model,
		retry:    o.retry,
	}
}

type opened struct {
	stream *ssestream.Stream[openai.ChatCompletionChunk]
	has    bool
}

// Stream sends req and streams text deltas as they arrive. Tool calls are
// assembled from their deltas and emitted once the response completes.
func (c *Client) Stream(ctx context.Context, req pyclaw.Request) (<-chan pyclaw.Chunk, error) {
	msgs, err := toMessages(req.Contents, req.SystemInstruction)
	if err != nil {
		return nil, err
	}
	params := openai.ChatCompletionNewParams{
		Model:       c.modelFor(req),
		Messages:    msgs,
		Temperature: openai.Float(req.Temperature),
		Tools:       toTools(req.Tools),
	}
	if req.MaxOutputTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxOutputTokens))
	}

	o, err := retry.Do(ctx, c.retry, func() (opened, error) {
		s := c.client.Chat.Completions.NewStreaming(ctx, params)
		if s.Next() {
			return opened{stream: s, has: true}, nil
		}
		if err := s.Err(); err != nil {
			s.Close()
			return opened{}, wrapError(c.provider, err)
		}
		return opened{stream: s}, nil
	})
	if err != nil {
		return nil, err
	}

	ch := make(chan pyclaw.Chunk)
	go func() {
		defer close(ch)
		defer o.stream.Close()

		calls := map[int64]*pendingCall{}
		for has := o.has; has; has = o.stream.Next() {
			chunk := o.stream.Current()
			for _, choice := range chunk.Choices {
				if text := choice.Delta.Content; text != "" {
					if !send(ctx, ch, textChunk(text)) {
						return
					}
				}
				for _, tc := range choice.Delta.ToolCalls {
					pc, ok := calls[tc.Index]
					if !ok {
						pc = &pendingCall{index: tc.Index}
						calls[tc.Index] = pc
					}
					if tc.ID != "" {
						pc.id = tc.ID
					}
					pc.name += tc.Function.Name
					pc.args += tc.Function.Arguments
				}
			}
		}
		if err := o.stream.Err(); err != nil {
			send(ctx, ch, pyclaw.Chunk{Error: wrapError(c.provider, err).Error()})
			return
		}
		if len(calls) > 0 {
			send(ctx, ch, callChunk(calls))
		}
	}()
	return ch, nil
}

func (c *Client) modelFor(req pyclaw.Request) string {
	if req.Model != "" {
		return req.Model
	}
	return c.model
}

// FetchModels lists the endpoint's models, falling back to the static
// catalog when the listing fails.
func (c *Client) FetchModels(ctx context.Context) ([]pyclaw.ModelInfo, error) {
	page, err := c.client.Models.List(ctx)
	if err != nil {
		slog.WarnContext(ctx, "model listing failed, using catalog", "provider", c.provider, "error", wrapError(c.provider, err))
		return model.Infos(model.For(c.provider)), nil
	}
	out := make([]pyclaw.ModelInfo, 0, len(page.Data))
	for _, m := range page.Data {
		out = append(out, pyclaw.ModelInfo{ID: m.ID, Name: m.ID})
	}
	return out, nil
}

type pendingCall struct {
	index int64
	id    string
	name  string
	args  string
}

func callChunk(calls map[int64]*pendingCall) pyclaw.Chunk {
	ordered := make([]*pendingCall, 0, len(calls))
	for _, pc := range calls {
		ordered = append(ordered, pc)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].index < ordered[j].index })

	parts := make([]pyclaw.Part, 0, len(ordered))
	for _, pc := range ordered {
		var args map[string]any
		if err := json.Unmarshal([]byte(pc.args), &args); err != nil {
			args = map[string]any{}
		}
		id := pc.id
		if id == "" {
			id = newCallID()
		}
		parts = append(parts, pyclaw.CallPart(pc.name, id, args))
	}
	return pyclaw.Chunk{Content: &pyclaw.Content{Role: pyclaw.RoleModel, Parts: parts}}
}

func textChunk(text string) pyclaw.Chunk {
	return pyclaw.Chunk{Content: &pyclaw.Content{Role: pyclaw.RoleModel, Parts: []pyclaw.Part{pyclaw.TextPart(text)}}}
}

func send(ctx context.Context, ch chan<- pyclaw.Chunk, c pyclaw.Chunk) bool {
	select {
	case ch <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

var _ pyclaw.Provider = (*Client)(nil)
