// Package anthropic implements pyclaw.Provider on the Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/9v2/pyclaw"
	"github.com/9v2/pyclaw/internal/retry"
	"github.com/9v2/pyclaw/model"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/google/uuid"
)

// DefaultMaxTokens is sent when a request sets no limit; the API requires one.
const DefaultMaxTokens = 4096

// Client streams Claude responses.
type Client struct {
	client anthropic.Client
	model  string
	retry  retry.Config
}

// Option configures a Client.
type Option func(*options)

type options struct {
	baseURL    string
	model      string
	httpClient *http.Client
	retry      retry.Config
}

// WithBaseURL points the client at a different API host.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
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

// New creates a client for apiKey.
func New(apiKey string, opts ...Option) *Client {
	o := options{model: model.DefaultClaudeModel.ID, retry: retry.DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if o.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(o.baseURL))
	}
	if o.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(o.httpClient))
	}
	return &Client{client: anthropic.NewClient(reqOpts...), model: o.model, retry: o.retry}
}

type opened struct {
	stream *ssestream.Stream[anthropic.MessageStreamEventUnion]
	has    bool
}

// Stream sends req and streams text deltas. Tool calls are emitted together
// once the message completes; thinking blocks are dropped.
func (c *Client) Stream(ctx context.Context, req pyclaw.Request) (<-chan pyclaw.Chunk, error) {
	modelID := req.Model
	if modelID == "" {
		modelID = c.model
	}
	maxTokens := int64(DefaultMaxTokens)
	if req.MaxOutputTokens > 0 {
		maxTokens = int64(req.MaxOutputTokens)
	}
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(modelID),
		MaxTokens:   maxTokens,
		Messages:    toMessages(req.Contents),
		Temperature: anthropic.Float(req.Temperature),
		Tools:       toTools(req.Tools),
	}
	if req.SystemInstruction != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemInstruction}}
	}

	o, err := retry.Do(ctx, c.retry, func() (opened, error) {
		s := c.client.Messages.NewStreaming(ctx, params)
		if s.Next() {
			return opened{stream: s, has: true}, nil
		}
		if err := s.Err(); err != nil {
			s.Close()
			return opened{}, wrapError(err)
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

		var acc anthropic.Message
		for has := o.has; has; has = o.stream.Next() {
			event := o.stream.Current()
			if err := acc.Accumulate(event); err != nil {
				send(ctx, ch, pyclaw.Chunk{Error: "anthropic: " + err.Error()})
				return
			}
			if event.Type != "content_block_delta" {
				continue
			}
			delta := event.AsContentBlockDelta()
			if text := delta.Delta.AsTextDelta(); text.Type == "text_delta" && text.Text != "" {
				if !send(ctx, ch, pyclaw.Chunk{Content: &pyclaw.Content{Role: pyclaw.RoleModel, Parts: []pyclaw.Part{pyclaw.TextPart(text.Text)}}}) {
					return
				}
			}
		}
		if err := o.stream.Err(); err != nil {
			send(ctx, ch, pyclaw.Chunk{Error: wrapError(err).Error()})
			return
		}
		if calls := toolCalls(acc.Content); len(calls) > 0 {
			send(ctx, ch, pyclaw.Chunk{Content: &pyclaw.Content{Role: pyclaw.RoleModel, Parts: calls}})
		}
	}()
	return ch, nil
}

// FetchModels lists Claude models, falling back to the static catalog.
func (c *Client) FetchModels(ctx context.Context) ([]pyclaw.ModelInfo, error) {
	page, err := c.client.Models.List(ctx, anthropic.ModelListParams{})
	if err != nil {
		slog.WarnContext(ctx, "model listing failed, using catalog", "provider", pyclaw.ProviderAnthropic, "error", wrapError(err))
		return model.Infos(model.For(pyclaw.ProviderAnthropic)), nil
	}
	out := make([]pyclaw.ModelInfo, 0, len(page.Data))
	for _, m := range page.Data {
		name := m.DisplayName
		if name == "" {
			name = m.ID
		}
		out = append(out, pyclaw.ModelInfo{ID: m.ID, Name: name})
	}
	return out, nil
}

func toolCalls(blocks []anthropic.ContentBlockUnion) []pyclaw.Part {
	var parts []pyclaw.Part
	for _, b := range blocks {
		if b.Type != "tool_use" {
			continue
		}
		var args map[string]any
		if err := json.Unmarshal(b.Input, &args); err != nil {
			args = map[string]any{}
		}
		id := b.ID
		if id == "" {
			id = "toolu_" + uuid.NewString()
		}
		parts = append(parts, pyclaw.CallPart(b.Name, id, args))
	}
	return parts
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
