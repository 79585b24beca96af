// Package gemini implements pyclaw.Provider on the Gemini API through the
// Google GenAI SDK. It backs the "antigravity" and "gemini" auth providers.
package gemini

import (
	"context"
	"iter"
	"log/slog"
	"net/http"
	"strings"

	"github.com/9v2/pyclaw"
	"github.com/9v2/pyclaw/internal/retry"
	"github.com/9v2/pyclaw/model"
	"google.golang.org/genai"
)

// Client streams Gemini responses.
type Client struct {
	client *genai.Client
	retry  retry.Config
}

// Option configures a Client.
type Option func(*options)

type options struct {
	baseURL    string
	httpClient *http.Client
	retry      retry.Config
}

// WithBaseURL points the client at a different API host.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithHTTPClient sets the HTTP client used by the SDK.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithRetry sets how stream establishment is retried.
func WithRetry(cfg retry.Config) Option {
	return func(o *options) { o.retry = cfg }
}

// New creates a Gemini client for apiKey.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	o := options{retry: retry.DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: o.httpClient,
	}
	if o.baseURL != "" {
		cc.HTTPOptions.BaseURL = o.baseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Client{client: client, retry: o.retry}, nil
}

// pulled is an established stream whose first response has been read.
type pulled struct {
	first *genai.GenerateContentResponse
	next  func() (*genai.GenerateContentResponse, error, bool)
	stop  func()
}

// Stream sends req and streams the response. Establishing the stream is
// retried on transient errors; failures after the first response arrive as
// an error chunk.
func (c *Client) Stream(ctx context.Context, req pyclaw.Request) (<-chan pyclaw.Chunk, error) {
	contents, err := toContents(req.Contents)
	if err != nil {
		return nil, err
	}
	config := generateConfig(req)

	p, err := retry.Do(ctx, c.retry, func() (*pulled, error) {
		next, stop := iter.Pull2(c.client.Models.GenerateContentStream(ctx, req.Model, contents, config))
		first, err, ok := next()
		if err != nil {
			stop()
			return nil, wrapError(err)
		}
		if !ok {
			stop()
			return nil, pyclaw.NewError(pyclaw.ProviderAntigravity, pyclaw.KindTransient, 0, "stream returned no data", nil)
		}
		return &pulled{first: first, next: next, stop: stop}, nil
	})
	if err != nil {
		return nil, err
	}

	ch := make(chan pyclaw.Chunk)
	go func() {
		defer close(ch)
		defer p.stop()

		resp, err, ok := p.first, error(nil), true
		for ok {
			if err != nil {
				send(ctx, ch, pyclaw.Chunk{Error: wrapError(err).Error()})
				return
			}
			chunk, emit := fromResponse(resp)
			if emit && !send(ctx, ch, chunk) {
				return
			}
			if chunk.Error != "" {
				return
			}
			resp, err, ok = p.next()
		}
	}()
	return ch, nil
}

// FetchModels lists the models that support content generation. The
// static catalog is returned when the listing fails.
func (c *Client) FetchModels(ctx context.Context) ([]pyclaw.ModelInfo, error) {
	var out []pyclaw.ModelInfo
	for m, err := range c.client.Models.All(ctx) {
		if err != nil {
			slog.WarnContext(ctx, "model listing failed, using catalog", "provider", pyclaw.ProviderAntigravity, "error", wrapError(err))
			return model.Infos(model.For(pyclaw.ProviderAntigravity)), nil
		}
		if !supportsGenerate(m.SupportedActions) {
			continue
		}
		id := strings.TrimPrefix(m.Name, "models/")
		name := m.DisplayName
		if name == "" {
			name = id
		}
		out = append(out, pyclaw.ModelInfo{ID: id, Name: name})
	}
	return out, nil
}

func supportsGenerate(actions []string) bool {
	for _, a := range actions {
		if a == "generateContent" {
			return true
		}
	}
	return false
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
