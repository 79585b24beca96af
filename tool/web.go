package tool

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// UserAgent is sent by the web tools.
const UserAgent = "Mozilla/5.0 (compatible; PyClaw/1.0)"

// HTTPOption configures the web tools.
type HTTPOption func(*httpConfig)

type httpConfig struct {
	client          *http.Client
	maxResponseSize int64
	braveURL        string
	perplexityURL   string
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(cfg *httpConfig) { cfg.client = c }
}

// WithMaxResponseSize caps how many body bytes are read. Default 5MB.
func WithMaxResponseSize(n int64) HTTPOption {
	return func(cfg *httpConfig) { cfg.maxResponseSize = n }
}

func applyHTTPOpts(opts []HTTPOption) *httpConfig {
	cfg := &httpConfig{
		maxResponseSize: 5 << 20,
		braveURL:        "https://api.search.brave.com/res/v1/web/search",
		perplexityURL:   "https://api.perplexity.ai",
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.client == nil {
		cfg.client = &http.Client{Timeout: 15 * time.Second}
	}
	return cfg
}

type readWebpageArgs struct {
	URL string `json:"url" desc:"URL to fetch" required:"true"`
}

// ReadWebpage creates the read_webpage tool.
func ReadWebpage(opts ...HTTPOption) *Tool {
	cfg := applyHTTPOpts(opts)
	return Func("read_webpage", "Fetch a URL and return its text content, with HTML tags stripped.",
		func(ctx context.Context, args readWebpageArgs) (any, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, args.URL, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("User-Agent", UserAgent)

			resp, err := cfg.client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("error fetching %s: %w", args.URL, err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return nil, fmt.Errorf("HTTP error (%d) for %s", resp.StatusCode, args.URL)
			}

			text, err := htmlText(io.LimitReader(resp.Body, cfg.maxResponseSize))
			if err != nil {
				return nil, fmt.Errorf("error reading %s: %w", args.URL, err)
			}
			if clipped, ok := clip(text, maxOutputChars); ok {
				return clipped + "\n... (truncated)", nil
			}
			return text, nil
		}, WithTimeout(20*time.Second))
}

// htmlText extracts visible text from an HTML document, dropping script,
// style and noscript content and collapsing whitespace.
func htmlText(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	var words []string
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return strings.Join(words, " "), nil
			}
			return "", z.Err()
		case html.StartTagToken:
			if name, _ := z.TagName(); hiddenTag(string(name)) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); hiddenTag(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				words = append(words, strings.Fields(string(z.Text()))...)
			}
		}
	}
}

func hiddenTag(name string) bool {
	return name == "script" || name == "style" || name == "noscript"
}
