package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Search providers accepted by WebSearch.
const (
	SearchBrave      = "brave"
	SearchPerplexity = "perplexity"
)

// PerplexityModel is the model used for Perplexity searches.
const PerplexityModel = "sonar-pro"

// WithBraveEndpoint overrides the Brave search endpoint.
func WithBraveEndpoint(u string) HTTPOption {
	return func(cfg *httpConfig) { cfg.braveURL = u }
}

// WithPerplexityBaseURL overrides the Perplexity API base URL.
func WithPerplexityBaseURL(u string) HTTPOption {
	return func(cfg *httpConfig) { cfg.perplexityURL = u }
}

type webSearchArgs struct {
	Query string `json:"query" desc:"Search query" required:"true"`
}

// WebSearch creates the web_search tool for the given provider.
func WebSearch(provider, apiKey string, opts ...HTTPOption) (*Tool, error) {
	cfg := applyHTTPOpts(opts)
	var search func(ctx context.Context, query string) (string, error)
	switch provider {
	case SearchBrave:
		search = func(ctx context.Context, q string) (string, error) { return braveSearch(ctx, cfg, apiKey, q) }
	case SearchPerplexity:
		client := openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(cfg.perplexityURL),
			option.WithHTTPClient(cfg.client),
		)
		search = func(ctx context.Context, q string) (string, error) { return perplexitySearch(ctx, &client, q) }
	default:
		return nil, fmt.Errorf("unknown search provider: %q", provider)
	}

	return Func("web_search", "Search the web for information. Returns a summary of search results.",
		func(ctx context.Context, args webSearchArgs) (any, error) {
			return search(ctx, args.Query)
		}), nil
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
		} `json:"results"`
	} `json:"web"`
}

func braveSearch(ctx context.Context, cfg *httpConfig, apiKey, query string) (string, error) {
	u := cfg.braveURL + "?" + url.Values{"q": {query}, "count": {"5"}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", apiKey)

	resp, err := cfg.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search error: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("brave search error (%d)", resp.StatusCode)
	}

	var data braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("search error: %w", err)
	}
	var blocks []string
	for i, r := range data.Web.Results {
		if i == 5 {
			break
		}
		blocks = append(blocks, fmt.Sprintf("**%s**\n%s\n%s", r.Title, r.Description, r.URL))
	}
	if len(blocks) == 0 {
		return "No results for: " + query, nil
	}
	return strings.Join(blocks, "\n\n"), nil
}

func perplexitySearch(ctx context.Context, client *openai.Client, query string) (string, error) {
	completion, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    PerplexityModel,
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(query)},
	})
	if err != nil {
		return "", fmt.Errorf("search error: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "No results for: " + query, nil
	}
	return completion.Choices[0].Message.Content, nil
}
