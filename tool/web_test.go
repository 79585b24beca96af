package tool

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWebpage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><head><style>body{}</style><script>var x = 1;</script></head>
<body><h1>Title</h1>
<p>Some   <b>bold</b> text.</p><noscript>enable js</noscript></body></html>`)
	}))
	defer srv.Close()

	read := ReadWebpage(WithHTTPClient(srv.Client()))

	t.Run("extracts visible text", func(t *testing.T) {
		res := runTool(t, read, map[string]any{"url": srv.URL})
		require.NoError(t, res.Err)
		assert.Equal(t, "Title Some bold text.", res.Value)
	})

	t.Run("http error status", func(t *testing.T) {
		res := runTool(t, read, map[string]any{"url": srv.URL + "/missing"})
		assert.Equal(t, "HTTP error (404) for "+srv.URL+"/missing", res.ErrorMessage())
	})
}

func TestWebSearchBrave(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "5", r.URL.Query().Get("count"))
		switch r.URL.Query().Get("q") {
		case "golang":
			fmt.Fprint(w, `{"web":{"results":[
				{"title":"Go","description":"The Go language","url":"https://go.dev"},
				{"title":"Tour","description":"A tour of Go","url":"https://go.dev/tour"}
			]}}`)
		case "fail":
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			fmt.Fprint(w, `{"web":{"results":[]}}`)
		}
	}))
	defer srv.Close()

	search, err := WebSearch(SearchBrave, "secret", WithHTTPClient(srv.Client()), WithBraveEndpoint(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, "web_search", search.Name)

	t.Run("formats results", func(t *testing.T) {
		res := runTool(t, search, map[string]any{"query": "golang"})
		require.NoError(t, res.Err)
		assert.Equal(t, "**Go**\nThe Go language\nhttps://go.dev\n\n**Tour**\nA tour of Go\nhttps://go.dev/tour", res.Value)
	})

	t.Run("no results", func(t *testing.T) {
		res := runTool(t, search, map[string]any{"query": "zzz"})
		require.NoError(t, res.Err)
		assert.Equal(t, "No results for: zzz", res.Value)
	})

	t.Run("error status", func(t *testing.T) {
		res := runTool(t, search, map[string]any{"query": "fail"})
		assert.Equal(t, "brave search error (429)", res.ErrorMessage())
	})
}

func TestWebSearchPerplexity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer pplx", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","object":"chat.completion","created":1,"model":"sonar-pro",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Go is a language."}}]}`)
	}))
	defer srv.Close()

	search, err := WebSearch(SearchPerplexity, "pplx", WithHTTPClient(srv.Client()), WithPerplexityBaseURL(srv.URL+"/"))
	require.NoError(t, err)

	res := runTool(t, search, map[string]any{"query": "what is go"})
	require.NoError(t, res.Err)
	assert.Equal(t, "Go is a language.", res.Value)
}

func TestWebSearchUnknownProvider(t *testing.T) {
	_, err := WebSearch("bing", "")
	assert.Error(t, err)
}
