package pyclaw

import "context"

// ProviderName identifies a model backend as configured in auth.provider.
type ProviderName string

func (p ProviderName) String() string { return string(p) }

const (
	ProviderAntigravity ProviderName = "antigravity"
	ProviderOpenAI      ProviderName = "openai"
	ProviderAnthropic   ProviderName = "anthropic"
	ProviderCustom      ProviderName = "custom"
)

// Request is a single streamed model call.
type Request struct {
	Model             string
	Contents          []Content
	SystemInstruction string
	Temperature       float64
	MaxOutputTokens   int
	// Tools is nil when no tools are registered.
	Tools []ToolGroup
}

// Chunk is one element of a provider stream. A chunk with a non-empty
// Error is terminal for the stream.
type Chunk struct {
	Error   string
	Content *Content
}

// ModelInfo is a model offered by a provider.
type ModelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Provider is a streaming model backend. Implementations close the returned
// channel when the response is complete, after an error chunk, or when ctx
// is cancelled.
type Provider interface {
	Stream(ctx context.Context, req Request) (<-chan Chunk, error)
	FetchModels(ctx context.Context) ([]ModelInfo, error)
}
