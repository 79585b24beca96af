package model

import (
	"strings"

	"github.com/9v2/pyclaw"
)

// Model is a chat model pyclaw knows how to talk to.
type Model struct {
	ID       string
	Name     string
	Provider pyclaw.ProviderName
	Pricing  Pricing
}

// String returns the API identifier.
func (m Model) String() string { return m.ID }

// Info converts the model to the provider listing shape.
func (m Model) Info() pyclaw.ModelInfo {
	return pyclaw.ModelInfo{ID: m.ID, Name: m.Name}
}

// Cost estimates the USD cost of a call at standard pricing.
func (m Model) Cost(inputTokens, outputTokens int) float64 {
	return CalculateCost(inputTokens, outputTokens, m.Pricing)
}

// Gemini models, served by the antigravity provider.
// Pricing last verified: December 14, 2025
var (
	Gemini3Pro        = Model{ID: "gemini-3.0-pro", Name: "Gemini 3 Pro", Provider: pyclaw.ProviderAntigravity, Pricing: Pricing{InputPerMillion: 2.00, OutputPerMillion: 12.00, InputPerMillionLong: 4.00, OutputPerMillionLong: 18.00}}
	Gemini25Pro       = Model{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", Provider: pyclaw.ProviderAntigravity, Pricing: Pricing{InputPerMillion: 1.25, OutputPerMillion: 10.00, InputPerMillionLong: 2.50, OutputPerMillionLong: 15.00}}
	Gemini25Flash     = Model{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Provider: pyclaw.ProviderAntigravity, Pricing: Pricing{InputPerMillion: 0.15, OutputPerMillion: 0.60, InputPerMillionLong: 0.15, OutputPerMillionLong: 0.60}}
	Gemini25FlashLite = Model{ID: "gemini-2.5-flash-lite", Name: "Gemini 2.5 Flash Lite", Provider: pyclaw.ProviderAntigravity, Pricing: Pricing{InputPerMillion: 0.075, OutputPerMillion: 0.30, InputPerMillionLong: 0.075, OutputPerMillionLong: 0.30}}

	DefaultGeminiModel = Gemini25Flash
)

// OpenAI models.
// Pricing last verified: December 14, 2025
var (
	GPT52    = Model{ID: "gpt-5.2", Name: "GPT-5.2", Provider: pyclaw.ProviderOpenAI, Pricing: Pricing{InputPerMillion: 1.75, OutputPerMillion: 14.00, CachedInputPerMillion: 0.175}}
	GPT51    = Model{ID: "gpt-5.1", Name: "GPT-5.1", Provider: pyclaw.ProviderOpenAI, Pricing: Pricing{InputPerMillion: 1.25, OutputPerMillion: 10.00, CachedInputPerMillion: 0.125}}
	GPT5Mini = Model{ID: "gpt-5-mini", Name: "GPT-5 mini", Provider: pyclaw.ProviderOpenAI, Pricing: Pricing{InputPerMillion: 0.25, OutputPerMillion: 1.00, CachedInputPerMillion: 0.025}}
	GPT5Nano = Model{ID: "gpt-5-nano", Name: "GPT-5 nano", Provider: pyclaw.ProviderOpenAI, Pricing: Pricing{InputPerMillion: 0.10, OutputPerMillion: 0.40, CachedInputPerMillion: 0.01}}
	O4Mini   = Model{ID: "o4-mini", Name: "o4-mini", Provider: pyclaw.ProviderOpenAI, Pricing: Pricing{InputPerMillion: 0.50, OutputPerMillion: 2.00, CachedInputPerMillion: 0.05}}

	DefaultGPTModel = GPT52
)

// Anthropic models, as auto-updating aliases.
// Pricing last verified: December 14, 2025
var (
	ClaudeOpus45   = Model{ID: "claude-opus-4-5", Name: "Claude Opus 4.5", Provider: pyclaw.ProviderAnthropic, Pricing: Pricing{InputPerMillion: 5.00, OutputPerMillion: 25.00}}
	ClaudeSonnet45 = Model{ID: "claude-sonnet-4-5", Name: "Claude Sonnet 4.5", Provider: pyclaw.ProviderAnthropic, Pricing: Pricing{InputPerMillion: 3.00, OutputPerMillion: 15.00}}
	ClaudeHaiku45  = Model{ID: "claude-haiku-4-5", Name: "Claude Haiku 4.5", Provider: pyclaw.ProviderAnthropic, Pricing: Pricing{InputPerMillion: 1.00, OutputPerMillion: 5.00}}

	DefaultClaudeModel = ClaudeSonnet45
)

var catalog = []Model{
	Gemini3Pro, Gemini25Pro, Gemini25Flash, Gemini25FlashLite,
	GPT52, GPT51, GPT5Mini, GPT5Nano, O4Mini,
	ClaudeOpus45, ClaudeSonnet45, ClaudeHaiku45,
}

// All returns every catalogued model.
func All() []Model {
	return append([]Model(nil), catalog...)
}

// For returns the catalogued models of one provider. Custom endpoints have
// no catalog.
func For(p pyclaw.ProviderName) []Model {
	var out []Model
	for _, m := range catalog {
		if m.Provider == p {
			out = append(out, m)
		}
	}
	return out
}

// Default returns the model a fresh install of provider p should use.
func Default(p pyclaw.ProviderName) (Model, bool) {
	switch p {
	case pyclaw.ProviderAntigravity:
		return DefaultGeminiModel, true
	case pyclaw.ProviderOpenAI:
		return DefaultGPTModel, true
	case pyclaw.ProviderAnthropic:
		return DefaultClaudeModel, true
	}
	return Model{}, false
}

// Lookup finds a model by id. A variant suffix such as "-high" is ignored
// when the full id is not catalogued; the longest matching base id wins.
func Lookup(id string) (Model, bool) {
	var best Model
	found := false
	for _, m := range catalog {
		if m.ID == id {
			return m, true
		}
		if strings.HasPrefix(id, m.ID+"-") && len(m.ID) > len(best.ID) {
			best, found = m, true
		}
	}
	return best, found
}

// Infos converts models to the provider listing shape.
func Infos(models []Model) []pyclaw.ModelInfo {
	out := make([]pyclaw.ModelInfo, len(models))
	for i, m := range models {
		out[i] = m.Info()
	}
	return out
}
