package model

import (
	"testing"

	"github.com/9v2/pyclaw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateCost(t *testing.T) {
	pricing := Pricing{InputPerMillion: 1.00, OutputPerMillion: 2.00}

	t.Run("standard usage", func(t *testing.T) {
		// 1000/1M * $1 + 500/1M * $2
		assert.InDelta(t, 0.002, CalculateCost(1000, 500, pricing), 0.0001)
	})

	t.Run("million tokens", func(t *testing.T) {
		assert.InDelta(t, 3.0, CalculateCost(1_000_000, 1_000_000, pricing), 0.0001)
	})

	t.Run("zero usage", func(t *testing.T) {
		assert.Equal(t, 0.0, CalculateCost(0, 0, pricing))
	})
}

func TestModelCost(t *testing.T) {
	// $3/M input, $15/M output
	assert.InDelta(t, 0.105, ClaudeSonnet45.Cost(10000, 5000), 0.0001)
	assert.Greater(t, ClaudeSonnet45.Cost(100000, 50000), ClaudeHaiku45.Cost(100000, 50000))
}

func TestPricingFlags(t *testing.T) {
	assert.True(t, GPT52.Pricing.HasCachedPricing())
	assert.False(t, ClaudeSonnet45.Pricing.HasCachedPricing())
	assert.True(t, Gemini25Pro.Pricing.HasLongContextPricing())
	assert.False(t, ClaudeSonnet45.Pricing.HasLongContextPricing())
	assert.True(t, Pricing{}.IsZero())
}

func TestCatalog(t *testing.T) {
	t.Run("for provider", func(t *testing.T) {
		for _, m := range For(pyclaw.ProviderAnthropic) {
			assert.Equal(t, pyclaw.ProviderAnthropic, m.Provider)
		}
		assert.NotEmpty(t, For(pyclaw.ProviderAntigravity))
		assert.Empty(t, For(pyclaw.ProviderCustom))
	})

	t.Run("defaults", func(t *testing.T) {
		m, ok := Default(pyclaw.ProviderOpenAI)
		require.True(t, ok)
		assert.Equal(t, GPT52, m)
		_, ok = Default(pyclaw.ProviderCustom)
		assert.False(t, ok)
	})

	t.Run("lookup", func(t *testing.T) {
		m, ok := Lookup("gemini-2.5-flash")
		require.True(t, ok)
		assert.Equal(t, Gemini25Flash, m)

		m, ok = Lookup("gemini-2.5-flash-lite-high")
		require.True(t, ok)
		assert.Equal(t, Gemini25FlashLite, m)

		_, ok = Lookup("llama-3")
		assert.False(t, ok)
	})

	t.Run("infos", func(t *testing.T) {
		infos := Infos([]Model{ClaudeOpus45})
		assert.Equal(t, []pyclaw.ModelInfo{{ID: "claude-opus-4-5", Name: "Claude Opus 4.5"}}, infos)
	})
}
