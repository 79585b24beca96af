package model

// Pricing is the price per million tokens in USD. Fields that do not apply
// to a provider's model are zero.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
	// CachedInputPerMillion applies to prompt-cached input (OpenAI).
	CachedInputPerMillion float64
	// InputPerMillionLong and OutputPerMillionLong apply past 200K tokens
	// of context (Gemini).
	InputPerMillionLong  float64
	OutputPerMillionLong float64
}

// HasCachedPricing reports whether the model has a cached input price.
func (p Pricing) HasCachedPricing() bool {
	return p.CachedInputPerMillion > 0
}

// HasLongContextPricing reports whether the model has tiered long context prices.
func (p Pricing) HasLongContextPricing() bool {
	return p.InputPerMillionLong > 0 || p.OutputPerMillionLong > 0
}

// IsZero reports whether no price is known.
func (p Pricing) IsZero() bool {
	return p == Pricing{}
}

// CalculateCost returns the standard-tier cost in USD of a call.
func CalculateCost(inputTokens, outputTokens int, p Pricing) float64 {
	return float64(inputTokens)/1_000_000*p.InputPerMillion +
		float64(outputTokens)/1_000_000*p.OutputPerMillion
}
