// Package model is the static catalog of chat models pyclaw can select,
// with per-million-token pricing. Providers fall back to it when a live
// model listing is unavailable, and the CLI prints it with `pyclaw models`.
//
//	m, ok := model.Lookup(cfg.ModelID())
//	if ok {
//	    fmt.Printf("%s: $%.4f\n", m.Name, m.Cost(in, out))
//	}
//
// Gemini models carry long context pricing (over 200K tokens); OpenAI models
// carry cached input pricing:
//
//	if p := model.GPT52.Pricing; p.HasCachedPricing() {
//	    cached := float64(tokens) / 1_000_000 * p.CachedInputPerMillion
//	}
package model
