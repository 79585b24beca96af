// Package provider builds the configured model backend.
//
//	cfg, _ := config.Load(config.DefaultPath())
//	p, err := provider.FromConfig(ctx, cfg)
//	ch, err := p.Stream(ctx, pyclaw.Request{Model: cfg.ModelID(), ...})
//
// Backends live in subpackages: gemini (auth.provider "antigravity" or
// "gemini"), openai ("openai" and "custom" OpenAI-compatible endpoints) and
// anthropic.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/9v2/pyclaw"
	"github.com/9v2/pyclaw/config"
	"github.com/9v2/pyclaw/provider/anthropic"
	"github.com/9v2/pyclaw/provider/gemini"
	"github.com/9v2/pyclaw/provider/openai"
)

// ErrMissingCredentials is returned when the selected provider has no key.
var ErrMissingCredentials = errors.New("missing credentials")

// Name returns the configured provider, defaulting to antigravity.
func Name(cfg *config.Config) pyclaw.ProviderName {
	switch p := cfg.String("auth.provider"); p {
	case "", "gemini":
		return pyclaw.ProviderAntigravity
	default:
		return pyclaw.ProviderName(p)
	}
}

// FromConfig creates the provider selected by auth.provider.
func FromConfig(ctx context.Context, cfg *config.Config) (pyclaw.Provider, error) {
	name := Name(cfg)
	switch name {
	case pyclaw.ProviderAntigravity:
		key, err := requireKey(cfg, "auth.gemini_api_key", "GEMINI_API_KEY")
		if err != nil {
			return nil, err
		}
		return gemini.New(ctx, key)

	case pyclaw.ProviderOpenAI:
		key, err := requireKey(cfg, "auth.openai_api_key", "OPENAI_API_KEY")
		if err != nil {
			return nil, err
		}
		return openai.New(key, openai.WithDefaultModel(cfg.String("agent.model"))), nil

	case pyclaw.ProviderAnthropic:
		key, err := requireKey(cfg, "auth.anthropic_api_key", "ANTHROPIC_API_KEY")
		if err != nil {
			return nil, err
		}
		return anthropic.New(key, anthropic.WithDefaultModel(cfg.String("agent.model"))), nil

	case pyclaw.ProviderCustom:
		base := cfg.String("auth.custom_api_base")
		if base == "" {
			return nil, fmt.Errorf("custom provider: auth.custom_api_base is not set")
		}
		model := cfg.String("auth.custom_model")
		if model == "" {
			model = cfg.String("agent.model")
		}
		return openai.New(cfg.String("auth.custom_api_key"),
			openai.WithBaseURL(base),
			openai.WithProviderName(pyclaw.ProviderCustom),
			openai.WithDefaultModel(model),
		), nil
	}
	return nil, fmt.Errorf("unknown provider: %s", name)
}

func requireKey(cfg *config.Config, key, env string) (string, error) {
	if v := cfg.String(key); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: set %s or %s (run `pyclaw config set %s <key>`)", ErrMissingCredentials, key, env, key)
}
