package provider

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/9v2/pyclaw"
	"github.com/9v2/pyclaw/config"
	"github.com/9v2/pyclaw/provider/anthropic"
	"github.com/9v2/pyclaw/provider/gemini"
	"github.com/9v2/pyclaw/provider/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConfig(t *testing.T, values map[string]any) *config.Config {
	t.Helper()
	cfg := config.New(filepath.Join(t.TempDir(), "config.json"))
	for k, v := range values {
		cfg.Set(k, v)
	}
	return cfg
}

func TestName(t *testing.T) {
	assert.Equal(t, pyclaw.ProviderAntigravity, Name(newConfig(t, nil)))
	assert.Equal(t, pyclaw.ProviderAntigravity, Name(newConfig(t, map[string]any{"auth.provider": "gemini"})))
	assert.Equal(t, pyclaw.ProviderOpenAI, Name(newConfig(t, map[string]any{"auth.provider": "openai"})))
}

func TestFromConfig(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		values map[string]any
		check  func(t *testing.T, p pyclaw.Provider, err error)
	}{
		{
			name:   "gemini without key",
			values: map[string]any{"auth.provider": "antigravity", "auth.gemini_api_key": nil},
			check: func(t *testing.T, p pyclaw.Provider, err error) {
				assert.ErrorIs(t, err, ErrMissingCredentials)
				assert.ErrorContains(t, err, "GEMINI_API_KEY")
			},
		},
		{
			name:   "gemini",
			values: map[string]any{"auth.provider": "gemini", "auth.gemini_api_key": "g-key"},
			check: func(t *testing.T, p pyclaw.Provider, err error) {
				require.NoError(t, err)
				assert.IsType(t, &gemini.Client{}, p)
			},
		},
		{
			name:   "openai",
			values: map[string]any{"auth.provider": "openai", "auth.openai_api_key": "sk"},
			check: func(t *testing.T, p pyclaw.Provider, err error) {
				require.NoError(t, err)
				assert.IsType(t, &openai.Client{}, p)
			},
		},
		{
			name:   "anthropic",
			values: map[string]any{"auth.provider": "anthropic", "auth.anthropic_api_key": "sk-ant"},
			check: func(t *testing.T, p pyclaw.Provider, err error) {
				require.NoError(t, err)
				assert.IsType(t, &anthropic.Client{}, p)
			},
		},
		{
			name:   "custom needs a base url",
			values: map[string]any{"auth.provider": "custom"},
			check: func(t *testing.T, p pyclaw.Provider, err error) {
				assert.ErrorContains(t, err, "custom_api_base")
			},
		},
		{
			name:   "custom",
			values: map[string]any{"auth.provider": "custom", "auth.custom_api_base": "http://localhost:11434/v1/", "auth.custom_api_key": "secret"},
			check: func(t *testing.T, p pyclaw.Provider, err error) {
				require.NoError(t, err)
				assert.IsType(t, &openai.Client{}, p)
			},
		},
		{
			name:   "unknown",
			values: map[string]any{"auth.provider": "mystery"},
			check: func(t *testing.T, p pyclaw.Provider, err error) {
				assert.EqualError(t, err, "unknown provider: mystery")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := FromConfig(ctx, newConfig(t, tt.values))
			tt.check(t, p, err)
		})
	}
}
