package config

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/9v2/pyclaw/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTools(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, c.Save())
	reg := tool.NewRegistry().Add(Tools(c)...)
	ctx := context.Background()

	t.Run("set_config requires confirmation", func(t *testing.T) {
		tl, ok := reg.Get("set_config")
		require.True(t, ok)
		assert.True(t, tl.RequiresConfirmation)
	})

	t.Run("get_config encodes json", func(t *testing.T) {
		res := reg.Execute(ctx, "get_config", "", map[string]any{"key": "agent.model"})
		require.NoError(t, res.Err)
		assert.Equal(t, `"gemini-2.5-flash"`, res.Value)

		res = reg.Execute(ctx, "get_config", "", map[string]any{"key": "no.such.key"})
		require.NoError(t, res.Err)
		assert.Equal(t, "null", res.Value)
	})

	t.Run("set_config parses json values", func(t *testing.T) {
		res := reg.Execute(ctx, "set_config", "", map[string]any{"key": "agent.temperature", "value": "0.2"})
		require.NoError(t, res.Err)
		assert.Equal(t, "Set agent.temperature = 0.2", res.Value)
		assert.Equal(t, 0.2, c.Float("agent.temperature", 0))

		res = reg.Execute(ctx, "set_config", "", map[string]any{"key": "personality.ai_name", "value": "Nova"})
		require.NoError(t, res.Err)
		assert.Equal(t, `Set personality.ai_name = "Nova"`, res.Value)

		reloaded, err := Load(c.Path())
		require.NoError(t, err)
		assert.Equal(t, "Nova", reloaded.String("personality.ai_name"))

		backups, err := c.ListBackups()
		require.NoError(t, err)
		assert.NotEmpty(t, backups)
	})

	t.Run("change_model", func(t *testing.T) {
		res := reg.Execute(ctx, "change_model", "", map[string]any{"model_id": "gpt-4o"})
		require.NoError(t, res.Err)
		assert.Equal(t, "Model switched to gpt-4o. Will take effect on next message.", res.Value)
		assert.Equal(t, "gpt-4o", c.ModelID())
	})

	t.Run("backup_config", func(t *testing.T) {
		res := reg.Execute(ctx, "backup_config", "", nil)
		require.NoError(t, res.Err)
		assert.Contains(t, res.Value, "Backup created at "+c.Dir())
	})
}
