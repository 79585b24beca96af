package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempConfig(t *testing.T, body string) *Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if body != "" {
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	}
	c, err := Load(path)
	require.NoError(t, err)
	return c
}

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		c := tempConfig(t, "")
		assert.Equal(t, "antigravity", c.String("auth.provider"))
		assert.Equal(t, "gemini-2.5-flash", c.String("agent.model"))
		assert.Equal(t, 0.7, c.Float("agent.temperature", 0))
		assert.Equal(t, 8192, c.Int("agent.max_tokens", 0))
		assert.True(t, c.Bool("safety.confirm_destructive"))
		assert.Contains(t, c.Strings("safety.blocked_patterns"), "rm -rf /")
	})

	t.Run("deep merges user values", func(t *testing.T) {
		c := tempConfig(t, `{"agent":{"model":"gpt-4o"},"extra":{"x":1}}`)
		assert.Equal(t, "gpt-4o", c.String("agent.model"))
		assert.Equal(t, 0.7, c.Float("agent.temperature", 0))
		assert.Equal(t, 1, c.Int("extra.x", 0))
	})

	t.Run("corrupted file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o600))
		_, err := Load(path)
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, path, perr.Path)
	})
}

func TestGetSet(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "config.json"))

	t.Run("missing key", func(t *testing.T) {
		_, err := c.Get("agent.nope")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = c.Get("agent.model.deeper")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("creates intermediate objects", func(t *testing.T) {
		c.Set("a.b.c", "deep")
		assert.Equal(t, "deep", c.String("a.b.c"))
	})

	t.Run("replaces scalar on the path", func(t *testing.T) {
		c.Set("agent.model.sub", true)
		assert.True(t, c.Bool("agent.model.sub"))
	})

	t.Run("normalizes go values", func(t *testing.T) {
		c.Set("gateway.allowed_users", []int64{12345, 678})
		assert.Equal(t, []string{"12345", "678"}, c.Strings("gateway.allowed_users"))
		c.Set("cron.heartbeat_interval", 60)
		assert.Equal(t, 60, c.Int("cron.heartbeat_interval", 0))
	})

	t.Run("get returns a copy", func(t *testing.T) {
		v, err := c.Get("safety")
		require.NoError(t, err)
		v.(map[string]any)["confirm_destructive"] = false
		assert.True(t, c.Bool("safety.confirm_destructive"))
	})
}

func TestModelID(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "config.json"))
	assert.Equal(t, "gemini-2.5-flash", c.ModelID())
	c.SetModel("claude-sonnet-4-5", "thinking")
	assert.Equal(t, "claude-sonnet-4-5-thinking", c.ModelID())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	c := tempConfig(t, `{"auth":{"openai_api_key":"sk-file"}}`)

	assert.Equal(t, "sk-env", c.String("auth.openai_api_key"))
	assert.Equal(t, "sk-env", c.Data()["auth"].(map[string]any)["openai_api_key"])

	require.NoError(t, c.Save())
	raw, err := os.ReadFile(c.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "sk-file")
	assert.NotContains(t, string(raw), "sk-env")

	c.Set("auth.openai_api_key", "sk-set")
	assert.Equal(t, "sk-set", c.String("auth.openai_api_key"))
}

func TestDotenv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BRAVE_API_KEY=brave-from-dotenv\n"), 0o600))
	t.Setenv("BRAVE_API_KEY", "")
	require.NoError(t, os.Unsetenv("BRAVE_API_KEY"))

	c, err := Load(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	assert.Equal(t, "brave-from-dotenv", c.String("search.brave_api_key"))
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	c := New(path)
	c.Set("personality.ai_name", "Nova")
	require.NoError(t, c.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Nova", reloaded.String("personality.ai_name"))
}

func TestBackup(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, c.Save())
	c.Set("backups.max_count", 2)

	clock := time.Unix(1700000000, 0)
	c.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	var made []string
	for range 3 {
		p, err := c.Backup()
		require.NoError(t, err)
		made = append(made, p)
	}

	backups, err := c.ListBackups()
	require.NoError(t, err)
	assert.Equal(t, made[1:], backups)
	assert.Equal(t, filepath.Join(c.Dir(), "config.backup.1700000003.json"), made[2])
}

func TestAutoBackupDisabled(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "config.json"))
	c.Set("backups.enabled", false)
	p, err := c.AutoBackup()
	require.NoError(t, err)
	assert.Empty(t, p)
}

func TestRestore(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "config.json"))
	c.Set("agent.model", "before")
	require.NoError(t, c.Save())
	backup, err := c.Backup()
	require.NoError(t, err)

	c.Set("agent.model", "after")
	require.NoError(t, c.Save())

	require.NoError(t, c.Restore(backup))
	assert.Equal(t, "before", c.String("agent.model"))

	raw, err := os.ReadFile(c.Path())
	require.NoError(t, err)
	var onDisk map[string]any
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Equal(t, "before", onDisk["agent"].(map[string]any)["model"])

	assert.Error(t, c.Restore(filepath.Join(c.Dir(), "missing.json")))
}
