package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/9v2/pyclaw"
	"github.com/9v2/pyclaw/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// home points the pyclaw home and the workspace at temporary directories
// and clears the environment overrides the commands would pick up.
func home(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.HomeEnv, dir)
	t.Setenv("HOME", t.TempDir())
	for _, name := range []string{"PYCLAW_MODEL", "PYCLAW_TELEGRAM_TOKEN"} {
		t.Setenv(name, "")
	}
	return dir
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(""), &out)
	return out.String(), err
}

func TestRun(t *testing.T) {
	home(t)

	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "pyclaw "+version+"\n", out)

	out, err = runCLI(t, "help")
	require.NoError(t, err)
	assert.Contains(t, out, "gateway start|stop|restart|status|run")

	_, err = runCLI(t, "launch")
	assert.EqualError(t, err, `unknown command "launch", see pyclaw help`)
}

func TestConfigCommand(t *testing.T) {
	dir := home(t)

	t.Run("set and get", func(t *testing.T) {
		out, err := runCLI(t, "config", "set", "agent.temperature", "0.2")
		require.NoError(t, err)
		assert.Contains(t, out, "agent.temperature = 0.2")

		out, err = runCLI(t, "config", "get", "agent.temperature")
		require.NoError(t, err)
		assert.Equal(t, "0.2\n", out)

		_, err = runCLI(t, "config", "set", "personality.ai_name", "Nova", "Prime")
		require.NoError(t, err)
		cfg, err := config.Load(filepath.Join(dir, "config.json"))
		require.NoError(t, err)
		assert.Equal(t, "Nova Prime", cfg.String("personality.ai_name"))
	})

	t.Run("get unknown key", func(t *testing.T) {
		_, err := runCLI(t, "config", "get", "no.such.key")
		assert.ErrorIs(t, err, config.ErrNotFound)
	})

	t.Run("usage errors", func(t *testing.T) {
		_, err := runCLI(t, "config", "set", "only-key")
		assert.Error(t, err)
		_, err = runCLI(t, "config", "frobnicate")
		assert.Error(t, err)
	})

	t.Run("backups and restore", func(t *testing.T) {
		out, err := runCLI(t, "config", "backups")
		require.NoError(t, err)
		// set made automatic backups
		assert.Contains(t, out, "config.backup.")

		_, err = runCLI(t, "config", "set", "agent.model", "gpt-5.2")
		require.NoError(t, err)

		backups, err := config.New(filepath.Join(dir, "config.json")).ListBackups()
		require.NoError(t, err)
		require.NotEmpty(t, backups)

		out, err = runCLI(t, "config", "restore", filepath.Base(backups[len(backups)-1]))
		require.NoError(t, err)
		assert.Contains(t, out, "✓ restored")

		_, err = runCLI(t, "config", "restore", "config.backup.1.json")
		assert.Error(t, err)
	})
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, float64(3), parseValue("3"))
	assert.Equal(t, true, parseValue("true"))
	assert.Nil(t, parseValue("null"))
	assert.Equal(t, []any{"a", "b"}, parseValue(`["a","b"]`))
	assert.Equal(t, "hello world", parseValue("hello world"))
}

func TestSkillsCommand(t *testing.T) {
	home(t)

	src := filepath.Join(t.TempDir(), "weather")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "SKILL.md"),
		[]byte("---\nname: weather\ndescription: Check the forecast\n---\nUse wttr.in."), 0o644))

	out, err := runCLI(t, "skills")
	require.NoError(t, err)
	assert.Contains(t, out, "no skills installed.")

	out, err = runCLI(t, "skills", "install", src)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ installed skill: weather")
	assert.Contains(t, out, "Check the forecast")

	out, err = runCLI(t, "skills", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "installed skills (1):")
	assert.Contains(t, out, "weather — Check the forecast")

	out, err = runCLI(t, "skills", "remove", "weather")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ removed skill: weather")

	_, err = runCLI(t, "skills", "remove", "weather")
	assert.EqualError(t, err, "skill not found: weather")
}

func TestModelsCommand(t *testing.T) {
	home(t)
	orig := providerFromConfig
	t.Cleanup(func() { providerFromConfig = orig })

	t.Run("live listing", func(t *testing.T) {
		providerFromConfig = func(ctx context.Context, cfg *config.Config) (pyclaw.Provider, error) {
			return &scriptedProvider{}, nil
		}
		out, err := runCLI(t, "models")
		require.NoError(t, err)
		assert.Contains(t, out, "gpt-5.2")
		assert.Contains(t, out, "1.75 · 14.00")
	})

	t.Run("catalog fallback", func(t *testing.T) {
		providerFromConfig = func(ctx context.Context, cfg *config.Config) (pyclaw.Provider, error) {
			return nil, errors.New("missing credentials")
		}
		out, err := runCLI(t, "models")
		require.NoError(t, err)
		assert.Contains(t, out, "missing credentials")
		assert.Contains(t, out, "gemini-2.5-flash")
		assert.Contains(t, out, "→")
	})
}

func TestGatewayCommand(t *testing.T) {
	home(t)

	out, err := runCLI(t, "gateway", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "● stopped")

	out, err = runCLI(t, "gateway", "stop")
	require.NoError(t, err)
	assert.Contains(t, out, "gateway is not running.")

	_, err = runCLI(t, "gateway", "start")
	assert.ErrorContains(t, err, "no telegram bot token")

	_, err = runCLI(t, "gateway", "dance")
	assert.Error(t, err)
}
