package heartbeat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/9v2/pyclaw/config"
	"github.com/9v2/pyclaw/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcess struct {
	running bool
	pid     int
}

func (p fakeProcess) IsRunning() bool { return p.running }
func (p fakeProcess) PID() int        { return p.pid }

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2026, 5, 1, 12, 30, 0, 0, time.UTC) }
}

func TestCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := config.New(filepath.Join(dir, "config.json"))
	cfg.Set("auth.gemini_api_key", nil)
	store := identity.NewStore(dir, filepath.Join(dir, "workspace"))

	t.Run("missing gemini key is unhealthy", func(t *testing.T) {
		m := New(cfg, WithAPIURL(srv.URL), WithClock(fixedClock()), WithIdentity(store), WithGateway(fakeProcess{}))
		st := m.Check(context.Background())
		assert.False(t, st.OK)

		auth, _ := st.Get("auth")
		assert.Equal(t, "❌ no key", auth)
		api, _ := st.Get("api")
		assert.Equal(t, "✅ reachable (404)", api)
		gw, _ := st.Get("gateway")
		assert.Equal(t, "⏹️ stopped", gw)
		soul, _ := st.Get("soul")
		assert.Equal(t, "⚠️ first boot", soul)
	})

	t.Run("healthy", func(t *testing.T) {
		cfg.Set("auth.gemini_api_key", "key")
		require.NoError(t, store.Write(identity.Soul, "# Claw"))
		m := New(cfg, WithAPIURL(srv.URL), WithIdentity(store), WithGateway(fakeProcess{running: true, pid: 4242}))
		st := m.Check(context.Background())
		assert.True(t, st.OK, st.Summary())

		gw, _ := st.Get("gateway")
		assert.Equal(t, "✅ running (pid 4242)", gw)
		soul, _ := st.Get("soul")
		assert.Equal(t, "✅ configured", soul)
	})

	t.Run("unreachable api is reported but not fatal", func(t *testing.T) {
		cfg.Set("auth.provider", "custom")
		cfg.Set("auth.custom_api_base", "http://127.0.0.1:1")
		st := New(cfg).Check(context.Background())
		api, _ := st.Get("api")
		assert.Equal(t, "❌ unreachable", api)
		auth, _ := st.Get("auth")
		assert.Equal(t, "✅ endpoint set", auth)
		assert.True(t, st.OK)
	})
}

func TestRecord(t *testing.T) {
	dir := t.TempDir()
	cfg := config.New(filepath.Join(dir, "config.json"))
	m := New(cfg, WithClock(fixedClock()))
	assert.Equal(t, filepath.Join(dir, FileName), m.Path())

	st := Status{
		Time:   fixedClock()(),
		OK:     true,
		Checks: []Check{{Name: "config", Status: "✅ ok"}},
	}
	require.NoError(t, m.Record(st))

	data, err := os.ReadFile(m.Path())
	require.NoError(t, err)
	assert.Equal(t, header+"\n## 2026-05-01 12:30:00 — ✅ healthy\n\n| Check | Status |\n|-------|--------|\n| config | ✅ ok |\n\n---\n", string(data))

	t.Run("keeps the newest entries", func(t *testing.T) {
		for i := range MaxEntries + 5 {
			st.Time = st.Time.Add(time.Minute)
			st.OK = i%2 == 0
			require.NoError(t, m.Record(st))
		}
		data, err := os.ReadFile(m.Path())
		require.NoError(t, err)
		content := string(data)

		assert.True(t, strings.HasPrefix(content, header))
		assert.Equal(t, MaxEntries, strings.Count(content, "\n## "))
		assert.True(t, strings.HasSuffix(content, st.Markdown()))
		assert.NotContains(t, content, "12:30:00")
	})
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	cfg := config.New(filepath.Join(dir, "config.json"))
	m := New(cfg, WithAPIURL("http://127.0.0.1:1"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Hour)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat(m.Path())
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}
