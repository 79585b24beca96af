// Package heartbeat runs periodic health checks and appends the results to
// a markdown log that both the user and the assistant can read.
package heartbeat

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/9v2/pyclaw/config"
	"github.com/9v2/pyclaw/identity"
)

// FileName is the log written under the pyclaw home.
const FileName = "heartbeat-log.md"

// MaxEntries bounds the log.
const MaxEntries = 50

const header = "# 🫀 PyClaw Heartbeat Log\n\n_Periodic health checks. Latest entries at the bottom._\n\n---\n"

// Default reachability targets per auth.provider.
var apiURLs = map[string]string{
	"antigravity": "https://generativelanguage.googleapis.com",
	"gemini":      "https://generativelanguage.googleapis.com",
	"openai":      "https://api.openai.com",
	"anthropic":   "https://api.anthropic.com",
}

// Process reports on a background process such as the gateway.
type Process interface {
	IsRunning() bool
	PID() int
}

// Check is one named probe result.
type Check struct {
	Name   string
	Status string
}

// Status is the outcome of one health check run.
type Status struct {
	Time   time.Time
	OK     bool
	Checks []Check
}

// Get returns the status of the named check.
func (s Status) Get(name string) (string, bool) {
	for _, c := range s.Checks {
		if c.Name == name {
			return c.Status, true
		}
	}
	return "", false
}

// Markdown renders s as a log entry.
func (s Status) Markdown() string {
	overall := "✅ healthy"
	if !s.OK {
		overall = "⚠️ issues detected"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n## %s — %s\n\n", s.Time.Format(time.DateTime), overall)
	sb.WriteString("| Check | Status |\n|-------|--------|\n")
	for _, c := range s.Checks {
		fmt.Fprintf(&sb, "| %s | %s |\n", c.Name, c.Status)
	}
	sb.WriteString("\n---\n")
	return sb.String()
}

// Summary renders s on one line.
func (s Status) Summary() string {
	parts := make([]string, len(s.Checks))
	for i, c := range s.Checks {
		parts[i] = c.Name + "=" + c.Status
	}
	return strings.Join(parts, " | ")
}

// Monitor runs health checks against a config.
type Monitor struct {
	cfg      *config.Config
	path     string
	client   *http.Client
	apiURL   string
	gateway  Process
	identity *identity.Store
	now      func() time.Time
	log      *slog.Logger
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithPath overrides the log location.
func WithPath(path string) Option {
	return func(m *Monitor) { m.path = path }
}

// WithHTTPClient sets the client used for reachability probes.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Monitor) { m.client = c }
}

// WithAPIURL overrides the reachability target.
func WithAPIURL(u string) Option {
	return func(m *Monitor) { m.apiURL = u }
}

// WithGateway enables the gateway process check.
func WithGateway(p Process) Option {
	return func(m *Monitor) { m.gateway = p }
}

// WithIdentity enables the soul check.
func WithIdentity(s *identity.Store) Option {
	return func(m *Monitor) { m.identity = s }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) { m.log = l }
}

// New creates a monitor. The log defaults to FileName in the config dir.
func New(cfg *config.Config, opts ...Option) *Monitor {
	m := &Monitor{
		cfg:    cfg,
		path:   filepath.Join(cfg.Dir(), FileName),
		client: &http.Client{Timeout: 5 * time.Second},
		now:    time.Now,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With("component", "heartbeat")
	return m
}

// Path returns the log location.
func (m *Monitor) Path() string { return m.path }

// Check runs every probe once.
func (m *Monitor) Check(ctx context.Context) Status {
	st := Status{Time: m.now(), OK: true}
	add := func(name, status string, ok bool) {
		st.Checks = append(st.Checks, Check{Name: name, Status: status})
		if !ok {
			st.OK = false
		}
	}

	if _, err := m.cfg.Get("agent.model"); err != nil {
		add("config", "❌ "+err.Error(), false)
	} else {
		add("config", "✅ ok", true)
	}

	provider := m.cfg.String("auth.provider")
	switch provider {
	case "", "antigravity", "gemini":
		if m.cfg.String("auth.gemini_api_key") != "" {
			add("auth", "✅ key set", true)
		} else {
			add("auth", "❌ no key", false)
		}
	case "openai", "anthropic":
		if m.cfg.String("auth."+provider+"_api_key") != "" {
			add("auth", "✅ key set", true)
		} else {
			add("auth", "⚠️ no key", true)
		}
	case "custom":
		if m.cfg.String("auth.custom_api_base") != "" {
			add("auth", "✅ endpoint set", true)
		} else {
			add("auth", "⚠️ no endpoint", true)
		}
	}

	add("api", m.probe(ctx, provider), true)

	if m.gateway != nil {
		if m.gateway.IsRunning() {
			add("gateway", fmt.Sprintf("✅ running (pid %d)", m.gateway.PID()), true)
		} else {
			add("gateway", "⏹️ stopped", true)
		}
	}

	if m.identity != nil {
		if m.identity.IsFirstBoot() {
			add("soul", "⚠️ first boot", true)
		} else {
			add("soul", "✅ configured", true)
		}
	}
	return st
}

func (m *Monitor) probe(ctx context.Context, provider string) string {
	url := m.apiURL
	if url == "" {
		url = apiURLs[provider]
		if provider == "custom" {
			url = m.cfg.String("auth.custom_api_base")
		}
	}
	if url == "" {
		return "⏭️ skipped"
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return "❌ unreachable"
	}
	resp, err := m.client.Do(req)
	if err != nil {
		m.log.Debug("api probe failed", "url", url, "error", err)
		return "❌ unreachable"
	}
	resp.Body.Close()
	return fmt.Sprintf("✅ reachable (%d)", resp.StatusCode)
}

// Record appends st to the log, keeping the header and the newest
// MaxEntries entries.
func (m *Monitor) Record(st Status) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o700); err != nil {
		return err
	}
	entry := st.Markdown()

	data, err := os.ReadFile(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		return os.WriteFile(m.path, []byte(header+entry), 0o600)
	}
	if err != nil {
		return err
	}

	sections := strings.Split(string(data), "\n## ")
	if len(sections) > MaxEntries {
		kept := sections[len(sections)-(MaxEntries-1):]
		content := sections[0] + "\n## " + strings.Join(kept, "\n## ")
		return os.WriteFile(m.path, []byte(content+entry), 0o600)
	}

	f, err := os.OpenFile(m.path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(entry); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Run checks and records every interval until ctx is done. A zero interval
// reads cron.heartbeat_interval (seconds, default 300).
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Duration(m.cfg.Int("cron.heartbeat_interval", 300)) * time.Second
	}
	m.log.Info("heartbeat started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		st := m.Check(ctx)
		if err := m.Record(st); err != nil {
			m.log.Error("heartbeat record failed", "error", err)
		}
		if !st.OK {
			m.log.Warn("heartbeat", "checks", st.Summary())
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
