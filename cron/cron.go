// Package cron schedules the assistant's recurring jobs. Jobs are stored in
// the cron.jobs config list and fire by sending their action to an agent.
package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/9v2/pyclaw/config"
	robfig "github.com/robfig/cron/v3"
)

// ConfigKey is where jobs are persisted.
const ConfigKey = "cron.jobs"

var (
	// ErrJobExists is returned when adding a job whose name is taken.
	ErrJobExists = errors.New("cron job already exists")

	// ErrJobNotFound is returned for operations on an unknown job.
	ErrJobNotFound = errors.New("cron job not found")
)

// Job is one scheduled prompt.
type Job struct {
	Name     string `json:"name"`
	Schedule string `json:"schedule"`
	Action   string `json:"action"`
	Enabled  bool   `json:"enabled"`
}

// Message is the chat message sent to the agent when j fires.
func (j Job) Message() string {
	return fmt.Sprintf("[Cron Job: %s] %s", j.Name, j.Action)
}

// Validate parses a schedule. Five-field expressions, @every durations and
// descriptors such as @daily are accepted.
func Validate(schedule string) error {
	if _, err := robfig.ParseStandard(strings.TrimSpace(schedule)); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return nil
}

// Manager edits and runs the jobs in a config.
type Manager struct {
	cfg *config.Config
	log *slog.Logger
	loc *time.Location

	mu     sync.Mutex
	runner *robfig.Cron
	fire   func(Job)
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithLocation overrides the cron.timezone setting.
func WithLocation(loc *time.Location) Option {
	return func(m *Manager) { m.loc = loc }
}

// NewManager creates a manager over cfg.
func NewManager(cfg *config.Config, opts ...Option) *Manager {
	m := &Manager{cfg: cfg, log: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With("component", "cron")
	return m
}

// Jobs reads the job list from the config. Entries without a name are
// reported as "unnamed".
func (m *Manager) Jobs() []Job {
	var raw []map[string]any
	if err := m.cfg.Decode(ConfigKey, &raw); err != nil {
		return nil
	}
	jobs := make([]Job, 0, len(raw))
	for _, r := range raw {
		j := Job{Name: "unnamed", Enabled: true}
		if s, ok := r["name"].(string); ok && s != "" {
			j.Name = s
		}
		j.Schedule, _ = r["schedule"].(string)
		j.Action, _ = r["action"].(string)
		if b, ok := r["enabled"].(bool); ok {
			j.Enabled = b
		}
		jobs = append(jobs, j)
	}
	return jobs
}

// Add validates and stores a new enabled job. A running scheduler picks it
// up immediately.
func (m *Manager) Add(name, schedule, action string) (Job, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Job{}, errors.New("job name is required")
	}
	if err := Validate(schedule); err != nil {
		return Job{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	jobs := m.Jobs()
	for _, j := range jobs {
		if j.Name == name {
			return Job{}, fmt.Errorf("%w: %s", ErrJobExists, name)
		}
	}
	job := Job{Name: name, Schedule: strings.TrimSpace(schedule), Action: action, Enabled: true}
	if err := m.save(append(jobs, job)); err != nil {
		return Job{}, err
	}
	m.log.Info("job added", "name", name, "schedule", job.Schedule)
	return job, nil
}

// Remove deletes a job and reports whether it existed.
func (m *Manager) Remove(name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	jobs := m.Jobs()
	kept := jobs[:0:0]
	for _, j := range jobs {
		if j.Name != name {
			kept = append(kept, j)
		}
	}
	if len(kept) == len(jobs) {
		return false, nil
	}
	return true, m.save(kept)
}

// Toggle flips a job's enabled flag and returns the updated job.
func (m *Manager) Toggle(name string) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	jobs := m.Jobs()
	for i := range jobs {
		if jobs[i].Name == name {
			jobs[i].Enabled = !jobs[i].Enabled
			return jobs[i], m.save(jobs)
		}
	}
	return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, name)
}

// Format renders the job list, one job per line.
func (m *Manager) Format() string {
	jobs := m.Jobs()
	if len(jobs) == 0 {
		return "No cron jobs configured."
	}
	lines := make([]string, len(jobs))
	for i, j := range jobs {
		status := "✅"
		if !j.Enabled {
			status = "❌"
		}
		lines[i] = fmt.Sprintf("%s %s: '%s' → %s", status, j.Name, j.Schedule, j.Action)
	}
	return strings.Join(lines, "\n")
}

// save persists jobs and reschedules a running scheduler. Callers hold mu.
func (m *Manager) save(jobs []Job) error {
	m.cfg.Set(ConfigKey, jobs)
	if err := m.cfg.Save(); err != nil {
		return fmt.Errorf("save cron jobs: %w", err)
	}
	if m.runner != nil {
		m.schedule(jobs)
	}
	return nil
}

// Start schedules every enabled job and calls fire each time one is due.
// The scheduler stops when ctx is done.
func (m *Manager) Start(ctx context.Context, fire func(Job)) {
	m.mu.Lock()
	if m.runner != nil {
		m.mu.Unlock()
		return
	}
	m.fire = fire
	m.runner = robfig.New(robfig.WithLocation(m.location()))
	jobs := m.Jobs()
	m.schedule(jobs)
	m.runner.Start()
	runner := m.runner
	m.mu.Unlock()

	m.log.Info("cron manager started", "jobs", len(jobs))
	go func() {
		<-ctx.Done()
		m.stopRunner(runner)
	}()
}

// Stop halts the scheduler and waits for running jobs to return.
func (m *Manager) Stop() {
	m.mu.Lock()
	runner := m.runner
	m.runner = nil
	m.mu.Unlock()
	if runner != nil {
		<-runner.Stop().Done()
	}
}

// stopRunner stops r unless a later Start has already replaced it.
func (m *Manager) stopRunner(r *robfig.Cron) {
	m.mu.Lock()
	if m.runner != r {
		m.mu.Unlock()
		return
	}
	m.runner = nil
	m.mu.Unlock()
	<-r.Stop().Done()
}

// schedule replaces the runner's entries with the enabled jobs.
func (m *Manager) schedule(jobs []Job) {
	for _, e := range m.runner.Entries() {
		m.runner.Remove(e.ID)
	}
	for _, j := range jobs {
		if !j.Enabled {
			continue
		}
		job := j
		_, err := m.runner.AddFunc(job.Schedule, func() { m.run(job) })
		if err != nil {
			m.log.Warn("skipping job", "name", job.Name, "error", err)
		}
	}
}

func (m *Manager) run(j Job) {
	m.mu.Lock()
	fire := m.fire
	m.mu.Unlock()
	if fire == nil {
		return
	}
	m.log.Info("firing cron job", "name", j.Name)
	defer func() {
		if p := recover(); p != nil {
			m.log.Error("cron job failed", "name", j.Name, "panic", p)
		}
	}()
	fire(j)
}

func (m *Manager) location() *time.Location {
	if m.loc != nil {
		return m.loc
	}
	tz := m.cfg.String("cron.timezone")
	if tz == "" || tz == "auto" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		m.log.Warn("unknown timezone, using local", "timezone", tz, "error", err)
		return time.Local
	}
	return loc
}
