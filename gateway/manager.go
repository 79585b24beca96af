// Package gateway manages the background process that bridges the agent to
// chat transports, and supervises it while it runs.
//
// The process is started by re-executing the current binary with
// "gateway run", detached from the terminal, with its output appended to
// gateway.log and its pid recorded in gateway.pid under the pyclaw home.
package gateway

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// PIDFile records the running gateway's pid.
	PIDFile = "gateway.pid"
	// LogFile receives the gateway's output.
	LogFile = "gateway.log"

	// DefaultStopTimeout is how long Stop waits after SIGTERM.
	DefaultStopTimeout = 3 * time.Second
)

var (
	// ErrRunning is returned by Start when a gateway is already up.
	ErrRunning = errors.New("gateway is already running")
	// ErrNotRunning is returned by Stop when there is nothing to stop.
	ErrNotRunning = errors.New("gateway is not running")
)

// Manager controls the gateway process through its pid file.
type Manager struct {
	dir         string
	command     string
	args        []string
	stopTimeout time.Duration
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithCommand sets the command Start runs. It defaults to the current
// executable with "gateway run".
func WithCommand(name string, args ...string) ManagerOption {
	return func(m *Manager) {
		m.command = name
		m.args = args
	}
}

// WithStopTimeout sets how long Stop waits for the process to exit.
func WithStopTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) { m.stopTimeout = d }
}

// NewManager creates a manager keeping its files in dir.
func NewManager(dir string, opts ...ManagerOption) *Manager {
	m := &Manager{
		dir:         dir,
		args:        []string{"gateway", "run"},
		stopTimeout: DefaultStopTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// PIDPath returns the pid file location.
func (m *Manager) PIDPath() string { return filepath.Join(m.dir, PIDFile) }

// LogPath returns the log file location.
func (m *Manager) LogPath() string { return filepath.Join(m.dir, LogFile) }

// IsRunning reports whether the recorded process is alive. A stale pid file
// is removed.
func (m *Manager) IsRunning() bool {
	pid := m.readPID()
	if pid == 0 {
		return false
	}
	if alive(pid) {
		return true
	}
	os.Remove(m.PIDPath())
	return false
}

// PID returns the running gateway's pid, or 0.
func (m *Manager) PID() int {
	if !m.IsRunning() {
		return 0
	}
	return m.readPID()
}

// Start launches the gateway in the background and returns its pid.
func (m *Manager) Start() (int, error) {
	if m.IsRunning() {
		return 0, ErrRunning
	}
	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return 0, err
	}

	name := m.command
	if name == "" {
		exe, err := os.Executable()
		if err != nil {
			return 0, fmt.Errorf("locate executable: %w", err)
		}
		name = exe
	}

	logFile, err := os.OpenFile(m.LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, err
	}
	defer logFile.Close()

	cmd := exec.Command(name, m.args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	detach(cmd)
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start gateway: %w", err)
	}
	pid := cmd.Process.Pid

	// Reap the child if this process outlives it.
	go cmd.Wait()

	if err := os.WriteFile(m.PIDPath(), []byte(strconv.Itoa(pid)), 0o600); err != nil {
		return pid, err
	}
	return pid, nil
}

// Stop sends SIGTERM and waits for the process to exit, killing it when it
// does not. It returns the stopped pid.
func (m *Manager) Stop() (int, error) {
	pid := m.readPID()
	defer os.Remove(m.PIDPath())
	if pid == 0 || !alive(pid) {
		return 0, ErrNotRunning
	}

	if err := terminate(pid); err != nil {
		return pid, fmt.Errorf("stop gateway: %w", err)
	}
	deadline := time.Now().Add(m.stopTimeout)
	for time.Now().Before(deadline) {
		if !alive(pid) {
			return pid, nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	if err := kill(pid); err != nil {
		return pid, fmt.Errorf("kill gateway: %w", err)
	}
	return pid, nil
}

// Restart stops a running gateway, if any, and starts a new one.
func (m *Manager) Restart() (int, error) {
	if _, err := m.Stop(); err != nil && !errors.Is(err, ErrNotRunning) {
		return 0, err
	}
	return m.Start()
}

// Release removes the pid file if it names the current process. The
// gateway calls it on exit.
func (m *Manager) Release() {
	if m.readPID() == os.Getpid() {
		os.Remove(m.PIDPath())
	}
}

func (m *Manager) readPID() int {
	data, err := os.ReadFile(m.PIDPath())
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0
	}
	return pid
}
