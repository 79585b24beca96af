// Package identity manages the markdown files that make up the assistant's
// persistent self (SOUL.md, USER.md, MEMORY.md and friends), the daily notes
// in the workspace, and the system prompt assembled from them.
package identity

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// File names one identity file.
type File string

const (
	Soul      File = "soul"
	User      File = "user"
	Memory    File = "memory"
	Tools     File = "tools"
	Identity  File = "identity"
	Agents    File = "agents"
	Boot      File = "boot"
	Bootstrap File = "bootstrap"
	Heartbeat File = "heartbeat"
)

// Files lists every identity file.
var Files = []File{Soul, User, Memory, Tools, Identity, Agents, Boot, Bootstrap, Heartbeat}

// FileNames returns the names accepted by ParseFile.
func FileNames() []string {
	out := make([]string, len(Files))
	for i, f := range Files {
		out[i] = string(f)
	}
	return out
}

// ParseFile validates a file name such as "soul".
func ParseFile(s string) (File, error) {
	f := File(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Files {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown file type: %s", s)
}

// Name returns the on-disk name, e.g. "SOUL.md".
func (f File) Name() string { return strings.ToUpper(string(f)) + ".md" }

// Store reads and writes identity files under a home directory and daily
// notes under a workspace directory.
type Store struct {
	dir       string
	workspace string
	now       func() time.Time
}

// NewStore creates a store rooted at dir (usually ~/.pyclaw).
func NewStore(dir, workspace string) *Store {
	return &Store{dir: dir, workspace: workspace, now: time.Now}
}

// Dir returns the identity directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the location of f.
func (s *Store) Path(f File) string { return filepath.Join(s.dir, f.Name()) }

// Read returns the content of f, or "" when it does not exist.
func (s *Store) Read(f File) (string, error) {
	data, err := os.ReadFile(s.Path(f))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}

// Write replaces the content of f.
func (s *Store) Write(f File, content string) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.Path(f), []byte(content), 0o600)
}

// Append adds content to the end of f. USER.md and MEMORY.md take a bullet
// per entry; other files take a new paragraph.
func (s *Store) Append(f File, content string) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	entry := "\n\n" + content
	if f == User || f == Memory {
		entry = "\n- " + content
	}
	fh, err := os.OpenFile(s.Path(f), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := fh.WriteString(entry); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

// EnsureFiles writes templates for missing identity files, leaving SOUL.md
// alone. A legacy personality.md is promoted to SOUL.md.
func (s *Store) EnsureFiles() error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	legacy := filepath.Join(s.dir, "personality.md")
	if _, err := os.Stat(legacy); err == nil && s.IsFirstBoot() {
		if err := os.Rename(legacy, s.Path(Soul)); err != nil {
			return err
		}
	}
	for _, f := range Files {
		tmpl, ok := templates[f]
		if !ok {
			continue
		}
		if _, err := os.Stat(s.Path(f)); err == nil {
			continue
		}
		if err := s.Write(f, tmpl); err != nil {
			return err
		}
	}
	return nil
}

// IsFirstBoot reports whether SOUL.md is missing.
func (s *Store) IsFirstBoot() bool { return s.missing(Soul) }

func (s *Store) missing(f File) bool {
	_, err := os.Stat(s.Path(f))
	return errors.Is(err, fs.ErrNotExist)
}

// Wipe deletes every identity file, returning the agent to first boot.
func (s *Store) Wipe() error {
	for _, f := range Files {
		if err := os.Remove(s.Path(f)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// AIName returns the assistant's display name from the first heading of
// SOUL.md, or "" when there is none.
func (s *Store) AIName() string {
	soul, _ := s.Read(Soul)
	for _, line := range strings.Split(soul, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimSpace(strings.TrimLeft(line, "#"))
		if name, _, ok := strings.Cut(line, " - "); ok {
			line = name
		}
		if line == "SOUL.md" {
			return ""
		}
		return line
	}
	return ""
}

func (s *Store) notesDir() string { return filepath.Join(s.workspace, "memory") }

// WriteDailyNote appends a timestamped bullet to today's note in
// workspace/memory and returns the note path.
func (s *Store) WriteDailyNote(content string) (string, error) {
	now := s.now()
	path := filepath.Join(s.notesDir(), now.Format(time.DateOnly)+".md")
	if err := os.MkdirAll(s.notesDir(), 0o700); err != nil {
		return "", err
	}

	var entry string
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		entry = "# " + now.Format(time.DateOnly) + "\n"
	}
	entry += fmt.Sprintf("\n- %s %s", now.Format("15:04"), content)

	fh, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return "", err
	}
	if _, err := fh.WriteString(entry); err != nil {
		fh.Close()
		return "", err
	}
	return path, fh.Close()
}

// DailyNotes returns up to limit note file names, newest first.
func (s *Store) DailyNotes(limit int) ([]string, error) {
	entries, err := os.ReadDir(s.notesDir())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}
