// Package skills loads the markdown skill packs installed in the workspace.
// Each skill lives in <workspace>/skills/<name>/SKILL.md with optional YAML
// frontmatter:
//
//	---
//	name: browser
//	description: Drive a headless browser with playwright
//	---
//	...instructions...
package skills

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileName is the skill definition inside each skill directory.
const FileName = "SKILL.md"

// Skill is a parsed skill.
type Skill struct {
	Name        string
	Description string
	Content     string
	Path        string
}

type frontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Parse reads a SKILL.md body. Frontmatter values override dirName.
func Parse(dirName string, raw []byte) (Skill, error) {
	s := Skill{Name: dirName, Content: strings.TrimSpace(string(raw))}
	text := string(bytes.TrimPrefix(raw, []byte("\ufeff")))
	if !strings.HasPrefix(text, "---") {
		return s, nil
	}
	parts := strings.SplitN(text, "---", 3)
	if len(parts) < 3 {
		return s, nil
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(parts[1]), &fm); err != nil {
		return Skill{}, fmt.Errorf("skills: %s frontmatter: %w", dirName, err)
	}
	if fm.Name != "" {
		s.Name = fm.Name
	}
	s.Description = strings.TrimSpace(fm.Description)
	s.Content = strings.TrimSpace(parts[2])
	return s, nil
}

// Manager discovers, installs and removes skills under a workspace.
type Manager struct {
	dir string

	mu     sync.RWMutex
	skills []Skill
}

// NewManager creates a manager for <workspace>/skills.
func NewManager(workspace string) *Manager {
	return &Manager{dir: filepath.Join(workspace, "skills")}
}

// Dir returns the skills directory.
func (m *Manager) Dir() string { return m.dir }

// Load rescans the skills directory. Skills with unreadable or malformed
// files are skipped and reported in the joined error; the rest still load.
func (m *Manager) Load() ([]Skill, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("skills: %w", err)
	}

	var loaded []Skill
	var errs []error
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		s, err := m.read(e.Name())
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		loaded = append(loaded, s)
	}

	m.mu.Lock()
	m.skills = loaded
	m.mu.Unlock()
	return append([]Skill(nil), loaded...), errors.Join(errs...)
}

func (m *Manager) read(name string) (Skill, error) {
	path := filepath.Join(m.dir, name, FileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		return Skill{}, err
	}
	s, err := Parse(name, raw)
	if err != nil {
		return Skill{}, err
	}
	s.Path = path
	return s, nil
}

// Skills returns the skills from the last Load.
func (m *Manager) Skills() []Skill {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Skill(nil), m.skills...)
}

// Names lists installed skill directories that hold a SKILL.md, sorted.
func (m *Manager) Names() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("skills: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(m.dir, e.Name(), FileName)); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Install copies a skill from a directory containing SKILL.md, or from a
// SKILL.md file, replacing any installed skill of the same name. An empty
// name derives it from the source path.
func (m *Manager) Install(src, name string) (Skill, error) {
	info, err := os.Stat(src)
	if err != nil {
		return Skill{}, fmt.Errorf("skills: %w", err)
	}

	srcDir := src
	if info.IsDir() {
		if _, err := os.Stat(filepath.Join(src, FileName)); err != nil {
			return Skill{}, fmt.Errorf("skills: %s has no %s", src, FileName)
		}
	} else {
		if filepath.Base(src) != FileName {
			return Skill{}, fmt.Errorf("skills: %s is not a skill directory or %s", src, FileName)
		}
		srcDir = filepath.Dir(src)
	}
	if name == "" {
		abs, err := filepath.Abs(srcDir)
		if err != nil {
			return Skill{}, fmt.Errorf("skills: %w", err)
		}
		name = filepath.Base(abs)
	}
	if err := validName(name); err != nil {
		return Skill{}, err
	}

	target := filepath.Join(m.dir, name)
	if err := os.RemoveAll(target); err != nil {
		return Skill{}, fmt.Errorf("skills: %w", err)
	}
	if info.IsDir() {
		err = os.CopyFS(target, os.DirFS(src))
	} else {
		err = copyFile(src, filepath.Join(target, FileName))
	}
	if err != nil {
		return Skill{}, fmt.Errorf("skills: install %s: %w", name, err)
	}

	s, err := m.read(name)
	if err != nil {
		return Skill{}, err
	}
	m.mu.Lock()
	m.skills = append(removeNamed(m.skills, s.Name), s)
	m.mu.Unlock()
	return s, nil
}

// Remove deletes an installed skill and reports whether it existed.
func (m *Manager) Remove(name string) (bool, error) {
	if err := validName(name); err != nil {
		return false, err
	}
	target := filepath.Join(m.dir, name)
	if _, err := os.Stat(target); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err := os.RemoveAll(target); err != nil {
		return false, fmt.Errorf("skills: %w", err)
	}
	m.mu.Lock()
	m.skills = removeNamed(m.skills, name)
	m.mu.Unlock()
	return true, nil
}

// Prompt renders the loaded skills as a <skills> block, or "" when none
// are loaded.
func (m *Manager) Prompt() string {
	skills := m.Skills()
	if len(skills) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("<skills>\n")
	for _, s := range skills {
		fmt.Fprintf(&sb, "\n## Skill: %s\n", s.Name)
		if s.Description != "" {
			fmt.Fprintf(&sb, "_%s_\n\n", s.Description)
		}
		sb.WriteString(s.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("\n</skills>")
	return sb.String()
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("skills: invalid skill name %q", name)
	}
	return nil
}

func removeNamed(list []Skill, name string) []Skill {
	out := list[:0:0]
	for _, s := range list {
		if s.Name != name {
			out = append(out, s)
		}
	}
	return out
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
