package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	backupPrefix = "config.backup."
	backupSuffix = ".json"
)

// Backup copies the config file to config.backup.<unix>.json next to it
// and prunes the oldest backups beyond backups.max_count. When the file
// does not exist yet, the in-memory document is written instead.
func (c *Config) Backup() (string, error) {
	dst := filepath.Join(c.Dir(), fmt.Sprintf("%s%d%s", backupPrefix, c.now().Unix(), backupSuffix))

	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		c.mu.RLock()
		data, err = json.MarshalIndent(c.data, "", "  ")
		c.mu.RUnlock()
	}
	if err != nil {
		return "", fmt.Errorf("config: backup: %w", err)
	}
	if err := writeFile(dst, data); err != nil {
		return "", err
	}

	backups, err := c.ListBackups()
	if err != nil {
		return dst, err
	}
	keep := max(c.Int("backups.max_count", 5), 1)
	for i := 0; i < len(backups)-keep; i++ {
		if err := os.Remove(backups[i]); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return dst, fmt.Errorf("config: prune backup: %w", err)
		}
	}
	return dst, nil
}

// AutoBackup backs up before a write when backups.enabled is set. It
// returns "" when backups are disabled.
func (c *Config) AutoBackup() (string, error) {
	if !c.Bool("backups.enabled") {
		return "", nil
	}
	return c.Backup()
}

// ListBackups returns backup paths, oldest first.
func (c *Config) ListBackups() ([]string, error) {
	entries, err := os.ReadDir(c.Dir())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: list backups: %w", err)
	}

	type backup struct {
		path string
		ts   int64
	}
	var found []backup
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
			continue
		}
		ts, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(name, backupPrefix), backupSuffix), 10, 64)
		if err != nil {
			continue
		}
		found = append(found, backup{filepath.Join(c.Dir(), name), ts})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ts < found[j].ts })

	out := make([]string, len(found))
	for i, b := range found {
		out[i] = b.path
	}
	return out, nil
}

// Restore replaces the config file with a backup and reloads it.
func (c *Config) Restore(backupPath string) error {
	raw, err := os.ReadFile(backupPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: backup not found: %s", backupPath)
		}
		return fmt.Errorf("config: restore: %w", err)
	}
	var user map[string]any
	if err := json.Unmarshal(raw, &user); err != nil {
		return &ParseError{Path: backupPath, Err: err}
	}
	if err := writeFile(c.path, raw); err != nil {
		return err
	}

	c.mu.Lock()
	c.data = merge(Defaults(), user)
	c.mu.Unlock()
	return nil
}
