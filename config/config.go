// Package config manages ~/.pyclaw/config.json: a JSON document deep-merged
// over built-in defaults, addressed with dotted keys such as "agent.model".
//
// Environment variables (optionally loaded from a .env file) shadow a fixed
// set of secret keys without ever being written back to disk.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config is a loaded configuration. It is safe for concurrent use.
type Config struct {
	mu   sync.RWMutex
	path string
	data map[string]any
	env  map[string]any
	now  func() time.Time
}

// New returns a configuration holding the defaults, bound to path. An empty
// path means DefaultPath().
func New(path string) *Config {
	if path == "" {
		path = DefaultPath()
	}
	return &Config{
		path: path,
		data: Defaults(),
		env:  map[string]any{},
		now:  time.Now,
	}
}

// Load reads path (DefaultPath() when empty) and merges it over the
// defaults. A missing file yields the defaults. A .env file in the config
// directory or the working directory is loaded first; variables already
// set in the environment win.
func Load(path string) (*Config, error) {
	c := New(path)
	loadDotenv(filepath.Dir(c.path))

	raw, err := os.ReadFile(c.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("config: read %s: %w", c.path, err)
	default:
		var user map[string]any
		if err := json.Unmarshal(raw, &user); err != nil {
			return nil, &ParseError{Path: c.path, Err: err}
		}
		c.data = merge(c.data, user)
	}

	c.applyEnvOverrides()
	return c, nil
}

func loadDotenv(dir string) {
	for _, p := range []string{filepath.Join(dir, ".env"), ".env"} {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("failed to load env file", "path", p, "error", err)
		}
	}
}

func (c *Config) applyEnvOverrides() {
	for name, key := range envOverrides {
		if v := os.Getenv(name); v != "" {
			c.env[key] = v
		}
	}
}

// Path returns the config file location.
func (c *Config) Path() string { return c.path }

// Dir returns the directory holding the config file, which is also the
// pyclaw home for identity files, sessions and logs.
func (c *Config) Dir() string { return filepath.Dir(c.path) }

// Get resolves a dotted key. It returns an error wrapping ErrNotFound when
// any segment is missing.
func (c *Config) Get(key string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.env[key]; ok {
		return v, nil
	}
	node := any(c.data)
	for _, k := range strings.Split(key, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		if node, ok = m[k]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
	}
	return clone(node), nil
}

// Set stores v at a dotted key, creating intermediate objects and replacing
// non-object values on the way. Values are normalized to their JSON form.
func (c *Config) Set(key string, v any) {
	v = normalize(v)
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.env, key)

	keys := strings.Split(key, ".")
	node := c.data
	for _, k := range keys[:len(keys)-1] {
		next, ok := node[k].(map[string]any)
		if !ok {
			next = map[string]any{}
			node[k] = next
		}
		node = next
	}
	node[keys[len(keys)-1]] = v
}

// String returns the string at key, or "" when missing or not a string.
func (c *Config) String(key string) string {
	v, _ := c.Get(key)
	s, _ := v.(string)
	return s
}

// Int returns the number at key truncated to int, or def.
func (c *Config) Int(key string, def int) int {
	v, _ := c.Get(key)
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
	}
	return def
}

// Float returns the number at key, or def.
func (c *Config) Float(key string, def float64) float64 {
	v, _ := c.Get(key)
	if n, ok := v.(float64); ok {
		return n
	}
	return def
}

// Bool returns the boolean at key, or false.
func (c *Config) Bool(key string) bool {
	v, _ := c.Get(key)
	b, _ := v.(bool)
	return b
}

// Strings returns the list at key as strings. Integral numbers are
// formatted without a fraction so numeric ids compare as text.
func (c *Config) Strings(key string) []string {
	v, _ := c.Get(key)
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		switch x := item.(type) {
		case string:
			out = append(out, x)
		case float64:
			out = append(out, strconv.FormatFloat(x, 'f', -1, 64))
		}
	}
	return out
}

// Decode unmarshals the value at key into v.
func (c *Config) Decode(key string, v any) error {
	raw, err := c.Get(key)
	if err != nil {
		return err
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// Data returns a copy of the whole document with environment overrides
// applied.
func (c *Config) Data() map[string]any {
	c.mu.RLock()
	data := clone(c.data).(map[string]any)
	env := clone(c.env).(map[string]any)
	c.mu.RUnlock()

	for key, v := range env {
		keys := strings.Split(key, ".")
		node := data
		for _, k := range keys[:len(keys)-1] {
			next, ok := node[k].(map[string]any)
			if !ok {
				next = map[string]any{}
				node[k] = next
			}
			node = next
		}
		node[keys[len(keys)-1]] = v
	}
	return data
}

// ModelID returns agent.model, suffixed with "-<variant>" when
// agent.model_variant is set.
func (c *Config) ModelID() string {
	model := c.String("agent.model")
	if variant := c.String("agent.model_variant"); variant != "" {
		return model + "-" + variant
	}
	return model
}

// SetModel stores the model and variant.
func (c *Config) SetModel(model, variant string) {
	c.Set("agent.model", model)
	c.Set("agent.model_variant", variant)
}

// WorkspacePath returns the expanded workspace.path.
func (c *Config) WorkspacePath() string {
	p := c.String("workspace.path")
	if p == "" {
		return filepath.Join(c.Dir(), "workspace")
	}
	return ExpandHome(p)
}

// Save writes the document, without environment overrides, atomically and
// readable only by the owner.
func (c *Config) Save() error {
	c.mu.RLock()
	data, err := json.MarshalIndent(c.data, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return writeFile(c.path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// merge deep-merges override into a copy of base.
func merge(base, override map[string]any) map[string]any {
	out := clone(base).(map[string]any)
	for k, v := range override {
		bm, bok := out[k].(map[string]any)
		om, ook := v.(map[string]any)
		if bok && ook {
			out[k] = merge(bm, om)
			continue
		}
		out[k] = clone(v)
	}
	return out
}

func clone(v any) any {
	switch x := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, item := range x {
			m[k] = clone(item)
		}
		return m
	case []any:
		s := make([]any, len(x))
		for i, item := range x {
			s[i] = clone(item)
		}
		return s
	}
	return v
}

func normalize(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}
