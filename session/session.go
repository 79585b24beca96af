// Package session holds the bounded conversation transcript an agent replays
// to its model backend.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/9v2/pyclaw"
	"github.com/9v2/pyclaw/store"
)

// DefaultMaxMessages bounds a session when no limit is configured.
const DefaultMaxMessages = 100

// Role is the transcript role of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one transcript entry. When RawParts is set it is what the model
// sees on replay; Content is the text projection for display.
type Message struct {
	Role      Role          `json:"role"`
	Content   string        `json:"content"`
	Timestamp time.Time     `json:"timestamp"`
	RawParts  []pyclaw.Part `json:"raw_parts,omitempty"`
}

// Session is an ordered transcript bounded to a maximum length. Oldest
// messages are dropped first.
type Session struct {
	mu       sync.Mutex
	id       string
	max      int
	messages []Message
	now      func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithID sets the session id. The default is session-<unix seconds>.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// WithMaxMessages sets the transcript bound. Values below 1 are ignored.
func WithMaxMessages(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.max = n
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New creates an empty session.
func New(opts ...Option) *Session {
	s := &Session{
		max: DefaultMaxMessages,
		now: func() time.Time { return time.Now().UTC().Round(0) },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = fmt.Sprintf("session-%d", s.now().Unix())
	}
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// MaxMessages returns the transcript bound.
func (s *Session) MaxMessages() int { return s.max }

// Add appends a plain text message.
func (s *Session) Add(role Role, text string) {
	s.append(Message{Role: role, Content: text, Timestamp: s.now()})
}

// AddRaw appends a message built from wire parts. The API role "model" maps
// to assistant and "user" to user; anything else is treated as assistant.
func (s *Session) AddRaw(apiRole pyclaw.Role, parts []pyclaw.Part) {
	role := RoleAssistant
	if apiRole == pyclaw.RoleUser {
		role = RoleUser
	}
	s.append(Message{
		Role:      role,
		Content:   pyclaw.JoinText(parts),
		Timestamp: s.now(),
		RawParts:  append([]pyclaw.Part(nil), parts...),
	})
}

// AddImage appends an image message with an optional caption part.
func (s *Session) AddImage(role Role, data []byte, mimeType, caption string) {
	parts := []pyclaw.Part{pyclaw.ImagePart(data, mimeType)}
	content := "[image]"
	if caption != "" {
		parts = append(parts, pyclaw.TextPart(caption))
		content = caption
	}
	s.append(Message{Role: role, Content: content, Timestamp: s.now(), RawParts: parts})
}

// Clear removes all messages.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}

// Messages returns a copy of the transcript in order.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Last returns the most recent message, if any.
func (s *Session) Last() (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

// Contents converts the transcript to model contents. System messages are
// skipped; raw parts pass through unchanged and plain messages become a
// single text part.
func (s *Session) Contents() []pyclaw.Content {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]pyclaw.Content, 0, len(s.messages))
	for _, m := range s.messages {
		if m.Role == RoleSystem {
			continue
		}
		role := pyclaw.RoleUser
		if m.Role == RoleAssistant {
			role = pyclaw.RoleModel
		}
		switch {
		case len(m.RawParts) > 0:
			out = append(out, pyclaw.Content{Role: role, Parts: append([]pyclaw.Part(nil), m.RawParts...)})
		case m.Content != "":
			out = append(out, pyclaw.Content{Role: role, Parts: []pyclaw.Part{pyclaw.TextPart(m.Content)}})
		}
	}
	return out
}

func (s *Session) append(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
	s.trim()
}

// trim drops the oldest messages beyond the bound, then any leading messages
// that only answer function calls no longer in the transcript.
func (s *Session) trim() {
	if len(s.messages) <= s.max {
		return
	}
	drop := len(s.messages) - s.max
	for drop < len(s.messages) && isResponseOnly(s.messages[drop]) {
		drop++
	}
	s.messages = append([]Message(nil), s.messages[drop:]...)
}

func isResponseOnly(m Message) bool {
	if len(m.RawParts) == 0 {
		return false
	}
	for _, p := range m.RawParts {
		if p.FunctionResponse == nil {
			return false
		}
	}
	return true
}

type snapshot struct {
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
}

// MarshalJSON encodes the session snapshot.
func (s *Session) MarshalJSON() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages
	if msgs == nil {
		msgs = []Message{}
	}
	return json.Marshal(snapshot{SessionID: s.id, Messages: msgs})
}

// UnmarshalJSON replaces the session contents with a snapshot. The bound is
// re-applied.
func (s *Session) UnmarshalJSON(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.SessionID != "" {
		s.id = snap.SessionID
	}
	if s.max == 0 {
		s.max = DefaultMaxMessages
	}
	s.messages = snap.Messages
	s.trim()
	return nil
}

// Save writes the session as JSON to path.
func (s *Session) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

// Load replaces the session with the snapshot stored at path.
func (s *Session) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("session: load: %w", err)
	}
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("session: decode %s: %w", path, err)
	}
	return nil
}

// Sync persists the session to a store adapter under key.
func (s *Session) Sync(ctx context.Context, a store.Adapter, key string) error {
	return store.SetJSON(ctx, a, key, s)
}

// Reload restores the session from a store adapter. It returns
// store.ErrKeyNotFound when nothing was saved under key.
func (s *Session) Reload(ctx context.Context, a store.Adapter, key string) error {
	return store.GetJSON(ctx, a, key, s)
}
