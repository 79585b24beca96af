// Package store provides key/value persistence backends for session
// transcripts and other small JSON documents.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Adapter is a persistence backend. Implementations must be safe for
// concurrent use.
type Adapter interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value json.RawMessage, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value json.RawMessage) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists all stored keys.
	Keys(ctx context.Context) ([]string, error)
}

// ErrKeyNotFound is returned when a requested key does not exist.
var ErrKeyNotFound = errors.New("store: key not found")

// SerializationError wraps an encode or decode failure for a key.
type SerializationError struct {
	Key string
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("store: serialization failed for key %q: %v", e.Key, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// GetJSON decodes the value stored under key into v.
func GetJSON(ctx context.Context, a Adapter, key string, v any) error {
	raw, ok, err := a.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrKeyNotFound
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &SerializationError{Key: key, Err: err}
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, a Adapter, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return &SerializationError{Key: key, Err: err}
	}
	return a.Set(ctx, key, raw)
}
