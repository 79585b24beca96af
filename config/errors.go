package config

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a dotted key does not resolve.
var ErrNotFound = errors.New("config: key not found")

// ParseError reports a config or backup file that is not valid JSON.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("config: parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
