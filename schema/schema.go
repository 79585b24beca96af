package schema

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Builder is implemented by every schema builder.
type Builder interface {
	// Build serializes the schema, failing on inconsistent constraints.
	Build() (json.RawMessage, error)
	// MustBuild is like Build but panics on error.
	MustBuild() json.RawMessage

	root() *Node
}

// Node is a JSON Schema subset: the shape tool parameters are declared in.
type Node struct {
	Type                 string           `json:"type,omitempty"`
	Description          string           `json:"description,omitempty"`
	Enum                 []any            `json:"enum,omitempty"`
	Default              any              `json:"default,omitempty"`
	Minimum              *float64         `json:"minimum,omitempty"`
	Maximum              *float64         `json:"maximum,omitempty"`
	Items                *Node            `json:"items,omitempty"`
	Properties           map[string]*Node `json:"properties,omitempty"`
	Required             []string         `json:"required,omitempty"`
	AdditionalProperties *bool            `json:"additionalProperties,omitempty"`
}

var (
	// ErrInvalidRange is returned when a minimum exceeds its maximum.
	ErrInvalidRange = errors.New("schema: minimum exceeds maximum")
	// ErrNilItems is returned when an array has no items schema.
	ErrNilItems = errors.New("schema: array requires items schema")
	// ErrInvalidArguments is matched by every argument validation failure.
	ErrInvalidArguments = errors.New("invalid arguments")
)

// ValidationError describes a schema or argument problem.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("field %q: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (n *Node) check() error {
	if n.Minimum != nil && n.Maximum != nil && *n.Minimum > *n.Maximum {
		return &ValidationError{Message: "minimum exceeds maximum", Err: ErrInvalidRange}
	}
	switch n.Type {
	case "array":
		if n.Items == nil {
			return &ValidationError{Message: "array requires items schema", Err: ErrNilItems}
		}
		return n.Items.check()
	case "object":
		for name, p := range n.Properties {
			if err := p.check(); err != nil {
				return &ValidationError{Field: name, Message: err.Error(), Err: err}
			}
		}
	}
	return nil
}

// Parse decodes a raw schema.
func Parse(raw json.RawMessage) (*Node, error) {
	var n Node
	if len(raw) == 0 {
		return &n, nil
	}
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("schema: parse: %w", err)
	}
	return &n, nil
}

func build(n *Node) (json.RawMessage, error) {
	if err := n.check(); err != nil {
		return nil, err
	}
	return json.Marshal(n)
}

func mustBuild(n *Node) json.RawMessage {
	data, err := build(n)
	if err != nil {
		panic(err)
	}
	return data
}

func ptr[T any](v T) *T { return &v }
