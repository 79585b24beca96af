package schema

import (
	"encoding/json"
	"fmt"
)

// RequiredField marks a property as required inside an object.
type RequiredField struct {
	builder Builder
}

// ObjectBuilder constructs object schemas.
type ObjectBuilder struct{ node *Node }

// Object starts an object schema.
func Object() *ObjectBuilder {
	return &ObjectBuilder{node: &Node{Type: "object", Properties: map[string]*Node{}}}
}

func (b *ObjectBuilder) Desc(d string) *ObjectBuilder { b.node.Description = d; return b }

// Field adds a property. field is a Builder or a *RequiredField.
func (b *ObjectBuilder) Field(name string, field any) *ObjectBuilder {
	switch f := field.(type) {
	case *RequiredField:
		b.node.Properties[name] = f.builder.root()
		for _, r := range b.node.Required {
			if r == name {
				return b
			}
		}
		b.node.Required = append(b.node.Required, name)
	case Builder:
		b.node.Properties[name] = f.root()
	default:
		panic(fmt.Sprintf("schema: field %q needs a Builder or *RequiredField, got %T", name, field))
	}
	return b
}

// Strict disallows properties that are not declared.
func (b *ObjectBuilder) Strict() *ObjectBuilder {
	b.node.AdditionalProperties = ptr(false)
	return b
}

func (b *ObjectBuilder) Required() *RequiredField        { return &RequiredField{builder: b} }
func (b *ObjectBuilder) Build() (json.RawMessage, error) { return build(b.node) }
func (b *ObjectBuilder) MustBuild() json.RawMessage      { return mustBuild(b.node) }
func (b *ObjectBuilder) root() *Node                     { return b.node }

// StringBuilder constructs string schemas.
type StringBuilder struct{ node *Node }

// String starts a string schema.
func String() *StringBuilder { return &StringBuilder{node: &Node{Type: "string"}} }

func (b *StringBuilder) Desc(d string) *StringBuilder    { b.node.Description = d; return b }
func (b *StringBuilder) Default(v string) *StringBuilder { b.node.Default = v; return b }

// Enum restricts the value to the given options.
func (b *StringBuilder) Enum(values ...string) *StringBuilder {
	b.node.Enum = make([]any, len(values))
	for i, v := range values {
		b.node.Enum[i] = v
	}
	return b
}

func (b *StringBuilder) Required() *RequiredField        { return &RequiredField{builder: b} }
func (b *StringBuilder) Build() (json.RawMessage, error) { return build(b.node) }
func (b *StringBuilder) MustBuild() json.RawMessage      { return mustBuild(b.node) }
func (b *StringBuilder) root() *Node                     { return b.node }

// NumberBuilder constructs integer and number schemas.
type NumberBuilder struct{ node *Node }

// Int starts an integer schema.
func Int() *NumberBuilder { return &NumberBuilder{node: &Node{Type: "integer"}} }

// Number starts a floating point schema.
func Number() *NumberBuilder { return &NumberBuilder{node: &Node{Type: "number"}} }

func (b *NumberBuilder) Desc(d string) *NumberBuilder     { b.node.Description = d; return b }
func (b *NumberBuilder) Min(v float64) *NumberBuilder     { b.node.Minimum = ptr(v); return b }
func (b *NumberBuilder) Max(v float64) *NumberBuilder     { b.node.Maximum = ptr(v); return b }
func (b *NumberBuilder) Default(v float64) *NumberBuilder { b.node.Default = v; return b }
func (b *NumberBuilder) Required() *RequiredField         { return &RequiredField{builder: b} }
func (b *NumberBuilder) Build() (json.RawMessage, error)  { return build(b.node) }
func (b *NumberBuilder) MustBuild() json.RawMessage       { return mustBuild(b.node) }
func (b *NumberBuilder) root() *Node                      { return b.node }

// BoolBuilder constructs boolean schemas.
type BoolBuilder struct{ node *Node }

// Bool starts a boolean schema.
func Bool() *BoolBuilder { return &BoolBuilder{node: &Node{Type: "boolean"}} }

func (b *BoolBuilder) Desc(d string) *BoolBuilder      { b.node.Description = d; return b }
func (b *BoolBuilder) Default(v bool) *BoolBuilder     { b.node.Default = v; return b }
func (b *BoolBuilder) Required() *RequiredField        { return &RequiredField{builder: b} }
func (b *BoolBuilder) Build() (json.RawMessage, error) { return build(b.node) }
func (b *BoolBuilder) MustBuild() json.RawMessage      { return mustBuild(b.node) }
func (b *BoolBuilder) root() *Node                     { return b.node }

// ArrayBuilder constructs array schemas.
type ArrayBuilder struct{ node *Node }

// Array starts an array schema of the given item type.
func Array(items Builder) *ArrayBuilder {
	return &ArrayBuilder{node: &Node{Type: "array", Items: items.root()}}
}

func (b *ArrayBuilder) Desc(d string) *ArrayBuilder     { b.node.Description = d; return b }
func (b *ArrayBuilder) Required() *RequiredField        { return &RequiredField{builder: b} }
func (b *ArrayBuilder) Build() (json.RawMessage, error) { return build(b.node) }
func (b *ArrayBuilder) MustBuild() json.RawMessage      { return mustBuild(b.node) }
func (b *ArrayBuilder) root() *Node                     { return b.node }
