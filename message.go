package pyclaw

import (
	"encoding/base64"
	"strings"
)

// Role is the wire role of a Content block. Providers speak in terms of
// "user" and "model"; the session maps "model" to its assistant role.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Part is one atomic unit of content. Exactly one of Text, FunctionCall,
// FunctionResponse or InlineData is meaningful. Thought marks reasoning
// text that is never shown to users or persisted. ThoughtSignature is an
// opaque token some backends attach to function calls and expect back
// verbatim on replay.
type Part struct {
	Text             string            `json:"text,omitempty"`
	Thought          bool              `json:"thought,omitempty"`
	ThoughtSignature []byte            `json:"thoughtSignature,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
	InlineData       *Blob             `json:"inlineData,omitempty"`
}

// FunctionCall is a model-requested tool invocation.
type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
	ID   string         `json:"id,omitempty"`
}

// FunctionResponse carries the outcome of a FunctionCall back to the model.
// Response holds either a "result" or an "error" key.
type FunctionResponse struct {
	Name     string         `json:"name"`
	ID       string         `json:"id,omitempty"`
	Response map[string]any `json:"response"`
}

// Blob is inline binary data, base64 encoded.
type Blob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Bytes decodes the blob payload.
func (b *Blob) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(b.Data)
}

// Content is an ordered list of parts attributed to a role.
type Content struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// Text concatenates all non-thought text parts.
func (c Content) Text() string {
	return JoinText(c.Parts)
}

// FunctionCalls returns the function calls carried by the content, in order.
func (c Content) FunctionCalls() []FunctionCall {
	var calls []FunctionCall
	for _, p := range c.Parts {
		if p.FunctionCall != nil {
			calls = append(calls, *p.FunctionCall)
		}
	}
	return calls
}

// JoinText concatenates the visible text of the given parts.
func JoinText(parts []Part) string {
	var sb strings.Builder
	for _, p := range parts {
		if p.Thought || p.Text == "" {
			continue
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// TextPart creates a text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// CallPart creates a function call part.
func CallPart(name, id string, args map[string]any) Part {
	if args == nil {
		args = map[string]any{}
	}
	return Part{FunctionCall: &FunctionCall{Name: name, ID: id, Args: args}}
}

// ResultPart creates a successful function response part.
func ResultPart(name, id string, result any) Part {
	return Part{FunctionResponse: &FunctionResponse{
		Name:     name,
		ID:       id,
		Response: map[string]any{"result": result},
	}}
}

// ErrorPart creates a failed function response part.
func ErrorPart(name, id, msg string) Part {
	return Part{FunctionResponse: &FunctionResponse{
		Name:     name,
		ID:       id,
		Response: map[string]any{"error": msg},
	}}
}

// ImagePart creates an inline image part from raw bytes.
func ImagePart(data []byte, mimeType string) Part {
	return Part{InlineData: &Blob{
		MimeType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}}
}
