package gemini

import (
	"encoding/json"
	"fmt"

	"github.com/9v2/pyclaw"
	"github.com/google/uuid"
	"google.golang.org/genai"
)

func generateConfig(req pyclaw.Request) *genai.GenerateContentConfig {
	temp := float32(req.Temperature)
	config := &genai.GenerateContentConfig{
		Temperature: &temp,
		Tools:       toTools(req.Tools),
	}
	if req.SystemInstruction != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.SystemInstruction}}}
	}
	if req.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	return config
}

func toContents(contents []pyclaw.Content) ([]*genai.Content, error) {
	out := make([]*genai.Content, 0, len(contents))
	for _, c := range contents {
		role := string(c.Role)
		if role == "" {
			role = string(pyclaw.RoleUser)
		}
		gc := &genai.Content{Role: role}
		for _, p := range c.Parts {
			gp, err := toPart(p)
			if err != nil {
				return nil, err
			}
			if gp != nil {
				gc.Parts = append(gc.Parts, gp)
			}
		}
		if len(gc.Parts) > 0 {
			out = append(out, gc)
		}
	}
	return out, nil
}

func toPart(p pyclaw.Part) (*genai.Part, error) {
	switch {
	case p.FunctionCall != nil:
		return &genai.Part{
			FunctionCall: &genai.FunctionCall{
				ID:   p.FunctionCall.ID,
				Name: p.FunctionCall.Name,
				Args: p.FunctionCall.Args,
			},
			ThoughtSignature: p.ThoughtSignature,
		}, nil
	case p.FunctionResponse != nil:
		return &genai.Part{FunctionResponse: &genai.FunctionResponse{
			ID:       p.FunctionResponse.ID,
			Name:     p.FunctionResponse.Name,
			Response: p.FunctionResponse.Response,
		}}, nil
	case p.InlineData != nil:
		data, err := p.InlineData.Bytes()
		if err != nil {
			return nil, fmt.Errorf("gemini: decode inline data: %w", err)
		}
		return &genai.Part{InlineData: &genai.Blob{Data: data, MIMEType: p.InlineData.MimeType}}, nil
	case p.Text != "":
		return &genai.Part{Text: p.Text, Thought: p.Thought, ThoughtSignature: p.ThoughtSignature}, nil
	}
	return nil, nil
}

// fromResponse converts one streamed response. emit is false when the
// response carries nothing worth forwarding.
func fromResponse(resp *genai.GenerateContentResponse) (chunk pyclaw.Chunk, emit bool) {
	if resp == nil {
		return pyclaw.Chunk{}, false
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return pyclaw.Chunk{Error: fmt.Sprintf("request blocked: %s", resp.PromptFeedback.BlockReason)}, true
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return pyclaw.Chunk{}, false
	}
	parts := fromParts(resp.Candidates[0].Content.Parts)
	if len(parts) == 0 {
		return pyclaw.Chunk{}, false
	}
	return pyclaw.Chunk{Content: &pyclaw.Content{Role: pyclaw.RoleModel, Parts: parts}}, true
}

func fromParts(parts []*genai.Part) []pyclaw.Part {
	var out []pyclaw.Part
	for _, p := range parts {
		if p == nil {
			continue
		}
		switch {
		case p.FunctionCall != nil:
			id := p.FunctionCall.ID
			if id == "" {
				id = newCallID()
			}
			part := pyclaw.CallPart(p.FunctionCall.Name, id, p.FunctionCall.Args)
			part.ThoughtSignature = p.ThoughtSignature
			out = append(out, part)
		case p.InlineData != nil:
			out = append(out, pyclaw.ImagePart(p.InlineData.Data, p.InlineData.MIMEType))
		case p.Text != "":
			out = append(out, pyclaw.Part{Text: p.Text, Thought: p.Thought, ThoughtSignature: p.ThoughtSignature})
		}
	}
	return out
}

func newCallID() string { return "call_" + uuid.NewString() }

func toTools(groups []pyclaw.ToolGroup) []*genai.Tool {
	decls := pyclaw.Declarations(groups)
	if len(decls) == 0 {
		return nil
	}
	funcs := make([]*genai.FunctionDeclaration, len(decls))
	for i, d := range decls {
		funcs[i] = &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  toSchema(d.Parameters),
		}
	}
	return []*genai.Tool{{FunctionDeclarations: funcs}}
}

func toSchema(raw json.RawMessage) *genai.Schema {
	if len(raw) == 0 {
		return nil
	}
	var s map[string]any
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return schemaObject(s)
}

func schemaObject(s map[string]any) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{}
	switch s["type"] {
	case "string":
		out.Type = genai.TypeString
	case "number":
		out.Type = genai.TypeNumber
	case "integer":
		out.Type = genai.TypeInteger
	case "boolean":
		out.Type = genai.TypeBoolean
	case "array":
		out.Type = genai.TypeArray
	case "object":
		out.Type = genai.TypeObject
	}
	if desc, ok := s["description"].(string); ok {
		out.Description = desc
	}
	if enum, ok := s["enum"].([]any); ok {
		for _, e := range enum {
			if v, ok := e.(string); ok {
				out.Enum = append(out.Enum, v)
			}
		}
	}
	if props, ok := s["properties"].(map[string]any); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, prop := range props {
			if m, ok := prop.(map[string]any); ok {
				out.Properties[name] = schemaObject(m)
			}
		}
	}
	if required, ok := s["required"].([]any); ok {
		for _, r := range required {
			if v, ok := r.(string); ok {
				out.Required = append(out.Required, v)
			}
		}
	}
	if items, ok := s["items"].(map[string]any); ok {
		out.Items = schemaObject(items)
	}
	return out
}
