package anthropic

import (
	"encoding/json"

	"github.com/9v2/pyclaw"
	"github.com/anthropics/anthropic-sdk-go"
)

// toMessages converts Gemini-shaped contents. Empty text is skipped since
// the API rejects empty text blocks; function responses become tool_result
// blocks in the user turn.
func toMessages(contents []pyclaw.Content) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	for _, c := range contents {
		var blocks []anthropic.ContentBlockParamUnion
		for _, p := range c.Parts {
			switch {
			case p.FunctionCall != nil:
				args := p.FunctionCall.Args
				if args == nil {
					args = map[string]any{}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(p.FunctionCall.ID, args, p.FunctionCall.Name))
			case p.FunctionResponse != nil:
				blocks = append(blocks, toolResult(p.FunctionResponse))
			case p.InlineData != nil:
				blocks = append(blocks, anthropic.NewImageBlockBase64(p.InlineData.MimeType, p.InlineData.Data))
			case p.Text != "" && !p.Thought:
				blocks = append(blocks, anthropic.NewTextBlock(p.Text))
			}
		}
		if len(blocks) == 0 {
			continue
		}
		role := anthropic.MessageParamRoleUser
		if c.Role == pyclaw.RoleModel {
			role = anthropic.MessageParamRoleAssistant
		}
		out = append(out, anthropic.MessageParam{Role: role, Content: blocks})
	}
	return out
}

func toolResult(r *pyclaw.FunctionResponse) anthropic.ContentBlockParamUnion {
	if msg, ok := r.Response["error"]; ok {
		return anthropic.NewToolResultBlock(r.ID, resultText(msg), true)
	}
	return anthropic.NewToolResultBlock(r.ID, resultText(r.Response["result"]), false)
}

func resultText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func toTools(groups []pyclaw.ToolGroup) []anthropic.ToolUnionParam {
	decls := pyclaw.Declarations(groups)
	if len(decls) == 0 {
		return nil
	}
	out := make([]anthropic.ToolUnionParam, len(decls))
	for i, d := range decls {
		var schema map[string]any
		if len(d.Parameters) > 0 {
			_ = json.Unmarshal(d.Parameters, &schema)
		}
		var required []string
		if req, ok := schema["required"].([]any); ok {
			for _, r := range req {
				if s, ok := r.(string); ok {
					required = append(required, s)
				}
			}
		}
		out[i] = anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        d.Name,
			Description: anthropic.String(d.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: schema["properties"],
				Required:   required,
			},
		}}
	}
	return out
}
