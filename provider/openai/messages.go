package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/9v2/pyclaw"
	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"
)

// toMessages converts Gemini-shaped contents to chat messages. A model turn
// becomes one assistant message carrying its text and every tool call; a
// user turn of function responses becomes one tool message per response.
func toMessages(contents []pyclaw.Content, system string) ([]openai.ChatCompletionMessageParamUnion, error) {
	var out []openai.ChatCompletionMessageParamUnion
	if system != "" {
		out = append(out, openai.SystemMessage(system))
	}

	for _, c := range contents {
		if c.Role == pyclaw.RoleModel {
			if msg, ok := assistantMessage(c); ok {
				out = append(out, msg)
			}
			continue
		}

		var parts []openai.ChatCompletionContentPartUnionParam
		hasImage := false
		for _, p := range c.Parts {
			switch {
			case p.FunctionResponse != nil:
				body, err := json.Marshal(p.FunctionResponse.Response)
				if err != nil {
					return nil, fmt.Errorf("openai: encode %s response: %w", p.FunctionResponse.Name, err)
				}
				out = append(out, openai.ToolMessage(string(body), p.FunctionResponse.ID))
			case p.InlineData != nil:
				hasImage = true
				parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: "data:" + p.InlineData.MimeType + ";base64," + p.InlineData.Data,
				}))
			case p.Text != "" && !p.Thought:
				parts = append(parts, openai.TextContentPart(p.Text))
			}
		}
		switch {
		case hasImage:
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{OfArrayOfContentParts: parts},
				},
			})
		case len(parts) > 0:
			out = append(out, openai.UserMessage(pyclaw.JoinText(c.Parts)))
		}
	}
	return out, nil
}

func assistantMessage(c pyclaw.Content) (openai.ChatCompletionMessageParamUnion, bool) {
	text := c.Text()
	var calls []openai.ChatCompletionMessageToolCallParam
	for _, fc := range c.FunctionCalls() {
		args, err := json.Marshal(fc.Args)
		if err != nil || fc.Args == nil {
			args = []byte("{}")
		}
		id := fc.ID
		if id == "" {
			id = newCallID()
		}
		calls = append(calls, openai.ChatCompletionMessageToolCallParam{
			ID: id,
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      fc.Name,
				Arguments: string(args),
			},
		})
	}

	if len(calls) == 0 {
		if strings.TrimSpace(text) == "" {
			return openai.ChatCompletionMessageParamUnion{}, false
		}
		return openai.AssistantMessage(text), true
	}
	msg := openai.ChatCompletionAssistantMessageParam{ToolCalls: calls}
	if text != "" {
		msg.Content = openai.ChatCompletionAssistantMessageParamContentUnion{OfString: openai.String(text)}
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &msg}, true
}

func toTools(groups []pyclaw.ToolGroup) []openai.ChatCompletionToolParam {
	decls := pyclaw.Declarations(groups)
	if len(decls) == 0 {
		return nil
	}
	out := make([]openai.ChatCompletionToolParam, len(decls))
	for i, d := range decls {
		var params shared.FunctionParameters
		if len(d.Parameters) > 0 {
			_ = json.Unmarshal(d.Parameters, &params)
		}
		out[i] = openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        d.Name,
				Description: openai.String(d.Description),
				Parameters:  params,
			},
		}
	}
	return out
}

func newCallID() string { return "call_" + uuid.NewString() }
