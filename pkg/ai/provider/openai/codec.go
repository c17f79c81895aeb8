// ABOUTME: Request encoding between internal messages and the Chat Completions body
// ABOUTME: Text-only turns use string content; images become data-URL image_url parts

package openai

import (
	"encoding/json"
	"fmt"

	"github.com/mauromedda/guesswho-go/pkg/ai"
)

// chatRequest keeps the wire key order model, messages, stream, tools.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	Stream    bool          `json:"stream"`
	Tools     []toolDef     `json:"tools,omitempty"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role       string        `json:"role"`
	Content    any           `json:"content,omitempty"`
	ToolCalls  []toolCallReq `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type toolCallReq struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Function toolCallFuncReq `json:"function"`
}

type toolCallFuncReq struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type toolDef struct {
	Type     string      `json:"type"`
	Function toolFuncDef `json:"function"`
}

type toolFuncDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// Encode implements ai.Vendor.
func (v *Vendor) Encode(req *ai.Request) ([]byte, error) {
	body := chatRequest{
		Model:    req.Model,
		Messages: convertMessages(req.System, req.Messages),
		Stream:   req.Streaming,
		Tools:    convertTools(req.Tools),
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	return data, nil
}

// EncodeProbe implements ai.Vendor with a one-token completion.
func (v *Vendor) EncodeProbe(model string) ([]byte, error) {
	body := chatRequest{
		Model:     model,
		Messages:  []chatMessage{{Role: string(ai.RoleUser), Content: probePrompt}},
		MaxTokens: 1,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling probe: %w", err)
	}
	return data, nil
}

func convertMessages(system string, messages []ai.Message) []chatMessage {
	msgs := make([]chatMessage, 0, len(messages)+1)
	if system != "" {
		msgs = append(msgs, chatMessage{Role: string(ai.RoleSystem), Content: system})
	}

	for _, m := range messages {
		if m.IsPlainText() {
			msgs = append(msgs, chatMessage{Role: string(m.Role), Content: m.Content[0].Text})
			continue
		}

		var (
			parts     []contentPart
			text      string
			toolCalls []toolCallReq
			hasImage  bool
		)
		for _, c := range m.Content {
			switch c.Type {
			case ai.BlockText:
				text += c.Text
				parts = append(parts, contentPart{Type: "text", Text: c.Text})
			case ai.BlockImage:
				hasImage = true
				parts = append(parts, contentPart{
					Type:     "image_url",
					ImageURL: &imageURL{URL: "data:" + c.MimeType + ";base64," + c.Data},
				})
			case ai.BlockToolUse:
				toolCalls = append(toolCalls, toolCallReq{
					ID:   c.ID,
					Type: "function",
					Function: toolCallFuncReq{
						Name:      c.Name,
						Arguments: c.Arguments,
					},
				})
			case ai.BlockToolResult:
				msgs = append(msgs, chatMessage{
					Role:       "tool",
					Content:    c.Text,
					ToolCallID: c.ID,
				})
			}
		}

		switch {
		case len(toolCalls) > 0:
			msg := chatMessage{Role: string(m.Role), ToolCalls: toolCalls}
			if text != "" {
				msg.Content = text
			}
			msgs = append(msgs, msg)
		case hasImage:
			msgs = append(msgs, chatMessage{Role: string(m.Role), Content: parts})
		case len(parts) > 0:
			msgs = append(msgs, chatMessage{Role: string(m.Role), Content: text})
		}
	}
	return msgs
}

func convertTools(tools []ai.ToolDefinition) []toolDef {
	if len(tools) == 0 {
		return nil
	}
	defs := make([]toolDef, len(tools))
	for i, t := range tools {
		defs[i] = toolDef{
			Type: "function",
			Function: toolFuncDef{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return defs
}
