// ABOUTME: Request encoding between internal messages and the Anthropic Messages API body
// ABOUTME: Hoists in-line system messages into the "system" field; optional prompt caching

package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mauromedda/guesswho-go/pkg/ai"
)

// messagesRequest keeps the wire key order model, max_tokens, messages, system, tools, stream.
type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
	System    any       `json:"system,omitempty"`
	Tools     []tool    `json:"tools,omitempty"`
	Stream    bool      `json:"stream,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`

	Text string `json:"text,omitempty"`

	Source *imageSource `json:"source,omitempty"`

	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`

	CacheControl *cacheControl `json:"cache_control,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type tool struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	InputSchema  json.RawMessage `json:"input_schema"`
	CacheControl *cacheControl   `json:"cache_control,omitempty"`
}

type cacheControl struct {
	Type string `json:"type"`
}

var ephemeral = &cacheControl{Type: "ephemeral"}

// emptySchema is sent for tools declared without parameters; the API
// requires an input_schema object.
var emptySchema = json.RawMessage(`{"type":"object","properties":{}}`)

// Encode implements ai.Vendor.
func (v *Vendor) Encode(req *ai.Request) ([]byte, error) {
	msgs, hoisted := convertMessages(req.Messages)

	system := req.System
	if hoisted != "" {
		if system != "" {
			system += "\n\n"
		}
		system += hoisted
	}

	body := messagesRequest{
		Model:     req.Model,
		MaxTokens: req.MaxOutputTokens,
		Messages:  msgs,
		Tools:     convertTools(req.Tools),
		Stream:    req.Streaming,
	}
	if system != "" {
		body.System = system
	}
	if v.cfg.PromptCaching {
		applyPromptCaching(&body, system)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	return data, nil
}

// EncodeProbe implements ai.Vendor with a one-token request.
func (v *Vendor) EncodeProbe(model string) ([]byte, error) {
	body := messagesRequest{
		Model:     model,
		MaxTokens: 1,
		Messages:  []message{{Role: string(ai.RoleUser), Content: probePrompt}},
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling probe: %w", err)
	}
	return data, nil
}

// applyPromptCaching marks the system prompt and the last tool; the
// provider caches the prefix up to the last annotated block.
func applyPromptCaching(body *messagesRequest, system string) {
	if system != "" {
		body.System = []contentBlock{{Type: "text", Text: system, CacheControl: ephemeral}}
	}
	if n := len(body.Tools); n > 0 {
		body.Tools[n-1].CacheControl = ephemeral
	}
}

// emptyTurnText stands in for a turn with no content; the API rejects
// empty and whitespace-only text on non-final messages.
const emptyTurnText = "(no content)"

// convertMessages translates the history and returns the text of any
// in-line system messages, which the API only accepts in "system".
func convertMessages(msgs []ai.Message) ([]message, string) {
	out := make([]message, 0, len(msgs))
	var system []string

	for _, m := range msgs {
		if m.Role == ai.RoleSystem {
			if text := m.Text(); text != "" {
				system = append(system, text)
			}
			continue
		}
		if m.IsPlainText() {
			text := m.Content[0].Text
			if strings.TrimSpace(text) == "" {
				text = emptyTurnText
			}
			out = append(out, message{Role: string(m.Role), Content: text})
			continue
		}
		blocks := convertContent(m.Content)
		if len(blocks) == 0 {
			blocks = []contentBlock{{Type: "text", Text: emptyTurnText}}
		}
		out = append(out, message{Role: string(m.Role), Content: blocks})
	}
	return out, strings.Join(system, "\n\n")
}

func convertContent(blocks []ai.ContentBlock) []contentBlock {
	out := make([]contentBlock, 0, len(blocks))
	for _, b := range blocks {
		switch b.Type {
		case ai.BlockText:
			if b.Text == "" {
				continue
			}
			out = append(out, contentBlock{Type: "text", Text: b.Text})
		case ai.BlockImage:
			out = append(out, contentBlock{
				Type: "image",
				Source: &imageSource{
					Type:      "base64",
					MediaType: b.MimeType,
					Data:      b.Data,
				},
			})
		case ai.BlockToolUse:
			out = append(out, contentBlock{
				Type:  "tool_use",
				ID:    b.ID,
				Name:  b.Name,
				Input: toolInput(b.Arguments),
			})
		case ai.BlockToolResult:
			out = append(out, contentBlock{
				Type:      "tool_result",
				ToolUseID: b.ID,
				Content:   b.Text,
				IsError:   b.IsError,
			})
		}
	}
	return out
}

// toolInput returns args as a JSON object, substituting {} for anything
// that is not one.
func toolInput(args string) json.RawMessage {
	trimmed := strings.TrimSpace(args)
	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	return json.RawMessage(`{}`)
}

func convertTools(tools []ai.ToolDefinition) []tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]tool, len(tools))
	for i, t := range tools {
		schema := t.Parameters
		if len(schema) == 0 {
			schema = emptySchema
		}
		out[i] = tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schema,
		}
	}
	return out
}
