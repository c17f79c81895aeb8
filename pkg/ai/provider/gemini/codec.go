// ABOUTME: Request encoding between internal messages and the Gemini generateContent body
// ABOUTME: Maps assistant to "model", images to inlineData, tool turns to function parts

package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mauromedda/guesswho-go/pkg/ai"
)

// Encode implements ai.Vendor.
func (v *Vendor) Encode(req *ai.Request) ([]byte, error) {
	contents, hoisted := convertMessages(req.Messages)

	system := req.System
	if hoisted != "" {
		if system != "" {
			system += "\n\n"
		}
		system += hoisted
	}

	temp := DefaultTemperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}

	body := generateRequest{
		Contents: contents,
		GenerationConfig: generationConfig{
			MaxOutputTokens: req.MaxOutputTokens,
			Temperature:     &temp,
		},
		Tools: convertTools(req.Tools),
	}
	if system != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	return data, nil
}

// EncodeProbe implements ai.Vendor with a one-token request.
func (v *Vendor) EncodeProbe(string) ([]byte, error) {
	body := generateRequest{
		Contents:         []content{{Role: "user", Parts: []part{{Text: probePrompt}}}},
		GenerationConfig: generationConfig{MaxOutputTokens: 1},
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling probe: %w", err)
	}
	return data, nil
}

// convertMessages translates the history and returns the text of any
// in-line system messages for systemInstruction.
func convertMessages(msgs []ai.Message) ([]content, string) {
	out := make([]content, 0, len(msgs))
	var system []string

	for _, m := range msgs {
		if m.Role == ai.RoleSystem {
			if text := m.Text(); text != "" {
				system = append(system, text)
			}
			continue
		}

		c := content{Role: mapRole(m.Role)}
		for _, b := range m.Content {
			switch b.Type {
			case ai.BlockText:
				if b.Text != "" {
					c.Parts = append(c.Parts, part{Text: b.Text})
				}
			case ai.BlockImage:
				c.Parts = append(c.Parts, part{InlineData: &inlineData{MimeType: b.MimeType, Data: b.Data}})
			case ai.BlockToolUse:
				c.Parts = append(c.Parts, part{FunctionCall: &functionCall{Name: b.Name, Args: argsObject(b.Arguments)}})
			case ai.BlockToolResult:
				c.Parts = append(c.Parts, part{FunctionResponse: &functionResponse{
					Name:     b.Name,
					Response: map[string]any{"result": b.Text},
				}})
			}
		}
		if len(c.Parts) == 0 {
			// Empty parts are rejected by the API.
			c.Parts = []part{{Text: " "}}
		}
		out = append(out, c)
	}
	return out, strings.Join(system, "\n\n")
}

func mapRole(role ai.Role) string {
	if role == ai.RoleAssistant {
		return "model"
	}
	return "user"
}

func argsObject(args string) json.RawMessage {
	trimmed := strings.TrimSpace(args)
	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	return json.RawMessage(`{}`)
}

func convertTools(tools []ai.ToolDefinition) []toolDef {
	if len(tools) == 0 {
		return nil
	}
	decls := make([]functionDecl, len(tools))
	for i, t := range tools {
		decls[i] = functionDecl{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		}
	}
	return []toolDef{{FunctionDeclarations: decls}}
}
