// ABOUTME: Core chat types: Message, ContentBlock, ToolDefinition, ToolCall, Result
// ABOUTME: Provider-agnostic; every vendor codec translates to and from these shapes

package ai

import (
	"encoding/json"
	"strings"
)

// Role represents a message role in the conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockType identifies the kind of content block.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockImage      BlockType = "image"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// EncodingBase64 is the only image encoding the wire formats accept.
const EncodingBase64 = "base64"

// ContentBlock is a tagged union; Type selects which fields are meaningful.
type ContentBlock struct {
	Type BlockType `json:"type"`

	Text string `json:"text,omitempty"` // text, tool_result

	Encoding string `json:"encoding,omitempty"`  // image
	MimeType string `json:"mime_type,omitempty"` // image
	Data     string `json:"data,omitempty"`      // image, base64 payload

	ID        string `json:"id,omitempty"`        // tool_use, tool_result
	Name      string `json:"name,omitempty"`      // tool_use, tool_result
	Arguments string `json:"arguments,omitempty"` // tool_use, serialized JSON
	IsError   bool   `json:"is_error,omitempty"`  // tool_result
}

// TextBlock returns a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// ImageBlock returns a base64 image content block.
func ImageBlock(mimeType, data string) ContentBlock {
	return ContentBlock{Type: BlockImage, Encoding: EncodingBase64, MimeType: mimeType, Data: data}
}

// ToolResultBlock returns a tool result block answering the call with the given ID.
func ToolResultBlock(callID, name, result string, isError bool) ContentBlock {
	return ContentBlock{Type: BlockToolResult, ID: callID, Name: name, Text: result, IsError: isError}
}

// Message represents a conversation message.
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// NewTextMessage creates a message with a single text content block.
func NewTextMessage(role Role, text string) Message {
	return Message{
		Role:    role,
		Content: []ContentBlock{TextBlock(text)},
	}
}

// NewToolResultMessage wraps tool results into a user turn.
func NewToolResultMessage(results ...ContentBlock) Message {
	return Message{Role: RoleUser, Content: results}
}

// Text concatenates the text blocks of the message.
func (m Message) Text() string {
	var sb strings.Builder
	for _, c := range m.Content {
		if c.Type == BlockText {
			sb.WriteString(c.Text)
		}
	}
	return sb.String()
}

// IsPlainText reports whether the message is the single-text-block shorthand.
func (m Message) IsPlainText() bool {
	return len(m.Content) == 1 && m.Content[0].Type == BlockText
}

// ToolCalls returns the tool_use blocks of the message as ToolCalls.
func (m Message) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, c := range m.Content {
		if c.Type == BlockToolUse {
			calls = append(calls, ToolCall{ID: c.ID, Name: c.Name, Arguments: c.Arguments})
		}
	}
	return calls
}

// ToolDefinition describes a callable function in one canonical shape.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"` // JSON Schema
}

// ToolCall is a model-requested invocation. Arguments is always serialized JSON.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// StopReason indicates why the model stopped generating.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopMaxTokens StopReason = "max_tokens"
	StopToolUse   StopReason = "tool_use"
	StopOther     StopReason = "other"
)

// CallParameters configures one request. Not every vendor honours every field.
type CallParameters struct {
	Model           string
	Tools           []ToolDefinition
	MaxOutputTokens int
	Temperature     *float64
	Streaming       bool
}

// Request is the full input a vendor codec encodes.
type Request struct {
	CallParameters
	System   string
	Messages []Message
}

// Result is the normalized outcome of decoding one response.
type Result struct {
	Text         string     `json:"text"`
	HasToolCalls bool       `json:"hasToolCalls"`
	ToolCalls    []ToolCall `json:"toolCalls"`
	StopReason   StopReason `json:"stopReason,omitempty"`
	Model        string     `json:"model,omitempty"`
}

// AssistantMessage converts the result into the assistant turn stored in history.
func (r *Result) AssistantMessage() Message {
	msg := Message{Role: RoleAssistant}
	if r.Text != "" || len(r.ToolCalls) == 0 {
		msg.Content = append(msg.Content, TextBlock(r.Text))
	}
	for _, tc := range r.ToolCalls {
		msg.Content = append(msg.Content, ContentBlock{
			Type:      BlockToolUse,
			ID:        tc.ID,
			Name:      tc.Name,
			Arguments: tc.Arguments,
		})
	}
	return msg
}

// SystemChannel tells how a vendor carries the system prompt.
type SystemChannel int

const (
	// SystemInline carries the prompt as a synthetic first message.
	SystemInline SystemChannel = iota
	// SystemSideChannel carries the prompt in a dedicated request field.
	SystemSideChannel
)

func (c SystemChannel) String() string {
	if c == SystemSideChannel {
		return "side-channel"
	}
	return "inline"
}
