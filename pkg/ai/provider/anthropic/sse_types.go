// ABOUTME: Anthropic response payloads: the atomic message body and legacy SSE events
// ABOUTME: Every SSE payload carries its own "type", so the data line alone is enough

package anthropic

import "encoding/json"

// messageResponse is the atomic (non-streaming) response body.
type messageResponse struct {
	Type       string          `json:"type"`
	Model      string          `json:"model"`
	Content    []responseBlock `json:"content"`
	StopReason string          `json:"stop_reason"`
	Error      *apiError       `json:"error,omitempty"`
}

type responseBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// streamEvent is the union of every legacy SSE payload shape.
type streamEvent struct {
	Type  string `json:"type"`
	Index int    `json:"index"`

	// message_start
	Message *struct {
		Model string `json:"model"`
	} `json:"message,omitempty"`

	// content_block_start
	ContentBlock *responseBlock `json:"content_block,omitempty"`

	// content_block_delta, message_delta
	Delta *struct {
		Type        string `json:"type"`
		Text        string `json:"text"`
		PartialJSON string `json:"partial_json"`
		StopReason  string `json:"stop_reason"`
	} `json:"delta,omitempty"`

	// error
	Error *apiError `json:"error,omitempty"`
}
