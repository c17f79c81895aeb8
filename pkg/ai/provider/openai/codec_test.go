// ABOUTME: Tests for Chat Completions request encoding
// ABOUTME: Verifies key order, image data URLs, tool call replay, and tool result messages

package openai

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/mauromedda/guesswho-go/pkg/ai"
)

func TestEncodeKeyOrder(t *testing.T) {
	t.Parallel()

	v := New(Config{})
	data, err := v.Encode(&ai.Request{
		CallParameters: ai.CallParameters{
			Model:           "gpt-4o",
			MaxOutputTokens: 1024,
			Streaming:       true,
			Tools:           []ai.ToolDefinition{{Name: "ask", Description: "ask", Parameters: json.RawMessage(`{"type":"object"}`)}},
		},
		Messages: []ai.Message{ai.NewTextMessage(ai.RoleUser, "hi")},
	})
	if err != nil {
		t.Fatal(err)
	}

	s := string(data)
	order := []string{`"model"`, `"messages"`, `"stream"`, `"tools"`}
	last := -1
	for _, key := range order {
		i := strings.Index(s, key)
		if i < 0 || i < last {
			t.Fatalf("key %s out of order in %s", key, s)
		}
		last = i
	}
	if strings.Contains(s, "max_tokens") {
		t.Errorf("body carries max_tokens: %s", s)
	}
	if !strings.Contains(s, `{"type":"function","function":{"name":"ask"`) {
		t.Errorf("tool not wrapped as function: %s", s)
	}
}

func TestConvertMessagesMultimodal(t *testing.T) {
	t.Parallel()

	msg := ai.NewMultimodalMessage("Who is on this board?", "data:image/jpeg;base64,/9j/AAAA")
	msgs := convertMessages("", []ai.Message{msg})
	if len(msgs) != 1 {
		t.Fatalf("got %d messages", len(msgs))
	}

	parts, ok := msgs[0].Content.([]contentPart)
	if !ok {
		t.Fatalf("content type = %T, want []contentPart", msgs[0].Content)
	}
	if len(parts) != 2 || parts[0].Type != "text" || parts[1].Type != "image_url" {
		t.Fatalf("parts = %+v", parts)
	}
	if got := parts[1].ImageURL.URL; got != "data:image/jpeg;base64,/9j/AAAA" {
		t.Errorf("url = %q", got)
	}
}

func TestConvertMessagesToolRoundTrip(t *testing.T) {
	t.Parallel()

	assistant := (&ai.Result{ToolCalls: []ai.ToolCall{{ID: "call_1", Name: "ask", Arguments: `{"q":"hat"}`}}}).AssistantMessage()
	results := ai.NewToolResultMessage(ai.ToolResultBlock("call_1", "ask", "yes", false))

	msgs := convertMessages("", []ai.Message{
		ai.NewTextMessage(ai.RoleSystem, "rules"),
		assistant,
		results,
	})
	if len(msgs) != 3 {
		t.Fatalf("got %d messages: %+v", len(msgs), msgs)
	}
	if msgs[0].Role != "system" || msgs[0].Content != "rules" {
		t.Errorf("msgs[0] = %+v", msgs[0])
	}
	if msgs[1].Role != "assistant" || len(msgs[1].ToolCalls) != 1 || msgs[1].Content != nil {
		t.Errorf("msgs[1] = %+v", msgs[1])
	}
	if msgs[1].ToolCalls[0].Function.Arguments != `{"q":"hat"}` {
		t.Errorf("arguments = %q", msgs[1].ToolCalls[0].Function.Arguments)
	}
	if msgs[2].Role != "tool" || msgs[2].ToolCallID != "call_1" || msgs[2].Content != "yes" {
		t.Errorf("msgs[2] = %+v", msgs[2])
	}
}

func TestEncodeSideChannelSystemFallsBackInline(t *testing.T) {
	t.Parallel()

	msgs := convertMessages("be brief", []ai.Message{ai.NewTextMessage(ai.RoleUser, "hi")})
	if len(msgs) != 2 || msgs[0].Role != "system" {
		t.Errorf("msgs = %+v", msgs)
	}
}

func TestHeadersIncludeExtras(t *testing.T) {
	t.Parallel()

	v := New(Config{Headers: map[string]string{"X-Title": "app"}})
	h := v.Headers("k")
	if h["Authorization"] != "Bearer k" || h["X-Title"] != "app" {
		t.Errorf("headers = %v", h)
	}
}
