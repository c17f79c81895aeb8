// ABOUTME: Anthropic response decoding: atomic content[] blocks or legacy SSE block events
// ABOUTME: Undecodable SSE payloads are reported and skipped; an "error" event fails the call

package anthropic

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mauromedda/guesswho-go/pkg/ai"
	"github.com/mauromedda/guesswho-go/pkg/ai/internal/sse"
	"github.com/mauromedda/guesswho-go/pkg/ai/internal/toolcall"
)

// Decode implements ai.Vendor.
func (v *Vendor) Decode(body io.Reader, streaming bool, emit ai.EmitFunc) (*ai.Result, error) {
	if streaming {
		return decodeStream(body, emit)
	}
	return decodeAtomic(body, emit)
}

func decodeAtomic(body io.Reader, emit ai.EmitFunc) (*ai.Result, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var resp messageResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &ai.Error{Provider: Name, Kind: ai.KindRequestFailed, Message: "unparsable response body", Err: err}
	}
	if resp.Type == "error" || resp.Error != nil {
		return nil, streamError(resp.Error)
	}

	var (
		text  strings.Builder
		calls = toolcall.NewAccumulator()
	)
	for i, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			calls.Add(toolcall.Fragment{
				Index:     i,
				ID:        block.ID,
				Name:      block.Name,
				Arguments: compactInput(block.Input),
			})
		}
	}

	result := &ai.Result{
		Text:       text.String(),
		ToolCalls:  calls.Finish(),
		StopReason: mapStopReason(resp.StopReason),
		Model:      resp.Model,
	}
	if result.Text != "" {
		emit.Emit(ai.StreamEvent{Type: ai.EventTextDelta, Text: result.Text})
	}
	for _, tc := range result.ToolCalls {
		emit.Emit(ai.StreamEvent{Type: ai.EventToolCallDone, ToolCallID: tc.ID, ToolName: tc.Name, Arguments: tc.Arguments})
	}
	return result, nil
}

func decodeStream(body io.Reader, emit ai.EmitFunc) (*ai.Result, error) {
	acc := newAccumulator()
	reader := sse.NewReader(body)

	for {
		payload, err := reader.Next()
		if err == io.EOF {
			break
		}
		if errors.Is(err, sse.ErrLineTooLong) {
			emit.Emit(ai.StreamEvent{Type: ai.EventFragmentSkipped})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading stream: %w", err)
		}

		var ev streamEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			emit.Emit(ai.StreamEvent{Type: ai.EventFragmentSkipped, Text: payload})
			continue
		}
		done, err := dispatchEvent(acc, &ev, emit)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}

	return acc.result(emit), nil
}

// dispatchEvent routes one SSE payload. done reports message_stop.
func dispatchEvent(acc *accumulator, ev *streamEvent, emit ai.EmitFunc) (done bool, err error) {
	switch ev.Type {
	case "message_start":
		if ev.Message != nil {
			acc.model = ev.Message.Model
		}
	case "content_block_start":
		if ev.ContentBlock != nil {
			acc.startBlock(ev.Index, ev.ContentBlock, emit)
		}
	case "content_block_delta":
		if ev.Delta == nil {
			return false, nil
		}
		switch ev.Delta.Type {
		case "text_delta":
			acc.appendText(ev.Delta.Text, emit)
		case "input_json_delta":
			acc.appendToolInput(ev.Index, ev.Delta.PartialJSON, emit)
		}
	case "message_delta":
		if ev.Delta != nil && ev.Delta.StopReason != "" {
			acc.stopReason = mapStopReason(ev.Delta.StopReason)
		}
	case "message_stop":
		return true, nil
	case "error":
		return false, streamError(ev.Error)
	}
	return false, nil
}

func streamError(e *apiError) *ai.Error {
	msg := "error reported in response body"
	if e != nil && e.Message != "" {
		msg = e.Message
	}
	kind := ai.KindRequestFailed
	if e != nil && e.Type == "rate_limit_error" {
		kind = ai.KindRateLimited
	}
	return &ai.Error{Provider: Name, Kind: kind, Message: msg}
}

// compactInput re-serializes a tool_use input object as a JSON string.
func compactInput(input json.RawMessage) string {
	if len(input) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, input); err != nil {
		return string(input)
	}
	return buf.String()
}

func mapStopReason(reason string) ai.StopReason {
	switch reason {
	case "":
		return ""
	case "end_turn":
		return ai.StopEndTurn
	case "max_tokens":
		return ai.StopMaxTokens
	case "tool_use":
		return ai.StopToolUse
	default:
		return ai.StopOther
	}
}
