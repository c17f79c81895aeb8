// ABOUTME: Response decoding: SSE delta stream (content and tool_call fragments) or atomic body
// ABOUTME: Undecodable SSE payloads are reported and skipped; the stream continues

package openai

import (
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
		return v.decodeStream(body, emit)
	}
	return v.decodeAtomic(body, emit)
}

func (v *Vendor) decodeStream(body io.Reader, emit ai.EmitFunc) (*ai.Result, error) {
	var (
		text   strings.Builder
		calls  = toolcall.NewAccumulator()
		result = &ai.Result{}
	)

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

		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			emit.Emit(ai.StreamEvent{Type: ai.EventFragmentSkipped, Text: payload})
			continue
		}
		if chunk.Error != nil {
			return nil, v.bodyError(chunk.Error)
		}
		if chunk.Model != "" {
			result.Model = chunk.Model
		}

		// Only the first choice is surfaced.
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]

		if choice.Delta.Content != "" {
			text.WriteString(choice.Delta.Content)
			emit.Emit(ai.StreamEvent{Type: ai.EventTextDelta, Text: choice.Delta.Content})
		}
		for _, tc := range choice.Delta.ToolCalls {
			addToolCall(calls, tc, emit)
		}
		if choice.FinishReason != "" {
			result.StopReason = mapFinishReason(choice.FinishReason)
		}
	}

	result.Text = text.String()
	result.ToolCalls = finishToolCalls(calls, emit)
	return result, nil
}

func (v *Vendor) decodeAtomic(body io.Reader, emit ai.EmitFunc) (*ai.Result, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var resp chatCompletion
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &ai.Error{Provider: v.Name(), Kind: ai.KindRequestFailed, Message: "unparsable response body", Err: err}
	}
	if resp.Error != nil {
		return nil, v.bodyError(resp.Error)
	}

	result := &ai.Result{Model: resp.Model}
	if len(resp.Choices) == 0 {
		return result, nil
	}
	choice := resp.Choices[0]

	result.Text = choice.Message.Content
	result.StopReason = mapFinishReason(choice.FinishReason)
	if result.Text != "" {
		emit.Emit(ai.StreamEvent{Type: ai.EventTextDelta, Text: result.Text})
	}

	calls := toolcall.NewAccumulator()
	for i, tc := range choice.Message.ToolCalls {
		tc.Index = i
		addToolCall(calls, tc, emit)
	}
	result.ToolCalls = finishToolCalls(calls, emit)
	return result, nil
}

func addToolCall(calls *toolcall.Accumulator, tc toolCallDelta, emit ai.EmitFunc) {
	id, started := calls.Add(toolcall.Fragment{
		Index:     tc.Index,
		ID:        tc.ID,
		Name:      tc.Function.Name,
		Arguments: tc.Function.Arguments,
	})
	if started {
		emit.Emit(ai.StreamEvent{Type: ai.EventToolCallStart, ToolCallID: id, ToolName: tc.Function.Name})
	}
	if tc.Function.Arguments != "" {
		emit.Emit(ai.StreamEvent{Type: ai.EventToolCallDelta, ToolCallID: id, Arguments: tc.Function.Arguments})
	}
}

func finishToolCalls(calls *toolcall.Accumulator, emit ai.EmitFunc) []ai.ToolCall {
	done := calls.Finish()
	for _, tc := range done {
		emit.Emit(ai.StreamEvent{Type: ai.EventToolCallDone, ToolCallID: tc.ID, ToolName: tc.Name, Arguments: tc.Arguments})
	}
	return done
}

func (v *Vendor) bodyError(e *apiError) *ai.Error {
	msg := e.Message
	if msg == "" {
		msg = "error reported in response body"
	}
	return &ai.Error{Provider: v.Name(), Kind: ai.KindRequestFailed, Message: msg}
}

func mapFinishReason(reason string) ai.StopReason {
	switch reason {
	case "":
		return ""
	case "stop":
		return ai.StopEndTurn
	case "length":
		return ai.StopMaxTokens
	case "tool_calls", "function_call":
		return ai.StopToolUse
	default:
		return ai.StopOther
	}
}
