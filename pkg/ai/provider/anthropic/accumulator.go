// ABOUTME: Accumulates content blocks during Anthropic SSE streaming
// ABOUTME: Text blocks concatenate; tool_use blocks route through the shared tool-call accumulator

package anthropic

import (
	"strings"

	"github.com/mauromedda/guesswho-go/pkg/ai"
	"github.com/mauromedda/guesswho-go/pkg/ai/internal/toolcall"
)

// accumulator gathers streaming data into a final Result.
type accumulator struct {
	model      string
	stopReason ai.StopReason
	text       strings.Builder
	calls      *toolcall.Accumulator
	blockTypes map[int]string
}

func newAccumulator() *accumulator {
	return &accumulator{
		calls:      toolcall.NewAccumulator(),
		blockTypes: make(map[int]string),
	}
}

// startBlock records the type of the block at index. Tool blocks open a call.
func (a *accumulator) startBlock(index int, block *responseBlock, emit ai.EmitFunc) {
	a.blockTypes[index] = block.Type
	switch block.Type {
	case "text":
		a.appendText(block.Text, emit)
	case "tool_use":
		id, _ := a.calls.Add(toolcall.Fragment{Index: index, ID: block.ID, Name: block.Name})
		emit.Emit(ai.StreamEvent{Type: ai.EventToolCallStart, ToolCallID: id, ToolName: block.Name})
	}
}

func (a *accumulator) appendText(text string, emit ai.EmitFunc) {
	if text == "" {
		return
	}
	a.text.WriteString(text)
	emit.Emit(ai.StreamEvent{Type: ai.EventTextDelta, Text: text})
}

// appendToolInput adds partial JSON to the tool block at index.
func (a *accumulator) appendToolInput(index int, partial string, emit ai.EmitFunc) {
	if partial == "" {
		return
	}
	id, _ := a.calls.Add(toolcall.Fragment{Index: index, Arguments: partial})
	emit.Emit(ai.StreamEvent{Type: ai.EventToolCallDelta, ToolCallID: id, Arguments: partial})
}

// result builds the final Result and reports finished tool calls.
func (a *accumulator) result(emit ai.EmitFunc) *ai.Result {
	calls := a.calls.Finish()
	for _, tc := range calls {
		emit.Emit(ai.StreamEvent{Type: ai.EventToolCallDone, ToolCallID: tc.ID, ToolName: tc.Name, Arguments: tc.Arguments})
	}
	return &ai.Result{
		Text:       a.text.String(),
		ToolCalls:  calls,
		StopReason: a.stopReason,
		Model:      a.model,
	}
}
