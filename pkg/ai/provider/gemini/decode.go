// ABOUTME: Gemini response decoding: atomic candidates[0] body or a stream of concatenated objects
// ABOUTME: Objects that fail to parse are reported and skipped; tool ids are synthesized per call

package gemini

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mauromedda/guesswho-go/pkg/ai"
	"github.com/mauromedda/guesswho-go/pkg/ai/internal/jsonstream"
	"github.com/mauromedda/guesswho-go/pkg/ai/internal/toolcall"
)

// decodeState accumulates one response across one or more objects.
type decodeState struct {
	v          *Vendor
	emit       ai.EmitFunc
	millis     int64
	text       strings.Builder
	calls      *toolcall.Accumulator
	ordinal    int
	stopReason ai.StopReason
	model      string
}

// Decode implements ai.Vendor.
func (v *Vendor) Decode(body io.Reader, streaming bool, emit ai.EmitFunc) (*ai.Result, error) {
	st := &decodeState{
		v:      v,
		emit:   emit,
		millis: v.now().UnixMilli(),
		calls:  toolcall.NewAccumulator(),
	}
	if streaming {
		if err := st.readStream(body); err != nil {
			return nil, err
		}
	} else {
		if err := st.readAtomic(body); err != nil {
			return nil, err
		}
	}
	return st.result(), nil
}

func (st *decodeState) readAtomic(body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	var resp generateResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return &ai.Error{Provider: Name, Kind: ai.KindRequestFailed, Message: "unparsable response body", Err: err}
	}
	return st.apply(&resp)
}

func (st *decodeState) readStream(body io.Reader) error {
	var applyErr error
	err := jsonstream.ReadObjects(body, func(obj []byte) {
		if applyErr != nil {
			return
		}
		var resp generateResponse
		if err := json.Unmarshal(obj, &resp); err != nil {
			st.emit.Emit(ai.StreamEvent{Type: ai.EventFragmentSkipped, Text: string(obj)})
			return
		}
		applyErr = st.apply(&resp)
	})
	if applyErr != nil {
		return applyErr
	}
	if errors.Is(err, jsonstream.ErrTruncated) {
		st.emit.Emit(ai.StreamEvent{Type: ai.EventFragmentSkipped})
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}
	return nil
}

// apply folds one response object into the state.
func (st *decodeState) apply(resp *generateResponse) error {
	if resp.Error != nil {
		msg := resp.Error.Message
		if msg == "" {
			msg = "error reported in response body"
		}
		return &ai.Error{Provider: Name, Kind: ai.KindRequestFailed, Status: resp.Error.Code, Message: msg}
	}
	if resp.ModelVersion != "" {
		st.model = resp.ModelVersion
	}
	if len(resp.Candidates) == 0 {
		return nil
	}

	cand := resp.Candidates[0]
	for _, p := range cand.Content.Parts {
		if p.Text != "" {
			st.text.WriteString(p.Text)
			st.emit.Emit(ai.StreamEvent{Type: ai.EventTextDelta, Text: p.Text})
		}
		if p.FunctionCall != nil {
			st.addCall(p.FunctionCall)
		}
	}
	if cand.FinishReason != "" {
		st.stopReason = mapFinishReason(cand.FinishReason)
	}
	return nil
}

// addCall records a complete function call under a synthesized id.
func (st *decodeState) addCall(fc *functionCall) {
	id := fmt.Sprintf("gemini_%d_%d", st.millis, st.ordinal)
	st.calls.Add(toolcall.Fragment{
		Index:     st.ordinal,
		ID:        id,
		Name:      fc.Name,
		Arguments: compactArgs(fc.Args),
	})
	st.ordinal++
	st.emit.Emit(ai.StreamEvent{Type: ai.EventToolCallStart, ToolCallID: id, ToolName: fc.Name})
}

func (st *decodeState) result() *ai.Result {
	calls := st.calls.Finish()
	for _, tc := range calls {
		st.emit.Emit(ai.StreamEvent{Type: ai.EventToolCallDone, ToolCallID: tc.ID, ToolName: tc.Name, Arguments: tc.Arguments})
	}
	stop := st.stopReason
	if len(calls) > 0 && (stop == "" || stop == ai.StopEndTurn) {
		stop = ai.StopToolUse
	}
	return &ai.Result{
		Text:       st.text.String(),
		ToolCalls:  calls,
		StopReason: stop,
		Model:      st.model,
	}
}

func compactArgs(args json.RawMessage) string {
	if len(args) == 0 || string(args) == "null" {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, args); err != nil {
		return string(args)
	}
	return buf.String()
}

func mapFinishReason(reason string) ai.StopReason {
	switch reason {
	case "STOP":
		return ai.StopEndTurn
	case "MAX_TOKENS":
		return ai.StopMaxTokens
	default:
		return ai.StopOther
	}
}
