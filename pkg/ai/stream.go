// ABOUTME: Incremental decode events surfaced while a response body is consumed
// ABOUTME: EmitFunc receives text and tool-call fragments as they are parsed

package ai

import "time"

// StreamEventType identifies the kind of stream event.
type StreamEventType int

const (
	EventTextDelta StreamEventType = iota
	EventToolCallStart
	EventToolCallDelta
	EventToolCallDone
	EventFragmentSkipped
	EventDone
)

// StreamEvent is a single decode event.
type StreamEvent struct {
	Type       StreamEventType
	Text       string // text delta, or the skipped raw fragment
	ToolCallID string
	ToolName   string
	Arguments  string // argument fragment, or full arguments on EventToolCallDone
}

// EmitFunc receives decode events. Implementations must not block for long;
// they run on the decoding goroutine.
type EmitFunc func(StreamEvent)

// Emit calls fn if it is non-nil.
func (fn EmitFunc) Emit(ev StreamEvent) {
	if fn != nil {
		fn(ev)
	}
}

// Observer receives adapter lifecycle notifications for metrics.
type Observer interface {
	// CallCompleted is reported once per Call+ConsumeStream or ValidateKey
	// attempt. err is nil on success.
	CallCompleted(provider, model, op string, elapsed time.Duration, err error)
	// FragmentSkipped is reported for every undecodable stream fragment.
	FragmentSkipped(provider string)
}

type nopObserver struct{}

func (nopObserver) CallCompleted(string, string, string, time.Duration, error) {}
func (nopObserver) FragmentSkipped(string)                                     {}
