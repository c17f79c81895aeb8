// ABOUTME: Assembles tool calls from fragmented stream deltas keyed by call id
// ABOUTME: Explicit ordered key list keeps first-seen order; finalized only at stream end

package toolcall

import (
	"strings"

	"github.com/google/uuid"

	"github.com/mauromedda/guesswho-go/pkg/ai"
	"github.com/mauromedda/guesswho-go/pkg/ai/internal/jsonstream"
)

// Fragment is one incremental piece of a tool call. Index is the vendor's
// positional slot, used to resolve fragments that omit ID.
type Fragment struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}

type pending struct {
	id   string
	name strings.Builder
	args strings.Builder
}

// Accumulator maps call id -> in-progress call.
type Accumulator struct {
	calls   map[string]*pending
	order   []string
	byIndex map[int]string
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		calls:   make(map[string]*pending),
		byIndex: make(map[int]string),
	}
}

// Add merges f into its call and returns the resolved call id and whether
// this fragment opened a new call. Name and argument fragments accumulate
// independently.
func (a *Accumulator) Add(f Fragment) (id string, started bool) {
	id = a.resolve(f)

	p, ok := a.calls[id]
	if !ok {
		p = &pending{id: id}
		a.calls[id] = p
		a.order = append(a.order, id)
		started = true
	}
	a.byIndex[f.Index] = id

	p.name.WriteString(f.Name)
	p.args.WriteString(f.Arguments)
	return id, started
}

// resolve picks the key for f: its own id, else the id already bound to
// its index, else a synthesized one.
func (a *Accumulator) resolve(f Fragment) string {
	if f.ID != "" {
		return f.ID
	}
	if id, ok := a.byIndex[f.Index]; ok {
		return id
	}
	return "call_" + uuid.NewString()
}

// Finish returns the assembled calls in first-seen order. Empty arguments
// become "{}"; truncated arguments are repaired when possible.
func (a *Accumulator) Finish() []ai.ToolCall {
	if len(a.order) == 0 {
		return nil
	}
	out := make([]ai.ToolCall, 0, len(a.order))
	for _, id := range a.order {
		p := a.calls[id]
		args, _ := jsonstream.Repair(p.args.String())
		out = append(out, ai.ToolCall{
			ID:        p.id,
			Name:      p.name.String(),
			Arguments: args,
		})
	}
	return out
}
