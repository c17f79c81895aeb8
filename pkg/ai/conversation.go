// ABOUTME: Conversation state machine: ordered message log plus optional system prompt
// ABOUTME: Empty -> Active on append; back to Empty on Clear or SetSystemPrompt

package ai

// ConversationState is the coarse state of a Conversation.
type ConversationState int

const (
	StateEmpty ConversationState = iota
	StateActive
)

func (s ConversationState) String() string {
	if s == StateActive {
		return "active"
	}
	return "empty"
}

// Conversation is the ordered turn log owned by one Adapter.
// It is not safe for concurrent use.
type Conversation struct {
	messages []Message
	system   string
}

// NewConversation returns an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

// State reports whether any message has been recorded.
func (c *Conversation) State() ConversationState {
	if len(c.messages) == 0 {
		return StateEmpty
	}
	return StateActive
}

// Append records a message at the end of the log.
func (c *Conversation) Append(msg Message) {
	c.messages = append(c.messages, cloneMessage(msg))
}

// SetSystemPrompt resets the log and installs text on the given channel.
// Inline channels get a synthetic system message at index zero; side
// channels keep text out of the message log.
func (c *Conversation) SetSystemPrompt(text string, channel SystemChannel) {
	c.messages = nil
	c.system = ""

	if channel == SystemSideChannel {
		c.system = text
		return
	}
	if text != "" {
		c.messages = append(c.messages, NewTextMessage(RoleSystem, text))
	}
}

// Clear empties the log and any side-channel prompt.
func (c *Conversation) Clear() {
	c.messages = nil
	c.system = ""
}

// System returns the side-channel system prompt ("" when unset or inline).
func (c *Conversation) System() string {
	return c.system
}

// Messages returns a copy of the log in turn order.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	for i, m := range c.messages {
		out[i] = cloneMessage(m)
	}
	return out
}

// Len returns the number of recorded messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}

func cloneMessage(m Message) Message {
	content := make([]ContentBlock, len(m.Content))
	copy(content, m.Content)
	return Message{Role: m.Role, Content: content}
}
