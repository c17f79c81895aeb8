// ABOUTME: Response types for Chat Completions: streaming chunks and atomic completions
// ABOUTME: Only the fields the decoders read are declared

package openai

// chatCompletionChunk is one event-stream payload.
type chatCompletionChunk struct {
	ID      string        `json:"id"`
	Model   string        `json:"model"`
	Choices []chunkChoice `json:"choices"`
	Error   *apiError     `json:"error,omitempty"`
}

type chunkChoice struct {
	Index        int        `json:"index"`
	Delta        chunkDelta `json:"delta"`
	FinishReason string     `json:"finish_reason"`
}

type chunkDelta struct {
	Role      string          `json:"role,omitempty"`
	Content   string          `json:"content,omitempty"`
	ToolCalls []toolCallDelta `json:"tool_calls,omitempty"`
}

type toolCallDelta struct {
	Index    int               `json:"index"`
	ID       string            `json:"id,omitempty"`
	Type     string            `json:"type,omitempty"`
	Function toolCallFuncDelta `json:"function"`
}

type toolCallFuncDelta struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// chatCompletion is the atomic (stream:false) response body.
type chatCompletion struct {
	Model   string           `json:"model"`
	Choices []completeChoice `json:"choices"`
	Error   *apiError        `json:"error,omitempty"`
}

type completeChoice struct {
	Message      completeMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

type completeMessage struct {
	Content   string          `json:"content"`
	ToolCalls []toolCallDelta `json:"tool_calls,omitempty"`
}

// apiError is an error object embedded in an otherwise successful body.
type apiError struct {
	Message string `json:"message"`
	Code    any    `json:"code,omitempty"`
}
