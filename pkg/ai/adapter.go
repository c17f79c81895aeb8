// ABOUTME: Generic Adapter: one uniform provider contract parameterized by a Vendor strategy
// ABOUTME: Owns the Conversation, the HTTP client, model resolution, and error mapping

package ai

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	pilog "github.com/mauromedda/guesswho-go/internal/log"
	"github.com/mauromedda/guesswho-go/pkg/ai/internal/httputil"
)

const (
	// DefaultMaxOutputTokens is the token ceiling used when none is configured.
	DefaultMaxOutputTokens = 1024

	errorBodyLimit = 64 * 1024
)

// Adapter implements the provider contract for one vendor instance.
// Calls against one Adapter must be serialized by the caller: a second
// Call before the first ConsumeStream would interleave turns.
type Adapter struct {
	vendor    Vendor
	creds     Credentials
	client    *httputil.Client
	conv      *Conversation
	maxTokens int
	temp      *float64
	streaming bool
	emit      EmitFunc
	observer  Observer
	now       func() time.Time
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithHTTPClient replaces the adapter's dedicated HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) {
		if c != nil {
			a.client = httputil.NewClient(c, jsonHeaders())
		}
	}
}

// WithMaxOutputTokens sets the per-call token ceiling.
func WithMaxOutputTokens(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature (honoured by Gemini only).
func WithTemperature(t float64) Option {
	return func(a *Adapter) {
		a.temp = &t
	}
}

// WithStreaming selects the streaming variant of the vendor endpoint.
func WithStreaming(on bool) Option {
	return func(a *Adapter) {
		a.streaming = on
	}
}

// WithEmit installs a receiver for incremental decode events.
func WithEmit(fn EmitFunc) Option {
	return func(a *Adapter) {
		a.emit = fn
	}
}

// WithObserver installs a metrics observer.
func WithObserver(o Observer) Option {
	return func(a *Adapter) {
		if o != nil {
			a.observer = o
		}
	}
}

// NewAdapter creates an adapter for v. creds may be nil, in which case
// every lookup is absent.
func NewAdapter(v Vendor, creds Credentials, opts ...Option) *Adapter {
	if creds == nil {
		creds = NewStaticCredentials(nil)
	}
	a := &Adapter{
		vendor:    v,
		creds:     creds,
		client:    httputil.NewClient(nil, jsonHeaders()),
		conv:      NewConversation(),
		maxTokens: DefaultMaxOutputTokens,
		observer:  nopObserver{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func jsonHeaders() map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}

// Vendor returns the adapter's vendor strategy.
func (a *Adapter) Vendor() Vendor { return a.vendor }

// Name returns the vendor name.
func (a *Adapter) Name() string { return a.vendor.Name() }

// History returns a copy of the recorded turns.
func (a *Adapter) History() []Message { return a.conv.Messages() }

// SystemPrompt returns the side-channel system prompt, if any.
func (a *Adapter) SystemPrompt() string { return a.conv.System() }

// State returns the conversation state.
func (a *Adapter) State() ConversationState { return a.conv.State() }

// SetSystemPrompt clears history and installs text on the vendor's channel.
func (a *Adapter) SetSystemPrompt(text string) {
	a.conv.SetSystemPrompt(text, a.vendor.SystemChannel())
}

// AddMessage records msg without sending anything.
func (a *Adapter) AddMessage(msg Message) {
	a.conv.Append(msg)
}

// ClearHistory empties the conversation and any side-channel prompt.
func (a *Adapter) ClearHistory() {
	a.conv.Clear()
}

// CreateMultimodalMessage builds a user message with optional text and zero
// or more images. Empty images are skipped.
func (a *Adapter) CreateMultimodalMessage(text string, images ...string) Message {
	return NewMultimodalMessage(text, images...)
}

// ResolveModel picks model, then the stored preference, then the vendor default.
func (a *Adapter) ResolveModel(model string) string {
	if model != "" {
		return model
	}
	if m := a.creds.Model(); m != "" {
		return m
	}
	return a.vendor.DefaultModel()
}

func (a *Adapter) baseURL() string {
	if u := a.creds.BaseURL(a.vendor.Name()); u != "" {
		return u
	}
	return a.vendor.DefaultBaseURL()
}

// RawResponse is an undecoded vendor response. It must be passed to
// ConsumeStream or closed.
type RawResponse struct {
	Body      io.ReadCloser
	Status    int
	Streaming bool
	Model     string

	started time.Time
	closed  bool
}

// Close releases the response body. Safe to call more than once.
func (r *RawResponse) Close() error {
	if r == nil || r.closed || r.Body == nil {
		return nil
	}
	r.closed = true
	return r.Body.Close()
}

// CallText is Call with the string shorthand for a user turn.
func (a *Adapter) CallText(ctx context.Context, text, model string, tools []ToolDefinition) (*RawResponse, error) {
	return a.Call(ctx, NewTextMessage(RoleUser, text), model, tools)
}

// Call records msg as a user turn, then sends the whole history. The user
// turn stays recorded even when the request fails; a retry is a new Call.
func (a *Adapter) Call(ctx context.Context, msg Message, model string, tools []ToolDefinition) (*RawResponse, error) {
	start := a.now()
	name := a.vendor.Name()
	model = a.ResolveModel(model)

	if msg.Role == "" {
		msg.Role = RoleUser
	}
	a.conv.Append(msg)

	key := a.creds.APIKey(name)
	if key == "" {
		err := &Error{Provider: name, Kind: KindInvalidCredential, Message: "no API key configured"}
		a.observer.CallCompleted(name, model, "call", a.now().Sub(start), err)
		return nil, err
	}

	req := &Request{
		CallParameters: CallParameters{
			Model:           model,
			Tools:           tools,
			MaxOutputTokens: a.maxTokens,
			Temperature:     a.temp,
			Streaming:       a.streaming,
		},
		System:   a.conv.System(),
		Messages: a.conv.Messages(),
	}

	body, err := a.vendor.Encode(req)
	if err != nil {
		e := &Error{Provider: name, Kind: KindMalformedRequest, Message: "encoding request", Err: err}
		a.observer.CallCompleted(name, model, "call", a.now().Sub(start), e)
		return nil, e
	}

	url := a.vendor.Endpoint(a.baseURL(), model, key, a.streaming)
	pilog.Debug("http: POST %s model=%s stream=%v", httputil.RedactURL(url), model, a.streaming)

	resp, err := a.client.Do(ctx, http.MethodPost, url, bytes.NewReader(body), a.vendor.Headers(key))
	if err != nil {
		e := TransportError(name, err)
		a.observer.CallCompleted(name, model, "call", a.now().Sub(start), e)
		return nil, e
	}
	pilog.Debug("http: POST %s → %d", httputil.RedactURL(url), resp.StatusCode)

	if !httputil.IsSuccess(resp.StatusCode) {
		e := a.failure(resp, false)
		a.observer.CallCompleted(name, model, "call", a.now().Sub(start), e)
		return nil, e
	}

	return &RawResponse{
		Body:      resp.Body,
		Status:    resp.StatusCode,
		Streaming: a.streaming,
		Model:     model,
		started:   start,
	}, nil
}

// ConsumeStream decodes raw, records the assistant turn, and returns the
// normalized result. The body is released on every path. History is only
// touched when decoding succeeds.
func (a *Adapter) ConsumeStream(raw *RawResponse) (*Result, error) {
	defer raw.Close()

	name := a.vendor.Name()
	result, err := a.vendor.Decode(raw.Body, raw.Streaming, a.emitEvent)
	if err != nil {
		var e *Error
		if !errors.As(err, &e) {
			e = TransportError(name, err)
		}
		a.observer.CallCompleted(name, raw.Model, "call", a.now().Sub(raw.started), e)
		return nil, e
	}

	result.HasToolCalls = len(result.ToolCalls) > 0
	if result.Model == "" {
		result.Model = raw.Model
	}
	a.conv.Append(result.AssistantMessage())

	a.emit.Emit(StreamEvent{Type: EventDone})
	a.observer.CallCompleted(name, raw.Model, "call", a.now().Sub(raw.started), nil)
	return result, nil
}

// Send is Call followed by ConsumeStream.
func (a *Adapter) Send(ctx context.Context, msg Message, model string, tools []ToolDefinition) (*Result, error) {
	raw, err := a.Call(ctx, msg, model, tools)
	if err != nil {
		return nil, err
	}
	return a.ConsumeStream(raw)
}

// ValidateKey issues the vendor's cheapest request with key and maps the
// outcome onto the error taxonomy. History is never touched.
func (a *Adapter) ValidateKey(ctx context.Context, key, model string) error {
	start := a.now()
	name := a.vendor.Name()
	model = a.ResolveModel(model)

	err := a.validate(ctx, key, model)
	a.observer.CallCompleted(name, model, "validate", a.now().Sub(start), err)
	return err
}

func (a *Adapter) validate(ctx context.Context, key, model string) error {
	name := a.vendor.Name()
	if key == "" {
		return &Error{Provider: name, Kind: KindInvalidCredential, Message: "API key is empty"}
	}

	body, err := a.vendor.EncodeProbe(model)
	if err != nil {
		return &Error{Provider: name, Kind: KindMalformedRequest, Message: "encoding probe", Err: err}
	}

	url := a.vendor.Endpoint(a.baseURL(), model, key, false)
	pilog.Debug("http: POST %s (validate) model=%s", httputil.RedactURL(url), model)

	resp, err := a.client.Do(ctx, http.MethodPost, url, bytes.NewReader(body), a.vendor.Headers(key))
	if err != nil {
		return TransportError(name, err)
	}
	defer resp.Body.Close()

	if !httputil.IsSuccess(resp.StatusCode) {
		return a.failure(resp, true)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, errorBodyLimit))
	return nil
}

// failure reads and closes an error response and classifies it.
func (a *Adapter) failure(resp *http.Response, probe bool) *Error {
	defer resp.Body.Close()
	body := httputil.ReadErrorBody(resp, errorBodyLimit)
	msg := ExtractErrorMessage(body)
	e := ClassifyStatus(a.vendor.Name(), resp.StatusCode, msg, probe, a.vendor.QuotaStatus())
	pilog.Debug("%s: status %d classified as %s: %s", a.vendor.Name(), resp.StatusCode, e.Kind, msg)
	return e
}

func (a *Adapter) emitEvent(ev StreamEvent) {
	if ev.Type == EventFragmentSkipped {
		a.observer.FragmentSkipped(a.vendor.Name())
		pilog.Debug("%s: skipped undecodable fragment (%d bytes)", a.vendor.Name(), len(ev.Text))
	}
	a.emit.Emit(ev)
}
