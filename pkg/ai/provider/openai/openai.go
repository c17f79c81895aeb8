// ABOUTME: OpenAI-family Vendor: Chat Completions wire shape, bearer auth, SSE or atomic decoding
// ABOUTME: Configurable so OpenAI-compatible services (OpenRouter, local servers) reuse the codec

package openai

import (
	"github.com/mauromedda/guesswho-go/pkg/ai"
	"github.com/mauromedda/guesswho-go/pkg/ai/internal/httputil"
)

const (
	// Name is the registry name of the OpenAI vendor.
	Name = "openai"

	defaultBaseURL     = "https://api.openai.com/v1"
	chatCompletionPath = "chat/completions"
	probePrompt        = "hi"
)

func init() {
	ai.RegisterVendor(Name, func() ai.Vendor { return New(Config{}) })
}

// Config customises the vendor for OpenAI-compatible services.
type Config struct {
	Name         string            // registry name; defaults to "openai"
	BaseURL      string            // used when Credentials has no override
	DefaultModel string            // used when no model is resolved
	Headers      map[string]string // extra headers sent on every request
	QuotaOn402   bool              // map HTTP 402 to QuotaExceeded
}

// Vendor implements ai.Vendor for the Chat Completions API.
type Vendor struct {
	cfg Config
}

// New creates an OpenAI-family vendor.
func New(cfg Config) *Vendor {
	if cfg.Name == "" {
		cfg.Name = Name
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = ai.DefaultModelFor(Name)
	}
	return &Vendor{cfg: cfg}
}

// Name implements ai.Vendor.
func (v *Vendor) Name() string { return v.cfg.Name }

// DefaultBaseURL implements ai.Vendor.
func (v *Vendor) DefaultBaseURL() string { return v.cfg.BaseURL }

// DefaultModel implements ai.Vendor.
func (v *Vendor) DefaultModel() string { return v.cfg.DefaultModel }

// SystemChannel implements ai.Vendor. The prompt travels as a system message.
func (v *Vendor) SystemChannel() ai.SystemChannel { return ai.SystemInline }

// QuotaStatus implements ai.Vendor.
func (v *Vendor) QuotaStatus() bool { return v.cfg.QuotaOn402 }

// Endpoint implements ai.Vendor. The same path serves both variants; the
// body's stream flag selects the encoding.
func (v *Vendor) Endpoint(baseURL, _, _ string, _ bool) string {
	return httputil.JoinURL(baseURL, chatCompletionPath)
}

// Headers implements ai.Vendor.
func (v *Vendor) Headers(key string) map[string]string {
	h := make(map[string]string, len(v.cfg.Headers)+1)
	for k, val := range v.cfg.Headers {
		h[k] = val
	}
	h["Authorization"] = "Bearer " + key
	return h
}
