// ABOUTME: Anthropic Messages API Vendor: custom key header, side-channel system prompt
// ABOUTME: Atomic responses by default; legacy SSE event decoding when streaming is enabled

package anthropic

import (
	"github.com/mauromedda/guesswho-go/pkg/ai"
	"github.com/mauromedda/guesswho-go/pkg/ai/internal/httputil"
)

const (
	// Name is the registry name of the Anthropic vendor.
	Name = "anthropic"

	defaultBaseURL   = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"
	messagesPath     = "messages"
	probePrompt      = "hi"

	browserAccessHeader = "anthropic-dangerous-direct-browser-access"
)

func init() {
	ai.RegisterVendor(Name, func() ai.Vendor { return New(Config{}) })
}

// Config tunes request encoding.
type Config struct {
	// PromptCaching marks the system prompt and the last tool with an
	// ephemeral cache_control so the provider caches the shared prefix.
	PromptCaching bool
}

// Vendor implements ai.Vendor for the Anthropic Messages API.
type Vendor struct {
	cfg Config
}

// New creates an Anthropic vendor.
func New(cfg Config) *Vendor {
	return &Vendor{cfg: cfg}
}

// Name implements ai.Vendor.
func (v *Vendor) Name() string { return Name }

// DefaultBaseURL implements ai.Vendor.
func (v *Vendor) DefaultBaseURL() string { return defaultBaseURL }

// DefaultModel implements ai.Vendor.
func (v *Vendor) DefaultModel() string { return ai.DefaultModelFor(Name) }

// SystemChannel implements ai.Vendor. The prompt travels in the "system" field.
func (v *Vendor) SystemChannel() ai.SystemChannel { return ai.SystemSideChannel }

// QuotaStatus implements ai.Vendor.
func (v *Vendor) QuotaStatus() bool { return false }

// Endpoint implements ai.Vendor.
func (v *Vendor) Endpoint(baseURL, _, _ string, _ bool) string {
	return httputil.JoinURL(baseURL, messagesPath)
}

// Headers implements ai.Vendor.
func (v *Vendor) Headers(key string) map[string]string {
	return map[string]string{
		"x-api-key":         key,
		"anthropic-version": anthropicVersion,
		browserAccessHeader: "true",
	}
}
