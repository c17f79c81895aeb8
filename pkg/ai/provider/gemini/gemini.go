// ABOUTME: Gemini generateContent Vendor: key in the query string, side-channel systemInstruction
// ABOUTME: Streaming bodies are concatenated JSON objects decoded with a brace-depth push decoder

package gemini

import (
	"net/url"
	"time"

	"github.com/mauromedda/guesswho-go/pkg/ai"
	"github.com/mauromedda/guesswho-go/pkg/ai/internal/httputil"
)

const (
	// Name is the registry name of the Gemini vendor.
	Name = "gemini"

	// DefaultTemperature is sent when the caller sets none.
	DefaultTemperature = 0.7

	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	probePrompt    = "hi"
)

func init() {
	ai.RegisterVendor(Name, func() ai.Vendor { return New() })
}

// Vendor implements ai.Vendor for the Gemini API.
type Vendor struct {
	now func() time.Time
}

// New creates a Gemini vendor.
func New() *Vendor {
	return &Vendor{now: time.Now}
}

// Name implements ai.Vendor.
func (v *Vendor) Name() string { return Name }

// DefaultBaseURL implements ai.Vendor.
func (v *Vendor) DefaultBaseURL() string { return defaultBaseURL }

// DefaultModel implements ai.Vendor.
func (v *Vendor) DefaultModel() string { return ai.DefaultModelFor(Name) }

// SystemChannel implements ai.Vendor. The prompt travels in systemInstruction.
func (v *Vendor) SystemChannel() ai.SystemChannel { return ai.SystemSideChannel }

// QuotaStatus implements ai.Vendor.
func (v *Vendor) QuotaStatus() bool { return false }

// Endpoint implements ai.Vendor.
func (v *Vendor) Endpoint(baseURL, model, key string, streaming bool) string {
	method := "generateContent"
	if streaming {
		method = "streamGenerateContent"
	}
	path := "models/" + url.PathEscape(model) + ":" + method
	return httputil.JoinURL(baseURL, path) + "?key=" + url.QueryEscape(key)
}

// Headers implements ai.Vendor. Authentication rides in the query string.
func (v *Vendor) Headers(string) map[string]string { return nil }
