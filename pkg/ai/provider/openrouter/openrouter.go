// ABOUTME: OpenRouter Vendor: the OpenAI wire shape plus app-identifying headers and 402 quota mapping
// ABOUTME: Defaults to the first entry of the static fallback catalog

package openrouter

import (
	"github.com/mauromedda/guesswho-go/pkg/ai"
	"github.com/mauromedda/guesswho-go/pkg/ai/provider/openai"
)

const (
	// Name is the registry name of the OpenRouter vendor.
	Name = "openrouter"

	// DefaultBaseURL is OpenRouter's OpenAI-compatible API root.
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	defaultReferer = "https://github.com/mauromedda/guesswho-go"
	defaultTitle   = "Guess Who"
)

func init() {
	ai.RegisterVendor(Name, func() ai.Vendor { return New(Config{}) })
}

// Config identifies the calling application to OpenRouter.
type Config struct {
	Referer string // HTTP-Referer header
	Title   string // X-Title header
}

// New creates an OpenRouter vendor.
func New(cfg Config) *openai.Vendor {
	if cfg.Referer == "" {
		cfg.Referer = defaultReferer
	}
	if cfg.Title == "" {
		cfg.Title = defaultTitle
	}
	return openai.New(openai.Config{
		Name:         Name,
		BaseURL:      DefaultBaseURL,
		DefaultModel: DefaultModel(),
		Headers: map[string]string{
			"HTTP-Referer": cfg.Referer,
			"X-Title":      cfg.Title,
		},
		QuotaOn402: true,
	})
}
