// ABOUTME: OpenRouter model catalog: live fetch filtered to image-capable models, static fallback
// ABOUTME: Concurrent fetches collapse into one request; callers never get an empty list

package openrouter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"

	pilog "github.com/mauromedda/guesswho-go/internal/log"
	"github.com/mauromedda/guesswho-go/pkg/ai"
	"github.com/mauromedda/guesswho-go/pkg/ai/internal/httputil"
)

const (
	modelsPath   = "models"
	catalogLimit = 8 * 1024 * 1024
)

// fallbackModels is returned whenever the live catalog is unavailable.
// The first entry is the deterministic default.
var fallbackModels = []ai.Model{
	{ID: "openai/gpt-4o-mini", Name: "OpenAI: GPT-4o-mini", Provider: Name, SupportsImages: true, SupportsTools: true},
	{ID: "openai/gpt-4o", Name: "OpenAI: GPT-4o", Provider: Name, SupportsImages: true, SupportsTools: true},
	{ID: "anthropic/claude-sonnet-4.5", Name: "Anthropic: Claude Sonnet 4.5", Provider: Name, SupportsImages: true, SupportsTools: true},
	{ID: "google/gemini-2.5-flash", Name: "Google: Gemini 2.5 Flash", Provider: Name, SupportsImages: true, SupportsTools: true},
	{ID: "meta-llama/llama-4-maverick", Name: "Meta: Llama 4 Maverick", Provider: Name, SupportsImages: true, SupportsTools: true},
}

// FallbackModels returns a copy of the static catalog.
func FallbackModels() []ai.Model {
	out := make([]ai.Model, len(fallbackModels))
	copy(out, fallbackModels)
	return out
}

// DefaultModel returns the fallback catalog's first model ID.
func DefaultModel() string {
	return fallbackModels[0].ID
}

// Catalog lists the models OpenRouter can serve with image input.
type Catalog struct {
	baseURL string
	client  *httputil.Client
	group   singleflight.Group

	mu     sync.Mutex
	cached []ai.Model
}

// NewCatalog creates a catalog reading from baseURL ("" for the public
// endpoint). A nil doer selects a dedicated HTTP client.
func NewCatalog(baseURL string, doer httputil.Doer) *Catalog {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Catalog{
		baseURL: baseURL,
		client:  httputil.NewClient(doer, map[string]string{"Accept": "application/json"}),
	}
}

// errNoImageModels reports a catalog without image-capable entries.
var errNoImageModels = errors.New("openrouter catalog has no image-capable models")

// Models returns the image-capable models, fetching at most once until
// Refresh. On failure or an empty result it returns the fallback catalog;
// the error then explains why and is informational only.
func (c *Catalog) Models(ctx context.Context) ([]ai.Model, error) {
	if models := c.cachedModels(); models != nil {
		return models, nil
	}

	v, err, _ := c.group.Do(modelsPath, func() (any, error) {
		// A caller that missed the cache may arrive after a fetch finished.
		if models := c.cachedModels(); models != nil {
			return models, nil
		}
		models, err := c.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		if len(models) == 0 {
			return nil, errNoImageModels
		}
		c.mu.Lock()
		c.cached = models
		c.mu.Unlock()
		return models, nil
	})
	if err != nil {
		pilog.Warn("openrouter: catalog unavailable, using fallback: %v", err)
		return FallbackModels(), err
	}
	return append([]ai.Model(nil), v.([]ai.Model)...), nil
}

func (c *Catalog) cachedModels() []ai.Model {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached == nil {
		return nil
	}
	return append([]ai.Model(nil), c.cached...)
}

// Refresh drops the cached catalog so the next Models call fetches again.
func (c *Catalog) Refresh() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}

// Fetch issues one catalog request and returns the filtered entries.
func (c *Catalog) Fetch(ctx context.Context) ([]ai.Model, error) {
	url := httputil.JoinURL(c.baseURL, modelsPath)
	pilog.Debug("http: GET %s", url)

	resp, err := c.client.Do(ctx, http.MethodGet, url, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching catalog: %w", err)
	}
	defer resp.Body.Close()

	body := httputil.ReadErrorBody(resp, catalogLimit)
	if !httputil.IsSuccess(resp.StatusCode) {
		msg := ai.ExtractErrorMessage(body)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("fetching catalog: status %d: %s", resp.StatusCode, msg)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("fetching catalog: response is not JSON")
	}
	return parseCatalog(body), nil
}

// parseCatalog keeps entries whose architecture.input_modalities contains "image".
func parseCatalog(body []byte) []ai.Model {
	var models []ai.Model
	gjson.GetBytes(body, "data").ForEach(func(_, entry gjson.Result) bool {
		id := entry.Get("id").String()
		if id == "" || !contains(entry.Get("architecture.input_modalities"), "image") {
			return true
		}
		name := entry.Get("name").String()
		if name == "" {
			name = id
		}
		models = append(models, ai.Model{
			ID:             id,
			Name:           name,
			Provider:       Name,
			SupportsImages: true,
			SupportsTools:  contains(entry.Get("supported_parameters"), "tools"),
		})
		return true
	})
	return models
}

func contains(list gjson.Result, want string) bool {
	for _, v := range list.Array() {
		if v.String() == want {
			return true
		}
	}
	return false
}
