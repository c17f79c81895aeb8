// ABOUTME: Credentials contract injected into adapters: typed key, endpoint, model lookups
// ABOUTME: StaticCredentials is an in-memory implementation for embedding and tests

package ai

import "sync"

// Credentials supplies per-provider secrets and preferences to an Adapter.
// Empty strings mean "absent".
type Credentials interface {
	// APIKey returns the stored key for provider.
	APIKey(provider string) string
	// BaseURL returns an endpoint override for provider.
	BaseURL(provider string) string
	// Model returns the shared current-model preference.
	Model() string
}

// StaticCredentials is a mutable in-memory Credentials.
type StaticCredentials struct {
	mu       sync.RWMutex
	keys     map[string]string
	baseURLs map[string]string
	model    string
}

// NewStaticCredentials creates credentials from a provider -> key map.
func NewStaticCredentials(keys map[string]string) *StaticCredentials {
	s := &StaticCredentials{
		keys:     make(map[string]string, len(keys)),
		baseURLs: make(map[string]string),
	}
	for k, v := range keys {
		s.keys[k] = v
	}
	return s
}

// APIKey implements Credentials.
func (s *StaticCredentials) APIKey(provider string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys[provider]
}

// BaseURL implements Credentials.
func (s *StaticCredentials) BaseURL(provider string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseURLs[provider]
}

// Model implements Credentials.
func (s *StaticCredentials) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// SetAPIKey stores a key for provider.
func (s *StaticCredentials) SetAPIKey(provider, key string) {
	s.mu.Lock()
	s.keys[provider] = key
	s.mu.Unlock()
}

// SetBaseURL stores an endpoint override for provider.
func (s *StaticCredentials) SetBaseURL(provider, url string) {
	s.mu.Lock()
	s.baseURLs[provider] = url
	s.mu.Unlock()
}

// SetModel stores the current-model preference.
func (s *StaticCredentials) SetModel(model string) {
	s.mu.Lock()
	s.model = model
	s.mu.Unlock()
}
