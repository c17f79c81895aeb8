// ABOUTME: Store: the settings file as an ai.Credentials with env fallback and atomic 0600 saves
// ABOUTME: Safe for concurrent use; Reload picks up edits made by other processes

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mauromedda/guesswho-go/pkg/ai"
)

var _ ai.Credentials = (*Store)(nil)

// Store holds the settings loaded from one file.
type Store struct {
	path string

	mu       sync.RWMutex
	settings Settings
}

// Load reads the settings at path ("" for SettingsFile()). A missing file
// yields an empty store that Save will create.
func Load(path string) (*Store, error) {
	if path == "" {
		path = SettingsFile()
	}
	s := &Store{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Reload re-reads the backing file, replacing the in-memory settings.
func (s *Store) Reload() error {
	settings, err := loadFile(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading settings: %w", err)
	}
	s.mu.Lock()
	s.settings = *settings
	s.mu.Unlock()
	return nil
}

// Settings returns a copy of the current settings.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.clone()
}

// APIKey implements ai.Credentials. A stored key wins over the
// environment; stored values may reference ${VAR}.
func (s *Store) APIKey(provider string) string {
	s.mu.RLock()
	key := s.settings.Keys[provider]
	s.mu.RUnlock()

	if key = expandEnv(key); key != "" {
		return key
	}
	return keyFromEnv(provider)
}

// BaseURL implements ai.Credentials.
func (s *Store) BaseURL(provider string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return expandEnv(s.settings.BaseURLs[provider])
}

// Model implements ai.Credentials.
func (s *Store) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return expandEnv(s.settings.Model)
}

// Provider returns the preferred provider, or "".
func (s *Store) Provider() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Provider
}

// SetAPIKey stores key for provider. An empty key removes the entry.
func (s *Store) SetAPIKey(provider, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Keys = setEntry(s.settings.Keys, provider, key)
}

// SetBaseURL stores an endpoint override. An empty url removes the entry.
func (s *Store) SetBaseURL(provider, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.BaseURLs = setEntry(s.settings.BaseURLs, provider, url)
}

// SetModel stores the shared model preference.
func (s *Store) SetModel(model string) {
	s.mu.Lock()
	s.settings.Model = model
	s.mu.Unlock()
}

// SetProvider stores the preferred provider.
func (s *Store) SetProvider(provider string) {
	s.mu.Lock()
	s.settings.Provider = provider
	s.mu.Unlock()
}

func setEntry(m map[string]string, k, v string) map[string]string {
	if v == "" {
		delete(m, k)
		return m
	}
	if m == nil {
		m = make(map[string]string)
	}
	m[k] = v
	return m
}

// Save writes the settings with 0600 permissions, replacing the file
// atomically.
func (s *Store) Save() error {
	s.mu.RLock()
	data, err := yaml.Marshal(&s.settings)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := EnsureDir(dir); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("restricting settings permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing settings: %w", err)
	}
	return nil
}

// AdapterOptions translates the call parameters into adapter options.
func (s *Store) AdapterOptions() []ai.Option {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var opts []ai.Option
	if s.settings.MaxOutputTokens > 0 {
		opts = append(opts, ai.WithMaxOutputTokens(s.settings.MaxOutputTokens))
	}
	if s.settings.Temperature != nil {
		opts = append(opts, ai.WithTemperature(*s.settings.Temperature))
	}
	if s.settings.Streaming {
		opts = append(opts, ai.WithStreaming(true))
	}
	return opts
}
