// ABOUTME: Settings file model: API keys, endpoints, model preference, and call parameters
// ABOUTME: YAML via gopkg.in/yaml.v3; a missing file is an empty configuration

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings is the on-disk configuration.
type Settings struct {
	Provider        string            `yaml:"provider,omitempty"`
	Model           string            `yaml:"model,omitempty"`
	Keys            map[string]string `yaml:"keys,omitempty"`      // provider -> API key
	BaseURLs        map[string]string `yaml:"base_urls,omitempty"` // provider -> endpoint override
	MaxOutputTokens int               `yaml:"max_output_tokens,omitempty"`
	Temperature     *float64          `yaml:"temperature,omitempty"`
	Streaming       bool              `yaml:"streaming,omitempty"`
	PromptCaching   bool              `yaml:"prompt_caching,omitempty"`
	LogLevel        string            `yaml:"log_level,omitempty"`
}

// loadFile reads Settings from a YAML file. A missing file yields zero
// Settings and an error satisfying os.IsNotExist.
func loadFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return &Settings{}, err
	}
	var s Settings
	if len(bytes.TrimSpace(data)) == 0 {
		return &s, nil
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return &s, nil
}

func (s *Settings) validate() error {
	var errs []error
	if s.MaxOutputTokens < 0 {
		errs = append(errs, fmt.Errorf("max_output_tokens must not be negative, got %d", s.MaxOutputTokens))
	}
	if s.Temperature != nil && (*s.Temperature < 0 || *s.Temperature > 2) {
		errs = append(errs, fmt.Errorf("temperature must be within [0, 2], got %g", *s.Temperature))
	}
	return errors.Join(errs...)
}

// clone deep-copies s.
func (s *Settings) clone() Settings {
	out := *s
	out.Keys = cloneMap(s.Keys)
	out.BaseURLs = cloneMap(s.BaseURLs)
	if s.Temperature != nil {
		t := *s.Temperature
		out.Temperature = &t
	}
	return out
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
