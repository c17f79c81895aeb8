// ABOUTME: Tests for the built-in model tables
// ABOUTME: Covers lookup by ID, per-provider listing, and deterministic defaults

package ai

import "testing"

func TestFindModel_Found(t *testing.T) {
	t.Parallel()

	m := FindModel("claude-sonnet-4-5")
	if m == nil {
		t.Fatal("expected non-nil model")
	}
	if m.Provider != "anthropic" {
		t.Errorf("Provider = %q, want %q", m.Provider, "anthropic")
	}
}

func TestFindModel_NotFound(t *testing.T) {
	t.Parallel()

	if m := FindModel("nonexistent-model"); m != nil {
		t.Errorf("expected nil for unknown model, got %v", m)
	}
}

func TestDefaultModelFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		provider string
		want     string
	}{
		{"openai", "gpt-4o"},
		{"anthropic", "claude-sonnet-4-5"},
		{"gemini", "gemini-2.5-flash"},
		{"unknown", ""},
	}
	for _, tt := range tests {
		if got := DefaultModelFor(tt.provider); got != tt.want {
			t.Errorf("DefaultModelFor(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestModelsForKeepsTableOrder(t *testing.T) {
	t.Parallel()

	models := ModelsFor("gemini")
	if len(models) != 3 {
		t.Fatalf("got %d gemini models, want 3", len(models))
	}
	for _, m := range models {
		if m.Provider != "gemini" {
			t.Errorf("model %q has provider %q", m.ID, m.Provider)
		}
	}
}

func BenchmarkFindModel(b *testing.B) {
	for b.Loop() {
		FindModel("gpt-4o")
	}
}
