// ABOUTME: Built-in model tables for every supported provider
// ABOUTME: The first entry of each provider's list is its deterministic default

package ai

// Model describes a selectable model.
type Model struct {
	ID             string
	Name           string
	Provider       string
	SupportsImages bool
	SupportsTools  bool
}

// Built-in model definitions.
var (
	ModelGPT4o = Model{
		ID:             "gpt-4o",
		Name:           "GPT-4o",
		Provider:       "openai",
		SupportsImages: true,
		SupportsTools:  true,
	}

	ModelGPT4oMini = Model{
		ID:             "gpt-4o-mini",
		Name:           "GPT-4o Mini",
		Provider:       "openai",
		SupportsImages: true,
		SupportsTools:  true,
	}

	ModelGPT41 = Model{
		ID:             "gpt-4.1",
		Name:           "GPT-4.1",
		Provider:       "openai",
		SupportsImages: true,
		SupportsTools:  true,
	}

	ModelClaudeSonnet = Model{
		ID:             "claude-sonnet-4-5",
		Name:           "Claude Sonnet 4.5",
		Provider:       "anthropic",
		SupportsImages: true,
		SupportsTools:  true,
	}

	ModelClaudeHaiku = Model{
		ID:             "claude-haiku-4-5",
		Name:           "Claude Haiku 4.5",
		Provider:       "anthropic",
		SupportsImages: true,
		SupportsTools:  true,
	}

	ModelClaudeOpus = Model{
		ID:             "claude-opus-4-1",
		Name:           "Claude Opus 4.1",
		Provider:       "anthropic",
		SupportsImages: true,
		SupportsTools:  true,
	}

	ModelGemini25Flash = Model{
		ID:             "gemini-2.5-flash",
		Name:           "Gemini 2.5 Flash",
		Provider:       "gemini",
		SupportsImages: true,
		SupportsTools:  true,
	}

	ModelGemini25Pro = Model{
		ID:             "gemini-2.5-pro",
		Name:           "Gemini 2.5 Pro",
		Provider:       "gemini",
		SupportsImages: true,
		SupportsTools:  true,
	}

	ModelGemini20Flash = Model{
		ID:             "gemini-2.0-flash",
		Name:           "Gemini 2.0 Flash",
		Provider:       "gemini",
		SupportsImages: true,
		SupportsTools:  true,
	}
)

// BuiltinModels returns all built-in model definitions.
func BuiltinModels() []Model {
	return []Model{
		ModelGPT4o,
		ModelGPT4oMini,
		ModelGPT41,
		ModelClaudeSonnet,
		ModelClaudeHaiku,
		ModelClaudeOpus,
		ModelGemini25Flash,
		ModelGemini25Pro,
		ModelGemini20Flash,
	}
}

// ModelsFor returns the built-in models of provider in table order.
func ModelsFor(provider string) []Model {
	var out []Model
	for _, m := range BuiltinModels() {
		if m.Provider == provider {
			out = append(out, m)
		}
	}
	return out
}

// DefaultModelFor returns the first built-in model ID of provider, or "".
func DefaultModelFor(provider string) string {
	if models := ModelsFor(provider); len(models) > 0 {
		return models[0].ID
	}
	return ""
}

// modelIndex is a pre-built map for O(1) model lookups by ID.
var modelIndex = func() map[string]*Model {
	models := BuiltinModels()
	idx := make(map[string]*Model, len(models))
	for i := range models {
		idx[models[i].ID] = &models[i]
	}
	return idx
}()

// FindModel looks up a model by ID from the built-in list.
// Returns nil if not found.
func FindModel(id string) *Model {
	return modelIndex[id]
}
