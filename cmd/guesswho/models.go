// ABOUTME: models subcommand: lists a provider's models, fuzzy-filtered by an optional query
// ABOUTME: OpenRouter lists its live image-capable catalog, falling back to the static list

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"

	"github.com/mauromedda/guesswho-go/pkg/ai"
	"github.com/mauromedda/guesswho-go/pkg/ai/provider/openrouter"
)

// maxNameWidth truncates long display names in the listing.
const maxNameWidth = 40

// modelSource adapts a model list to fuzzy.Source, matching ID and name.
type modelSource []ai.Model

func (m modelSource) String(i int) string { return m[i].ID + " " + m[i].Name }
func (m modelSource) Len() int            { return len(m) }

// filterModels returns the models matching query, best match first.
// An empty query keeps the original order.
func filterModels(models []ai.Model, query string) []ai.Model {
	query = strings.TrimSpace(query)
	if query == "" {
		return models
	}
	matches := fuzzy.FindFrom(query, modelSource(models))
	out := make([]ai.Model, len(matches))
	for i, m := range matches {
		out[i] = models[m.Index]
	}
	return out
}

func (a *app) listModels(ctx context.Context, provider string) []ai.Model {
	if provider != openrouter.Name {
		return ai.ModelsFor(provider)
	}
	models, err := a.catalog().Models(ctx)
	if err != nil {
		fmt.Fprintln(a.stderr, a.styles.muted.Render("live catalog unavailable, showing fallback list: "+err.Error()))
	}
	return models
}

func (a *app) runModels(ctx context.Context, argv []string) error {
	fs := newCommandFlagSet("models", a.stderr)
	provider := fs.String("provider", "", "Provider whose models to list")
	if err := parseCommand(fs, argv); err != nil {
		return err
	}

	name, err := a.provider(*provider)
	if err != nil {
		return err
	}

	query := strings.Join(fs.Args(), " ")
	models := filterModels(a.listModels(ctx, name), query)
	if len(models) == 0 {
		return fmt.Errorf("no %s models match %q", name, query)
	}

	def := a.newVendor(name).DefaultModel()
	idWidth := 0
	for _, m := range models {
		idWidth = max(idWidth, runewidth.StringWidth(m.ID))
	}

	fmt.Fprintln(a.stdout, a.styles.header.Render(name))
	for _, m := range models {
		marker := " "
		if m.ID == def {
			marker = a.styles.ok.Render("*")
		}
		var caps []string
		if m.SupportsImages {
			caps = append(caps, "images")
		}
		if m.SupportsTools {
			caps = append(caps, "tools")
		}
		fmt.Fprintf(a.stdout, "%s %s  %s  %s\n",
			marker,
			runewidth.FillRight(m.ID, idWidth),
			runewidth.FillRight(runewidth.Truncate(m.Name, maxNameWidth, "…"), maxNameWidth),
			a.styles.muted.Render(strings.Join(caps, ",")),
		)
	}
	return nil
}
