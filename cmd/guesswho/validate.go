// ABOUTME: validate subcommand: probes stored keys with a one-token request
// ABOUTME: -all checks every provider holding a key concurrently, one adapter each

package main

import (
	"context"
	"fmt"

	"github.com/mattn/go-runewidth"
	"golang.org/x/sync/errgroup"

	"github.com/mauromedda/guesswho-go/pkg/ai"
)

// maxConcurrentProbes bounds validate -all fan-out.
const maxConcurrentProbes = 4

type probeResult struct {
	provider string
	model    string
	err      error
}

func (a *app) runValidate(ctx context.Context, argv []string) error {
	fs := newCommandFlagSet("validate", a.stderr)
	provider := fs.String("provider", "", "Provider to validate")
	model := fs.String("model", "", "Model to probe (default: the provider's default)")
	all := fs.Bool("all", false, "Validate every provider that has a key")
	if err := parseCommand(fs, argv); err != nil {
		return err
	}

	var providers []string
	if *all {
		for _, name := range ai.Vendors() {
			if a.store.APIKey(name) != "" {
				providers = append(providers, name)
			}
		}
		if len(providers) == 0 {
			return fmt.Errorf("no API keys configured")
		}
	} else {
		name, err := a.provider(*provider)
		if err != nil {
			return err
		}
		if a.store.APIKey(name) == "" {
			return fmt.Errorf("no API key for %s", name)
		}
		providers = []string{name}
	}

	results := a.probe(ctx, providers, *model, *all)

	width := 0
	for _, r := range results {
		width = max(width, runewidth.StringWidth(r.provider))
	}
	failed := 0
	for _, r := range results {
		name := runewidth.FillRight(r.provider, width)
		if r.err != nil {
			failed++
			fmt.Fprintf(a.stdout, "%s %s  %s\n", a.styles.err.Render("✗"), name, r.err)
			continue
		}
		fmt.Fprintf(a.stdout, "%s %s  %s\n", a.styles.ok.Render("✓"), name, a.styles.muted.Render("valid ("+r.model+")"))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d keys failed validation", failed, len(results))
	}
	return nil
}

// probe validates each provider's stored key concurrently. Results keep
// the order of providers. Probe failures are results, not group errors,
// so one bad key never cancels the others. With vendorDefaults, an unset
// model means each vendor's own default rather than the shared preference.
func (a *app) probe(ctx context.Context, providers []string, model string, vendorDefaults bool) []probeResult {
	results := make([]probeResult, len(providers))

	var g errgroup.Group
	g.SetLimit(maxConcurrentProbes)
	for i, name := range providers {
		g.Go(func() error {
			adapter := a.newAdapter(name)
			m := adapter.ResolveModel(model)
			if model == "" && vendorDefaults {
				m = adapter.Vendor().DefaultModel()
			}
			results[i] = probeResult{
				provider: name,
				model:    m,
				err:      adapter.ValidateKey(ctx, a.store.APIKey(name), m),
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
