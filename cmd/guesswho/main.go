// ABOUTME: CLI entry point for guesswho: validate keys, list models, chat with a provider
// ABOUTME: Parses global flags, loads settings, registers providers, dispatches the subcommand

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/mauromedda/guesswho-go/internal/config"
	pilog "github.com/mauromedda/guesswho-go/internal/log"
	"github.com/mauromedda/guesswho-go/internal/observe"
	"github.com/mauromedda/guesswho-go/pkg/ai"
	"github.com/mauromedda/guesswho-go/pkg/ai/provider/anthropic"
	_ "github.com/mauromedda/guesswho-go/pkg/ai/provider/gemini"
	_ "github.com/mauromedda/guesswho-go/pkg/ai/provider/openai"
	"github.com/mauromedda/guesswho-go/pkg/ai/provider/openrouter"
)

var (
	version = "dev"
	commit  = "unknown"
)

// errUsage marks errors already explained by printed usage.
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// app carries what every subcommand needs.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	store    *config.Store
	observer ai.Observer
	styles   styles

	// httpClient overrides the per-adapter client; nil in production.
	httpClient *http.Client
}

// run executes one CLI invocation and returns the exit code.
func run(ctx context.Context, argv []string, stdin io.Reader, stdout, stderr io.Writer) int {
	args, err := parseGlobalFlags(argv, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 2
	}

	if args.version {
		fmt.Fprintf(stdout, "guesswho %s (%s)\n", version, commit)
		return 0
	}

	store, err := config.Load(args.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	switch {
	case args.verbose:
		pilog.SetLevel(pilog.LevelDebug)
	case store.Settings().LogLevel != "":
		level, err := pilog.ParseLevel(store.Settings().LogLevel)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		pilog.SetLevel(level)
	}

	stats, err := observe.NewStats()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer func() { _ = stats.Shutdown(context.Background()) }()

	a := &app{
		stdin:    stdin,
		stdout:   stdout,
		stderr:   stderr,
		store:    store,
		observer: stats,
		styles:   newStyles(stdout),
	}

	err = a.dispatch(ctx, args.command, args.rest)
	reportStats(context.Background(), stats, args.stats, stderr)

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		fmt.Fprintf(stderr, "%s %v\n", a.styles.err.Render("error:"), err)
		return 1
	}
}

// reportStats prints the per-provider call summary to w when requested,
// and to the debug log otherwise.
func reportStats(ctx context.Context, stats *observe.Stats, show bool, w io.Writer) {
	if !show && pilog.GetLevel() > pilog.LevelDebug {
		return
	}
	var buf strings.Builder
	if err := stats.WriteSummary(ctx, &buf); err != nil {
		pilog.Warn("stats: %v", err)
		return
	}
	if show {
		fmt.Fprint(w, buf.String())
		return
	}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line != "" {
			pilog.Debug("stats: %s", line)
		}
	}
}

func (a *app) dispatch(ctx context.Context, command string, rest []string) error {
	switch command {
	case "validate":
		return a.runValidate(ctx, rest)
	case "models":
		return a.runModels(ctx, rest)
	case "chat":
		return a.runChat(ctx, rest)
	case "key":
		return a.runKey(ctx, rest)
	case "providers":
		return a.runProviders()
	default:
		fmt.Fprintf(a.stderr, "unknown command %q\n\n", command)
		printUsage(a.stderr)
		return errUsage
	}
}

// provider returns name, falling back to the settings preference and then
// to the first registered vendor with a key.
func (a *app) provider(name string) (string, error) {
	if name == "" {
		name = a.store.Provider()
	}
	if name == "" {
		for _, v := range ai.Vendors() {
			if a.store.APIKey(v) != "" {
				name = v
				break
			}
		}
	}
	if name == "" {
		return "", fmt.Errorf("no provider selected and no API key configured; use -provider or `guesswho key set`")
	}
	if !ai.HasVendor(name) {
		return "", fmt.Errorf("unknown provider %q (known: %v)", name, ai.Vendors())
	}
	return name, nil
}

// newVendor builds the named vendor, honouring vendor-specific settings.
func (a *app) newVendor(name string) ai.Vendor {
	if name == anthropic.Name && a.store.Settings().PromptCaching {
		return anthropic.New(anthropic.Config{PromptCaching: true})
	}
	return ai.LookupVendor(name)
}

// newAdapter builds an adapter for provider with settings-derived options
// followed by extra.
func (a *app) newAdapter(provider string, extra ...ai.Option) *ai.Adapter {
	opts := a.store.AdapterOptions()
	opts = append(opts, ai.WithObserver(a.observer))
	if a.httpClient != nil {
		opts = append(opts, ai.WithHTTPClient(a.httpClient))
	}
	opts = append(opts, extra...)
	return ai.NewAdapter(a.newVendor(provider), a.store, opts...)
}

// catalog returns the OpenRouter model catalog for the configured endpoint.
func (a *app) catalog() *openrouter.Catalog {
	base := a.store.BaseURL(openrouter.Name)
	if a.httpClient != nil {
		return openrouter.NewCatalog(base, a.httpClient)
	}
	return openrouter.NewCatalog(base, nil)
}
