// ABOUTME: key and providers subcommands: manage stored API keys and show where each comes from
// ABOUTME: Keys typed at a terminal are read without echo via x/term

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/mauromedda/guesswho-go/internal/config"
	"github.com/mauromedda/guesswho-go/pkg/ai"
)

func (a *app) runKey(ctx context.Context, argv []string) error {
	fs := newCommandFlagSet("key", a.stderr)
	check := fs.Bool("validate", false, "Probe the key before saving it")
	fs.Usage = func() {
		fmt.Fprintln(a.stderr, "usage: guesswho key [-validate] set <provider> [key]\n       guesswho key rm <provider>")
	}
	if err := parseCommand(fs, argv); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		fs.Usage()
		return errUsage
	}

	action, provider := fs.Arg(0), fs.Arg(1)
	if !ai.HasVendor(provider) {
		return fmt.Errorf("unknown provider %q (known: %v)", provider, ai.Vendors())
	}

	var done string
	switch action {
	case "set":
		done = "saved"
		key := fs.Arg(2)
		if key == "" {
			var err error
			if key, err = a.readSecret(fmt.Sprintf("%s API key: ", provider)); err != nil {
				return err
			}
		}
		if key == "" {
			return fmt.Errorf("empty key")
		}
		if *check {
			if err := a.newAdapter(provider).ValidateKey(ctx, key, ""); err != nil {
				return fmt.Errorf("not saved: %w", err)
			}
		}
		a.store.SetAPIKey(provider, key)
	case "rm":
		done = "removed"
		a.store.SetAPIKey(provider, "")
	default:
		fs.Usage()
		return errUsage
	}

	if err := a.store.Save(); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s %s key %s in %s\n", a.styles.ok.Render("✓"), provider, done, a.store.Path())
	return nil
}

// readSecret reads one line, without echo when stdin is a terminal.
func (a *app) readSecret(prompt string) (string, error) {
	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(a.stderr, prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.stderr)
		if err != nil {
			return "", fmt.Errorf("reading key: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading key: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// keySource names where provider's key would come from.
func (a *app) keySource(provider string) string {
	if a.store.Settings().Keys[provider] != "" && a.store.APIKey(provider) != "" {
		return "settings"
	}
	for _, env := range config.KeyEnvVars(provider) {
		if os.Getenv(env) != "" {
			return "$" + env
		}
	}
	return "-"
}

func (a *app) runProviders() error {
	names := ai.Vendors()
	width := 0
	for _, n := range names {
		width = max(width, runewidth.StringWidth(n))
	}
	for _, n := range names {
		src := a.keySource(n)
		mark := a.styles.ok.Render("✓")
		if src == "-" {
			mark = a.styles.muted.Render("·")
		}
		v := a.newVendor(n)
		fmt.Fprintf(a.stdout, "%s %s  key: %-28s default model: %s  system: %s\n",
			mark, runewidth.FillRight(n, width), src, v.DefaultModel(), v.SystemChannel())
	}
	return nil
}
