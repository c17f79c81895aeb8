// ABOUTME: Global flag parsing and usage text using the stdlib flag package
// ABOUTME: Global flags precede the subcommand; each subcommand owns its FlagSet

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
)

type globalArgs struct {
	configPath string
	verbose    bool
	stats      bool
	version    bool

	command string
	rest    []string
}

const usageText = `usage: guesswho [global flags] <command> [flags] [args]

commands:
  validate   check stored API keys against their providers
  models     list a provider's models, optionally fuzzy-filtered
  chat       interactive conversation with a provider
  key        set or remove a stored API key
  providers  list registered providers and key status

global flags:
`

func printUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
	newGlobalFlagSet(w, &globalArgs{}).PrintDefaults()
}

func newGlobalFlagSet(w io.Writer, args *globalArgs) *flag.FlagSet {
	fs := flag.NewFlagSet("guesswho", flag.ContinueOnError)
	fs.SetOutput(w)
	fs.StringVar(&args.configPath, "config", "", "Settings file (default ~/.guesswho/settings.yaml)")
	fs.BoolVar(&args.verbose, "v", false, "Verbose (debug) logging to stderr")
	fs.BoolVar(&args.stats, "stats", false, "Print per-provider request statistics on exit")
	fs.BoolVar(&args.version, "version", false, "Show version and exit")
	return fs
}

func parseGlobalFlags(argv []string, stderr io.Writer) (globalArgs, error) {
	var args globalArgs
	fs := newGlobalFlagSet(stderr, &args)
	fs.Usage = func() { printUsage(stderr) }
	if err := fs.Parse(argv); err != nil {
		return args, err
	}
	if args.version {
		return args, nil
	}
	if fs.NArg() == 0 {
		printUsage(stderr)
		return args, errors.New("missing command")
	}
	args.command = fs.Arg(0)
	args.rest = fs.Args()[1:]
	return args, nil
}

// newCommandFlagSet creates a subcommand FlagSet writing errors to stderr.
func newCommandFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("guesswho "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// parseCommand parses a subcommand's flags. Help requests and bad flags
// become errUsage; flag already printed the explanation.
func parseCommand(fs *flag.FlagSet, argv []string) error {
	if err := fs.Parse(argv); err != nil {
		return errUsage
	}
	return nil
}
