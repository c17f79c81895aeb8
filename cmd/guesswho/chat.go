// ABOUTME: chat subcommand: a line-oriented conversation with images and tool calls
// ABOUTME: Slash commands manage history and attachments; tool results are typed back by the user

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
	"golang.org/x/text/unicode/norm"

	"github.com/mauromedda/guesswho-go/internal/config"
	pilog "github.com/mauromedda/guesswho-go/internal/log"
	"github.com/mauromedda/guesswho-go/pkg/ai"
	"github.com/mauromedda/guesswho-go/pkg/ai/imageprep"
)

const chatHelp = `commands:
  /image <path>  attach an image to the next message
  /model <id>    switch model for the following turns
  /reset         clear the history (the system prompt is kept)
  /history       show the number of recorded messages
  /quit          leave
`

// settingsWatchInterval is how often a chat session polls the settings
// file, so keys saved from another terminal apply to the next turn.
var settingsWatchInterval = config.DefaultWatchInterval

// maxLineBytes bounds one input line; pasted prompts can be long.
const maxLineBytes = 1024 * 1024

type chatSession struct {
	app     *app
	adapter *ai.Adapter
	model   string
	system  string
	tools   []ai.ToolDefinition
	pending []string // data URLs for the next user turn

	in          *bufio.Scanner
	interactive bool
	streaming   bool
}

func (a *app) runChat(ctx context.Context, argv []string) error {
	fs := newCommandFlagSet("chat", a.stderr)
	provider := fs.String("provider", "", "Provider to chat with")
	model := fs.String("model", "", "Model to use")
	system := fs.String("system", "", "System prompt")
	systemFile := fs.String("system-file", "", "Read the system prompt from a file")
	toolsFile := fs.String("tools", "", "JSON file with an array of tool definitions")
	image := fs.String("image", "", "Image attached to the first message")
	stream := fs.Bool("stream", false, "Stream replies as they are generated")
	if err := parseCommand(fs, argv); err != nil {
		return err
	}

	name, err := a.provider(*provider)
	if err != nil {
		return err
	}

	s := &chatSession{
		app:       a,
		model:     *model,
		system:    *system,
		in:        bufio.NewScanner(a.stdin),
		streaming: *stream || a.store.Settings().Streaming,
	}
	s.in.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	if f, ok := a.stdin.(*os.File); ok {
		s.interactive = term.IsTerminal(int(f.Fd()))
	}

	if *systemFile != "" {
		data, err := os.ReadFile(*systemFile)
		if err != nil {
			return fmt.Errorf("reading system prompt: %w", err)
		}
		s.system = strings.TrimSpace(string(data))
	}
	if *toolsFile != "" {
		if s.tools, err = loadTools(*toolsFile); err != nil {
			return err
		}
	}
	if *image != "" {
		if err := s.attach(*image); err != nil {
			return err
		}
	}

	opts := []ai.Option{ai.WithEmit(s.emit)}
	if s.streaming {
		opts = append(opts, ai.WithStreaming(true))
	}
	s.adapter = a.newAdapter(name, opts...)
	w := a.store.Watch(settingsWatchInterval, nil)
	defer w.Stop()
	if s.system != "" {
		s.adapter.SetSystemPrompt(s.system)
	}

	if s.interactive {
		fmt.Fprintf(a.stdout, "%s %s\n", a.styles.header.Render(name), a.styles.muted.Render(s.adapter.ResolveModel(s.model)+"  (/help for commands)"))
	}
	return s.loop(ctx)
}

func loadTools(path string) ([]ai.ToolDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tools: %w", err)
	}
	var tools []ai.ToolDefinition
	if err := json.Unmarshal(data, &tools); err != nil {
		return nil, fmt.Errorf("parsing tools %s: %w", path, err)
	}
	for i, t := range tools {
		if t.Name == "" {
			return nil, fmt.Errorf("tool %d in %s has no name", i, path)
		}
	}
	return tools, nil
}

// readLine returns the next NFC-normalized line; ok is false at end of input.
func (s *chatSession) readLine(prompt string) (string, bool) {
	if s.interactive {
		fmt.Fprint(s.app.stdout, prompt)
	}
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			pilog.Warn("chat: reading input: %v", err)
		}
		return "", false
	}
	return norm.NFC.String(strings.TrimSpace(s.in.Text())), true
}

func (s *chatSession) loop(ctx context.Context) error {
	for ctx.Err() == nil {
		line, ok := s.readLine("you> ")
		if !ok {
			return nil
		}
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := s.command(line); quit {
				return nil
			}
			continue
		}

		msg := s.adapter.CreateMultimodalMessage(line, s.pending...)
		s.pending = nil
		if err := s.exchange(ctx, msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			s.reportError(err)
		}
	}
	return nil
}

// exchange sends msg and keeps going while the model asks for tools.
func (s *chatSession) exchange(ctx context.Context, msg ai.Message) error {
	for {
		res, err := s.adapter.Send(ctx, msg, s.model, s.tools)
		if err != nil {
			return err
		}

		if s.streaming {
			fmt.Fprintln(s.app.stdout)
		} else if res.Text != "" {
			fmt.Fprintln(s.app.stdout, s.app.styles.assistant.Render(res.Text))
		}
		if !res.HasToolCalls {
			return nil
		}

		blocks := make([]ai.ContentBlock, 0, len(res.ToolCalls))
		for _, tc := range res.ToolCalls {
			fmt.Fprintf(s.app.stdout, "%s %s(%s)\n", s.app.styles.tool.Render("tool>"), tc.Name, tc.Arguments)
			result, ok := s.readLine("result for " + tc.Name + "> ")
			if !ok {
				return io.EOF
			}
			blocks = append(blocks, ai.ToolResultBlock(tc.ID, tc.Name, result, false))
		}
		msg = ai.NewToolResultMessage(blocks...)
	}
}

// emit prints streamed text as it arrives.
func (s *chatSession) emit(ev ai.StreamEvent) {
	if s.streaming && ev.Type == ai.EventTextDelta {
		fmt.Fprint(s.app.stdout, s.app.styles.assistant.Render(ev.Text))
	}
}

func (s *chatSession) reportError(err error) {
	hint := ""
	switch ai.KindOf(err) {
	case ai.KindInvalidCredential:
		hint = " (run `guesswho key set " + s.adapter.Name() + "`)"
	case ai.KindRateLimited:
		hint = " (wait a moment and resend)"
	}
	fmt.Fprintf(s.app.stderr, "%s %v%s\n", s.app.styles.err.Render("error:"), err, hint)
}

func (s *chatSession) attach(path string) error {
	img, err := imageprep.LoadFile(path)
	if err != nil {
		return err
	}
	s.pending = append(s.pending, img.DataURL())
	pilog.Debug("chat: attached %s as %s %dx%d (%d bytes)", path, img.MimeType, img.Width, img.Height, len(img.Data))
	return nil
}

// command handles a slash command and reports whether to quit.
func (s *chatSession) command(line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	out := s.app.stdout

	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprint(out, chatHelp)
	case "/reset":
		s.adapter.ClearHistory()
		if s.system != "" {
			s.adapter.SetSystemPrompt(s.system)
		}
		s.pending = nil
		fmt.Fprintln(out, s.app.styles.muted.Render("history cleared"))
	case "/history":
		fmt.Fprintln(out, s.app.styles.muted.Render(fmt.Sprintf("%d messages (%s)", len(s.adapter.History()), s.adapter.State())))
	case "/model":
		if arg == "" {
			fmt.Fprintln(out, s.adapter.ResolveModel(s.model))
			break
		}
		if m := ai.FindModel(arg); m != nil && m.Provider != s.adapter.Name() {
			fmt.Fprintf(s.app.stderr, "%s belongs to %s, not %s\n", arg, m.Provider, s.adapter.Name())
			break
		}
		s.model = arg
		fmt.Fprintln(out, s.app.styles.muted.Render("model: "+arg))
	case "/image":
		if arg == "" {
			fmt.Fprintln(s.app.stderr, "usage: /image <path>")
			break
		}
		if err := s.attach(arg); err != nil {
			s.reportError(err)
			break
		}
		fmt.Fprintln(out, s.app.styles.muted.Render(fmt.Sprintf("attached %s (%d pending)", arg, len(s.pending))))
	default:
		fmt.Fprintf(s.app.stderr, "unknown command %s\n", cmd)
		fmt.Fprint(s.app.stderr, chatHelp)
	}
	return false
}
