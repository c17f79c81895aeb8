// ABOUTME: End-to-end tests for the CLI: validate, models, chat, key, providers
// ABOUTME: Providers are httptest servers wired in through a temporary settings file

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mauromedda/guesswho-go/internal/config"
	"github.com/mauromedda/guesswho-go/pkg/ai"
	"github.com/mauromedda/guesswho-go/pkg/ai/provider/openrouter"
)

// isolateEnv blanks every key variable so the host environment cannot
// leak into a test. Callers cannot use t.Parallel.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, name := range ai.Vendors() {
		for _, env := range config.KeyEnvVars(name) {
			t.Setenv(env, "")
		}
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestVersionAndUsage(t *testing.T) {
	t.Parallel()

	code, out, _ := runCLI(t, "", "-version")
	if code != 0 || !strings.HasPrefix(out, "guesswho dev") {
		t.Errorf("version: code=%d out=%q", code, out)
	}

	code, _, errOut := runCLI(t, "")
	if code != 2 || !strings.Contains(errOut, "usage: guesswho") {
		t.Errorf("no command: code=%d stderr=%q", code, errOut)
	}

	code, _, errOut = runCLI(t, "", "-config", writeConfig(t, ""), "dance")
	if code != 2 || !strings.Contains(errOut, `unknown command "dance"`) {
		t.Errorf("unknown command: code=%d stderr=%q", code, errOut)
	}
}

func TestValidateAll(t *testing.T) {
	isolateEnv(t)

	okSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-good" {
			t.Errorf("openai auth = %q", got)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"h"},"finish_reason":"length"}]}`))
	}))
	t.Cleanup(okSrv.Close)
	badSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	t.Cleanup(badSrv.Close)

	cfg := writeConfig(t, "keys:\n  openai: sk-good\n  anthropic: sk-bad\nbase_urls:\n  openai: "+okSrv.URL+"\n  anthropic: "+badSrv.URL+"\n")

	code, out, errOut := runCLI(t, "", "-config", cfg, "validate", "-all")
	if code != 1 {
		t.Errorf("code = %d, want 1", code)
	}
	if !strings.Contains(out, "✓ openai") || !strings.Contains(out, "valid (gpt-4o)") {
		t.Errorf("stdout missing openai success: %q", out)
	}
	if !strings.Contains(out, "✗ anthropic") || !strings.Contains(out, "invalid x-api-key") {
		t.Errorf("stdout missing anthropic failure: %q", out)
	}
	if strings.Contains(out, "gemini") {
		t.Errorf("provider without a key was probed: %q", out)
	}
	if !strings.Contains(errOut, "1 of 2 keys failed validation") {
		t.Errorf("stderr = %q", errOut)
	}

	code, out, _ = runCLI(t, "", "-config", cfg, "validate", "-provider", "openai")
	if code != 0 || !strings.Contains(out, "✓ openai") {
		t.Errorf("single validate: code=%d out=%q", code, out)
	}
}

func TestValidateWithoutKey(t *testing.T) {
	isolateEnv(t)

	code, _, errOut := runCLI(t, "", "-config", writeConfig(t, ""), "validate", "-provider", "gemini")
	if code != 1 || !strings.Contains(errOut, "no API key for gemini") {
		t.Errorf("code=%d stderr=%q", code, errOut)
	}
}

func TestModelsFuzzy(t *testing.T) {
	t.Parallel()

	cfg := writeConfig(t, "")
	code, out, _ := runCLI(t, "", "-config", cfg, "models", "-provider", "anthropic", "haiku")
	if code != 0 {
		t.Fatalf("code = %d", code)
	}
	if !strings.Contains(out, "claude-haiku-4-5") || strings.Contains(out, "claude-opus") {
		t.Errorf("out = %q", out)
	}

	code, out, _ = runCLI(t, "", "-config", cfg, "models", "-provider", "openai")
	if code != 0 || !strings.Contains(out, "* gpt-4o ") {
		t.Errorf("default marker missing: code=%d out=%q", code, out)
	}

	code, _, errOut := runCLI(t, "", "-config", cfg, "models", "-provider", "gemini", "zzzz")
	if code != 1 || !strings.Contains(errOut, "no gemini models match") {
		t.Errorf("no match: code=%d stderr=%q", code, errOut)
	}
}

func TestModelsOpenRouterFallback(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	cfg := writeConfig(t, "base_urls:\n  openrouter: "+srv.URL+"\n")
	code, out, errOut := runCLI(t, "", "-config", cfg, "models", "-provider", "openrouter")
	if code != 0 {
		t.Fatalf("code = %d stderr=%q", code, errOut)
	}
	if !strings.Contains(out, "* "+openrouter.DefaultModel()) {
		t.Errorf("fallback default missing: %q", out)
	}
	if !strings.Contains(errOut, "showing fallback list") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestChatScripted(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		var body struct {
			Messages []map[string]any `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Messages[0]["role"] != "system" {
			t.Errorf("first message role = %v", body.Messages[0]["role"])
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"No, a woman."},"finish_reason":"stop"}]}`))
	}))
	t.Cleanup(srv.Close)

	cfg := writeConfig(t, "keys:\n  openai: sk\nbase_urls:\n  openai: "+srv.URL+"\n")
	script := "Is it a man?\n/history\n/reset\n/history\n/quit\nnever sent\n"

	code, out, errOut := runCLI(t, script, "-config", cfg, "chat", "-provider", "openai", "-system", "You are the chooser.")
	if code != 0 {
		t.Fatalf("code = %d stderr=%q", code, errOut)
	}
	if !strings.Contains(out, "No, a woman.") {
		t.Errorf("reply missing: %q", out)
	}
	if !strings.Contains(out, "3 messages (active)") || !strings.Contains(out, "1 messages (active)") {
		t.Errorf("history output = %q", out)
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
}

func TestChatToolLoop(t *testing.T) {
	t.Parallel()

	var turn atomic.Int32
	second := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if turn.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"type":"message","content":[{"type":"tool_use","id":"toolu_1","name":"ask_question","input":{"question":"Glasses?"}}],"stop_reason":"tool_use"}`))
			return
		}
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(r.Body)
		second <- buf.Bytes()
		_, _ = w.Write([]byte(`{"type":"message","content":[{"type":"text","text":"Then it is Anita."}],"stop_reason":"end_turn"}`))
	}))
	t.Cleanup(srv.Close)

	tools := filepath.Join(t.TempDir(), "tools.json")
	if err := os.WriteFile(tools, []byte(`[{"name":"ask_question","description":"Ask","parameters":{"type":"object"}}]`), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := writeConfig(t, "keys:\n  anthropic: sk\nbase_urls:\n  anthropic: "+srv.URL+"\n")

	code, out, errOut := runCLI(t, "Your move\nno glasses\n", "-config", cfg, "chat", "-provider", "anthropic", "-tools", tools)
	if code != 0 {
		t.Fatalf("code = %d stderr=%q", code, errOut)
	}
	if !strings.Contains(out, `tool> ask_question({"question":"Glasses?"})`) || !strings.Contains(out, "Then it is Anita.") {
		t.Errorf("out = %q", out)
	}
	body := <-second
	if !bytes.Contains(body, []byte(`"tool_use_id":"toolu_1"`)) || !bytes.Contains(body, []byte("no glasses")) {
		t.Errorf("second request = %s", body)
	}
}

func TestChatReportsErrorsAndContinues(t *testing.T) {
	isolateEnv(t)

	code, _, errOut := runCLI(t, "hello\n/image /does/not/exist.png\n", "-config", writeConfig(t, ""), "chat", "-provider", "gemini")
	if code != 0 {
		t.Fatalf("code = %d", code)
	}
	if !strings.Contains(errOut, "no API key configured") || !strings.Contains(errOut, "guesswho key set gemini") {
		t.Errorf("stderr = %q", errOut)
	}
	if !strings.Contains(errOut, "reading image") {
		t.Errorf("image error missing: %q", errOut)
	}
}

func TestKeySetRemoveAndProviders(t *testing.T) {
	isolateEnv(t)

	cfg := filepath.Join(t.TempDir(), "dir", "settings.yaml")
	code, out, errOut := runCLI(t, "sk-or-123\n", "-config", cfg, "key", "set", "openrouter")
	if code != 0 || !strings.Contains(out, "openrouter key saved") {
		t.Fatalf("set: code=%d out=%q stderr=%q", code, out, errOut)
	}

	store, err := config.Load(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got := store.APIKey("openrouter"); got != "sk-or-123" {
		t.Errorf("stored key = %q", got)
	}

	t.Setenv("GEMINI_API_KEY", "env-key")
	code, out, _ = runCLI(t, "", "-config", cfg, "providers")
	if code != 0 {
		t.Fatalf("providers code = %d", code)
	}
	for _, want := range []string{"key: settings", "key: $GEMINI_API_KEY", "system: side-channel", "system: inline"} {
		if !strings.Contains(out, want) {
			t.Errorf("providers output missing %q: %q", want, out)
		}
	}

	code, out, _ = runCLI(t, "", "-config", cfg, "key", "rm", "openrouter")
	if code != 0 || !strings.Contains(out, "removed") {
		t.Errorf("rm: code=%d out=%q", code, out)
	}

	code, _, errOut = runCLI(t, "", "-config", cfg, "key", "set", "nosuch", "k")
	if code != 1 || !strings.Contains(errOut, `unknown provider "nosuch"`) {
		t.Errorf("unknown provider: code=%d stderr=%q", code, errOut)
	}
}

func TestStatsSummary(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"},"finish_reason":"stop"}]}`))
	}))
	t.Cleanup(srv.Close)

	cfg := writeConfig(t, "keys:\n  openai: sk\nbase_urls:\n  openai: "+srv.URL+"\n")
	code, _, errOut := runCLI(t, "hi\n", "-stats", "-config", cfg, "chat", "-provider", "openai")
	if code != 0 {
		t.Fatalf("code = %d", code)
	}
	if !strings.Contains(errOut, "openai: 1 requests, 0 errors") {
		t.Errorf("stats = %q", errOut)
	}

	code, _, errOut = runCLI(t, "hi\n", "-config", cfg, "chat", "-provider", "openai")
	if code != 0 || strings.Contains(errOut, "requests") {
		t.Errorf("summary printed without -stats: code=%d stderr=%q", code, errOut)
	}
}

func TestChatRevokedKeyHint(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid. Please pass a valid API key."}}`))
	}))
	t.Cleanup(srv.Close)

	cfg := writeConfig(t, "keys:\n  gemini: revoked\nbase_urls:\n  gemini: "+srv.URL+"\n")
	code, _, errOut := runCLI(t, "hello\n", "-config", cfg, "chat", "-provider", "gemini")
	if code != 0 {
		t.Fatalf("code = %d", code)
	}
	if !strings.Contains(errOut, "API key not valid") || !strings.Contains(errOut, "guesswho key set gemini") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestChatPicksUpKeySavedElsewhere(t *testing.T) {
	isolateEnv(t)

	prev := settingsWatchInterval
	settingsWatchInterval = 10 * time.Millisecond
	t.Cleanup(func() { settingsWatchInterval = prev })

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-late" {
			t.Errorf("auth = %q", got)
		}
		hits.Add(1)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Got it."},"finish_reason":"stop"}]}`))
	}))
	t.Cleanup(srv.Close)

	base := "base_urls:\n  openai: " + srv.URL + "\n"
	cfg := writeConfig(t, base)

	stdin, input := io.Pipe()
	var stdout, stderr bytes.Buffer
	done := make(chan int, 1)
	go func() {
		done <- run(context.Background(), []string{"-config", cfg, "chat", "-provider", "openai"}, stdin, &stdout, &stderr)
	}()

	// The second write returns only once the first turn has been handled.
	for _, line := range []string{"first\n", "/history\n"} {
		if _, err := io.WriteString(input, line); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(cfg, []byte(base+"keys:\n  openai: sk-late\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for hits.Load() == 0 && time.Now().Before(deadline) {
		if _, err := io.WriteString(input, "again\n"); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	_ = input.Close()

	if code := <-done; code != 0 {
		t.Fatalf("code = %d", code)
	}
	if hits.Load() == 0 {
		t.Fatal("reloaded key never reached the provider")
	}
	if !strings.Contains(stderr.String(), "no API key configured") {
		t.Errorf("first turn should fail without a key: %q", stderr.String())
	}
	if !strings.Contains(stdout.String(), "Got it.") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestChatModelSwitch(t *testing.T) {
	t.Parallel()

	models := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		models <- body.Model
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"},"finish_reason":"stop"}]}`))
	}))
	t.Cleanup(srv.Close)

	cfg := writeConfig(t, "keys:\n  openai: sk\nbase_urls:\n  openai: "+srv.URL+"\n")
	script := "/model claude-haiku-4-5\none\n/model gpt-4.1\ntwo\n"
	code, out, errOut := runCLI(t, script, "-config", cfg, "chat", "-provider", "openai")
	if code != 0 {
		t.Fatalf("code = %d", code)
	}
	if !strings.Contains(errOut, "claude-haiku-4-5 belongs to anthropic, not openai") {
		t.Errorf("stderr = %q", errOut)
	}
	if !strings.Contains(out, "model: gpt-4.1") {
		t.Errorf("stdout = %q", out)
	}
	if first, second := <-models, <-models; first != "gpt-4o" || second != "gpt-4.1" {
		t.Errorf("models = %q, %q", first, second)
	}
}
