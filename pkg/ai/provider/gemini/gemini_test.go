// ABOUTME: Tests for the Gemini vendor: URL/key placement, body shape, atomic and streamed decoding
// ABOUTME: Streams are flushed in arbitrary chunks to prove chunk-boundary independence

package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mauromedda/guesswho-go/pkg/ai"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc, opts ...ai.Option) *ai.Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	creds := ai.NewStaticCredentials(map[string]string{Name: "g-key"})
	creds.SetBaseURL(Name, srv.URL+"/v1beta")
	v := New()
	v.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return ai.NewAdapter(v, creds, opts...)
}

// writeChunks flushes body in pieces of size n.
func writeChunks(w http.ResponseWriter, body string, n int) {
	f, _ := w.(http.Flusher)
	for len(body) > 0 {
		k := min(n, len(body))
		_, _ = w.Write([]byte(body[:k]))
		if f != nil {
			f.Flush()
		}
		body = body[k:]
	}
}

func TestEndpoint(t *testing.T) {
	t.Parallel()

	v := New()
	got := v.Endpoint(defaultBaseURL, "gemini-2.5-flash", "k&y", false)
	want := "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent?key=k%26y"
	if got != want {
		t.Errorf("Endpoint = %q, want %q", got, want)
	}
	if got := v.Endpoint(defaultBaseURL, "m", "k", true); !strings.Contains(got, "/models/m:streamGenerateContent?key=k") {
		t.Errorf("streaming Endpoint = %q", got)
	}
}

func TestAtomicCallBodyAndResult(t *testing.T) {
	t.Parallel()

	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-2.5-flash:generateContent" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("key"); got != "g-key" {
			t.Errorf("key = %q", got)
		}

		var body generateRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		if body.SystemInstruction == nil || body.SystemInstruction.Parts[0].Text != "Play fair." {
			t.Errorf("systemInstruction = %+v", body.SystemInstruction)
		}
		if body.GenerationConfig.MaxOutputTokens != 1024 || body.GenerationConfig.Temperature == nil || *body.GenerationConfig.Temperature != DefaultTemperature {
			t.Errorf("generationConfig = %+v", body.GenerationConfig)
		}
		if len(body.Contents) != 1 || body.Contents[0].Role != "user" {
			t.Errorf("contents = %+v", body.Contents)
		}

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Is it "},{"text":"Claire?"}]},"finishReason":"STOP"}],"modelVersion":"gemini-2.5-flash"}`))
	})
	a.SetSystemPrompt("Play fair.")

	res, err := a.Send(context.Background(), ai.NewTextMessage(ai.RoleUser, "Your guess"), "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "Is it Claire?" || res.StopReason != ai.StopEndTurn || res.Model != "gemini-2.5-flash" {
		t.Errorf("result = %+v", res)
	}
}

func TestTemperatureOverride(t *testing.T) {
	t.Parallel()

	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		var body generateRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.GenerationConfig.Temperature == nil || *body.GenerationConfig.Temperature != 0.2 {
			t.Errorf("temperature = %v", body.GenerationConfig.Temperature)
		}
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}, ai.WithTemperature(0.2))

	if _, err := a.Send(context.Background(), ai.NewTextMessage(ai.RoleUser, "x"), "", nil); err != nil {
		t.Fatal(err)
	}
}

func TestAtomicFunctionCallIDs(t *testing.T) {
	t.Parallel()

	a := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[
			{"functionCall":{"name":"ask","args":{"q":"hat"}}},
			{"functionCall":{"name":"eliminate","args":{"names":["Tom"]}}}
		]},"finishReason":"STOP"}]}`))
	})

	res, err := a.Send(context.Background(), ai.NewTextMessage(ai.RoleUser, "go"), "", nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []ai.ToolCall{
		{ID: "gemini_1700000000000_0", Name: "ask", Arguments: `{"q":"hat"}`},
		{ID: "gemini_1700000000000_1", Name: "eliminate", Arguments: `{"names":["Tom"]}`},
	}
	if len(res.ToolCalls) != len(want) {
		t.Fatalf("tool calls = %+v", res.ToolCalls)
	}
	for i := range want {
		if res.ToolCalls[i] != want[i] {
			t.Errorf("call %d = %+v, want %+v", i, res.ToolCalls[i], want[i])
		}
	}
	if res.StopReason != ai.StopToolUse {
		t.Errorf("StopReason = %q", res.StopReason)
	}
}

func TestStreamChunkBoundaryIndependence(t *testing.T) {
	t.Parallel()

	body := `[{"candidates":[{"content":{"parts":[{"text":"Does {she} "}]}}]}` + "\n,\r\n" +
		`{"candidates":[{"content":{"parts":[{"text":"wear \"glasses\"?"}]}}]}` + "\n,\r\n" +
		`{"candidates":[{"content":{"parts":[{"text":1}]}}]}` + "\n,\r\n" +
		`{"candidates":[{"content":{"parts":[{"functionCall":{"name":"ask","args":{}}}]},"finishReason":"STOP"}]}]`

	for _, size := range []int{1, 3, 7, 64, len(body)} {
		var skipped int
		a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasSuffix(r.URL.Path, ":streamGenerateContent") {
				t.Errorf("path = %q", r.URL.Path)
			}
			writeChunks(w, body, size)
		}, ai.WithStreaming(true), ai.WithEmit(func(ev ai.StreamEvent) {
			if ev.Type == ai.EventFragmentSkipped {
				skipped++
			}
		}))

		res, err := a.Send(context.Background(), ai.NewTextMessage(ai.RoleUser, "go"), "", nil)
		if err != nil {
			t.Fatalf("chunk size %d: %v", size, err)
		}
		if res.Text != `Does {she} wear "glasses"?` {
			t.Errorf("chunk size %d: Text = %q", size, res.Text)
		}
		if len(res.ToolCalls) != 1 || res.ToolCalls[0].Arguments != "{}" {
			t.Errorf("chunk size %d: tool calls = %+v", size, res.ToolCalls)
		}
		if skipped != 1 {
			t.Errorf("chunk size %d: skipped = %d, want 1", size, skipped)
		}
	}
}

func TestStreamTruncatedTailIsSkipped(t *testing.T) {
	t.Parallel()

	body := `{"candidates":[{"content":{"parts":[{"text":"partial"}]}}]}{"candidates":[{"content":`
	a := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}, ai.WithStreaming(true))

	res, err := a.Send(context.Background(), ai.NewTextMessage(ai.RoleUser, "go"), "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "partial" {
		t.Errorf("Text = %q", res.Text)
	}
}

func TestStreamErrorObject(t *testing.T) {
	t.Parallel()

	a := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"error":{"code":503,"message":"The model is overloaded.","status":"UNAVAILABLE"}}]`))
	}, ai.WithStreaming(true))

	_, err := a.Send(context.Background(), ai.NewTextMessage(ai.RoleUser, "go"), "", nil)
	if !errors.Is(err, ai.ErrRequestFailed) || !strings.Contains(err.Error(), "overloaded") {
		t.Errorf("err = %v", err)
	}
}

func TestValidateKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"valid", http.StatusOK, `{"candidates":[]}`, nil},
		{"bad key", http.StatusBadRequest, `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`, ai.ErrInvalidCredential},
		{"bad model", http.StatusBadRequest, `{"error":{"code":400,"message":"* GenerateContentRequest.model: unexpected model name format","status":"INVALID_ARGUMENT"}}`, ai.ErrInvalidModel},
		{"not found", http.StatusNotFound, `{"error":{"code":404,"message":"models/gemini-9 is not found"}}`, ai.ErrRequestFailed},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"code":429,"message":"Resource has been exhausted"}}`, ai.ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
				if got := r.URL.Query().Get("key"); got != "candidate" {
					t.Errorf("key = %q", got)
				}
				var body generateRequest
				_ = json.NewDecoder(r.Body).Decode(&body)
				if body.GenerationConfig.MaxOutputTokens != 1 {
					t.Errorf("probe maxOutputTokens = %d", body.GenerationConfig.MaxOutputTokens)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			err := a.ValidateKey(context.Background(), "candidate", "")
			if tt.want == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCallWithRejectedKey(t *testing.T) {
	t.Parallel()

	a := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`))
	})

	_, err := a.CallText(context.Background(), "Is it Max?", "", nil)
	if !errors.Is(err, ai.ErrInvalidCredential) {
		t.Fatalf("err = %v, want ErrInvalidCredential", err)
	}
	if len(a.History()) != 1 {
		t.Errorf("history len = %d, want the user turn only", len(a.History()))
	}
}
