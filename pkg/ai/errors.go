// ABOUTME: Error taxonomy shared by every adapter: kinds, typed Error, status mapping
// ABOUTME: Extracts best-effort messages from vendor JSON error bodies and HTML gateway pages

package ai

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/net/html"
)

// ErrorKind classifies an adapter failure.
type ErrorKind int

const (
	KindRequestFailed ErrorKind = iota
	KindInvalidCredential
	KindInvalidModel
	KindRateLimited
	KindModelAccessDenied
	KindQuotaExceeded
	KindMalformedRequest
	KindTransport
)

var kindNames = map[ErrorKind]string{
	KindRequestFailed:     "request_failed",
	KindInvalidCredential: "invalid_credential",
	KindInvalidModel:      "invalid_model",
	KindRateLimited:       "rate_limited",
	KindModelAccessDenied: "model_access_denied",
	KindQuotaExceeded:     "quota_exceeded",
	KindMalformedRequest:  "malformed_request",
	KindTransport:         "transport",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinels for errors.Is matching against *Error values.
var (
	ErrRequestFailed     = &Error{Kind: KindRequestFailed}
	ErrInvalidCredential = &Error{Kind: KindInvalidCredential}
	ErrInvalidModel      = &Error{Kind: KindInvalidModel}
	ErrRateLimited       = &Error{Kind: KindRateLimited}
	ErrModelAccessDenied = &Error{Kind: KindModelAccessDenied}
	ErrQuotaExceeded     = &Error{Kind: KindQuotaExceeded}
	ErrMalformedRequest  = &Error{Kind: KindMalformedRequest}
	ErrTransport         = &Error{Kind: KindTransport}
)

// Error is the single failure type returned across the adapter boundary.
// Message is suitable for direct display.
type Error struct {
	Provider string
	Kind     ErrorKind
	Status   int
	Message  string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = defaultMessage(e.Kind, e.Status)
	}
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so callers can test against the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of err, or KindRequestFailed for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindRequestFailed
}

func defaultMessage(kind ErrorKind, status int) string {
	switch kind {
	case KindInvalidCredential:
		return "invalid API key"
	case KindInvalidModel:
		return "invalid or unavailable model"
	case KindRateLimited:
		return "rate limited; the API key is valid, try again later"
	case KindModelAccessDenied:
		return "this API key has no access to the requested model"
	case KindQuotaExceeded:
		return "insufficient credits for this request"
	case KindMalformedRequest:
		return "the request was rejected as malformed"
	case KindTransport:
		return "network error"
	default:
		if status > 0 {
			return fmt.Sprintf("request failed with status %d", status)
		}
		return "request failed"
	}
}

// errorMessagePaths are tried in order against a vendor error body.
var errorMessagePaths = []string{"error.message", "error", "message", "0.error.message"}

// ExtractErrorMessage pulls a human-readable message out of a vendor error
// body. JSON bodies are searched for the usual error fields; HTML pages
// from proxies and gateways yield their <title>. Returns "" otherwise.
func ExtractErrorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if !gjson.ValidBytes(body) {
		return htmlTitle(body)
	}
	for _, path := range errorMessagePaths {
		r := gjson.GetBytes(body, path)
		if r.Type == gjson.String && r.String() != "" {
			return r.String()
		}
	}
	return ""
}

func htmlTitle(body []byte) string {
	if !bytes.Contains(bytes.ToLower(body), []byte("<title")) {
		return ""
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	var walk func(*html.Node) string
	walk = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.Data == "title" {
			var sb strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					sb.WriteString(c.Data)
				}
			}
			return strings.Join(strings.Fields(sb.String()), " ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if t := walk(c); t != "" {
				return t
			}
		}
		return ""
	}
	return walk(doc)
}

// ClassifyStatus maps a non-success HTTP status to an *Error.
//
// A 400 whose message names the key is an InvalidCredential on every path.
// probe additionally splits the remaining 400s into InvalidModel or
// MalformedRequest by their message text. quota402 enables the 402 -> QuotaExceeded mapping.
func ClassifyStatus(provider string, status int, message string, probe, quota402 bool) *Error {
	e := &Error{Provider: provider, Status: status, Message: message}

	switch {
	case status == http.StatusUnauthorized:
		e.Kind = KindInvalidCredential
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
	case status == http.StatusForbidden:
		e.Kind = KindModelAccessDenied
	case status == http.StatusPaymentRequired && quota402:
		e.Kind = KindQuotaExceeded
	case status == http.StatusBadRequest && probe:
		e.Kind = classifyBadRequest(message)
	case status == http.StatusBadRequest && mentionsCredential(message):
		e.Kind = KindInvalidCredential
	default:
		e.Kind = KindRequestFailed
	}

	if e.Message == "" {
		e.Message = defaultMessage(e.Kind, status)
		if e.Kind == KindRequestFailed {
			e.Message = fmt.Sprintf("%s request failed with status %d", provider, status)
			e.Provider = ""
		}
	}
	return e
}

func classifyBadRequest(message string) ErrorKind {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "model"):
		return KindInvalidModel
	case mentionsCredential(message):
		return KindInvalidCredential
	default:
		return KindMalformedRequest
	}
}

func mentionsCredential(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "key") ||
		strings.Contains(lower, "credential") ||
		strings.Contains(lower, "auth")
}

// TransportError wraps an I/O failure.
func TransportError(provider string, err error) *Error {
	return &Error{Provider: provider, Kind: KindTransport, Err: err}
}
