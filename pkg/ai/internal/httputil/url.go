// ABOUTME: URL helpers: base+path joining without double slashes, key redaction for logs
// ABOUTME: Gemini carries its key in the query string, so logged URLs must be scrubbed

package httputil

import (
	"net/url"
	"strings"
)

// JoinURL joins a base URL and a path with exactly one slash between them.
func JoinURL(base, path string) string {
	base = strings.TrimRight(base, "/")
	if path == "" {
		return base
	}
	return base + "/" + strings.TrimLeft(path, "/")
}

// RedactURL replaces the value of any "key" query parameter with "***".
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Get("key") == "" {
		return raw
	}
	q.Set("key", "***")
	u.RawQuery = q.Encode()
	return u.String()
}
