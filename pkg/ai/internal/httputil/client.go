// ABOUTME: Per-adapter HTTP client: one attempt per call, default headers, no retry
// ABOUTME: Respects HTTP_PROXY/HTTPS_PROXY; callers own and must close response bodies

package httputil

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	neturl "net/url"
	"time"
)

// Doer is the subset of *http.Client the Client needs; tests inject fakes.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client issues single-attempt requests with default headers applied.
type Client struct {
	doer    Doer
	headers map[string]string
}

// NewClient creates a client with the given default headers. A nil doer
// selects a dedicated *http.Client; adapters never share one.
func NewClient(doer Doer, headers map[string]string) *Client {
	if doer == nil {
		doer = newHTTPClient()
	}
	if headers == nil {
		headers = make(map[string]string)
	}
	return &Client{doer: doer, headers: headers}
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
			TLSHandshakeTimeout: 10 * time.Second,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Do sends one request to url. extra headers override the defaults.
// Non-2xx responses are returned, not converted to errors.
func (c *Client) Do(ctx context.Context, method, url string, body io.Reader, extra map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s %s: %w", method, RedactURL(url), err)
	}

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range extra {
		req.Header.Set(k, v)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		var uerr *neturl.Error
		if errors.As(err, &uerr) {
			uerr.URL = RedactURL(uerr.URL)
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	return resp, nil
}

// ReadErrorBody drains at most limit bytes of an error response body.
func ReadErrorBody(resp *http.Response, limit int64) []byte {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, limit))
	return body
}

// IsSuccess reports whether status is 2xx.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}
