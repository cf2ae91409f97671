// Package origin provides the HTTP client for the upstream event API.
package origin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/GatherLoop/gathersync/internal/infrastructure/caching/types"
)

// Client fetches from the origin and materializes responses as cache
// entries (status, headers, fully-read body).
type Client struct {
	base       *url.URL
	httpClient *http.Client
	healthPath string
}

// NewClient creates an origin client for the given base URL.
func NewClient(baseURL, healthPath string, timeout time.Duration) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid origin URL %q: %w", baseURL, err)
	}
	return &Client{
		base:       base,
		httpClient: &http.Client{Timeout: timeout},
		healthPath: healthPath,
	}, nil
}

// hop-by-hop headers are stripped from stored copies.
var hopByHopHeaders = []string{
	"Connection", "Proxy-Connection", "Keep-Alive",
	"Proxy-Authenticate", "Proxy-Authorization", "TE",
	"Trailer", "Transfer-Encoding", "Upgrade",
}

func stripHopByHop(header http.Header) http.Header {
	clean := header.Clone()
	for _, name := range hopByHopHeaders {
		clean.Del(name)
	}
	if conn := header.Get("Connection"); conn != "" {
		for _, token := range strings.Split(conn, ",") {
			if token = strings.TrimSpace(token); token != "" {
				clean.Del(token)
			}
		}
	}
	return clean
}

// Resolve joins a request path (with optional query) onto the origin base.
func (c *Client) Resolve(pathAndQuery string) string {
	ref, err := url.Parse(pathAndQuery)
	if err != nil {
		return c.base.String() + pathAndQuery
	}
	return c.base.ResolveReference(ref).String()
}

// Fetch performs a request against the origin and reads the full response.
func (c *Client) Fetch(ctx context.Context, method, pathAndQuery string, header http.Header, body []byte) (*types.CachedEntry, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.Resolve(pathAndQuery), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build origin request: %w", err)
	}
	for name, values := range header {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("origin fetch failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read origin response: %w", err)
	}

	return &types.CachedEntry{
		Status:  resp.StatusCode,
		Headers: stripHopByHop(resp.Header),
		Body:    responseBody,
	}, nil
}

// Get is a convenience wrapper for header-less GET fetches.
func (c *Client) Get(ctx context.Context, pathAndQuery string) (*types.CachedEntry, error) {
	return c.Fetch(ctx, http.MethodGet, pathAndQuery, nil, nil)
}

// Probe reports whether the origin's health endpoint is reachable.
func (c *Client) Probe(ctx context.Context) bool {
	entry, err := c.Get(ctx, c.healthPath)
	if err != nil {
		return false
	}
	return entry.Status < http.StatusInternalServerError
}
