package store

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTP reads from a static host such as a CDN serving a previous build.
type HTTP struct {
	baseURL string
	client  *http.Client
}

// NewHTTP returns a fetcher rooted at baseURL. A nil client gets a 10s timeout.
func NewHTTP(baseURL string, client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTP{baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"), client: client}
}

func (h *HTTP) Fetch(ctx context.Context, name string) ([]byte, error) {
	clean, ok := cleanName(name)
	if !ok {
		return nil, ErrNotFound
	}
	endpoint, err := url.JoinPath(h.baseURL, strings.Split(clean, "/")...)
	if err != nil {
		return nil, &FetchError{Name: name, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Name: name, Err: err}
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &FetchError{Name: name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Name: name, Status: resp.StatusCode}
	}
	return readBody(name, resp.Body, maxBodyBytes)
}
