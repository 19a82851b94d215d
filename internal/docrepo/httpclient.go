package docrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// HTTPClient talks to the external collaborative-document repo over its
// REST API, connection-pooled the way pchain.Client is in
// indexers/pcx/pchain/client.go.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient builds a client against baseURL (the repo service's
// origin, e.g. "http://repo:8090").
func NewHTTPClient(baseURL string) *HTTPClient {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}
}

type docResponse struct {
	Found   bool           `json:"found"`
	Root    map[string]any `json:"root"`
}

// Get fetches and hydrates the document, extracting its root map's
// "content" field (spec.md §4.3 steps 2-3). It must be a string-typed
// collaborative text value; anything else is ErrMalformed.
func (c *HTTPClient) Get(ctx context.Context, docID string) (Document, error) {
	url := fmt.Sprintf("%s/documents/%s", c.baseURL, docID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Document{}, fmt.Errorf("docrepo: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("docrepo: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Document{}, ErrNotFound
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Document{}, fmt.Errorf("docrepo: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Document{}, fmt.Errorf("docrepo: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var dr docResponse
	if err := json.Unmarshal(body, &dr); err != nil {
		return Document{}, fmt.Errorf("docrepo: decode response: %w", err)
	}
	if !dr.Found {
		return Document{}, ErrNotFound
	}

	content, ok := dr.Root["content"].(string)
	if !ok {
		return Document{}, ErrMalformed
	}
	return Document{Content: content}, nil
}
