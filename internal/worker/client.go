// Package worker implements the two-pass compilation pipeline (spec.md
// §4.2): pass 1, a Nexus round-trip, pass 2, and artifact upload, run by
// a pool of cooperative slots that each enforce the process-wide TeX
// engine mutex via texengine.Runner.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/ttpedia/backend/internal/pedia"
)

// NexusClient is a connection-pooled HTTP client against the Nexus,
// grounded on pchain.Client's transport settings in
// indexers/pcx/pchain/client.go.
type NexusClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewNexusClient builds a client against the Nexus's base URL
// (TTPEDIA_NEXUS_URL), e.g. "http://nexus:8081".
func NewNexusClient(baseURL string) *NexusClient {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	return &NexusClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   60 * time.Second,
			Transport: transport,
		},
	}
}

// Pass1 sends POST /ttpapi1/nexus/pass1 (spec.md §4.2 step 2).
func (c *NexusClient) Pass1(ctx context.Context, req pedia.Pass1Request) (pedia.Pass1Response, error) {
	var resp pedia.Pass1Response
	code, err := c.postJSON(ctx, "/ttpapi1/nexus/pass1", req, &resp)
	if err != nil {
		return pedia.Pass1Response{}, err
	}
	switch {
	case code == http.StatusConflict:
		return pedia.Pass1Response{}, fmt.Errorf("%w: %s", pedia.ErrAssetConflict, resp.Status)
	case code == http.StatusBadRequest:
		return pedia.Pass1Response{}, fmt.Errorf("%w: %s", pedia.ErrJobMalformed, resp.Status)
	case code != http.StatusOK:
		return pedia.Pass1Response{}, fmt.Errorf("%w: %s", pedia.ErrPass1Engine, resp.Status)
	}
	return resp, nil
}

// AssetsUploaded sends POST /ttpapi1/nexus/assets_uploaded (spec.md §4.2
// step 4).
func (c *NexusClient) AssetsUploaded(ctx context.Context, req pedia.AssetsUploadedRequest) error {
	var resp pedia.AssetsUploadedResponse
	code, err := c.postJSON(ctx, "/ttpapi1/nexus/assets_uploaded", req, &resp)
	if err != nil {
		return err
	}
	if code != http.StatusOK {
		return fmt.Errorf("%w: /ttpapi1/nexus/assets_uploaded: status %d", pedia.ErrNexusUnavailable, code)
	}
	return nil
}

func (c *NexusClient) postJSON(ctx context.Context, path string, body, out any) (statusCode int, err error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("worker: marshal request to %s: %w", path, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("%w: build request to %s: %v", pedia.ErrNexusUnavailable, path, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", pedia.ErrNexusUnavailable, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("%w: read response from %s: %v", pedia.ErrNexusUnavailable, path, err)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return resp.StatusCode, fmt.Errorf("worker: decode response from %s: %w", path, err)
	}
	return resp.StatusCode, nil
}
