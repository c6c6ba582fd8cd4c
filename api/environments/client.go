// Package environments is a client of the upstream environment provisioning API.
//
// The upstream creates a real, billable environment on every call. There is
// no idempotency key, so callers must not retry failed calls blindly.
package environments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ruteri/devnet-dashboard-backend/interfaces"
)

// DefaultURL is the staging endpoint creating environments.
const DefaultURL = "https://staging-api.nameless.io/v1/environments"

// APIKeyHeader carries the server-held secret.
const APIKeyHeader = "x-api-key"

// maxResponseSize bounds the upstream body read into memory.
const maxResponseSize = 1024 * 1024

// CreateRequest is the body sent upstream.
type CreateRequest struct {
	Name     string             `json:"name"`
	Networks []string           `json:"networks"`
	ChainID  interfaces.ChainID `json:"chainId"`
}

type createResponse struct {
	Data json.RawMessage `json:"data"`
}

// Client creates environments on the upstream provisioning API.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client. The API key is mandatory.
func NewClient(url, apiKey string, httpClient *http.Client) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing provisioning API key")
	}
	if url == "" {
		url = DefaultURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		url:        url,
		apiKey:     apiKey,
		httpClient: httpClient,
	}, nil
}

// Create requests a new environment and returns the raw "data" member of the
// upstream response.
func (c *Client) Create(ctx context.Context, req CreateRequest) (json.RawMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("could not encode environment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not initialize request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(APIKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("could not request environments endpoint: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("could not read environments response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("environments endpoint returned error %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed createResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("could not parse environments response: %w", err)
	}

	return parsed.Data, nil
}
