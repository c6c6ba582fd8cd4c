package stealthtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ruteri/devnet-dashboard-backend/interfaces"
)

// Client implements interfaces.Provisioner against a provisioning proxy.
type Client struct {
	// ServerAddr is the base URL of the dashboard server hosting the proxy.
	ServerAddr string

	// HTTPClient is used for requests. Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// CreatePrivateNetwork asks the proxy for a new private network.
// It fails when the proxy does not report success or returns no data.
func (c *Client) CreatePrivateNetwork(ctx context.Context) (*interfaces.ProvisioningResult, error) {
	url := strings.TrimSuffix(c.ServerAddr, "/") + Route
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(nil))
	if err != nil {
		return nil, fmt.Errorf("could not initialize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not request provisioning endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read provisioning response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("provisioning endpoint returned error %d: %s", resp.StatusCode, string(body))
	}

	var parsed interfaces.ProvisioningResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("could not parse provisioning response: %w", err)
	}

	if !parsed.Success || len(parsed.Data) == 0 || string(parsed.Data) == "null" {
		return nil, fmt.Errorf("%w: proxy returned no data", interfaces.ErrProvisioningFailed)
	}

	var result interfaces.ProvisioningResult
	if err := json.Unmarshal(parsed.Data, &result); err != nil {
		return nil, fmt.Errorf("could not parse provisioning result: %w", err)
	}

	return &result, nil
}
