package tunnels

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultAPIURL is the public ngrok API endpoint.
const DefaultAPIURL = "https://api.ngrok.com"

const requestTimeout = 10 * time.Second

// Client lists tunnels from the ngrok v2 API.
type Client struct {
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a tunnel provider client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type listResponse struct {
	Tunnels []ProviderTunnel `json:"tunnels"`
}

// List fetches the tunnels visible to one API token.
func (c *Client) List(ctx context.Context, apiURL, token string) ([]ProviderTunnel, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"/tunnels", nil)
	if err != nil {
		return nil, fmt.Errorf("building tunnel list request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Ngrok-Version", "2")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching tunnels: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("tunnel provider returned %d: %s", resp.StatusCode, body)
	}

	var list listResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decoding tunnel list: %w", err)
	}
	return list.Tunnels, nil
}
