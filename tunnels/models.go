package tunnels

// Status describes whether a tunnel is reachable.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
	StatusPending Status = "pending"
)

// User is a configured dashboard user with one or more provider API tokens.
type User struct {
	ID        string   `json:"id" yaml:"id"`
	Name      string   `json:"name" yaml:"name"`
	APITokens []string `json:"ngrok_tokens" yaml:"ngrok_tokens"`
	APIURLs   []string `json:"ngrok_api_urls" yaml:"ngrok_api_urls"`
}

// APIURLFor returns the API URL for the token at index i. Users with fewer
// URLs than tokens reuse the last configured URL.
func (u User) APIURLFor(i int) string {
	if len(u.APIURLs) == 0 {
		return DefaultAPIURL
	}
	if i >= len(u.APIURLs) {
		i = len(u.APIURLs) - 1
	}
	return u.APIURLs[i]
}

// ProviderTunnel is the tunnel shape returned by the ngrok v2 API.
type ProviderTunnel struct {
	ID              string            `json:"id"`
	PublicURL       string            `json:"public_url"`
	Proto           string            `json:"proto"`
	Region          string            `json:"region"`
	TunnelSessionID string            `json:"tunnel_session_id"`
	ForwardsTo      string            `json:"forwards_to,omitempty"`
	CreatedAt       string            `json:"created_at,omitempty"`
	Metadata        map[string]any    `json:"metadata,omitempty"`
}

// Tunnel decorates a provider tunnel with dashboard-side ownership and
// naming information.
type Tunnel struct {
	ProviderTunnel
	UserID     string `json:"user_id"`
	UserName   string `json:"user_name"`
	CustomName string `json:"custom_name,omitempty"`
	Status     Status `json:"status"`
}
