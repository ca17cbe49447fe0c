package api

import "github.com/tunnelhub/tunnelhub/tunnels"

// PublicKeyResponse is returned from GET /api/public-key.
type PublicKeyResponse struct {
	PublicKey string `json:"public_key"`
	KeySize   int    `json:"key_size"`
}

// VerifyRequest is the JSON body for POST /api/verify. The password is
// RSA-encrypted with the published public key and base64 encoded.
type VerifyRequest struct {
	EncryptedPassword string `json:"encrypted_password"`
}

// VerifyResponse is returned from POST /api/verify.
type VerifyResponse struct {
	Success      bool   `json:"success"`
	SessionToken string `json:"session_token,omitempty"`
	Message      string `json:"message"`
}

// LogoutResponse is returned from POST /api/logout.
type LogoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RestartRequest is the JSON body for POST /api/restart.
type RestartRequest struct {
	Password string `json:"password"`
}

// RestartResponse is returned from POST /api/restart.
type RestartResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TunnelListResponse is returned from GET /api/tunnels.
type TunnelListResponse struct {
	Success      bool             `json:"success"`
	Tunnels      []tunnels.Tunnel `json:"tunnels"`
	TotalCount   int              `json:"total_count"`
	FilteredUser string           `json:"filtered_user,omitempty"`
	Timestamp    string           `json:"timestamp"`
}

// CustomNameRequest is the JSON body for PUT /api/tunnels/{tunnelID}/name.
type CustomNameRequest struct {
	CustomName string `json:"custom_name"`
}

// CustomNameResponse is returned from PUT /api/tunnels/{tunnelID}/name.
type CustomNameResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	TunnelID   string `json:"tunnel_id"`
	CustomName string `json:"custom_name"`
}

// UsersListResponse is returned from GET /api/users. Provider API tokens
// are redacted.
type UsersListResponse struct {
	Success    bool           `json:"success"`
	Users      []tunnels.User `json:"users"`
	TotalCount int            `json:"total_count"`
}

// HealthResponse is returned from GET /api/health.
type HealthResponse struct {
	Status        string  `json:"status"`
	PID           int     `json:"pid"`
	Platform      string  `json:"platform"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	InstanceID    string  `json:"instance_id"`
}

// ErrorResponse is returned for all error cases.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
