package api

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tunnelhub/tunnelhub/tunnels"
)

const (
	maxSmallBodySize = 64 << 10

	// Custom name length bounds, matching the dashboard input field.
	minCustomNameLen = 1
	maxCustomNameLen = 100
)

// redactionSentinel replaces provider API tokens in user listings. The
// tokens grant full provider-account access and must never leave the
// process.
const redactionSentinel = "[REDACTED]"

// Index handles GET /api: a self-describing endpoint catalogue.
func (a *API) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        "TunnelHub API",
		"version":     "1.0.0",
		"description": "Secure ngrok tunnel management dashboard",
		"endpoints": map[string]map[string]string{
			"authentication": {
				"GET /api/public-key": "Get RSA public key for encryption",
				"POST /api/verify":    "Verify login with encrypted password",
				"POST /api/logout":    "Logout current session",
			},
			"tunnels": {
				"GET /api/tunnels":              "Get all tunnels (with optional user filter)",
				"PUT /api/tunnels/{id}/name":    "Set custom tunnel name",
			},
			"admin": {
				"GET /api/users":    "Get list of users",
				"GET /api/health":   "Server health check",
				"POST /api/restart": "Restart server",
			},
		},
		"documentation": "/api/docs",
	})
}

// ListTunnels handles GET /api/tunnels. Read access is allowed without a
// session; mutations are not. A per-request timeout bounds how long slow
// provider responses can hold the handler.
func (a *API) ListTunnels(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	userID := r.URL.Query().Get("user_id")
	usersToFetch := a.users
	if userID != "" {
		usersToFetch = nil
		for _, u := range a.users {
			if u.ID == userID {
				usersToFetch = []tunnels.User{u}
				break
			}
		}
	}

	all := []tunnels.Tunnel{}
	for _, user := range usersToFetch {
		for i, token := range user.APITokens {
			provided, err := a.provider.List(ctx, user.APIURLFor(i), token)
			if err != nil {
				// One unreachable provider account must not hide the rest.
				a.logger.Warn("failed to fetch tunnels",
					"user_id", user.ID, "error", err)
				continue
			}
			for _, pt := range provided {
				t := tunnels.Tunnel{
					ProviderTunnel: pt,
					UserID:         user.ID,
					UserName:       user.Name,
					Status:         tunnels.StatusOnline,
				}
				if name, ok := a.names.Get(pt.ID); ok {
					t.CustomName = name
				}
				all = append(all, t)
			}
		}
	}

	writeJSON(w, http.StatusOK, TunnelListResponse{
		Success:      true,
		Tunnels:      all,
		TotalCount:   len(all),
		FilteredUser: userID,
		Timestamp:    time.Now().Format(time.RFC3339),
	})
}

// SetTunnelName handles PUT /api/tunnels/{tunnelID}/name. Requires a
// session (enforced by RequireSession on the route).
func (a *API) SetTunnelName(w http.ResponseWriter, r *http.Request) {
	tunnelID := chi.URLParam(r, "tunnelID")

	req, ok := decodeJSON[CustomNameRequest](w, r, maxSmallBodySize)
	if !ok {
		return
	}
	if len(req.CustomName) < minCustomNameLen || len(req.CustomName) > maxCustomNameLen {
		writeError(w, http.StatusBadRequest, "custom_name must be between 1 and 100 characters")
		return
	}

	if err := a.names.Set(tunnelID, req.CustomName); err != nil {
		writeInternalError(w, a.logger, "failed to store custom name", err)
		return
	}

	writeJSON(w, http.StatusOK, CustomNameResponse{
		Success:    true,
		Message:    "Custom name updated successfully",
		TunnelID:   tunnelID,
		CustomName: req.CustomName,
	})
}

// TunnelHealth handles GET /api/tunnels/health/{tunnelID}.
func (a *API) TunnelHealth(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotImplemented, "Tunnel health check not yet implemented")
}

// DeleteTunnel handles DELETE /api/tunnels/{tunnelID}.
func (a *API) DeleteTunnel(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotImplemented, "Tunnel deletion not yet implemented")
}

// ListUsers handles GET /api/users. Provider tokens are redacted before
// serialization.
func (a *API) ListUsers(w http.ResponseWriter, r *http.Request) {
	redacted := make([]tunnels.User, len(a.users))
	for i, u := range a.users {
		ru := u
		ru.APITokens = make([]string, len(u.APITokens))
		for j := range u.APITokens {
			ru.APITokens[j] = redactionSentinel
		}
		redacted[i] = ru
	}
	writeJSON(w, http.StatusOK, UsersListResponse{
		Success:    true,
		Users:      redacted,
		TotalCount: len(redacted),
	})
}

// Health handles GET /api/health.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "running",
		PID:           os.Getpid(),
		Platform:      runtime.GOOS,
		UptimeSeconds: time.Since(a.startTime).Seconds(),
		InstanceID:    a.instanceID,
	})
}
