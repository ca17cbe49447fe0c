package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T, cfg Config, opts ...Option) *API {
	t.Helper()
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = "test-admin-secret"
	}
	if cfg.RequestsPerMinute == 0 {
		cfg.RequestsPerMinute = 120
	}
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = 5 << 20
	}
	return New(testKeyPair(t), cfg, opts...)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestLimitBodySizeRejectsOversizedDeclaration(t *testing.T) {
	a := newTestAPI(t, Config{MaxBodySize: 10})

	req := httptest.NewRequest(http.MethodPost, "/api/verify", strings.NewReader("12345678901234567890"))
	req.Header.Set("Content-Length", "20")
	rec := httptest.NewRecorder()

	a.LimitBodySize(okHandler()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestLimitBodySizeFailsClosedOnUnparsableLength(t *testing.T) {
	a := newTestAPI(t, Config{MaxBodySize: 1024})

	req := httptest.NewRequest(http.MethodPost, "/api/verify", strings.NewReader("{}"))
	req.Header.Set("Content-Length", "not-a-number")
	rec := httptest.NewRecorder()

	a.LimitBodySize(okHandler()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestLimitBodySizeAdmitsSmallBodies(t *testing.T) {
	a := newTestAPI(t, Config{MaxBodySize: 1024})

	req := httptest.NewRequest(http.MethodPost, "/api/verify", strings.NewReader("{}"))
	rec := httptest.NewRecorder()

	a.LimitBodySize(okHandler()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitMiddlewareDeniesWith429(t *testing.T) {
	a := newTestAPI(t, Config{RequestsPerMinute: 2})

	handler := a.RateLimit(okHandler())
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/tunnels", nil)
		req.RemoteAddr = "10.0.0.1:55555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/tunnels", nil)
	req.RemoteAddr = "10.0.0.1:55555"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimitMiddlewareWhitelistBypasses(t *testing.T) {
	a := newTestAPI(t, Config{
		RequestsPerMinute: 1,
		WhitelistPaths:    []string{"/api/public-key"},
	})

	handler := a.RateLimit(okHandler())
	// Far more requests than the bucket holds; all bypass the limiter.
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/public-key", nil)
		req.RemoteAddr = "10.0.0.2:1000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// No entry was ever created for the whitelisted traffic.
	a.limiter.mu.Lock()
	defer a.limiter.mu.Unlock()
	assert.Empty(t, a.limiter.entries)
}

func TestRequireSessionRejectsMissingToken(t *testing.T) {
	a := newTestAPI(t, Config{})

	req := httptest.NewRequest(http.MethodPut, "/api/tunnels/tn_1/name", nil)
	rec := httptest.NewRecorder()
	a.RequireSession(okHandler()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireSessionRejectsUnknownToken(t *testing.T) {
	a := newTestAPI(t, Config{})

	req := httptest.NewRequest(http.MethodPut, "/api/tunnels/tn_1/name", nil)
	req.Header.Set("Authorization", "Bearer "+strings.Repeat("ab", 32))
	rec := httptest.NewRecorder()
	a.RequireSession(okHandler()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireSessionAdmitsLiveToken(t *testing.T) {
	a := newTestAPI(t, Config{})
	token, err := a.sessions.Create(true)
	require.NoError(t, err)

	var got Session
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = sessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPut, "/api/tunnels/tn_1/name", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	a.RequireSession(inner).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, token, got.Token)
	assert.True(t, got.IsAdmin)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc123", "abc123", true},
		{"bearer abc123", "abc123", true},
		{"Basic abc123", "", false},
		{"Bearer", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		got, ok := bearerToken(req)
		assert.Equal(t, tt.ok, ok, "header %q", tt.header)
		assert.Equal(t, tt.want, got, "header %q", tt.header)
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:4242"
	assert.Equal(t, "192.0.2.7", clientKey(req))

	req.RemoteAddr = "[2001:db8::1]:4242"
	assert.Equal(t, "2001:db8::1", clientKey(req))

	req.RemoteAddr = ""
	assert.Equal(t, "unknown", clientKey(req))
}
