// Package api implements the TunnelHub authentication and request-admission
// gateway plus the dashboard REST endpoints behind it.
package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/awnumar/memguard"
	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"
	"github.com/google/uuid"

	"github.com/tunnelhub/tunnelhub/crypto"
	"github.com/tunnelhub/tunnelhub/tunnels"
)

//go:embed openapi.yaml
var openapiSpec []byte

// API holds the dependencies needed by the REST handlers.
type API struct {
	keys     *crypto.KeyPair
	sessions SessionStore
	limiter  *rateLimiter
	names    tunnels.NameStore
	provider *tunnels.Client
	users    []tunnels.User
	logger   *slog.Logger

	// adminSecret is sealed in memory and only opened for the duration of
	// a constant-time comparison.
	adminSecret *memguard.Enclave

	maxBodySize int64
	whitelist   map[string]struct{}

	instanceID string
	startTime  time.Time

	// restartFn is invoked after a successful admin-gated restart request.
	restartFn func()
}

// Config carries the gateway settings the API needs from the outer
// configuration surface.
type Config struct {
	AdminPassword     string
	RequestsPerMinute int
	MaxBodySize       int64
	WhitelistPaths    []string
	Users             []tunnels.User
}

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for gateway events.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.logger = logger
	}
}

// WithSessionStore replaces the default in-memory session store.
func WithSessionStore(store SessionStore) Option {
	return func(a *API) {
		a.sessions = store
	}
}

// WithNameStore replaces the default in-memory custom-name store.
func WithNameStore(store tunnels.NameStore) Option {
	return func(a *API) {
		a.names = store
	}
}

// WithTunnelClient replaces the default tunnel provider client.
func WithTunnelClient(c *tunnels.Client) Option {
	return func(a *API) {
		a.provider = c
	}
}

// WithRestartFunc overrides the process-restart action triggered by
// POST /api/restart.
func WithRestartFunc(fn func()) Option {
	return func(a *API) {
		a.restartFn = fn
	}
}

// New creates a new API instance. The key pair must already be resolved;
// key resolution failures are fatal before this point.
func New(keys *crypto.KeyPair, cfg Config, opts ...Option) *API {
	whitelist := make(map[string]struct{}, len(cfg.WhitelistPaths))
	for _, p := range cfg.WhitelistPaths {
		whitelist[p] = struct{}{}
	}

	a := &API{
		keys:        keys,
		limiter:     newRateLimiter(cfg.RequestsPerMinute),
		users:       cfg.Users,
		adminSecret: memguard.NewEnclave([]byte(cfg.AdminPassword)),
		maxBodySize: cfg.MaxBodySize,
		whitelist:   whitelist,
		instanceID:  uuid.NewString(),
		startTime:   time.Now(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	if a.sessions == nil {
		a.sessions = NewMemorySessionStore()
	}
	if a.names == nil {
		a.names = tunnels.NewMemoryNameStore()
	}
	if a.provider == nil {
		a.provider = tunnels.NewClient()
	}
	if a.restartFn == nil {
		a.restartFn = a.restartProcess
	}
	return a
}

// Router returns a chi.Router with all API routes mounted. The caller is
// expected to mount it under /api and to wrap the whole server with
// LimitBodySize and RateLimit.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/api/openapi.yaml",
		Path:    "api/docs",
	}, nil))

	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/api/openapi.yaml",
		Path:    "api/redoc",
	}, nil))

	r.Get("/", a.Index)
	r.Get("/public-key", a.PublicKey)
	r.Post("/verify", a.Verify)
	r.Post("/logout", a.Logout)
	r.Post("/restart", a.Restart)

	r.Get("/tunnels", a.ListTunnels)
	r.With(a.RequireSession).Put("/tunnels/{tunnelID}/name", a.SetTunnelName)
	r.Get("/tunnels/health/{tunnelID}", a.TunnelHealth)
	r.Delete("/tunnels/{tunnelID}", a.DeleteTunnel)

	r.Get("/users", a.ListUsers)
	r.Get("/health", a.Health)

	return r
}
