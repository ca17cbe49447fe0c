// Package config loads server configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/tunnelhub/tunnelhub/tunnels"
)

// DefaultAdminPassword is the out-of-the-box credential. Startup logs a
// warning when it is still in effect.
const DefaultAdminPassword = "admin123"

// Config is the full server configuration.
type Config struct {
	Address string `yaml:"address"`

	// AdminPassword is the credential verified by the auth gateway.
	// Never logged.
	AdminPassword string `yaml:"admin_password"`

	Keys      KeysConfig    `yaml:"keys"`
	RateLimit RateLimit     `yaml:"rate_limit"`
	Limits    LimitsConfig  `yaml:"limits"`
	Logging   LoggingConfig `yaml:"logging"`

	// DataDir enables BBolt persistence for custom tunnel names when set.
	DataDir string `yaml:"data_dir"`

	// AutoRefreshInterval is the dashboard refresh cadence in seconds.
	AutoRefreshInterval int `yaml:"auto_refresh_interval"`

	Users []tunnels.User `yaml:"users"`
}

// KeysConfig controls RSA key resolution.
type KeysConfig struct {
	// Size is the RSA modulus size in bits (2048 or 4096).
	Size int `yaml:"size"`
	// Dir is where generated key PEM files are persisted.
	Dir string `yaml:"dir"`
	// PublicPEM/PrivatePEM supply pre-provisioned key material and take
	// precedence over files on disk.
	PublicPEM  string `yaml:"public_pem"`
	PrivatePEM string `yaml:"private_pem"`
}

// RateLimit configures the token-bucket admission control.
type RateLimit struct {
	// RequestsPerMinute is the bucket capacity; refill rate is derived
	// as RequestsPerMinute/60 tokens per second.
	RequestsPerMinute int `yaml:"requests_per_minute"`
	// WhitelistPaths bypass the limiter entirely.
	WhitelistPaths []string `yaml:"whitelist_paths"`
}

// LimitsConfig bounds request processing.
type LimitsConfig struct {
	// MaxRequestSize is the maximum accepted request body in bytes.
	MaxRequestSize int64 `yaml:"max_request_size"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// DefaultWhitelistPaths are the endpoints exempt from rate limiting:
// the landing page, the public key endpoint, and documentation.
func DefaultWhitelistPaths() []string {
	return []string{
		"/",
		"/favicon.ico",
		"/api/public-key",
		"/api/docs",
		"/api/redoc",
		"/api/openapi.yaml",
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Address:       ":8000",
		AdminPassword: DefaultAdminPassword,
		Keys: KeysConfig{
			Size: 2048,
			Dir:  "./keys",
		},
		RateLimit: RateLimit{
			RequestsPerMinute: 120,
			WhitelistPaths:    DefaultWhitelistPaths(),
		},
		Limits: LimitsConfig{
			MaxRequestSize: 5 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		AutoRefreshInterval: 5,
	}
}

// Load reads configuration from an optional YAML file, applies environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) error {
	if addr := os.Getenv("SERVER_ADDR"); addr != "" {
		cfg.Address = addr
	}
	if pw := os.Getenv("ADMIN_PASSWORD"); pw != "" {
		cfg.AdminPassword = pw
	}
	if v := os.Getenv("RSA_KEY_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RSA_KEY_SIZE: %w", err)
		}
		cfg.Keys.Size = n
	}
	if pem := os.Getenv("RSA_PUBLIC_KEY"); pem != "" {
		cfg.Keys.PublicPEM = pem
	}
	if pem := os.Getenv("RSA_PRIVATE_KEY"); pem != "" {
		cfg.Keys.PrivatePEM = pem
	}
	if v := os.Getenv("RATE_LIMIT_RPM"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_RPM: %w", err)
		}
		cfg.RateLimit.RequestsPerMinute = n
	}
	if v := os.Getenv("MAX_REQUEST_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_REQUEST_SIZE: %w", err)
		}
		cfg.Limits.MaxRequestSize = n
	}
	if v := os.Getenv("AUTO_REFRESH_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AUTO_REFRESH_INTERVAL: %w", err)
		}
		cfg.AutoRefreshInterval = n
	}
	if v := os.Getenv("USERS"); v != "" {
		var users []tunnels.User
		if err := json.Unmarshal([]byte(v), &users); err != nil {
			return fmt.Errorf("USERS: %w", err)
		}
		cfg.Users = users
	}
	return nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.AdminPassword == "" {
		return fmt.Errorf("admin_password must not be empty")
	}
	if c.Keys.Size != 2048 && c.Keys.Size != 4096 {
		return fmt.Errorf("keys.size must be 2048 or 4096, got %d", c.Keys.Size)
	}
	if (c.Keys.PublicPEM == "") != (c.Keys.PrivatePEM == "") {
		return fmt.Errorf("keys.public_pem and keys.private_pem must be supplied together")
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("rate_limit.requests_per_minute must be positive, got %d", c.RateLimit.RequestsPerMinute)
	}
	if c.Limits.MaxRequestSize <= 0 {
		return fmt.Errorf("limits.max_request_size must be positive, got %d", c.Limits.MaxRequestSize)
	}
	for i, u := range c.Users {
		if u.ID == "" {
			return fmt.Errorf("users[%d]: id is required", i)
		}
		if len(u.APITokens) == 0 {
			return fmt.Errorf("users[%d] (%s): at least one ngrok token is required", i, u.ID)
		}
	}
	return nil
}

// UsingDefaultPassword reports whether the admin credential was never
// changed from the shipped default.
func (c *Config) UsingDefaultPassword() bool {
	return c.AdminPassword == DefaultAdminPassword
}
