package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/tunnelhub/tunnelhub/api"
	"github.com/tunnelhub/tunnelhub/config"
	"github.com/tunnelhub/tunnelhub/crypto"
	"github.com/tunnelhub/tunnelhub/tunnels"
	"github.com/tunnelhub/tunnelhub/web"
)

var (
	configPath string
	address    string
	dataDir    string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the tunnel dashboard server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if address != "" {
			cfg.Address = address
		}
		if dataDir != "" {
			cfg.DataDir = dataDir
		}

		logger := newLogger(cfg.Logging)

		if cfg.UsingDefaultPassword() {
			logger.Warn("admin password is still the built-in default, set ADMIN_PASSWORD before exposing this server")
		}

		keyOpts := []crypto.ManagerOption{
			crypto.WithKeySize(cfg.Keys.Size),
			crypto.WithManagerLogger(logger),
		}
		if cfg.Keys.PublicPEM != "" || cfg.Keys.PrivatePEM != "" {
			keyOpts = append(keyOpts, crypto.WithSuppliedPEM(cfg.Keys.PublicPEM, cfg.Keys.PrivatePEM))
		}
		keys := crypto.NewManager(cfg.Keys.Dir, keyOpts...)
		pair, err := keys.EnsureKeyPair()
		if err != nil {
			return fmt.Errorf("failed to resolve RSA key pair: %w", err)
		}

		apiOpts := []api.Option{api.WithLogger(logger)}
		if cfg.DataDir != "" {
			if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}
			names, err := tunnels.NewBoltNameStoreFromFile(cfg.DataDir + "/names.db")
			if err != nil {
				return fmt.Errorf("failed to open name store: %w", err)
			}
			defer names.Close()
			apiOpts = append(apiOpts, api.WithNameStore(names))
		}

		a := api.New(pair, api.Config{
			AdminPassword:     cfg.AdminPassword,
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			MaxBodySize:       cfg.Limits.MaxRequestSize,
			WhitelistPaths:    cfg.RateLimit.WhitelistPaths,
			Users:             cfg.Users,
		}, apiOpts...)

		r := chi.NewRouter()
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)
		r.Use(a.LimitBodySize)
		r.Use(a.RateLimit)

		r.Mount("/api", a.Router())

		webHandler, err := web.Handler()
		if err != nil {
			return err
		}
		r.Handle("/*", webHandler)

		server := &http.Server{
			Addr:              cfg.Address,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		printBanner()
		fmt.Printf("Starting server on %s (key source: %s)...\n", cfg.Address, pair.Source)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			fmt.Printf("\nReceived %s, shutting down...\n", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	serverCmd.Flags().StringVar(&address, "address", "", "Listen address, overrides configuration")
	serverCmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory for persistent data, overrides configuration")
}
