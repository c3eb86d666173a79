// Package main runs the social relay: OAuth2 connect flows for Twitter and
// LinkedIn, publishing endpoints and the MCP tool surface over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-training/social-relay/pkg/config"
	"github.com/go-training/social-relay/pkg/logger"
	"github.com/go-training/social-relay/pkg/relay"
	"github.com/go-training/social-relay/pkg/store"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
)

func main() {
	var addr string
	var envFile string
	flag.StringVar(&addr, "addr", "", "address to listen on (overrides ADDR)")
	flag.StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	flag.Parse()

	cfg, err := config.Load(envFile)
	if err != nil {
		slog.Error("Invalid configuration", "env_file", envFile, "error", err)
		os.Exit(1)
	}
	if addr != "" {
		cfg.Addr = addr
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	logger.NewWithLevel(cfg.Env, logger.ParseLevel(cfg.LogLevel, logger.DefaultLevel(cfg.Env)))

	sessionStore, err := store.NewStore(cfg.Store.Options())
	if err != nil {
		slog.Error("Failed to create store", "type", cfg.Store.Type, "error", err)
		os.Exit(1)
	}
	slog.Info("Session store ready", "type", cfg.Store.Type)

	app, err := relay.New(cfg, sessionStore)
	if err != nil {
		slog.Error("Failed to build relay", "error", err)
		os.Exit(1)
	}
	slog.Info("Platforms configured", "platforms", app.Authorizer.Registry().Platforms())

	// Publishing waits on the provider, so writes get OutboundTimeout on top.
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.OutboundTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	m := graceful.NewManager()
	m.AddRunningJob(func(ctx context.Context) error {
		errCh := make(chan error, 1)
		go func() {
			slog.Info("Relay HTTP server listening", "addr", cfg.Addr, "version", relay.Version)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server forced to shutdown", "err", err)
			return err
		}
		slog.Info("Server shutdown gracefully")
		return nil
	})
	m.AddShutdownJob(func() error {
		sessionStore.Close()
		return nil
	})

	<-m.Done()
}
