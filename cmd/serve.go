package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/sortify/internal/repositories"
	"github.com/desertthunder/sortify/internal/server"
	"github.com/desertthunder/sortify/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultSessionTTL = 30 * 24 * time.Hour

// Serve runs the web app until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = port
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	store := repositories.NewSessionRepository(db)
	if ttl := cmd.Duration("session-ttl"); ttl > 0 {
		n, err := store.Prune(time.Now().Add(-ttl))
		if err != nil {
			return err
		}
		if n > 0 {
			r.logger.Info("pruned idle sessions", "count", n, "ttl", ttl)
		}
	}

	// Sessions refresh through /refresh-token, so the pipeline runs without an OAuth service.
	pipeline, err := r.pipeline(false)
	if err != nil {
		return err
	}

	sessions := server.NewSessionManager(store, server.CookieConfig{
		Name:   cfg.CookieName,
		Secure: cfg.SecureCookie,
	})
	app := server.NewApp(r.spotify, pipeline, sessions, r.logger)

	router := server.NewBasicRouter()
	router.Use(server.Recoverer(r.logger), server.RequestLogger(r.logger))
	app.Register(router)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("listening on http://%s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
