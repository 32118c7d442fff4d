package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/server"
	"github.com/desertthunder/sortify/internal/shared"
	"github.com/urfave/cli/v3"
)

const authTimeout = 2 * time.Minute

// Auth authorizes sortify with Spotify and stores the tokens in the config file.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	cred, err := r.doOAuth(ctx)
	if err != nil {
		return err
	}

	if err := r.saveCredential(cred); err != nil {
		return err
	}

	r.writePlain("✓ Authorized with Spotify\n")

	user, err := r.spotify.UserProfile(ctx, cred)
	if err != nil {
		r.logger.Warn("failed to fetch user profile", "error", err)
		return nil
	}
	r.writePlain("Logged in as %s (%s)\n", user.DisplayName, user.ID)
	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context) (models.Credential, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return models.Credential{}, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := r.spotify.AuthURL(state)
	oauthHandler := server.NewOAuthHandler(r.spotify, state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return models.Credential{}, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		shutdown()
		return models.Credential{}, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		shutdown()
		return models.Credential{}, ctx.Err()
	}

	shutdown()

	if result.Error() != nil {
		return models.Credential{}, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Credential.AccessToken == "" {
		return models.Credential{}, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Credential, nil
}
