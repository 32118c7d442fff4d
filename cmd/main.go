package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/sortify/internal/services"
	"github.com/desertthunder/sortify/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := os.Getenv("SORTIFY_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}

	var spotifyService *services.SpotifyService
	if svc, err := newSpotifyService(config); err == nil {
		spotifyService = svc
	} else {
		logger.Debug("spotify service unavailable", "error", err)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Spotify:    spotifyService,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "sortify",
		Usage:    "Group your saved Spotify tracks into playlists by audio features",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}

// newSpotifyService builds the Spotify client from the credentials and endpoints in config.
func newSpotifyService(config *shared.Config) (*services.SpotifyService, error) {
	svc, err := services.NewSpotifyService(
		config.Credentials.Spotify.Map(),
		services.Endpoints{
			AuthURL:  config.Spotify.AuthURL,
			TokenURL: config.Spotify.TokenURL,
			APIURL:   config.Spotify.APIURL,
		},
		nil,
	)
	if err != nil {
		return nil, err
	}
	svc.SetPageSize(config.Spotify.PageSize)
	return svc, nil
}
