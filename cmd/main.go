package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/hexiro/spotify-to-musi/internal/services"
	"github.com/hexiro/spotify-to-musi/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var spotifyService *services.SpotifyService
	if credentials := resolveCredentials(config); credentials != nil {
		if svc, err := services.NewSpotifyService(credentials.ClientID, credentials.ClientSecret, config.Credentials.Spotify.RedirectURI); err == nil {
			spotifyService = svc
			if token, err := services.LoadSpotifyToken(); err == nil {
				svc.SetToken(context.Background(), token)
			}
		}
	}

	ytmusicService := services.NewYTMusicService(config.Credentials.YouTube.BaseURL, config.Credentials.YouTube.APIKey)
	if headers := loadYouTubeHeaders(config); headers != nil {
		ytmusicService.SetHeaders(headers)
	}

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Spotify: spotifyService,
		YTMusic: ytmusicService,
		Musi:    services.NewMusiService(),
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "spotify-to-musi",
		Usage:    "Transfer your Spotify library to Musi",
		Version:  "1.0.0",
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

// resolveCredentials prefers the saved credentials file over config.toml.
func resolveCredentials(config *shared.Config) *services.SpotifyCredentials {
	if credentials, err := services.LoadSpotifyCredentials(); err == nil {
		return credentials
	}

	spotify := config.Credentials.Spotify
	if spotify.ClientID != "" && spotify.ClientSecret != "" {
		return &services.SpotifyCredentials{
			ClientID:     spotify.ClientID,
			ClientSecret: spotify.ClientSecret,
		}
	}

	return nil
}

// loadYouTubeHeaders reads saved search headers, preferring the path from
// config.toml over the app data file.
func loadYouTubeHeaders(config *shared.Config) map[string]string {
	if path := config.Credentials.YouTube.HeadersPath; path != "" {
		if curlHeaders, err := shared.ParseCurlFile(path); err == nil {
			return curlHeaders.RequestHeaders()
		}
	}

	path, err := shared.HeadersPath()
	if err != nil {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var headers map[string]string
	if err := json.Unmarshal(data, &headers); err != nil {
		return nil
	}
	return headers
}
