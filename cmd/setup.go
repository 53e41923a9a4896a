package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hexiro/spotify-to-musi/internal/services"
	"github.com/hexiro/spotify-to-musi/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupCredentials saves the Spotify application credentials.
func (r *Runner) SetupCredentials(ctx context.Context, cmd *cli.Command) error {
	credentials := &services.SpotifyCredentials{
		ClientID:     cmd.String("client-id"),
		ClientSecret: cmd.String("client-secret"),
	}

	if credentials.ClientID == "" || credentials.ClientSecret == "" {
		return fmt.Errorf("%w: both --client-id and --client-secret are required", shared.ErrMissingArgument)
	}

	if err := services.SaveSpotifyCredentials(credentials); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	path, _ := shared.CredentialsPath()
	r.logger.Info("credentials saved", "path", path)

	r.writePlain("✓ Spotify credentials saved\n")
	r.writePlainln("Next steps:")
	r.writePlain("1. Add http://localhost:8903/callback as a redirect URI in your Spotify app settings\n")
	r.writePlain("2. Run 'spotify-to-musi auth login' to connect your account\n")

	return nil
}

// SetupDatabase initializes the transfer history database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config := r.config
	if _, err := os.Stat(configPath); err == nil {
		if loaded, err := shared.LoadConfig(configPath); err == nil {
			config = loaded
		} else {
			r.logger.Warn("failed to load config, using defaults", "error", err)
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
		}
	}

	path := config.Database.Path
	if path == "" {
		var err error
		if path, err = shared.DatabasePath(); err != nil {
			return err
		}
	}

	r.logger.Info("initializing database", "path", path)

	db, err := shared.NewDatabase(path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", path)
	return nil
}

// SetupYouTube saves YouTube Music request headers parsed from a browser
// cURL command. The anonymous web client key usually works without this;
// saved headers are replayed on every search when it does not.
func (r *Runner) SetupYouTube(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")
	outputPath := cmd.String("output")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}

	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	r.logger.Info("parsing cURL command for YouTube Music headers")

	var curlHeaders *shared.CurlHeaders
	var err error

	if curlFile != "" {
		curlHeaders, err = shared.ParseCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		curlHeaders, err = shared.ParseCurlCommand([]byte(curlCmd))
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}

	headers := curlHeaders.RequestHeaders()
	if len(headers) == 0 {
		return fmt.Errorf("%w: no headers found in cURL command", shared.ErrInvalidInput)
	}

	if outputPath == "" {
		if outputPath, err = shared.HeadersPath(); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	headersJSON, err := json.MarshalIndent(headers, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal headers: %w", err)
	}

	if err := os.WriteFile(outputPath, headersJSON, 0600); err != nil {
		return fmt.Errorf("failed to write headers file: %w", err)
	}

	r.logger.Info("headers saved", "path", outputPath, "count", len(headers))

	r.writePlain("✓ YouTube Music headers saved\n")
	r.writePlain("Headers file: %s\n", outputPath)
	r.writePlain("Run 'spotify-to-musi search \"your song\"' to test them\n")

	return nil
}

// setupCommand handles setup operations for credentials, database, and search headers.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "credentials",
				Usage: "Save Spotify application credentials",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "client-id",
						Usage: "Spotify application client ID",
					},
					&cli.StringFlag{
						Name:  "client-secret",
						Usage: "Spotify application client secret",
					},
				},
				Action: r.SetupCredentials,
			},
			{
				Name:  "database",
				Usage: "Initialize the transfer history database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:    "youtube",
				Aliases: []string{"yt", "ytmusic"},
				Usage:   "Save YouTube Music search headers from browser DevTools",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output path for the headers file",
					},
				},
				Action: r.SetupYouTube,
			},
		},
	}
}
