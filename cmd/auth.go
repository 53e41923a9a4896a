package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hexiro/spotify-to-musi/internal/server"
	"github.com/hexiro/spotify-to-musi/internal/services"
	"github.com/hexiro/spotify-to-musi/internal/shared"
	"github.com/urfave/cli/v3"
)

// authTimeout bounds how long the login flow waits for the browser callback.
const authTimeout = 5 * time.Minute

// AuthLogin connects a Spotify account via the OAuth authorization code flow.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: run 'spotify-to-musi setup credentials' first", shared.ErrMissingCredentials)
	}

	state := shared.GenerateID()
	handler := server.NewOAuthHandler(r.spotify, state)

	redirectURI := r.config.Credentials.Spotify.RedirectURI
	callbackServer, err := server.NewCallbackServer(redirectURI, handler, r.logger)
	if err != nil {
		return err
	}

	if err := callbackServer.Start(); err != nil {
		return err
	}
	defer callbackServer.Shutdown(context.Background())

	authURL := r.spotify.AuthURL(state)

	r.writePlain("Opening your browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
		r.writePlain("Open this URL manually:\n%s\n", authURL)
	}

	waitCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	token, err := callbackServer.WaitForToken(waitCtx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	if err := services.SaveSpotifyToken(token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	r.spotify.SetToken(ctx, token)

	r.logger.Info("authenticated with Spotify")
	r.writePlain("✓ Spotify account connected\n")
	r.writePlain("Run 'spotify-to-musi transfer --liked' to start a transfer\n")

	return nil
}

// AuthStatus reports the current authentication state.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	status := struct {
		Credentials   bool      `json:"credentials"`
		Authenticated bool      `json:"authenticated"`
		TokenExpiry   time.Time `json:"token_expiry,omitzero"`
	}{
		Credentials: r.spotify != nil,
	}

	token, err := services.LoadSpotifyToken()
	if err == nil {
		status.Authenticated = token.Valid() || token.RefreshToken != ""
		status.TokenExpiry = token.Expiry
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	if !status.Credentials {
		r.writePlain("✗ No Spotify credentials (run 'spotify-to-musi setup credentials')\n")
		return nil
	}
	r.writePlain("✓ Spotify credentials configured\n")

	if !status.Authenticated {
		r.writePlain("✗ Not authenticated (run 'spotify-to-musi auth login')\n")
		return nil
	}

	r.writePlain("✓ Authenticated")
	if !status.TokenExpiry.IsZero() {
		r.writePlain(" (access token expires %s)", status.TokenExpiry.Format(time.RFC1123))
	}
	r.writePlain("\n")

	return nil
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Connect a Spotify account via OAuth2",
				Action: r.AuthLogin,
			},
			{
				Name:  "status",
				Usage: "Check current authentication state",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}
