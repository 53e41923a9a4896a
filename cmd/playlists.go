package main

import (
	"context"
	"fmt"

	"github.com/hexiro/spotify-to-musi/internal/formatter"
	"github.com/hexiro/spotify-to-musi/internal/shared"
	"github.com/urfave/cli/v3"
)

// PlaylistsList prints the authenticated user's playlists.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	spotify, err := r.requireSpotify()
	if err != nil {
		return err
	}

	playlists, err := spotify.Playlists(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch playlists: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}

	r.writePlainHeader(fmt.Sprintf("Your Playlists (%d)", len(playlists)))
	for _, playlist := range playlists {
		r.writePlain("%s  %s (%d tracks)\n", playlist.ID, playlist.Name, playlist.Tracks.Total)
	}

	return nil
}

// PlaylistsExport writes a playlist's tracks to a file in the chosen format.
func (r *Runner) PlaylistsExport(ctx context.Context, cmd *cli.Command) error {
	spotify, err := r.requireSpotify()
	if err != nil {
		return err
	}

	id := cmd.String("id")
	if id == "" {
		return fmt.Errorf("%w: playlist id or URL is required", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	playlist, err := spotify.ExportPlaylist(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to export playlist: %w", err)
	}

	path, err := formatter.WriteExport(playlist, format, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("exported playlist", "name", playlist.Name, "tracks", len(playlist.Tracks), "path", path)
	r.writePlain("Exported %q (%d tracks) to %s\n", playlist.Name, len(playlist.Tracks), path)

	return nil
}

// playlistsCommand inspects and exports Spotify playlists
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "List and export your Spotify playlists",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List your playlists",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlaylistsList,
			},
			{
				Name:  "export",
				Usage: "Export a playlist's tracks to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID or URL",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Export format (csv, markdown, text)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
				},
				Action: r.PlaylistsExport,
			},
		},
	}
}
