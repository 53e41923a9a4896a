package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/hexiro/spotify-to-musi/internal/services"
	"github.com/hexiro/spotify-to-musi/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search queries YouTube Music directly, mainly for debugging why a track
// resolved the way it did.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	if r.ytmusic == nil {
		return fmt.Errorf("%w: YouTube Music service not initialized", shared.ErrServiceUnavailable)
	}

	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("%w: search query is required", shared.ErrMissingArgument)
	}

	result, err := r.ytmusic.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if result == nil {
		r.writePlain("No results for %q\n", query)
		return nil
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	r.writePlainHeader(fmt.Sprintf("Results for %q", query))

	if result.TopResult != nil {
		r.writePlain("Top result:\n")
		r.printResult(result.TopResult)
	}

	if len(result.Songs) > 0 {
		r.writePlain("\nSongs:\n")
		for _, song := range result.Songs {
			r.printResult(song)
		}
	}

	if len(result.Videos) > 0 {
		r.writePlain("\nVideos:\n")
		for _, video := range result.Videos {
			r.printResult(video)
		}
	}

	return nil
}

func (r *Runner) printResult(result services.Result) {
	info := result.Info()

	names := make([]string, 0, len(info.Artists))
	for _, artist := range info.Artists {
		names = append(names, string(artist))
	}
	artists := strings.Join(names, ", ")
	if artists == "" {
		artists = "unknown artist"
	}

	line := fmt.Sprintf("  %s - %s [%s]", artists, info.Title, shared.FormatDuration(info.Duration))
	if song, ok := result.(services.Song); ok {
		if song.AlbumName != "" {
			line += fmt.Sprintf(" (%s)", song.AlbumName)
		}
		if song.IsExplicit {
			line += " [E]"
		}
	}

	r.writePlain("%s  https://music.youtube.com/watch?v=%s\n", line, info.VideoID)
}

// searchCommand searches YouTube Music
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search YouTube Music",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Search,
	}
}
