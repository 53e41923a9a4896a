package main

import (
	"context"
	"strings"

	"github.com/urfave/cli/v3"
)

// CacheList prints every cached track resolution.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	cache, err := r.trackCache()
	if err != nil {
		return err
	}

	entries := cache.Entries()
	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	if len(entries) == 0 {
		r.writePlain("Track cache is empty\n")
		return nil
	}

	r.writePlainHeader("Cached Tracks")
	for _, entry := range entries {
		names := make([]string, 0, len(entry.Artists))
		for _, artist := range entry.Artists {
			names = append(names, string(artist))
		}
		r.writePlain("%s - %s -> %s\n", strings.Join(names, ", "), entry.Name, entry.VideoID)
	}
	r.writePlain("\n%d cached resolutions\n", len(entries))

	return nil
}

// CacheClear removes the cache file and all in-memory entries.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	cache, err := r.trackCache()
	if err != nil {
		return err
	}

	count := cache.Len()
	if err := cache.Clear(); err != nil {
		return err
	}

	r.logger.Info("cleared track cache", "entries", count)
	r.writePlain("Cleared %d cached resolutions\n", count)

	return nil
}

// cacheCommand manages the resolution cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and clear the track resolution cache",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List cached track resolutions",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CacheList,
			},
			{
				Name:   "clear",
				Usage:  "Delete all cached resolutions",
				Action: r.CacheClear,
			},
		},
	}
}
