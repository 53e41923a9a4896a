package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hexiro/spotify-to-musi/internal/repositories"
	"github.com/hexiro/spotify-to-musi/internal/shared"
	"github.com/hexiro/spotify-to-musi/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Transfer runs the full export-resolve-upload pipeline from the command line.
func (r *Runner) Transfer(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireSpotify(); err != nil {
		return err
	}

	opts := tasks.TransferOpts{
		IncludeLiked: cmd.Bool("liked"),
		PlaylistIDs:  cmd.StringSlice("playlist"),
		DryRun:       cmd.Bool("dry-run"),
	}
	opts.PlaylistIDs = append(opts.PlaylistIDs, cmd.Args().Slice()...)

	if !opts.IncludeLiked && len(opts.PlaylistIDs) == 0 {
		return fmt.Errorf("%w: pass --liked and/or playlist URLs", shared.ErrMissingArgument)
	}

	engine, _, err := r.newEngine()
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.printProgress(progress)
	}()

	started := time.Now()
	summary, runErr := engine.Run(ctx, opts, progress)
	close(progress)
	wg.Wait()

	if runErr != nil {
		return runErr
	}

	r.recordTransfer(summary)
	r.printSummary(summary, opts.DryRun, time.Since(started))

	return nil
}

// printProgress streams phase updates to the terminal until the channel
// closes.
func (r *Runner) printProgress(progress <-chan tasks.ProgressUpdate) {
	for update := range progress {
		switch update.Phase {
		case tasks.ExportLibrary:
			r.writePlain("📂 %s\n", update.Message)
		case tasks.ResolveTracks:
			r.writePlain("🔍 [%d/%d] %s\n", update.Step, update.Total, update.Message)
		case tasks.AssembleLibrary:
			r.writePlain("🧩 %s\n", update.Message)
		case tasks.UploadBackup:
			r.writePlain("⬆️  %s\n", update.Message)
		}
	}
}

// recordTransfer persists the run to history. Failures here never fail the
// transfer itself.
func (r *Runner) recordTransfer(summary *tasks.TransferSummary) {
	db, err := r.openHistoryDatabase()
	if err != nil {
		r.logger.Warn("failed to open history database", "error", err)
		return
	}
	defer db.Close()

	repo := repositories.NewTransferRepository(db)
	if err := repo.Create(&summary.Record); err != nil {
		r.logger.Warn("failed to record transfer", "error", err)
	}
}

func (r *Runner) printSummary(summary *tasks.TransferSummary, dryRun bool, elapsed time.Duration) {
	record := summary.Record

	r.writePlainHeader("Transfer Complete!")
	r.writePlain("Resolved %d of %d tracks (%d from cache)\n", record.ResolvedTracks, record.TotalTracks, record.CachedTracks)
	if record.Playlists > 0 {
		r.writePlain("Playlists: %d\n", record.Playlists)
	}

	if record.UnresolvedTracks > 0 {
		r.writePlain("\nNot found on YouTube Music:\n")
		for _, resolution := range summary.Resolve.Resolutions {
			if resolution.Resolved != nil {
				continue
			}
			r.writePlain("  ✗ %s (%s)\n", resolution.Track.Query(), resolution.Reason)
		}
	}

	switch {
	case dryRun:
		r.writePlain("\nDry run: no backup was uploaded\n")
	case summary.Backup != nil:
		r.writePlain("\nRestore in Musi with backup code: %s\n", summary.Backup.Code)
	}

	r.writePlain("Took %s\n", elapsed.Round(time.Millisecond))
}

// transferCommand runs a Spotify-to-Musi transfer
func transferCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "transfer",
		Usage:     "Transfer your Spotify library to Musi",
		ArgsUsage: "[playlist URLs or IDs...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "liked",
				Usage: "Include your liked songs",
			},
			&cli.StringSliceFlag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "Playlist ID or URL to transfer (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Resolve tracks without uploading a backup",
			},
		},
		Action: r.Transfer,
	}
}
