package main

import (
	"context"
	"time"

	"github.com/hexiro/spotify-to-musi/internal/repositories"
	"github.com/urfave/cli/v3"
)

// History lists past transfer runs, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openHistoryDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewTransferRepository(db)
	records, err := repo.List(cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}

	if len(records) == 0 {
		r.writePlain("No transfers recorded yet\n")
		return nil
	}

	r.writePlainHeader("Transfer History")
	for _, record := range records {
		r.writePlain("%s  %d/%d tracks resolved", record.StartedAt.Format(time.DateTime), record.ResolvedTracks, record.TotalTracks)
		if record.Playlists > 0 {
			r.writePlain(", %d playlists", record.Playlists)
		}
		if record.BackupCode != "" {
			r.writePlain("  (backup %s)", record.BackupCode)
		}
		r.writePlain("\n")
	}

	return nil
}

// historyCommand shows past transfers
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show past transfer runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of runs to show (0 shows all)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}
