package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hexiro/spotify-to-musi/internal/models"
	"github.com/hexiro/spotify-to-musi/internal/services"
	"github.com/hexiro/spotify-to-musi/internal/shared"
)

// LibraryService exports the source library. Satisfied by
// services.SpotifyService.
type LibraryService interface {
	LikedTracks(ctx context.Context) ([]models.Track, error)
	ExportPlaylist(ctx context.Context, playlistIDOrURL string) (*models.Playlist, error)
}

// BackupService assembles and uploads the destination backup. Satisfied by
// services.MusiService.
type BackupService interface {
	BuildBackup(library []models.ResolvedTrack, playlists []models.ResolvedPlaylist) *services.MusiBackupPayload
	Upload(ctx context.Context, payload *services.MusiBackupPayload) (*services.MusiBackup, error)
}

// FlushableCache is a TrackCache with file persistence. Satisfied by
// repositories.TrackCache.
type FlushableCache interface {
	TrackCache
	Load() error
	Flush() error
}

// TransferOpts selects what to transfer.
type TransferOpts struct {
	IncludeLiked bool     // Export the liked songs library
	PlaylistIDs  []string // Playlist IDs or URLs to export
	DryRun       bool     // Resolve only, skip the Musi upload
}

// TransferSummary is the outcome of a full transfer run.
type TransferSummary struct {
	Resolve *ResolveResult
	Backup  *services.MusiBackup // nil on dry runs
	Record  models.TransferRecord
}

// TransferEngine runs the end-to-end pipeline: export the Spotify library,
// resolve every track against YouTube Music, and upload the assembled
// backup to Musi.
type TransferEngine struct {
	library  LibraryService
	backup   BackupService
	resolver *Resolver
	cache    FlushableCache
	logger   *log.Logger
	now      func() time.Time
}

// NewTransferEngine creates a transfer engine. A nil cache disables
// resolution memoization; backup may be nil only for dry runs.
func NewTransferEngine(library LibraryService, backup BackupService, resolver *Resolver, cache FlushableCache, logger *log.Logger) (*TransferEngine, error) {
	if library == nil {
		return nil, fmt.Errorf("%w: library service not initialized", shared.ErrServiceUnavailable)
	}
	if resolver == nil {
		return nil, fmt.Errorf("%w: resolver not initialized", shared.ErrServiceUnavailable)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &TransferEngine{
		library:  library,
		backup:   backup,
		resolver: resolver,
		cache:    cache,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Run executes a transfer. The cache is flushed after resolution even when
// the run is interrupted, so partial progress carries over to the next run.
func (e *TransferEngine) Run(ctx context.Context, opts TransferOpts, progress chan<- ProgressUpdate) (*TransferSummary, error) {
	if !opts.IncludeLiked && len(opts.PlaylistIDs) == 0 {
		return nil, fmt.Errorf("%w: nothing selected to transfer", shared.ErrInvalidInput)
	}
	if !opts.DryRun && e.backup == nil {
		return nil, fmt.Errorf("%w: backup service not initialized", shared.ErrServiceUnavailable)
	}

	startedAt := e.now()

	likedTracks, playlists, err := e.export(ctx, opts, progress)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if err := e.cache.Load(); err != nil {
			e.logger.Warn("failed to load track cache", "error", err)
		}
	}

	resolveResult, resolveErr := e.resolver.Resolve(ctx, progress, likedTracks, playlists)

	if e.cache != nil && resolveResult != nil {
		if err := e.cache.Flush(); err != nil {
			e.logger.Warn("failed to flush track cache", "error", err)
		}
	}

	if resolveErr != nil {
		return nil, resolveErr
	}

	summary := &TransferSummary{
		Resolve: resolveResult,
		Record: models.TransferRecord{
			StartedAt:        startedAt,
			TotalTracks:      len(resolveResult.Resolutions),
			ResolvedTracks:   resolveResult.ResolvedCount,
			UnresolvedTracks: resolveResult.UnresolvedCount,
			CachedTracks:     resolveResult.CachedCount,
			Playlists:        len(resolveResult.Playlists),
		},
	}

	if !opts.DryRun {
		payload := e.backup.BuildBackup(resolveResult.LikedTracks, resolveResult.Playlists)
		sendUpdate(progress, uploadingUpdate(len(payload.PlaylistItems)))

		backup, err := e.backup.Upload(ctx, payload)
		if err != nil {
			return nil, fmt.Errorf("failed to upload backup: %w", err)
		}

		summary.Backup = backup
		summary.Record.BackupCode = backup.Code
		sendUpdate(progress, uploadedUpdate(backup.Code))
		e.logger.Info("backup uploaded", "code", backup.Code)
	}

	summary.Record.CompletedAt = e.now()
	return summary, nil
}

// export pulls the liked library and every requested playlist from the
// source service.
func (e *TransferEngine) export(ctx context.Context, opts TransferOpts, progress chan<- ProgressUpdate) ([]models.Track, []models.Playlist, error) {
	var likedTracks []models.Track

	if opts.IncludeLiked {
		tracks, err := e.library.LikedTracks(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to export liked songs: %w", err)
		}
		likedTracks = tracks

		e.logger.Info("exported liked songs", "count", len(tracks))
		sendUpdate(progress, likedTracksUpdate(len(tracks)))
	}

	playlists := make([]models.Playlist, 0, len(opts.PlaylistIDs))
	for i, id := range opts.PlaylistIDs {
		playlist, err := e.library.ExportPlaylist(ctx, id)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to export playlist %q: %w", id, err)
		}
		playlists = append(playlists, *playlist)

		e.logger.Info("exported playlist", "name", playlist.Name, "tracks", len(playlist.Tracks))
		sendUpdate(progress, exportedPlaylistUpdate(i+1, len(opts.PlaylistIDs), playlist.Name, len(playlist.Tracks)))
	}

	return likedTracks, playlists, nil
}
