package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/hexiro/spotify-to-musi/internal/repositories"
	"github.com/hexiro/spotify-to-musi/internal/services"
	"github.com/hexiro/spotify-to-musi/internal/shared"
	"github.com/hexiro/spotify-to-musi/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	spotify *services.SpotifyService
	ytmusic *services.YTMusicService
	musi    *services.MusiService
	logger  *log.Logger
	output  io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Spotify *services.SpotifyService
	YTMusic *services.YTMusicService
	Musi    *services.MusiService
	Logger  *log.Logger
	Output  io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Musi == nil {
		opts.Musi = services.NewMusiService()
	}

	return &Runner{
		config:  opts.Config,
		spotify: opts.Spotify,
		ytmusic: opts.YTMusic,
		musi:    opts.Musi,
		logger:  opts.Logger,
		output:  opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, transferCommand, playlistsCommand, searchCommand, cacheCommand, historyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// requireSpotify ensures Spotify credentials and token are configured.
func (r *Runner) requireSpotify() (*services.SpotifyService, error) {
	if r.spotify == nil {
		return nil, fmt.Errorf("%w: run 'spotify-to-musi setup credentials' first", shared.ErrMissingCredentials)
	}
	if !r.spotify.Authenticated() {
		return nil, fmt.Errorf("%w: run 'spotify-to-musi auth login' first", shared.ErrNotAuthenticated)
	}
	return r.spotify, nil
}

// newEngine assembles the transfer pipeline: resolver with the persistent
// track cache, backed by the configured worker and rate limits.
func (r *Runner) newEngine() (*tasks.TransferEngine, *repositories.TrackCache, error) {
	spotify, err := r.requireSpotify()
	if err != nil {
		return nil, nil, err
	}

	cachePath := r.config.Resolver.CachePath
	if cachePath == "" {
		if cachePath, err = shared.TrackCachePath(); err != nil {
			return nil, nil, err
		}
	}
	cache := repositories.NewTrackCache(cachePath)

	resolver, err := tasks.NewResolver(r.ytmusic, cache, r.logger, tasks.ResolverOpts{
		Workers:   r.config.Resolver.Workers,
		RateLimit: r.config.Resolver.RateLimit,
	})
	if err != nil {
		return nil, nil, err
	}

	engine, err := tasks.NewTransferEngine(spotify, r.musi, resolver, cache, r.logger)
	if err != nil {
		return nil, nil, err
	}

	return engine, cache, nil
}

// openHistoryDatabase opens the transfer history database and ensures the
// schema is current.
func (r *Runner) openHistoryDatabase() (*sql.DB, error) {
	path := r.config.Database.Path
	if path == "" {
		var err error
		if path, err = shared.DatabasePath(); err != nil {
			return nil, err
		}
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, err
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// trackCache opens the persistent resolution cache and loads it.
func (r *Runner) trackCache() (*repositories.TrackCache, error) {
	path := r.config.Resolver.CachePath
	if path == "" {
		var err error
		if path, err = shared.TrackCachePath(); err != nil {
			return nil, err
		}
	}

	cache := repositories.NewTrackCache(path)
	if err := cache.Load(); err != nil {
		return nil, err
	}
	return cache, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
