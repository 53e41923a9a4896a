package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/hexiro/spotify-to-musi/internal/models"
	"github.com/hexiro/spotify-to-musi/internal/services"
	"github.com/hexiro/spotify-to-musi/internal/shared"
	"golang.org/x/time/rate"
)

// acceptThreshold is the minimum score a best candidate needs: at minimum
// a perfect duration match plus a substring title or artist hit, or an
// equivalent combination.
const acceptThreshold = 1.0

// SearchService is the slice of the YouTube Music client the resolver
// depends on.
type SearchService interface {
	Search(ctx context.Context, query string) (*services.SearchResult, error)
}

// TrackCache is the persistent resolution cache consulted before searching.
type TrackCache interface {
	Lookup(track models.Track) (models.ResolvedTrack, bool)
	Record(resolved models.ResolvedTrack)
}

// TrackResolution is the outcome of resolving one unique source track.
type TrackResolution struct {
	Track     models.Track
	Resolved  *models.ResolvedTrack // nil when unresolved
	FromCache bool
	Score     float64
	Reason    string // populated when unresolved
	Err       error  // underlying error, when one caused the failure
}

// ResolveResult aggregates a full resolution run.
type ResolveResult struct {
	Resolutions []TrackResolution // one per unique track, first-seen order

	LikedTracks []models.ResolvedTrack
	Playlists   []models.ResolvedPlaylist

	ResolvedCount   int
	UnresolvedCount int
	CachedCount     int
}

// ResolverOpts contains tuning knobs for the resolution worker pool.
type ResolverOpts struct {
	Workers   int     // Concurrent workers (default: 5, max: 10)
	RateLimit float64 // Searches per second (default: 5)
}

// Resolver matches source tracks against YouTube Music search results.
type Resolver struct {
	search  SearchService
	cache   TrackCache
	logger  *log.Logger
	workers int
	limiter *rate.Limiter
}

// NewResolver creates a resolver. A nil cache disables memoization.
func NewResolver(search SearchService, cache TrackCache, logger *log.Logger, opts ResolverOpts) (*Resolver, error) {
	if search == nil {
		return nil, fmt.Errorf("%w: search service not initialized", shared.ErrServiceUnavailable)
	}

	if opts.Workers <= 0 {
		opts.Workers = 5
	}
	if opts.Workers > 10 {
		opts.Workers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Resolver{
		search:  search,
		cache:   cache,
		logger:  logger,
		workers: opts.Workers,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
	}, nil
}

type resolveJob struct {
	index int
	track models.Track
}

// Resolve matches every unique track from the liked library and playlists,
// then reassembles both in source order from the outcomes. Unresolved
// tracks are dropped from the assembled output and reported in the result.
//
// On cancellation the pool stops issuing new searches; everything resolved
// so far is still assembled and returned alongside the context error, so
// partial progress survives an interrupt.
func (r *Resolver) Resolve(ctx context.Context, progress chan<- ProgressUpdate, likedTracks []models.Track, playlists []models.Playlist) (*ResolveResult, error) {
	unique := dedupeTracks(likedTracks, playlists)

	resolutions := make([]TrackResolution, len(unique))
	total := len(unique)

	jobs := make(chan resolveJob, total)

	var wg sync.WaitGroup
	step := &atomicCounter{}

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if err := r.limiter.Wait(ctx); err != nil {
					resolutions[job.index] = canceledResolution(job.track)
					continue
				}

				resolution := r.resolveTrack(ctx, job.track)
				resolutions[job.index] = resolution

				r.reportResolution(progress, step.increment(), total, resolution)
			}
		}()
	}

produce:
	for i, track := range unique {
		select {
		case <-ctx.Done():
			for j := i; j < len(unique); j++ {
				resolutions[j] = canceledResolution(unique[j])
			}
			break produce
		case jobs <- resolveJob{index: i, track: track}:
		}
	}
	close(jobs)

	wg.Wait()

	sendUpdate(progress, assemblingUpdate(len(resolutions), total))

	result := assembleResult(resolutions, likedTracks, playlists)
	return result, ctx.Err()
}

// resolveTrack runs the per-track state machine: cache lookup, search,
// ranking, threshold gate. Failures are contained here and become
// unresolved outcomes.
func (r *Resolver) resolveTrack(ctx context.Context, track models.Track) TrackResolution {
	if r.cache != nil {
		if cached, ok := r.cache.Lookup(track); ok {
			return TrackResolution{Track: track, Resolved: &cached, FromCache: true}
		}
	}

	searchResult, err := r.search.Search(ctx, track.Query())
	if err != nil {
		return TrackResolution{Track: track, Reason: err.Error(), Err: err}
	}

	if searchResult == nil {
		return TrackResolution{Track: track, Reason: "no results"}
	}

	candidates := searchResult.Candidates()
	if len(candidates) == 0 {
		return TrackResolution{Track: track, Reason: "no results"}
	}

	scores := make([]float64, len(candidates))
	for i, candidate := range candidates {
		scores[i] = Score(candidate, track)
	}

	// Stable sort: ties keep backend order, so the top result beats the
	// Songs shelf, which beats the Videos shelf.
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	best := candidates[order[0]]
	bestScore := scores[order[0]]

	if bestScore < acceptThreshold {
		reason := fmt.Sprintf("low score: %s", strconv.FormatFloat(round3(bestScore), 'f', -1, 64))
		return TrackResolution{Track: track, Reason: reason, Score: bestScore}
	}

	resolved := buildResolvedTrack(track, best)
	if r.cache != nil {
		r.cache.Record(resolved)
	}

	return TrackResolution{Track: track, Resolved: &resolved, Score: bestScore}
}

// buildResolvedTrack combines the source track's identity with the chosen
// candidate. Album and explicitness prefer the candidate's metadata when it
// carries any.
func buildResolvedTrack(track models.Track, result services.Result) models.ResolvedTrack {
	info := result.Info()

	resolved := models.ResolvedTrack{
		Name:            track.Name,
		Duration:        track.Duration,
		Artists:         track.Artists,
		AlbumName:       track.AlbumName,
		IsExplicit:      track.IsExplicit,
		YouTubeName:     info.Title,
		YouTubeDuration: info.Duration,
		YouTubeArtists:  info.Artists,
		VideoID:         info.VideoID,
	}

	if song, ok := result.(services.Song); ok {
		if song.AlbumName != "" {
			resolved.AlbumName = song.AlbumName
		}
		resolved.IsExplicit = song.IsExplicit
	}

	return resolved
}

func canceledResolution(track models.Track) TrackResolution {
	return TrackResolution{Track: track, Reason: "canceled", Err: context.Canceled}
}

// reportResolution logs the outcome of one track and mirrors it on the
// progress channel.
func (r *Resolver) reportResolution(progress chan<- ProgressUpdate, step, total int, resolution TrackResolution) {
	query := resolution.Track.Query()

	switch {
	case resolution.FromCache:
		r.logger.Info("cached", "track", query, "video_id", resolution.Resolved.VideoID)
		sendUpdate(progress, cachedTrackUpdate(step, total, query))
	case resolution.Resolved != nil:
		r.logger.Info("found", "track", query, "video_id", resolution.Resolved.VideoID, "score", resolution.Score)
		sendUpdate(progress, resolvedTrackUpdate(step, total, query, resolution.Resolved.VideoID))
	default:
		if resolution.Err != nil && !errors.Is(resolution.Err, context.Canceled) {
			r.logger.Warn("skipping", "track", query, "error", resolution.Err)
		} else {
			r.logger.Warn("skipping", "track", query, "reason", resolution.Reason)
		}
		sendUpdate(progress, skippedTrackUpdate(step, total, query, resolution.Reason))
	}
}

// dedupeTracks collects unique tracks by identity across the liked library
// and every playlist, preserving first-seen order.
func dedupeTracks(likedTracks []models.Track, playlists []models.Playlist) []models.Track {
	var unique []models.Track
	seen := make(map[string]bool)

	add := func(track models.Track) {
		key := track.Key()
		if seen[key] {
			return
		}
		seen[key] = true
		unique = append(unique, track)
	}

	for _, track := range likedTracks {
		add(track)
	}
	for _, playlist := range playlists {
		for _, track := range playlist.Tracks {
			add(track)
		}
	}

	return unique
}

// assembleResult rebuilds the liked library and playlists in source order
// from the per-track outcomes.
func assembleResult(resolutions []TrackResolution, likedTracks []models.Track, playlists []models.Playlist) *ResolveResult {
	result := &ResolveResult{Resolutions: resolutions}

	resolvedByKey := make(map[string]*models.ResolvedTrack, len(resolutions))
	for i := range resolutions {
		resolution := &resolutions[i]

		switch {
		case resolution.Resolved != nil && resolution.FromCache:
			result.CachedCount++
			result.ResolvedCount++
		case resolution.Resolved != nil:
			result.ResolvedCount++
		default:
			result.UnresolvedCount++
		}

		if resolution.Resolved != nil {
			resolvedByKey[resolution.Track.Key()] = resolution.Resolved
		}
	}

	for _, track := range likedTracks {
		if resolved, ok := resolvedByKey[track.Key()]; ok {
			result.LikedTracks = append(result.LikedTracks, *resolved)
		}
	}

	for _, playlist := range playlists {
		resolvedPlaylist := models.ResolvedPlaylist{
			ID:            playlist.ID,
			Name:          playlist.Name,
			CoverImageURL: playlist.CoverImageURL,
		}
		for _, track := range playlist.Tracks {
			if resolved, ok := resolvedByKey[track.Key()]; ok {
				resolvedPlaylist.Tracks = append(resolvedPlaylist.Tracks, *resolved)
			}
		}
		result.Playlists = append(result.Playlists, resolvedPlaylist)
	}

	return result
}

type atomicCounter struct {
	n atomic.Int64
}

func (c *atomicCounter) increment() int {
	return int(c.n.Add(1))
}
