package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/hexiro/spotify-to-musi/internal/models"
	"github.com/hexiro/spotify-to-musi/internal/services"
)

type fakeSearchService struct {
	mu      sync.Mutex
	results map[string]*services.SearchResult
	errs    map[string]error
	queries []string
}

func newFakeSearchService() *fakeSearchService {
	return &fakeSearchService{
		results: make(map[string]*services.SearchResult),
		errs:    make(map[string]error),
	}
}

func (s *fakeSearchService) Search(_ context.Context, query string) (*services.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queries = append(s.queries, query)
	if err, ok := s.errs[query]; ok {
		return nil, err
	}
	return s.results[query], nil
}

func (s *fakeSearchService) searchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

type fakeTrackCache struct {
	mu      sync.Mutex
	entries map[string]models.ResolvedTrack
}

func newFakeTrackCache() *fakeTrackCache {
	return &fakeTrackCache{entries: make(map[string]models.ResolvedTrack)}
}

func (c *fakeTrackCache) Lookup(track models.Track) (models.ResolvedTrack, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resolved, ok := c.entries[track.Key()]
	return resolved, ok
}

func (c *fakeTrackCache) Record(resolved models.ResolvedTrack) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[resolved.Key()] = resolved
}

func (c *fakeTrackCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func mustTrack(t *testing.T, name string, duration int, artist models.Artist) models.Track {
	t.Helper()

	track, err := models.NewTrack(name, duration, []models.Artist{artist}, "", true)
	if err != nil {
		t.Fatalf("failed to build track: %v", err)
	}
	return track
}

func perfectSong(track models.Track, videoID string) services.Song {
	return services.Song{
		ResultInfo: services.ResultInfo{
			Title:    track.Name,
			Duration: track.Duration,
			Artists:  track.Artists,
			VideoID:  videoID,
		},
		AlbumName:  track.AlbumName,
		IsExplicit: track.IsExplicit,
	}
}

func newTestResolver(t *testing.T, search SearchService, cache TrackCache) *Resolver {
	t.Helper()

	resolver, err := NewResolver(search, cache, nil, ResolverOpts{Workers: 1, RateLimit: 1000})
	if err != nil {
		t.Fatalf("failed to build resolver: %v", err)
	}
	return resolver
}

func TestNewResolver(t *testing.T) {
	t.Run("requires a search service", func(t *testing.T) {
		if _, err := NewResolver(nil, nil, nil, ResolverOpts{}); err == nil {
			t.Error("expected an error for a nil search service")
		}
	})

	t.Run("caps the worker count", func(t *testing.T) {
		resolver, err := NewResolver(newFakeSearchService(), nil, nil, ResolverOpts{Workers: 50})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resolver.workers != 10 {
			t.Errorf("expected 10 workers, got %d", resolver.workers)
		}
	})
}

func TestResolve(t *testing.T) {
	t.Run("resolves a track to the best candidate", func(t *testing.T) {
		track := mustTrack(t, "Do What I Want", 175, "Lil Uzi Vert")

		search := newFakeSearchService()
		search.results[track.Query()] = &services.SearchResult{
			Songs: []services.Song{perfectSong(track, "ra1cvbdYhps")},
		}
		cache := newFakeTrackCache()

		resolver := newTestResolver(t, search, cache)
		result, err := resolver.Resolve(context.Background(), nil, []models.Track{track}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(result.Resolutions) != 1 {
			t.Fatalf("expected 1 resolution, got %d", len(result.Resolutions))
		}

		resolution := result.Resolutions[0]
		if resolution.Resolved == nil {
			t.Fatalf("expected a resolved track, got reason %q", resolution.Reason)
		}
		if resolution.Resolved.VideoID != "ra1cvbdYhps" {
			t.Errorf("expected video id %q, got %q", "ra1cvbdYhps", resolution.Resolved.VideoID)
		}
		if resolution.FromCache {
			t.Error("expected a fresh resolution, got a cache hit")
		}

		if result.ResolvedCount != 1 || result.UnresolvedCount != 0 {
			t.Errorf("expected 1 resolved and 0 unresolved, got %d and %d", result.ResolvedCount, result.UnresolvedCount)
		}
		if len(result.LikedTracks) != 1 {
			t.Errorf("expected 1 liked track, got %d", len(result.LikedTracks))
		}
		if cache.size() != 1 {
			t.Errorf("expected the resolution to be recorded, cache holds %d entries", cache.size())
		}
	})

	t.Run("cache hits skip the backend entirely", func(t *testing.T) {
		track := mustTrack(t, "Do What I Want", 175, "Lil Uzi Vert")

		search := newFakeSearchService()
		cache := newFakeTrackCache()
		cache.Record(models.ResolvedTrack{
			Name:     track.Name,
			Duration: track.Duration,
			Artists:  track.Artists,
			VideoID:  "cached-id",
		})

		resolver := newTestResolver(t, search, cache)
		result, err := resolver.Resolve(context.Background(), nil, []models.Track{track}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if search.searchCount() != 0 {
			t.Errorf("expected no searches, got %d", search.searchCount())
		}

		resolution := result.Resolutions[0]
		if !resolution.FromCache {
			t.Error("expected a cache hit")
		}
		if resolution.Resolved == nil || resolution.Resolved.VideoID != "cached-id" {
			t.Errorf("expected the cached video id, got %+v", resolution.Resolved)
		}
		if result.CachedCount != 1 || result.ResolvedCount != 1 {
			t.Errorf("expected 1 cached and 1 resolved, got %d and %d", result.CachedCount, result.ResolvedCount)
		}
	})

	t.Run("a second run is served from cache", func(t *testing.T) {
		track := mustTrack(t, "Do What I Want", 175, "Lil Uzi Vert")

		search := newFakeSearchService()
		search.results[track.Query()] = &services.SearchResult{
			Songs: []services.Song{perfectSong(track, "ra1cvbdYhps")},
		}
		cache := newFakeTrackCache()

		resolver := newTestResolver(t, search, cache)
		for run := 0; run < 2; run++ {
			if _, err := resolver.Resolve(context.Background(), nil, []models.Track{track}, nil); err != nil {
				t.Fatalf("run %d: unexpected error: %v", run, err)
			}
		}

		if search.searchCount() != 1 {
			t.Errorf("expected a single search across both runs, got %d", search.searchCount())
		}
	})

	t.Run("rejects a best candidate below the threshold", func(t *testing.T) {
		track := mustTrack(t, "Do What I Want", 175, "Lil Uzi Vert")

		// Substring title (0.75) plus a six second gap (0.2) lands at
		// 0.95, just under the bar.
		search := newFakeSearchService()
		search.results[track.Query()] = &services.SearchResult{
			Videos: []services.Video{{
				ResultInfo: services.ResultInfo{
					Title:    "Do What I Want Pt 2",
					Duration: 181,
					Artists:  []models.Artist{"Someone Else"},
					VideoID:  "nope",
				},
			}},
		}

		resolver := newTestResolver(t, search, newFakeTrackCache())
		result, err := resolver.Resolve(context.Background(), nil, []models.Track{track}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		resolution := result.Resolutions[0]
		if resolution.Resolved != nil {
			t.Fatalf("expected an unresolved track, got video id %q", resolution.Resolved.VideoID)
		}
		if resolution.Reason != "low score: 0.95" {
			t.Errorf("expected reason %q, got %q", "low score: 0.95", resolution.Reason)
		}
		if result.UnresolvedCount != 1 {
			t.Errorf("expected 1 unresolved, got %d", result.UnresolvedCount)
		}
		if len(result.LikedTracks) != 0 {
			t.Errorf("expected the unresolved track to be dropped, got %d liked tracks", len(result.LikedTracks))
		}
	})

	t.Run("accepts a candidate exactly at the threshold", func(t *testing.T) {
		track := mustTrack(t, "Do What I Want", 175, "Lil Uzi Vert")

		// Exact title (1.0) and the same artist (1.0) against a
		// duration gap big enough to bottom out at -1.0 sums to 1.0.
		search := newFakeSearchService()
		search.results[track.Query()] = &services.SearchResult{
			Videos: []services.Video{{
				ResultInfo: services.ResultInfo{
					Title:    "Do What I Want",
					Duration: 999,
					Artists:  []models.Artist{"Lil Uzi Vert"},
					VideoID:  "on-the-line",
				},
			}},
		}

		resolver := newTestResolver(t, search, newFakeTrackCache())
		result, err := resolver.Resolve(context.Background(), nil, []models.Track{track}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		resolution := result.Resolutions[0]
		if resolution.Resolved == nil {
			t.Fatalf("expected the track to resolve, got reason %q", resolution.Reason)
		}
		if resolution.Resolved.VideoID != "on-the-line" {
			t.Errorf("expected video id %q, got %q", "on-the-line", resolution.Resolved.VideoID)
		}
		if resolution.Score != 1.0 {
			t.Errorf("expected score 1.0, got %v", resolution.Score)
		}
	})

	t.Run("ties keep the top result", func(t *testing.T) {
		track := mustTrack(t, "Do What I Want", 175, "Lil Uzi Vert")

		search := newFakeSearchService()
		search.results[track.Query()] = &services.SearchResult{
			TopResult: perfectSong(track, "top-id"),
			Songs:     []services.Song{perfectSong(track, "shelf-id")},
		}

		resolver := newTestResolver(t, search, newFakeTrackCache())
		result, err := resolver.Resolve(context.Background(), nil, []models.Track{track}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		resolution := result.Resolutions[0]
		if resolution.Resolved == nil {
			t.Fatalf("expected a resolved track, got reason %q", resolution.Reason)
		}
		if resolution.Resolved.VideoID != "top-id" {
			t.Errorf("expected the top result to win the tie, got %q", resolution.Resolved.VideoID)
		}
	})

	t.Run("one failing search does not abort the batch", func(t *testing.T) {
		good := mustTrack(t, "Do What I Want", 175, "Lil Uzi Vert")
		bad := mustTrack(t, "XO Tour Llif3", 182, "Lil Uzi Vert")

		search := newFakeSearchService()
		search.results[good.Query()] = &services.SearchResult{
			Songs: []services.Song{perfectSong(good, "good-id")},
		}
		search.errs[bad.Query()] = errors.New("upstream exploded")

		resolver := newTestResolver(t, search, newFakeTrackCache())
		result, err := resolver.Resolve(context.Background(), nil, []models.Track{good, bad}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.ResolvedCount != 1 || result.UnresolvedCount != 1 {
			t.Fatalf("expected 1 resolved and 1 unresolved, got %d and %d", result.ResolvedCount, result.UnresolvedCount)
		}

		failed := result.Resolutions[1]
		if failed.Err == nil || failed.Reason != "upstream exploded" {
			t.Errorf("expected the search error to surface, got err %v reason %q", failed.Err, failed.Reason)
		}
	})

	t.Run("empty search responses leave the track unresolved", func(t *testing.T) {
		track := mustTrack(t, "Do What I Want", 175, "Lil Uzi Vert")

		search := newFakeSearchService()
		search.results[track.Query()] = nil

		resolver := newTestResolver(t, search, newFakeTrackCache())
		result, err := resolver.Resolve(context.Background(), nil, []models.Track{track}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		resolution := result.Resolutions[0]
		if resolution.Resolved != nil {
			t.Error("expected an unresolved track")
		}
		if resolution.Reason != "no results" {
			t.Errorf("expected reason %q, got %q", "no results", resolution.Reason)
		}
	})

	t.Run("shared tracks are searched once and reassembled in order", func(t *testing.T) {
		first := mustTrack(t, "Do What I Want", 175, "Lil Uzi Vert")
		second := mustTrack(t, "XO Tour Llif3", 182, "Lil Uzi Vert")

		search := newFakeSearchService()
		search.results[first.Query()] = &services.SearchResult{
			Songs: []services.Song{perfectSong(first, "first-id")},
		}
		search.results[second.Query()] = &services.SearchResult{
			Songs: []services.Song{perfectSong(second, "second-id")},
		}

		playlists := []models.Playlist{
			{ID: "p1", Name: "Mixed", CoverImageURL: "https://i.scdn.co/image/mixed", Tracks: []models.Track{first, second}},
			{ID: "p2", Name: "Repeats", Tracks: []models.Track{second}},
		}

		resolver := newTestResolver(t, search, newFakeTrackCache())
		result, err := resolver.Resolve(context.Background(), nil, []models.Track{first}, playlists)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if search.searchCount() != 2 {
			t.Errorf("expected 2 searches for 2 unique tracks, got %d", search.searchCount())
		}

		if len(result.Playlists) != 2 {
			t.Fatalf("expected 2 playlists, got %d", len(result.Playlists))
		}

		mixed := result.Playlists[0]
		if len(mixed.Tracks) != 2 || mixed.Tracks[0].VideoID != "first-id" || mixed.Tracks[1].VideoID != "second-id" {
			t.Errorf("expected source order preserved, got %+v", mixed.Tracks)
		}
		if mixed.CoverImageURL != "https://i.scdn.co/image/mixed" {
			t.Errorf("expected cover image to carry over, got %q", mixed.CoverImageURL)
		}

		repeats := result.Playlists[1]
		if len(repeats.Tracks) != 1 || repeats.Tracks[0].VideoID != "second-id" {
			t.Errorf("expected the shared track in the second playlist, got %+v", repeats.Tracks)
		}

		if len(result.LikedTracks) != 1 || result.LikedTracks[0].VideoID != "first-id" {
			t.Errorf("expected 1 liked track, got %+v", result.LikedTracks)
		}
	})

	t.Run("cancellation returns partial results", func(t *testing.T) {
		track := mustTrack(t, "Do What I Want", 175, "Lil Uzi Vert")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		search := newFakeSearchService()
		resolver := newTestResolver(t, search, newFakeTrackCache())

		result, err := resolver.Resolve(ctx, nil, []models.Track{track}, nil)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if result == nil {
			t.Fatal("expected a partial result alongside the error")
		}

		resolution := result.Resolutions[0]
		if resolution.Resolved != nil || !errors.Is(resolution.Err, context.Canceled) {
			t.Errorf("expected a canceled resolution, got %+v", resolution)
		}
	})

	t.Run("progress updates are delivered", func(t *testing.T) {
		track := mustTrack(t, "Do What I Want", 175, "Lil Uzi Vert")

		search := newFakeSearchService()
		search.results[track.Query()] = &services.SearchResult{
			Songs: []services.Song{perfectSong(track, "ra1cvbdYhps")},
		}

		progress := make(chan ProgressUpdate, 16)
		resolver := newTestResolver(t, search, newFakeTrackCache())
		if _, err := resolver.Resolve(context.Background(), progress, []models.Track{track}, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		close(progress)

		var phases []Phase
		for update := range progress {
			phases = append(phases, update.Phase)
		}

		if len(phases) != 2 {
			t.Fatalf("expected 2 updates, got %d", len(phases))
		}
		if phases[0] != ResolveTracks || phases[1] != AssembleLibrary {
			t.Errorf("expected resolve then assemble phases, got %v", phases)
		}
	})
}
