package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hexiro/spotify-to-musi/internal/models"
)

// TrackCache memoizes track resolutions in a JSON file so repeat transfers
// skip searches for tracks already resolved.
//
// Entries are indexed two ways: by source identity for lookups, and by
// video ID so two source tracks never map to the same video. All methods
// are safe for concurrent use.
type TrackCache struct {
	path string

	mu       sync.RWMutex
	entries  []models.ResolvedTrack
	byKey    map[string]int
	videoIDs map[string]bool
}

// NewTrackCache creates a cache backed by the file at path. The file is
// not touched until [TrackCache.Load] or [TrackCache.Flush] is called.
func NewTrackCache(path string) *TrackCache {
	return &TrackCache{
		path:     path,
		byKey:    make(map[string]int),
		videoIDs: make(map[string]bool),
	}
}

// Load reads the cache file into memory. A missing file yields an empty
// cache. A corrupt file is deleted and likewise yields an empty cache, so
// a bad write never wedges future runs.
func (c *TrackCache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = nil
	c.byKey = make(map[string]int)
	c.videoIDs = make(map[string]bool)

	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read track cache: %w", err)
	}

	var stored []models.ResolvedTrack
	if err := json.Unmarshal(data, &stored); err != nil {
		if removeErr := os.Remove(c.path); removeErr != nil {
			return fmt.Errorf("failed to discard corrupt track cache: %w", removeErr)
		}
		return nil
	}

	for _, resolved := range stored {
		c.add(resolved)
	}

	return nil
}

// Lookup returns the cached resolution for a source track, if any.
func (c *TrackCache) Lookup(track models.Track) (models.ResolvedTrack, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	index, ok := c.byKey[track.Key()]
	if !ok {
		return models.ResolvedTrack{}, false
	}
	return c.entries[index], true
}

// Record stores a resolution. Entries whose identity or video ID is
// already cached are ignored.
func (c *TrackCache) Record(resolved models.ResolvedTrack) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.add(resolved)
}

func (c *TrackCache) add(resolved models.ResolvedTrack) {
	if resolved.VideoID == "" {
		return
	}
	if _, ok := c.byKey[resolved.Key()]; ok {
		return
	}
	if c.videoIDs[resolved.VideoID] {
		return
	}

	c.byKey[resolved.Key()] = len(c.entries)
	c.videoIDs[resolved.VideoID] = true
	c.entries = append(c.entries, resolved)
}

// Flush writes the cache back to disk, sorted by primary artist for a
// stable, diffable file. The write goes through a temp file in the same
// directory and an atomic rename.
func (c *TrackCache) Flush() error {
	c.mu.RLock()
	entries := c.sorted()
	c.mu.RUnlock()

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode track cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write track cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp cache file: %w", err)
	}

	if err := os.Rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace track cache: %w", err)
	}

	return nil
}

// Clear empties the in-memory cache and removes the cache file.
func (c *TrackCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = nil
	c.byKey = make(map[string]int)
	c.videoIDs = make(map[string]bool)

	if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove track cache: %w", err)
	}
	return nil
}

// Entries returns a sorted copy of the cached resolutions.
func (c *TrackCache) Entries() []models.ResolvedTrack {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.sorted()
}

// Len returns the number of cached resolutions.
func (c *TrackCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

func (c *TrackCache) sorted() []models.ResolvedTrack {
	entries := make([]models.ResolvedTrack, len(c.entries))
	copy(entries, c.entries)

	sort.SliceStable(entries, func(a, b int) bool {
		return strings.ToLower(primaryArtist(entries[a])) < strings.ToLower(primaryArtist(entries[b]))
	})

	return entries
}

func primaryArtist(resolved models.ResolvedTrack) string {
	if len(resolved.Artists) == 0 {
		return ""
	}
	return string(resolved.Artists[0])
}
