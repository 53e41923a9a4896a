package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hexiro/spotify-to-musi/internal/shared"
)

// ErrEmptyArtists is returned when a track is constructed without any artists.
var ErrEmptyArtists = errors.New("track has no artists")

// Artist is a single credited artist name.
type Artist string

// Track is a song from the source library. Name is normalized at
// construction so equivalent titles compare equal.
type Track struct {
	Name       string   `json:"name"`
	Duration   int      `json:"duration"`
	Artists    []Artist `json:"artists"`
	AlbumName  string   `json:"album_name,omitempty"`
	IsExplicit bool     `json:"is_explicit,omitempty"`
}

// NewTrack builds a Track with a normalized name. The album name is dropped
// when it duplicates the track name, which is how singles are exported.
func NewTrack(name string, duration int, artists []Artist, albumName string, explicit bool) (Track, error) {
	if len(artists) == 0 {
		return Track{}, fmt.Errorf("%w: %q", ErrEmptyArtists, name)
	}

	normalized := shared.NormalizeTitle(name)
	if albumName == normalized || albumName == name {
		albumName = ""
	}

	return Track{
		Name:       normalized,
		Duration:   duration,
		Artists:    artists,
		AlbumName:  albumName,
		IsExplicit: explicit,
	}, nil
}

// PrimaryArtist returns the first credited artist.
func (t Track) PrimaryArtist() Artist {
	return t.Artists[0]
}

// SecondaryArtists returns every artist after the first.
func (t Track) SecondaryArtists() []Artist {
	if len(t.Artists) <= 1 {
		return nil
	}
	return t.Artists[1:]
}

// FeaturingText renders the secondary artists as a " (feat. A & B)" suffix,
// or an empty string for a single-artist track.
func (t Track) FeaturingText() string {
	secondary := t.SecondaryArtists()
	if len(secondary) == 0 {
		return ""
	}

	names := make([]string, len(secondary))
	for i, artist := range secondary {
		names[i] = string(artist)
	}

	return fmt.Sprintf(" (feat. %s)", strings.Join(names, " & "))
}

// Query returns the search query sent to YouTube Music for this track.
func (t Track) Query() string {
	return fmt.Sprintf("%s - %s%s", t.PrimaryArtist(), t.Name, t.FeaturingText())
}

// Key returns the track's identity string. Two tracks with the same name,
// duration, and artist sequence are the same track; album and explicitness
// are excluded so alternate releases of one recording collapse together.
func (t Track) Key() string {
	names := make([]string, len(t.Artists))
	for i, artist := range t.Artists {
		names[i] = string(artist)
	}

	return fmt.Sprintf("%s\x1f%d\x1f%s", t.Name, t.Duration, strings.Join(names, "\x1f"))
}

// Playlist is a named, ordered collection of tracks. Identity is the
// source service's playlist ID, so two playlists with the same name stay
// distinct; the cover image is carried for display only.
type Playlist struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	CoverImageURL string  `json:"cover_image_url,omitempty"`
	Tracks        []Track `json:"tracks"`
}

// ResolvedTrack pairs a source track with the YouTube video it resolved to.
// The JSON layout doubles as the on-disk cache entry format.
type ResolvedTrack struct {
	Name            string   `json:"name"`
	Duration        int      `json:"duration"`
	Artists         []Artist `json:"artists"`
	AlbumName       string   `json:"album_name,omitempty"`
	IsExplicit      bool     `json:"is_explicit,omitempty"`
	YouTubeName     string   `json:"youtube_name"`
	YouTubeDuration int      `json:"youtube_duration"`
	YouTubeArtists  []Artist `json:"youtube_artists"`
	VideoID         string   `json:"video_id"`
}

// Source reconstructs the source-side Track this resolution was made for.
func (r ResolvedTrack) Source() Track {
	return Track{
		Name:       r.Name,
		Duration:   r.Duration,
		Artists:    r.Artists,
		AlbumName:  r.AlbumName,
		IsExplicit: r.IsExplicit,
	}
}

// Key returns the identity of the source track.
func (r ResolvedTrack) Key() string {
	return r.Source().Key()
}

// ResolvedPlaylist is a playlist whose tracks survived resolution, in
// source order. Tracks that failed to resolve are absent.
type ResolvedPlaylist struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	CoverImageURL string          `json:"cover_image_url,omitempty"`
	Tracks        []ResolvedTrack `json:"tracks"`
}

// TransferRecord summarizes one completed transfer run for the history
// database.
type TransferRecord struct {
	ID               string
	StartedAt        time.Time
	CompletedAt      time.Time
	TotalTracks      int
	ResolvedTracks   int
	UnresolvedTracks int
	CachedTracks     int
	Playlists        int
	BackupCode       string
}
