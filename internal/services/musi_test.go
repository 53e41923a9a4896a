package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hexiro/spotify-to-musi/internal/models"
)

func resolvedTrack(name, artist, videoID string, duration int) models.ResolvedTrack {
	return models.ResolvedTrack{
		Name:            name,
		Duration:        duration,
		Artists:         []models.Artist{models.Artist(artist)},
		YouTubeName:     name,
		YouTubeDuration: duration,
		YouTubeArtists:  []models.Artist{models.Artist(artist)},
		VideoID:         videoID,
	}
}

func TestBuildBackup(t *testing.T) {
	svc := NewMusiService()
	svc.now = func() time.Time { return time.Unix(1767225600, 0) }

	library := []models.ResolvedTrack{
		resolvedTrack("Ivy", "Frank Ocean", "vid-ivy", 249),
		resolvedTrack("Nights", "Frank Ocean", "vid-nights", 307),
	}
	playlists := []models.ResolvedPlaylist{
		{
			ID:            "pl1",
			Name:          "Chill",
			CoverImageURL: "https://i.scdn.co/image/chill-cover",
			Tracks: []models.ResolvedTrack{
				resolvedTrack("Ivy", "Frank Ocean", "vid-ivy", 249),
				resolvedTrack("Do What I Want", "Lil Uzi Vert", "vid-dwiw", 175),
			},
		},
	}

	payload := svc.BuildBackup(library, playlists)

	t.Run("library keeps source order and positions", func(t *testing.T) {
		if payload.Library.Name != "My Library" || payload.Library.OT != "custom" {
			t.Errorf("unexpected library metadata: %+v", payload.Library)
		}
		if payload.Library.Date != 1767225600 {
			t.Errorf("expected backup date, got %d", payload.Library.Date)
		}
		if len(payload.Library.Items) != 2 {
			t.Fatalf("expected 2 library items, got %d", len(payload.Library.Items))
		}
		for i, expected := range []string{"vid-ivy", "vid-nights"} {
			item := payload.Library.Items[i]
			if item.VideoID != expected || item.Pos != i {
				t.Errorf("item %d: expected %s at pos %d, got %+v", i, expected, i, item)
			}
		}
	})

	t.Run("playlists carry the user type", func(t *testing.T) {
		if len(payload.Playlists) != 1 {
			t.Fatalf("expected 1 playlist, got %d", len(payload.Playlists))
		}
		playlist := payload.Playlists[0]
		if playlist.Name != "Chill" || playlist.Type != "user" || playlist.OT != "custom" {
			t.Errorf("unexpected playlist metadata: %+v", playlist)
		}
		if len(playlist.Items) != 2 {
			t.Errorf("expected 2 playlist items, got %d", len(playlist.Items))
		}
		if playlist.CIU != "https://i.scdn.co/image/chill-cover" {
			t.Errorf("expected cover image url as ciu, got %q", playlist.CIU)
		}
	})

	t.Run("ciu is omitted for playlists without a cover", func(t *testing.T) {
		bare := svc.BuildBackup(nil, []models.ResolvedPlaylist{{ID: "pl2", Name: "No Cover"}})

		data, err := json.Marshal(bare.Playlists[0])
		if err != nil {
			t.Fatalf("failed to marshal playlist: %v", err)
		}
		if strings.Contains(string(data), "ciu") {
			t.Errorf("expected ciu key to be omitted, got %s", data)
		}
	})

	t.Run("video metadata is deduplicated by video id", func(t *testing.T) {
		if len(payload.PlaylistItems) != 3 {
			t.Fatalf("expected 3 unique videos, got %d", len(payload.PlaylistItems))
		}

		seen := make(map[string]bool)
		for _, video := range payload.PlaylistItems {
			if seen[video.VideoID] {
				t.Errorf("duplicate video %s", video.VideoID)
			}
			seen[video.VideoID] = true
		}

		if !seen["vid-dwiw"] {
			t.Error("expected playlist-only video to be collected")
		}
	})
}

func TestBackupUUID(t *testing.T) {
	videos := []MusiVideo{
		{VideoID: "b", VideoName: "B", VideoCreator: "Beta", VideoDuration: 2, CreatedDate: 1},
		{VideoID: "a", VideoName: "A", VideoCreator: "Alpha", VideoDuration: 1, CreatedDate: 2},
	}

	first := backupUUID(videos)

	// Creation timestamps and input order must not affect the identity.
	reordered := []MusiVideo{
		{VideoID: "a", VideoName: "A", VideoCreator: "Alpha", VideoDuration: 1, CreatedDate: 99},
		{VideoID: "b", VideoName: "B", VideoCreator: "Beta", VideoDuration: 2, CreatedDate: 98},
	}

	if second := backupUUID(reordered); first != second {
		t.Errorf("expected stable uuid, got %s and %s", first, second)
	}

	changed := []MusiVideo{videos[0]}
	if third := backupUUID(changed); first == third {
		t.Error("expected different video sets to produce different uuids")
	}
}

func TestMusiUpload(t *testing.T) {
	t.Run("posts the handcrafted multipart form", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v4/backups/create" {
				t.Errorf("expected backup path, got %s", r.URL.Path)
			}
			if r.Header.Get("User-Agent") != musiUserAgent {
				t.Errorf("expected Musi user agent, got %q", r.Header.Get("User-Agent"))
			}
			if !strings.Contains(r.Header.Get("Content-Type"), "boundary=Boundary+Musi") {
				t.Errorf("expected Musi boundary, got %q", r.Header.Get("Content-Type"))
			}

			body, _ := io.ReadAll(r.Body)
			text := string(body)
			if !strings.Contains(text, `name="data"`) || !strings.Contains(text, `name="uuid"`) {
				t.Error("expected data and uuid form fields")
			}
			if !strings.Contains(text, `"My Library"`) {
				t.Error("expected library payload in body")
			}

			json.NewEncoder(w).Encode(map[string]any{
				"code":    "k4mq3",
				"diff":    false,
				"success": "backup created!",
			})
		}))
		defer server.Close()

		svc := NewMusiService()
		svc.baseURL = server.URL

		payload := svc.BuildBackup([]models.ResolvedTrack{
			resolvedTrack("Ivy", "Frank Ocean", "vid-ivy", 249),
		}, nil)

		backup, err := svc.Upload(context.Background(), payload)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if backup.Code != "k4mq3" {
			t.Errorf("expected restore code, got %q", backup.Code)
		}
	})

	t.Run("errors on malformed responses", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("<html>bad gateway</html>"))
		}))
		defer server.Close()

		svc := NewMusiService()
		svc.baseURL = server.URL

		payload := svc.BuildBackup(nil, nil)
		if _, err := svc.Upload(context.Background(), payload); err == nil {
			t.Error("expected error for malformed response")
		}
	})
}
