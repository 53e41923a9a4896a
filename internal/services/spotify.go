// Spotify Web API client.
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"regexp"

	"github.com/hexiro/spotify-to-musi/internal/models"
	"github.com/hexiro/spotify-to-musi/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	spotifyPageLimit = 50
)

var spotifyPlaylistIDRegex = regexp.MustCompile(`^(?:https?://open\.spotify\.com/playlist/|spotify:playlist:)([A-Za-z0-9]+)`)

// ParsePlaylistID extracts the playlist id from a share URL or URI. Inputs
// that match neither form are returned unchanged and treated as bare ids.
func ParsePlaylistID(input string) string {
	if match := spotifyPlaylistIDRegex.FindStringSubmatch(input); match != nil {
		return match[1]
	}
	return input
}

// SpotifyCredentials are the OAuth client credentials stored by setup.
type SpotifyCredentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// LoadSpotifyCredentials reads stored client credentials from the app data
// directory. Returns shared.ErrMissingCredentials when setup has not run.
func LoadSpotifyCredentials() (*SpotifyCredentials, error) {
	path, err := shared.CredentialsPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, shared.ErrMissingCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	var credentials SpotifyCredentials
	if err := json.Unmarshal(data, &credentials); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidCredentials, err)
	}

	if credentials.ClientID == "" || credentials.ClientSecret == "" {
		return nil, shared.ErrInvalidCredentials
	}

	return &credentials, nil
}

// SaveSpotifyCredentials writes client credentials to the app data directory.
func SaveSpotifyCredentials(credentials *SpotifyCredentials) error {
	path, err := shared.CredentialsPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(credentials, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}

	return nil
}

// LoadSpotifyToken reads the cached OAuth token from the app data directory.
func LoadSpotifyToken() (*oauth2.Token, error) {
	path, err := shared.TokenPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, shared.ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}

	return &token, nil
}

// SaveSpotifyToken writes the OAuth token to the app data directory so later
// runs skip the browser flow.
func SaveSpotifyToken(token *oauth2.Token) error {
	path, err := shared.TokenPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}

	return nil
}

// SpotifyArtist represents an artist credit on a track.
type SpotifyArtist struct {
	Name string `json:"name"`
}

// SpotifyAlbum represents the album a track belongs to.
type SpotifyAlbum struct {
	Name string `json:"name"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Explicit   bool            `json:"explicit"`
	IsLocal    bool            `json:"is_local"`
}

// SpotifySavedTrack represents a track saved in the user's library.
type SpotifySavedTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

// SpotifyPaginatedTracks represents a paginated page of saved tracks.
type SpotifyPaginatedTracks struct {
	Items  []SpotifySavedTrack `json:"items"`
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
	Next   *string             `json:"next"`
}

type playlistTrackCount struct {
	Total int `json:"total"`
}

// SpotifyImage represents one entry of a playlist's cover image set.
type SpotifyImage struct {
	URL string `json:"url"`
}

// SpotifySimplePlaylist represents a playlist row in the user's library.
type SpotifySimplePlaylist struct {
	ID     string             `json:"id"`
	Name   string             `json:"name"`
	Images []SpotifyImage     `json:"images"`
	Tracks playlistTrackCount `json:"tracks"`
}

// CoverImageURL returns the playlist's primary cover image, or "" when the
// playlist has none.
func (p SpotifySimplePlaylist) CoverImageURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}

// SpotifyPaginatedPlaylists represents a paginated page of playlists.
type SpotifyPaginatedPlaylists struct {
	Items  []SpotifySimplePlaylist `json:"items"`
	Total  int                     `json:"total"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
	Next   *string                 `json:"next"`
}

// SpotifyPlaylistItem represents a track row within a playlist.
type SpotifyPlaylistItem struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

// SpotifyPaginatedPlaylistItems represents a paginated page of playlist rows.
type SpotifyPaginatedPlaylistItems struct {
	Items  []SpotifyPlaylistItem `json:"items"`
	Total  int                   `json:"total"`
	Offset int                   `json:"offset"`
	Next   *string               `json:"next"`
}

// SpotifyService exports the user's library over the Spotify Web API.
// Uses [oauth2] for authentication with automatic token refresh.
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	baseURL    string
}

// NewSpotifyService creates a Spotify client with the given OAuth2
// credentials. The redirect URI must match the one registered for the app.
func NewSpotifyService(clientID, clientSecret, redirectURI string) (*SpotifyService, error) {
	if clientID == "" || clientSecret == "" {
		return nil, shared.ErrMissingCredentials
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-library-read",
			"playlist-read-private",
			"playlist-read-collaborative",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		baseURL:    spotifyBaseURL,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// AuthURL returns the OAuth2 authorization URL for the browser flow.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token and authenticates the
// client with it.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	s.SetToken(ctx, token)
	return token, nil
}

// SetToken authenticates the client with an existing token. The underlying
// [oauth2.Client] refreshes it transparently when it expires.
func (s *SpotifyService) SetToken(ctx context.Context, token *oauth2.Token) {
	s.token = token
	s.httpClient = s.config.Client(ctx, token)
}

// Authenticated reports whether a token has been set.
func (s *SpotifyService) Authenticated() bool {
	return s.token != nil
}

// doRequest performs an authenticated GET against the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	if s.token == nil {
		return shared.ErrNotAuthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return shared.ErrPlaylistNotFound
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return shared.ErrTokenExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// SavedTracksPage retrieves one page of the user's saved tracks.
func (s *SpotifyService) SavedTracksPage(ctx context.Context, limit, offset int) (*SpotifyPaginatedTracks, error) {
	endpoint := fmt.Sprintf("/me/tracks?limit=%d&offset=%d", limit, offset)

	var page SpotifyPaginatedTracks
	if err := s.doRequest(ctx, endpoint, &page); err != nil {
		return nil, err
	}

	return &page, nil
}

// LikedTracks retrieves every saved track in the user's library, following
// pagination, and converts the rows to domain tracks.
func (s *SpotifyService) LikedTracks(ctx context.Context) ([]models.Track, error) {
	var tracks []models.Track
	offset := 0

	for {
		page, err := s.SavedTracksPage(ctx, spotifyPageLimit, offset)
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if track, ok := convertSpotifyTrack(item.Track); ok {
				tracks = append(tracks, track)
			}
		}

		if page.Next == nil {
			break
		}
		offset += spotifyPageLimit
	}

	return tracks, nil
}

// PlaylistsPage retrieves one page of the user's playlists.
func (s *SpotifyService) PlaylistsPage(ctx context.Context, limit, offset int) (*SpotifyPaginatedPlaylists, error) {
	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)

	var page SpotifyPaginatedPlaylists
	if err := s.doRequest(ctx, endpoint, &page); err != nil {
		return nil, err
	}

	return &page, nil
}

// Playlists retrieves every playlist in the user's library, following
// pagination.
func (s *SpotifyService) Playlists(ctx context.Context) ([]SpotifySimplePlaylist, error) {
	var playlists []SpotifySimplePlaylist
	offset := 0

	for {
		page, err := s.PlaylistsPage(ctx, spotifyPageLimit, offset)
		if err != nil {
			return nil, err
		}

		playlists = append(playlists, page.Items...)

		if page.Next == nil {
			break
		}
		offset += spotifyPageLimit
	}

	return playlists, nil
}

// PlaylistMeta retrieves a playlist's id, name, and track count without its
// rows. Accepts a bare id, share URL, or URI.
func (s *SpotifyService) PlaylistMeta(ctx context.Context, playlistIDOrURL string) (*SpotifySimplePlaylist, error) {
	playlistID := ParsePlaylistID(playlistIDOrURL)
	endpoint := fmt.Sprintf("/playlists/%s?fields=id,name,images,tracks.total", playlistID)

	var playlist SpotifySimplePlaylist
	if err := s.doRequest(ctx, endpoint, &playlist); err != nil {
		return nil, err
	}

	return &playlist, nil
}

// PlaylistItemsPage retrieves one page of a playlist's rows.
func (s *SpotifyService) PlaylistItemsPage(ctx context.Context, playlistID string, limit, offset int) (*SpotifyPaginatedPlaylistItems, error) {
	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", playlistID, limit, offset)

	var page SpotifyPaginatedPlaylistItems
	if err := s.doRequest(ctx, endpoint, &page); err != nil {
		return nil, err
	}

	return &page, nil
}

// ExportPlaylist retrieves a playlist and all of its tracks, following
// pagination. Local files and rows with blank metadata are skipped.
func (s *SpotifyService) ExportPlaylist(ctx context.Context, playlistIDOrURL string) (*models.Playlist, error) {
	meta, err := s.PlaylistMeta(ctx, playlistIDOrURL)
	if err != nil {
		return nil, err
	}

	playlist := &models.Playlist{
		ID:            meta.ID,
		Name:          meta.Name,
		CoverImageURL: meta.CoverImageURL(),
	}

	offset := 0
	for {
		page, err := s.PlaylistItemsPage(ctx, meta.ID, spotifyPageLimit, offset)
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if track, ok := convertSpotifyTrack(item.Track); ok {
				playlist.Tracks = append(playlist.Tracks, track)
			}
		}

		if page.Next == nil {
			break
		}
		offset += spotifyPageLimit
	}

	return playlist, nil
}

// convertSpotifyTrack maps an API track row to a domain track. Local files
// are not on YouTube Music, and the API occasionally returns rows with a
// blank name and artists; both are unsearchable, so they are dropped.
func convertSpotifyTrack(spotifyTrack SpotifyTrack) (models.Track, bool) {
	if spotifyTrack.IsLocal || spotifyTrack.Name == "" {
		return models.Track{}, false
	}

	artists := make([]models.Artist, 0, len(spotifyTrack.Artists))
	for _, artist := range spotifyTrack.Artists {
		if artist.Name != "" {
			artists = append(artists, models.Artist(artist.Name))
		}
	}

	track, err := models.NewTrack(
		spotifyTrack.Name,
		spotifyTrack.DurationMS/1000,
		artists,
		spotifyTrack.Album.Name,
		spotifyTrack.Explicit,
	)
	if err != nil {
		return models.Track{}, false
	}

	return track, true
}
