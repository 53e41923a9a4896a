// Package services implements the HTTP clients for the three external
// systems the transfer pipeline touches.
//
// # Spotify
//
// [SpotifyService] exports the user's library over the Spotify Web API.
// It authenticates with OAuth2 and pages through saved tracks, playlists,
// and playlist items, converting each row to a [models.Track].
//
// The [oauth2.Client] automatically refreshes expired tokens using the
// refresh token, which is persisted between runs.
//
// # YouTube Music
//
// [YTMusicService] searches the internal youtubei API that the YouTube
// Music web player uses. No account is required: requests carry the web
// player's anonymous API key and a WEB_REMIX client context. Responses are
// deeply nested renderer trees, which [YTMusicService.Search] flattens into
// a [SearchResult] of songs and videos.
//
// # Musi
//
// [MusiService] uploads the resolved library to Musi's backup endpoint and
// returns the restore code the user enters in the app.
//
// # Error Handling
//
// Services use typed errors from the shared package where a caller can act
// on the distinction:
//   - [shared.ErrNotAuthenticated] : no stored token, run setup first
//   - [shared.ErrAPIRequest] : HTTP request failed
//   - [SearchError] : the youtubei backend rejected a search
//   - [ErrNoOverlay] : a search result carried no playable video id
package services
